package candidates

import (
	"testing"

	"github.com/jonathan/recruiter-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recommend(t *testing.T, name string, index int) types.Candidate {
	t.Helper()
	c, err := types.NewCandidate(types.CandidateFields{Name: name, Mode: types.ModeRecommend, Index: &index, JobApplied: "Backend Engineer"})
	require.NoError(t, err)
	return c
}

func chat(t *testing.T, name, chatID, last string) types.Candidate {
	t.Helper()
	c, err := types.NewCandidate(types.CandidateFields{Name: name, Mode: types.ModeChat, ChatID: &chatID, LastMessage: last})
	require.NoError(t, err)
	return c
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil))
	assert.Empty(t, Merge([]types.Candidate{}))
}

func TestMerge_PreservesFirstSeenOrder(t *testing.T) {
	a := recommend(t, "Alice", 0)
	b := recommend(t, "Bob", 1)
	c := chat(t, "Carol", "c-1", "hi")

	got := Merge([]types.Candidate{a, b}, c, a)
	require.Len(t, got, 3)
	assert.Equal(t, "Alice", got[0].Name)
	assert.Equal(t, "Bob", got[1].Name)
	assert.Equal(t, "Carol", got[2].Name)
}

func TestMerge_IdempotentAgainstExactDuplicates(t *testing.T) {
	A := []types.Candidate{recommend(t, "Alice", 0)}
	B := []types.Candidate{recommend(t, "Bob", 1), chat(t, "Carol", "c-1", "hi")}

	once := Merge(A, B...)
	twice := Merge(once, B...)
	assert.Equal(t, once, twice)
}

func TestMerge_DifferentLastMessageIsDistinct(t *testing.T) {
	first := chat(t, "Carol", "c-1", "hello")
	second := chat(t, "Carol", "c-1", "are you there?")

	got := Merge(nil, first, second)
	assert.Len(t, got, 2)
}

func TestMerge_DuplicatesWithinIncoming(t *testing.T) {
	a := recommend(t, "Alice", 0)
	got := Merge(nil, a, a, a)
	assert.Len(t, got, 1)
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	existing := []types.Candidate{recommend(t, "Alice", 0)}
	_ = Merge(existing, recommend(t, "Bob", 1))
	assert.Len(t, existing, 1)
}

func TestFind(t *testing.T) {
	list := []types.Candidate{recommend(t, "Alice", 0), chat(t, "Carol", "c-1", "hi")}

	found, ok := Find(list, chat(t, "Someone", "c-1", ""))
	require.True(t, ok)
	assert.Equal(t, "Carol", found.Name)

	_, ok = Find(list, recommend(t, "Nobody", 7))
	assert.False(t, ok)
}

func TestFind_PrefersLatestDiscovery(t *testing.T) {
	list := Merge([]types.Candidate{recommend(t, "Li", 0)}, recommend(t, "Wang", 0))
	require.Len(t, list, 2)

	found, ok := Find(list, recommend(t, "", 0))
	require.True(t, ok)
	assert.Equal(t, "Wang", found.Name)
}
