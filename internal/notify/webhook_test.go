package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonathan/recruiter-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactCandidate(t *testing.T) types.ProcessedCandidate {
	t.Helper()
	chatID := "c-42"
	c, err := types.NewCandidate(types.CandidateFields{Name: "Ann", Mode: types.ModeChat, ChatID: &chatID, JobApplied: "Backend Engineer"})
	require.NoError(t, err)
	return types.ProcessedCandidate{
		Candidate: c,
		Stage:     types.StageContact,
		Analysis:  &types.Analysis{Overall: 8.5, Summary: "Strong distributed systems experience"},
	}
}

func TestWebhook_NotifyContact(t *testing.T) {
	var got message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hook := NewWebhook(server.URL, "acme", nil)
	require.NoError(t, hook.NotifyContact(context.Background(), "run-1", contactCandidate(t)))

	assert.Contains(t, got.Text, "Candidate ready for contact: Ann (Backend Engineer)")
	assert.Contains(t, got.Text, "Overall score: 8.5")
	assert.Contains(t, got.Text, "Chat: c-42")
	assert.Contains(t, got.Text, "Owner: acme, run: run-1")
}

func TestWebhook_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer server.Close()

	err := NewWebhook(server.URL, "acme", nil).NotifyContact(context.Background(), "run-1", contactCandidate(t))
	require.Error(t, err)

	var hookErr *Error
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, http.StatusForbidden, hookErr.StatusCode)
	assert.Equal(t, "invalid_token", hookErr.Body)
}

func TestWebhook_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewWebhook(url, "acme", nil).NotifyContact(context.Background(), "run-1", contactCandidate(t))
	var hookErr *Error
	require.ErrorAs(t, err, &hookErr)
	assert.NotNil(t, hookErr.Cause)
}

func TestFormatContact_Minimal(t *testing.T) {
	index := 2
	c, err := types.NewCandidate(types.CandidateFields{Mode: types.ModeRecommend, Index: &index})
	require.NoError(t, err)

	text := FormatContact("", "", types.ProcessedCandidate{Candidate: c, Stage: types.StageContact})
	assert.Equal(t, "Candidate ready for contact: index:2", text)
}
