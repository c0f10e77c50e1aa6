package prompts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(ManagerFile, "system")
	require.NoError(t, err)
	assert.Contains(t, prompt, "dispatch_candidate")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(RecruiterFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestFormat(t *testing.T) {
	got := Format("Hi {{.Name}}, {{.Name}} from {{.Team}}", map[string]string{"Name": "Ann"})
	assert.Equal(t, "Hi Ann, Ann from {{.Team}}", got)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, Placeholders("{{.B}} {{.A}} {{.B}}"))
	assert.Empty(t, Placeholders("no placeholders"))
}

func TestRender(t *testing.T) {
	ClearCache()

	out, err := Render(ManagerFile, "already_processed", map[string]string{"Candidate": "Ann"})
	require.NoError(t, err)
	assert.Contains(t, out, "already processed")
	assert.Contains(t, out, "do not resubmit")

	_, err = Render(ManagerFile, "already_processed", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Candidate")
}

// Every embedded file must be valid JSON with non-empty prompts.
func TestEmbeddedFiles(t *testing.T) {
	for _, name := range []string{ManagerFile, RecruiterFile} {
		data, err := promptFiles.ReadFile(name)
		require.NoError(t, err)
		var prompts map[string]string
		require.NoError(t, json.Unmarshal(data, &prompts), name)
		for key, v := range prompts {
			assert.NotEmpty(t, v, "%s/%s", name, key)
		}
	}
}
