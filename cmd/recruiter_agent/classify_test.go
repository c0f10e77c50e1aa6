package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"below chat", []string{"classify", "5.9"}, "PASS"},
		{"chat boundary", []string{"classify", "6"}, "CHAT"},
		{"borderline boundary", []string{"classify", "7.0"}, "SEEK"},
		{"seek boundary", []string{"classify", "8"}, "CONTACT"},
		{"custom thresholds", []string{"classify", "8", "--chat", "5", "--borderline", "8.5", "--seek", "9"}, "CHAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want+"\n")
		})
	}
}

func TestClassifyCommand_ConfigThresholds(t *testing.T) {
	path := writeConfig(t, `{"chat_threshold": 3, "borderline_threshold": 4, "seek_threshold": 5}`)

	out, err := executeCommand(t, "classify", "4.5", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "SEEK")

	out, err = executeCommand(t, "classify", "4.5", "--config", path, "--seek", "4.2")
	require.NoError(t, err)
	assert.Contains(t, out, "CONTACT")
}

func TestClassifyCommand_Errors(t *testing.T) {
	_, err := executeCommand(t, "classify", "high")
	assert.ErrorContains(t, err, "invalid score")

	_, err = executeCommand(t, "classify", "7", "--chat", "9")
	assert.ErrorContains(t, err, "chat < borderline < seek")

	_, err = executeCommand(t, "classify")
	assert.Error(t, err)
}
