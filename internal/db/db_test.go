package db

import (
	"strings"
	"testing"

	"github.com/jonathan/recruiter-agent/internal/fetch"
	"github.com/jonathan/recruiter-agent/internal/store"
	"github.com/stretchr/testify/assert"
)

// Compile-time checks that the Postgres types satisfy the store interfaces.
var (
	_ store.SessionStore   = (*SessionStore)(nil)
	_ store.CandidateStore = (*CandidateStore)(nil)
	_ fetch.Cache          = (*PageCache)(nil)
)

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"recruiting_runs", "recruiter_sessions", "processed_candidates", "resume_pages"} {
		assert.True(t, strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS "+table), "schema should create %s", table)
	}
}

func TestRunType(t *testing.T) {
	run := Run{
		Owner:  "alice",
		Status: RunStatusRunning,
	}

	assert.Equal(t, "alice", run.Owner)
	assert.Equal(t, "running", run.Status)
	assert.Nil(t, run.CompletedAt)
	assert.Nil(t, run.Error)
}

func TestConnected_NilPool(t *testing.T) {
	var db *DB
	assert.False(t, db.Connected())
	assert.False(t, (&DB{}).Connected())
	assert.False(t, (&DB{}).Candidates().Connected())
}
