package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/store"
)

// SessionStore is the Postgres store.SessionStore.
type SessionStore struct {
	db *DB
}

// Sessions returns the session store backed by db.
func (db *DB) Sessions() *SessionStore {
	return &SessionStore{db: db}
}

// Get returns the stored session, or nil when absent.
func (s *SessionStore) Get(ctx context.Context, ns store.Namespace, key string) (*state.SessionState, error) {
	var data []byte
	var version int64
	err := s.db.pool.QueryRow(ctx,
		`SELECT state, version FROM recruiter_sessions WHERE agent = $1 AND owner = $2 AND key = $3`,
		ns.Agent, ns.Owner, key,
	).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session %s: %w", key, err)
	}

	var sess state.SessionState
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", key, err)
	}
	sess.Version = version
	return &sess, nil
}

// Put writes sess when the stored version still equals sess.Version.
func (s *SessionStore) Put(ctx context.Context, ns store.Namespace, key string, sess *state.SessionState) error {
	next := sess.Clone()
	next.Version = sess.Version + 1
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", key, err)
	}

	var query string
	var args []any
	if sess.Version == 0 {
		query = `INSERT INTO recruiter_sessions (agent, owner, key, state, version)
		 VALUES ($1, $2, $3, $4, 1)
		 ON CONFLICT (agent, owner, key) DO NOTHING`
		args = []any{ns.Agent, ns.Owner, key, data}
	} else {
		query = `UPDATE recruiter_sessions SET state = $4, version = version + 1, updated_at = NOW()
		 WHERE agent = $1 AND owner = $2 AND key = $3 AND version = $5`
		args = []any{ns.Agent, ns.Owner, key, data, sess.Version}
	}

	tag, err := s.db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to put session %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s, write based on version %d", store.ErrVersionConflict, ns, key, sess.Version)
	}

	sess.Version = next.Version
	return nil
}

// List returns the sessions in ns, most recently updated first.
func (s *SessionStore) List(ctx context.Context, ns store.Namespace) ([]store.SessionSummary, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT key, state, version, updated_at FROM recruiter_sessions
		 WHERE agent = $1 AND owner = $2 ORDER BY updated_at DESC, key`,
		ns.Agent, ns.Owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []store.SessionSummary
	for rows.Next() {
		var key string
		var data []byte
		var version int64
		var updatedAt time.Time
		if err := rows.Scan(&key, &data, &version, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		var sess state.SessionState
		if err := json.Unmarshal(data, &sess); err != nil {
			return nil, fmt.Errorf("failed to decode session %s: %w", key, err)
		}
		sess.Version = version
		out = append(out, store.Summarize(key, &sess, updatedAt))
	}
	return out, rows.Err()
}
