package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/recruiter-agent/internal/types"
)

// CandidateStore is the Postgres store.CandidateStore.
type CandidateStore struct {
	db *DB
}

// Candidates returns the processed-candidate store backed by db.
func (db *DB) Candidates() *CandidateStore {
	return &CandidateStore{db: db}
}

// Connected reports whether the database is reachable.
func (s *CandidateStore) Connected() bool {
	return s.db.Connected()
}

// RecordProcessed appends an outcome record for owner.
func (s *CandidateStore) RecordProcessed(ctx context.Context, owner, runID string, p types.ProcessedCandidate) error {
	record, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode processed candidate: %w", err)
	}
	var overall *float64
	if p.Analysis != nil {
		overall = &p.Analysis.Overall
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO processed_candidates (owner, run_id, thread_key, stage, overall, record, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		owner, runID, p.Candidate.ThreadKey(), string(p.Stage), overall, record, p.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record processed candidate: %w", err)
	}
	return nil
}

// ListProcessed returns owner's newest records first. A non-positive limit returns all.
func (s *CandidateStore) ListProcessed(ctx context.Context, owner string, limit int) ([]types.ProcessedCandidate, error) {
	query := `SELECT record FROM processed_candidates WHERE owner = $1 ORDER BY processed_at DESC`
	args := []any{owner}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed candidates: %w", err)
	}
	defer rows.Close()

	var out []types.ProcessedCandidate
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan processed candidate: %w", err)
		}
		var p types.ProcessedCandidate
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode processed candidate: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
