package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/types"
)

type memorySession struct {
	state     *state.SessionState
	updatedAt time.Time
}

// MemorySessionStore is an in-process SessionStore.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[Namespace]map[string]memorySession
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[Namespace]map[string]memorySession)}
}

// Get returns a copy of the stored session, or nil when absent.
func (m *MemorySessionStore) Get(_ context.Context, ns Namespace, key string) (*state.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[ns][key]
	if !ok {
		return nil, nil
	}
	return entry.state.Clone(), nil
}

// Put stores s if its version matches the stored one.
func (m *MemorySessionStore) Put(_ context.Context, ns Namespace, key string, s *state.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.sessions[ns]
	if !ok {
		bucket = make(map[string]memorySession)
		m.sessions[ns] = bucket
	}

	var current int64
	if entry, ok := bucket[key]; ok {
		current = entry.state.Version
	}
	if s.Version != current {
		return fmt.Errorf("%w: %s/%s has version %d, write based on %d", ErrVersionConflict, ns, key, current, s.Version)
	}

	s.Version++
	bucket[key] = memorySession{state: s.Clone(), updatedAt: time.Now()}
	return nil
}

// List returns the sessions in ns, most recently updated first.
func (m *MemorySessionStore) List(_ context.Context, ns Namespace) ([]SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SessionSummary, 0, len(m.sessions[ns]))
	for key, entry := range m.sessions[ns] {
		out = append(out, Summarize(key, entry.state, entry.updatedAt))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// MemoryCandidateStore is an in-process CandidateStore. It is always connected.
type MemoryCandidateStore struct {
	mu        sync.Mutex
	processed map[string][]types.ProcessedCandidate
}

// NewMemoryCandidateStore returns an empty store.
func NewMemoryCandidateStore() *MemoryCandidateStore {
	return &MemoryCandidateStore{processed: make(map[string][]types.ProcessedCandidate)}
}

// Connected implements CandidateStore.
func (m *MemoryCandidateStore) Connected() bool { return true }

// RecordProcessed implements CandidateStore.
func (m *MemoryCandidateStore) RecordProcessed(_ context.Context, owner, _ string, p types.ProcessedCandidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[owner] = append(m.processed[owner], p)
	return nil
}

// ListProcessed returns the newest records first. A non-positive limit returns all.
func (m *MemoryCandidateStore) ListProcessed(_ context.Context, owner string, limit int) ([]types.ProcessedCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.processed[owner]
	out := make([]types.ProcessedCandidate, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Disconnected is a CandidateStore with no backing connection.
type Disconnected struct{}

// Connected implements CandidateStore.
func (Disconnected) Connected() bool { return false }

// RecordProcessed implements CandidateStore.
func (Disconnected) RecordProcessed(context.Context, string, string, types.ProcessedCandidate) error {
	return fmt.Errorf("candidate store is not connected")
}

// ListProcessed implements CandidateStore.
func (Disconnected) ListProcessed(context.Context, string, int) ([]types.ProcessedCandidate, error) {
	return nil, fmt.Errorf("candidate store is not connected")
}
