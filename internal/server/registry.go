package server

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/recruiter-agent/internal/db"
	"github.com/jonathan/recruiter-agent/internal/manager"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/types"
)

// subscriberBuffer is the per-client event backlog before events are dropped.
const subscriberBuffer = 64

// RunInfo is the API view of a run.
type RunInfo struct {
	RunID       string                     `json:"run_id"`
	Owner       string                     `json:"owner"`
	Status      string                     `json:"status"`
	Instruction string                     `json:"instruction,omitempty"`
	State       manager.State              `json:"state,omitempty"`
	Interrupt   string                     `json:"interrupt,omitempty"`
	Candidates  int                        `json:"candidates"`
	Messages    int                        `json:"messages"`
	Processed   []types.ProcessedCandidate `json:"processed"`
	Error       string                     `json:"error,omitempty"`
	StartedAt   time.Time                  `json:"started_at"`
	CompletedAt *time.Time                 `json:"completed_at,omitempty"`
}

// runEntry tracks one background run and fans its events out to SSE clients.
type runEntry struct {
	id          uuid.UUID
	owner       string
	instruction string
	interrupter *manager.ChannelInterrupter

	mu          sync.Mutex
	status      string
	current     manager.State
	processed   []types.ProcessedCandidate
	messages    int
	candidates  int
	err         string
	startedAt   time.Time
	completedAt *time.Time
	history     []manager.Event
	subscribers map[chan manager.Event]struct{}
	done        chan struct{}
}

func newRunEntry(id uuid.UUID, owner, instruction string, interrupter *manager.ChannelInterrupter) *runEntry {
	return &runEntry{
		id:          id,
		owner:       owner,
		instruction: instruction,
		interrupter: interrupter,
		status:      db.RunStatusRunning,
		processed:   []types.ProcessedCandidate{},
		startedAt:   time.Now(),
		subscribers: make(map[chan manager.Event]struct{}),
		done:        make(chan struct{}),
	}
}

// publish records e and forwards it to every subscriber without blocking.
func (e *runEntry) publish(ev manager.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Type {
	case manager.EventState:
		e.current = ev.State
	case manager.EventMessage:
		e.messages++
	case manager.EventInterrupt:
		e.status = db.RunStatusInterrupted
	case manager.EventResumed:
		e.status = db.RunStatusRunning
	case manager.EventProcessed:
		if ev.Processed != nil {
			e.processed = append(e.processed, *ev.Processed)
		}
	}

	e.history = append(e.history, ev)
	for ch := range e.subscribers {
		select {
		case ch <- ev:
		default:
			log.Printf("[SSE] Dropping %s event for slow client of run %s", ev.Type, e.id)
		}
	}
}

// subscribe returns the events so far and a channel for the rest. The
// channel is closed when the run finishes.
func (e *runEntry) subscribe() ([]manager.Event, <-chan manager.Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := append([]manager.Event(nil), e.history...)
	ch := make(chan manager.Event, subscriberBuffer)
	select {
	case <-e.done:
		close(ch)
		return history, ch, func() {}
	default:
	}

	e.subscribers[ch] = struct{}{}
	unsubscribe := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
	}
	return history, ch, unsubscribe
}

// finish records the outcome and releases subscribers.
func (e *runEntry) finish(rs *state.RunState, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	e.completedAt = &now
	if rs != nil {
		e.candidates = len(rs.Candidates)
		e.processed = append([]types.ProcessedCandidate{}, rs.ProcessedCandidates...)
	}
	if err != nil {
		e.status = db.RunStatusFailed
		e.err = err.Error()
	} else {
		e.status = db.RunStatusCompleted
	}

	for ch := range e.subscribers {
		close(ch)
		delete(e.subscribers, ch)
	}
	close(e.done)
}

func (e *runEntry) info() RunInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	info := RunInfo{
		RunID:       e.id.String(),
		Owner:       e.owner,
		Status:      e.status,
		Instruction: e.instruction,
		State:       e.current,
		Candidates:  e.candidates,
		Messages:    e.messages,
		Processed:   append([]types.ProcessedCandidate{}, e.processed...),
		Error:       e.err,
		StartedAt:   e.startedAt,
		CompletedAt: e.completedAt,
	}
	if diagnostic, waiting := e.interrupter.Pending(); waiting {
		info.Interrupt = diagnostic
	}
	return info
}

// registry owns the background runs of a server.
type registry struct {
	mu    sync.Mutex
	runs  map[uuid.UUID]*runEntry
	limit int

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

func newRegistry(limit int) *registry {
	ctx, cancel := context.WithCancel(context.Background())
	group := &errgroup.Group{}
	if limit > 0 {
		group.SetLimit(limit)
	}
	return &registry{
		runs:   make(map[uuid.UUID]*runEntry),
		limit:  limit,
		ctx:    ctx,
		cancel: cancel,
		group:  group,
	}
}

// start runs fn in the background. It fails with ErrTooManyRuns when the
// concurrency limit is reached.
func (r *registry) start(e *runEntry, fn func(ctx context.Context) (*state.RunState, error), after func(*runEntry, *state.RunState, error)) error {
	started := r.group.TryGo(func() error {
		rs, err := fn(r.ctx)
		e.finish(rs, err)
		if after != nil {
			after(e, rs, err)
		}
		return nil
	})
	if !started {
		return &ErrTooManyRuns{Limit: r.limit}
	}

	r.mu.Lock()
	r.runs[e.id] = e
	r.mu.Unlock()
	return nil
}

// get returns the owner's run.
func (r *registry) get(owner string, id uuid.UUID) (*runEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.runs[id]
	if !ok || e.owner != owner {
		return nil, &ErrRunNotFound{RunID: id.String()}
	}
	return e, nil
}

// list returns the owner's runs, newest first.
func (r *registry) list(owner string) []RunInfo {
	r.mu.Lock()
	entries := make([]*runEntry, 0, len(r.runs))
	for _, e := range r.runs {
		if e.owner == owner {
			entries = append(entries, e)
		}
	}
	r.mu.Unlock()

	out := make([]RunInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.info())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// shutdown cancels every run and waits for them to return.
func (r *registry) shutdown() {
	r.cancel()
	_ = r.group.Wait()
}
