package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/recruiter-agent/internal/db"
	"github.com/jonathan/recruiter-agent/internal/manager"
	"github.com/jonathan/recruiter-agent/internal/server/middleware"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/store"
)

// RunRequest represents the request body for POST /runs
type RunRequest struct {
	Instruction string `json:"instruction,omitempty" validate:"max=4000"`
	Limit       int    `json:"limit,omitempty" validate:"min=0,max=1000"`
}

// RunResponse represents the response for POST /runs
type RunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// owner returns the authenticated owner or writes a 401.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner, err := middleware.GetOwner(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return owner, true
}

// lookupRun resolves the {id} path value to one of the owner's runs.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*runEntry, bool) {
	owner, ok := s.owner(w, r)
	if !ok {
		return nil, false
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID format")
		return nil, false
	}
	entry, err := s.registry.get(owner, runID)
	if err != nil {
		s.errorFrom(w, err)
		return nil, false
	}
	return entry, true
}

// handleCreateRun starts a recruiting run in the background
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validateRequest(req); err != nil {
		s.errorFrom(w, err)
		return
	}

	runID := uuid.New()
	if s.recorder != nil && s.recorder.Connected() {
		id, err := s.recorder.CreateRun(r.Context(), owner, s.webPortal, s.model)
		if err != nil {
			log.Printf("Warning: failed to record run: %v", err)
		} else {
			runID = id
		}
	}

	interrupter := manager.NewChannelInterrupter()
	runner, err := s.newRunner(RunSpec{Owner: owner, Limit: req.Limit, Interrupter: interrupter})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to start run: "+err.Error())
		return
	}

	entry := newRunEntry(runID, owner, req.Instruction, interrupter)
	err = s.registry.start(entry, func(ctx context.Context) (*state.RunState, error) {
		log.Printf("[MANAGER] Starting run %s for %s", runID, owner)
		return runner.Run(ctx, manager.RunInput{
			RunID:       runID.String(),
			Instruction: req.Instruction,
			OnEvent:     entry.publish,
		})
	}, s.recordCompletion)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	s.jsonResponse(w, http.StatusAccepted, RunResponse{
		RunID:  runID.String(),
		Status: db.RunStatusRunning,
	})
}

func (s *Server) validateRequest(req RunRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ErrValidation{Field: fe.Field(), Message: fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// recordCompletion mirrors the final run status to the recorder.
func (s *Server) recordCompletion(e *runEntry, rs *state.RunState, runErr error) {
	if runErr != nil {
		log.Printf("[MANAGER] Run %s failed: %v", e.id, runErr)
	}
	if s.recorder == nil || !s.recorder.Connected() {
		return
	}
	processed := 0
	if rs != nil {
		processed = len(rs.ProcessedCandidates)
	}
	status := db.RunStatusCompleted
	if runErr != nil {
		status = db.RunStatusFailed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.recorder.CompleteRun(ctx, e.id, status, processed, runErr); err != nil {
		log.Printf("Warning: failed to complete run record %s: %v", e.id, err)
	}
}

// handleListRuns lists the caller's runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	runs := s.registry.list(owner)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleGetRun returns one run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, entry.info())
}

// handleResumeRun releases a run suspended by a failed environment check
func (s *Server) handleResumeRun(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if !entry.interrupter.Resume() {
		s.errorFrom(w, &ErrNotInterrupted{RunID: entry.id.String()})
		return
	}
	log.Printf("[MANAGER] Run %s resumed by operator", entry.id)
	s.jsonResponse(w, http.StatusOK, RunResponse{RunID: entry.id.String(), Status: db.RunStatusRunning})
}

// handleRunEvents streams run progress via SSE. Past events are replayed first.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	history, events, unsubscribe := entry.subscribe()
	defer unsubscribe()

	for _, ev := range history {
		if err := sse.WriteEvent(string(ev.Type), ev); err != nil {
			return
		}
	}
	for {
		select {
		case ev, open := <-events:
			if !open {
				info := entry.info()
				if info.Error != "" {
					sse.WriteError(info.Error)
				}
				sse.WriteComplete(info.RunID, info.Status)
				return
			}
			if err := sse.WriteEvent(string(ev.Type), ev); err != nil {
				log.Printf("Error writing SSE event: %v", err)
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// handleListSessions lists the caller's recruiter sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	sessions, err := s.sessions.List(r.Context(), store.RecruiterNamespace(owner))
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Session store error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// handleGetSession returns a stored recruiter session by thread key (chat_id)
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")
	sess, err := s.sessions.Get(r.Context(), store.RecruiterNamespace(owner), key)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Session store error: "+err.Error())
		return
	}
	if sess == nil {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}
