package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/recruiter-agent/internal/manager"
	"github.com/jonathan/recruiter-agent/internal/server/middleware"
	"github.com/jonathan/recruiter-agent/internal/server/ratelimit"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/store"
)

// Runner executes one recruiting run.
type Runner interface {
	Run(ctx context.Context, in manager.RunInput) (*state.RunState, error)
}

// RunSpec is what the server knows about a run when building its Runner.
type RunSpec struct {
	Owner       string
	Limit       int
	Interrupter manager.Interrupter
}

// RunnerFactory builds a Runner for one run.
type RunnerFactory func(spec RunSpec) (Runner, error)

// RunRecorder persists run records. *db.DB implements it.
type RunRecorder interface {
	Connected() bool
	CreateRun(ctx context.Context, owner, webPortal, model string) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, processed int, runErr error) error
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	tokens      middleware.TokenValidator
	newRunner   RunnerFactory
	sessions    store.SessionStore
	recorder    RunRecorder
	registry    *registry
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
	webPortal   string
	model       string
}

// Config holds server configuration
type Config struct {
	Port      int
	Tokens    middleware.TokenValidator
	NewRunner RunnerFactory
	Sessions  store.SessionStore
	// Recorder is optional; runs are kept in memory only without it.
	Recorder          RunRecorder
	WebPortal         string
	Model             string
	MaxConcurrentRuns int
	// RateLimit defaults to ratelimit.LoadConfig().
	RateLimit *ratelimit.Config
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Tokens == nil:
		return nil, errors.New("server: token validator is required")
	case cfg.NewRunner == nil:
		return nil, errors.New("server: runner factory is required")
	case cfg.Sessions == nil:
		return nil, errors.New("server: session store is required")
	}

	rateConfig := cfg.RateLimit
	if rateConfig == nil {
		rateConfig = ratelimit.LoadConfig()
	}

	s := &Server{
		tokens:      cfg.Tokens,
		newRunner:   cfg.NewRunner,
		sessions:    cfg.Sessions,
		recorder:    cfg.Recorder,
		registry:    newRegistry(cfg.MaxConcurrentRuns),
		rateLimiter: ratelimit.NewLimiter(rateConfig),
		validate:    validator.New(),
		webPortal:   cfg.WebPortal,
		model:       cfg.Model,
	}

	protected := http.NewServeMux()
	protected.HandleFunc("POST /runs", s.handleCreateRun)
	protected.HandleFunc("GET /runs", s.handleListRuns)
	protected.HandleFunc("GET /runs/{id}", s.handleGetRun)
	protected.HandleFunc("GET /runs/{id}/events", s.handleRunEvents)
	protected.HandleFunc("POST /runs/{id}/resume", s.handleResumeRun)
	protected.HandleFunc("GET /sessions", s.handleListSessions)
	protected.HandleFunc("GET /sessions/{key}", s.handleGetSession)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/", middleware.AuthMiddleware(s.tokens)(protected))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // event streams stay open for the whole run
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")
	return s.Shutdown()
}

// Shutdown stops accepting requests and cancels every active run.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.registry.cancel()
	s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.registry.shutdown()

	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients over their limit with 429
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the remote IP. X-Forwarded-For is ignored.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 with the retry hint.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":   "rate_limit_exceeded",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   info.Limit,
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}
	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d RetryAfter=%v", info.Limit, info.RetryAfter)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	database := "disabled"
	if s.recorder != nil {
		database = "disconnected"
		if s.recorder.Connected() {
			database = "connected"
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "database": database})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// errorFrom writes err with the status HTTPStatus maps it to.
func (s *Server) errorFrom(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), err.Error())
}
