package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/generation"
	"github.com/jonathan/cv-builder/internal/plans"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/rewriting"
	"github.com/jonathan/cv-builder/internal/server/middleware"
	"github.com/jonathan/cv-builder/internal/server/ratelimit"
	"github.com/jonathan/cv-builder/internal/storage"
	"github.com/jonathan/cv-builder/internal/types"
)

// maxBodyBytes bounds request bodies. Documents carry a base64 photo.
const maxBodyBytes = 8 << 20

// TextOptimizer rewrites one field of a document. It reports model failures as errors.
type TextOptimizer interface {
	Optimize(ctx context.Context, text, field string) (string, error)
}

// Config holds server configuration
type Config struct {
	Port               int
	CORSOrigins        []string
	SessionIdleTimeout time.Duration
}

// Deps are the services behind the routes. Optimizer may be nil, in which case
// /api/optimize answers 503. Rewriter backs editor field rewrites and defaults to
// rewriting.Identity.
type Deps struct {
	Store       storage.Store
	Generator   *generation.Service
	Optimizer   TextOptimizer
	Rewriter    rewriting.Gateway
	Templates   *rendering.Registry
	Exports     *export.Pipeline
	Sessions    *editor.Manager
	Auth        middleware.TokenValidator
	RateLimiter *ratelimit.Limiter
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	cfg         Config
	store       storage.Store
	generator   *generation.Service
	optimizer   TextOptimizer
	rewrites    *rewriting.Sequencer
	templates   *rendering.Registry
	exports     *export.Pipeline
	sessions    *editor.Manager
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Generator == nil || deps.Exports == nil || deps.Auth == nil {
		return nil, fmt.Errorf("store, generator, exports and auth are required")
	}
	if deps.Templates == nil {
		deps.Templates = rendering.DefaultRegistry()
	}
	if deps.Sessions == nil {
		deps.Sessions = editor.NewManager()
	}
	if deps.Rewriter == nil {
		deps.Rewriter = rewriting.Identity{}
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}
	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = 2 * time.Hour
	}

	s := &Server{
		cfg:         cfg,
		store:       deps.Store,
		generator:   deps.Generator,
		optimizer:   deps.Optimizer,
		rewrites:    rewriting.NewSequencer(deps.Rewriter),
		templates:   deps.Templates,
		exports:     deps.Exports,
		sessions:    deps.Sessions,
		rateLimiter: deps.RateLimiter,
		validate:    validator.New(),
	}

	auth := middleware.AuthMiddleware(deps.Auth)
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/optimize", s.handleOptimize)

	// Generation
	mux.Handle("POST /api/generate-cv", protected(s.handleGenerate(types.KindCV)))
	mux.Handle("POST /api/generate-letter", protected(s.handleGenerate(types.KindLetter)))
	mux.Handle("POST /api/generate-pdf", protected(s.handleGeneratePDF))

	// Drafts and generated documents
	mux.Handle("GET /api/drafts/{key}", protected(s.handleGetDraft))
	mux.Handle("PUT /api/drafts/{key}", protected(s.handlePutDraft))
	mux.Handle("DELETE /api/drafts/{key}", protected(s.handleDeleteDraft))

	// Editor sessions
	mux.Handle("POST /api/editor/sessions", protected(s.handleCreateSession))
	mux.Handle("GET /api/editor/sessions/{id}", protected(s.handleGetSession))
	mux.Handle("DELETE /api/editor/sessions/{id}", protected(s.handleDeleteSession))
	mux.Handle("PUT /api/editor/sessions/{id}/document", protected(s.handleSetDocument))
	mux.Handle("PATCH /api/editor/sessions/{id}/style", protected(s.handleApplyStyle))
	mux.Handle("POST /api/editor/sessions/{id}/sections", protected(s.handleAddSection))
	mux.Handle("PUT /api/editor/sessions/{id}/sections/{sid}", protected(s.handleUpdateSection))
	mux.Handle("DELETE /api/editor/sessions/{id}/sections/{sid}", protected(s.handleRemoveSection))
	mux.Handle("POST /api/editor/sessions/{id}/sections/{sid}/move", protected(s.handleMoveSection))
	mux.Handle("POST /api/editor/sessions/{id}/sections/{sid}/toggle", protected(s.handleToggleSection))
	mux.Handle("POST /api/editor/sessions/{id}/rewrite", protected(s.handleRewrite))
	mux.Handle("GET /api/editor/sessions/{id}/preview", protected(s.handlePreview))
	mux.Handle("POST /api/editor/sessions/{id}/export", protected(s.handleExportSession))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "X-Archive-Key", "X-Archive-URL"},
	})

	s.handler = s.withRateLimit(s.withLogging(corsHandler.Handler(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // PDF printing can take a while
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	pruneDone := make(chan struct{})
	go s.pruneSessions(pruneDone)

	go func() {
		log.Printf("[server] starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] error: %v", err)
		}
	}()

	<-stop
	log.Println("[server] shutting down...")
	close(pruneDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.store.Close()
	log.Println("[server] stopped")
	return nil
}

// pruneSessions drops idle editor sessions until done is closed.
func (s *Server) pruneSessions(done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.SessionIdleTimeout / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.sessions.Prune(s.cfg.SessionIdleTimeout); n > 0 {
				log.Printf("[server] pruned %d idle editor sessions", n)
			}
		case <-done:
			return
		}
	}
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
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
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status code and writes it. Quota errors carry the counters
// the front-end needs for its upgrade prompt; server errors are logged and hidden.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var limitErr *plans.LimitReachedError
	if errors.As(err, &limitErr) {
		s.jsonResponse(w, http.StatusForbidden, map[string]any{
			"error":   plans.LimitReachedMessage,
			"current": limitErr.Current,
			"limit":   limitErr.Limit,
		})
		return
	}

	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[server] internal error: %v", err)
		s.errorResponse(w, status, "Erreur interne du serveur")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// readBody reads a bounded request body.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	return data, nil
}

// decodeJSON decodes a bounded request body into v and runs struct validation.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := s.readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	if err := s.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// identity returns the authenticated caller, writing a 401 when there is none.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (plans.Identity, bool) {
	id, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return plans.Identity{}, false
	}
	return id, true
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
