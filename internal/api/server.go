// Package api exposes chat sessions over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/core"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/logging"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service"
	"github.com/hugo-lorenzo-mato/jira-agent/internal/service/agent"
)

// DispatcherFactory builds the dispatcher for a new session.
type DispatcherFactory func(sessionID string) *agent.Dispatcher

// Server serves chat sessions. Each session has its own dispatcher, so
// turns within a session are serialized while sessions run independently.
type Server struct {
	router        chi.Router
	newDispatcher DispatcherFactory
	tools         []service.ToolInfo
	metrics       *service.MetricsCollector
	logger        *logging.Logger
	corsOrigins   []string
	maxSessions   int

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	dispatcher *agent.Dispatcher
	createdAt  time.Time
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTools lists the tools reported by GET /api/v1/tools.
func WithTools(tools []service.ToolInfo) ServerOption {
	return func(s *Server) {
		s.tools = tools
	}
}

// WithMetrics exposes turn metrics on GET /api/v1/metrics.
func WithMetrics(m *service.MetricsCollector) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithMaxSessions caps concurrently open sessions (0 = unlimited).
func WithMaxSessions(n int) ServerOption {
	return func(s *Server) {
		s.maxSessions = n
	}
}

// NewServer creates a new API server.
func NewServer(factory DispatcherFactory, opts ...ServerOption) *Server {
	s := &Server{
		newDispatcher: factory,
		logger:        logging.NewNop(),
		corsOrigins:   []string{"*"},
		sessions:      make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tools", s.handleListTools)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/turns", s.handleTurn)
			})
		})
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	out := make([]ToolResponse, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, ToolResponse{Name: t.Name, Description: t.Description})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondError(w, http.StatusNotFound, "metrics are not enabled")
		return
	}
	respondJSON(w, http.StatusOK, MetricsResponse{
		Turns: s.metrics.GetTurnMetrics(),
		Tools: s.metrics.GetToolMetrics(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		respondDomainError(w, core.ErrState("TOO_MANY_SESSIONS", "too many open sessions"))
		return
	}
	id := uuid.NewString()
	sess := &session{dispatcher: s.newDispatcher(id), createdAt: time.Now().UTC()}
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.WithSession(id).Info("session opened")
	respondJSON(w, http.StatusCreated, s.sessionResponse(id, sess, false))
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	out := make([]SessionResponse, 0, len(s.sessions))
	for id, sess := range s.sessions {
		out = append(out, s.sessionResponse(id, sess, false))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, err := s.lookup(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionResponse(id, sess, true))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		respondDomainError(w, core.ErrNotFound("session", id))
		return
	}
	s.logger.WithSession(id).Info("session closed")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.lookup(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDomainError(w, core.ErrFormat("INVALID_BODY", "invalid request body: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondDomainError(w, core.ErrValidation(core.CodeMissingFields, "message is required"))
		return
	}

	res := sess.dispatcher.Turn(r.Context(), req.Message)
	respondJSON(w, http.StatusOK, toTurnResponse(res))
}

func (s *Server) lookup(r *http.Request) (string, *session, error) {
	id := chi.URLParam(r, "sessionID")
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return id, nil, core.ErrNotFound("session", id)
	}
	return id, sess, nil
}

func (s *Server) sessionResponse(id string, sess *session, withMessages bool) SessionResponse {
	t := sess.dispatcher.Transcript()
	resp := SessionResponse{
		ID:           id,
		CreatedAt:    sess.createdAt,
		State:        sess.dispatcher.State().String(),
		MessageCount: t.Len(),
	}
	if withMessages {
		resp.Messages = t.Messages()
	}
	return resp
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
