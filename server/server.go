// Package server exposes the HTTP surface for browser-driven calls:
// session control endpoints, ephemeral credential minting, a state
// streaming websocket, and the static frontend.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/caretone/intake-core/core/config"
	"github.com/caretone/intake-core/core/prompt"
	"github.com/caretone/intake-core/core/realtime"
	"github.com/caretone/intake-core/core/session"
	"github.com/caretone/intake-core/core/store"
	"github.com/caretone/intake-core/core/tools"
	"github.com/gorilla/websocket"
)

// AttachFunc opens a channel to an existing agent session. Tests
// substitute fakes; the default wraps realtime.Attach.
type AttachFunc func(ctx context.Context, callID, ephemeralKey, patientName string) (session.Channel, error)

// Server routes browser traffic for live intake calls.
type Server struct {
	cfg      config.Config
	registry *session.Registry
	store    store.Store
	attach   AttachFunc
	secrets  *secretsClient
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithAttachFunc overrides how sideband channels are opened.
func WithAttachFunc(attach AttachFunc) Option {
	return func(s *Server) { s.attach = attach }
}

// WithStore overrides where call documents are persisted.
func WithStore(st store.Store) Option {
	return func(s *Server) { s.store = st }
}

// New creates a server around the given configuration.
func New(cfg config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		registry: session.NewRegistry(),
		store:    store.NewFileStore(cfg.OutputDir),
		secrets:  newSecretsClient(cfg),
	}
	s.attach = func(ctx context.Context, callID, ephemeralKey, patientName string) (session.Channel, error) {
		rtCfg := cfg.Realtime(prompt.Instructions(patientName), tools.Definitions())
		return realtime.Attach(ctx, rtCfg, callID, ephemeralKey)
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /static/{filename}", s.handleStatic)
	mux.HandleFunc("GET /api/ephemeral-key", s.handleEphemeralKey)
	mux.HandleFunc("POST /api/start-call", s.handleStartCall)
	mux.HandleFunc("POST /api/end-call", s.handleEndCall)
	mux.HandleFunc("GET /api/ws/{call_id}", s.handleCallSocket)
	mux.HandleFunc("GET /api/output/{call_id}", s.handleOutput)
	s.mux = mux
	return s
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return recoverMiddleware(accessLogMiddleware(s.mux))
}

// Registry exposes the live session registry, mainly for tests and
// shutdown handling.
func (s *Server) Registry() *session.Registry {
	return s.registry
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
