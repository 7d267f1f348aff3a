package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/caretone/intake-core/core/call"
	"github.com/caretone/intake-core/core/session"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, "index.html"))
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, filename))
}

type startCallRequest struct {
	CallID       string `json:"call_id"`
	EphemeralKey string `json:"ephemeral_key"`
	PatientName  string `json:"patient_name"`
}

// handleStartCall attaches a sideband channel to the agent session the
// browser already holds and starts consuming its events. A connect
// failure leaves no session registered.
func (s *Server) handleStartCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req startCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CallID == "" {
		writeError(w, http.StatusBadRequest, "call_id is required")
		return
	}
	if _, ok := s.registry.Get(req.CallID); ok {
		writeError(w, http.StatusConflict, "Call already active")
		return
	}

	channel, err := s.attach(ctx, req.CallID, req.EphemeralKey, req.PatientName)
	if err != nil {
		logger.ErrorContext(ctx, "failed to attach sideband channel",
			"call_id", req.CallID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to connect: "+err.Error())
		return
	}

	opts := []call.Option{}
	if req.PatientName != "" {
		opts = append(opts, call.WithPatientName(req.PatientName))
	}
	sess := session.New(call.New(req.CallID, opts...), channel, s.store)

	// Insert is the authoritative duplicate check; the Get above only
	// avoids needless connects.
	if err := s.registry.Insert(sess); err != nil {
		_ = channel.Close()
		writeError(w, http.StatusConflict, "Call already active")
		return
	}

	go func() {
		if err := sess.Run(context.Background()); err != nil {
			logger.Error("session event loop failed", "call_id", req.CallID, "error", err)
		}
		s.registry.Remove(req.CallID)
	}()

	logger.InfoContext(ctx, "sideband attached", "call_id", req.CallID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "call_id": req.CallID})
}

type endCallRequest struct {
	CallID string `json:"call_id"`
}

func (s *Server) handleEndCall(w http.ResponseWriter, r *http.Request) {
	var req endCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, ok := s.registry.Get(req.CallID)
	if !ok {
		writeError(w, http.StatusNotFound, "Call not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if err := sess.Shutdown(ctx); err != nil {
		logger.ErrorContext(ctx, "session shutdown timed out", "call_id", req.CallID, "error", err)
	}
	s.registry.Remove(req.CallID)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type socketMessage struct {
	Type    string         `json:"type"`
	Speaker string         `json:"speaker,omitempty"`
	Text    string         `json:"text,omitempty"`
	Data    *call.Document `json:"data,omitempty"`
}

// handleCallSocket streams transcript and state updates for one call
// to a browser. The socket closes when the session finalizes.
func (s *Server) handleCallSocket(w http.ResponseWriter, r *http.Request) {
	callID := r.PathValue("call_id")
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "failed to upgrade browser socket", "error", err)
		return
	}
	defer ws.Close()

	sess, ok := s.registry.Get(callID)
	if !ok {
		_ = ws.WriteJSON(map[string]string{"error": "Call not found"})
		return
	}

	updates, unsubscribe := sess.Observe()
	defer unsubscribe()

	snapshot := sess.Snapshot()
	doc := snapshot.Document()
	if err := ws.WriteJSON(socketMessage{Type: "state", Data: &doc}); err != nil {
		return
	}
	logger.InfoContext(r.Context(), "browser connected", "call_id", callID)

	// Browser messages are not part of the protocol; the read loop only
	// detects disconnects.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := socketMessage{}
			switch update.Kind {
			case session.UpdateTranscript:
				msg = socketMessage{Type: "transcript", Speaker: update.Entry.Speaker, Text: update.Entry.Text}
			case session.UpdateState:
				state := update.State
				doc := state.Document()
				msg = socketMessage{Type: "state", Data: &doc}
			}
			if err := ws.WriteJSON(msg); err != nil {
				return
			}
		case <-disconnected:
			logger.InfoContext(r.Context(), "browser disconnected", "call_id", callID)
			return
		}
	}
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	callID := r.PathValue("call_id")
	sess, ok := s.registry.Get(callID)
	if !ok {
		writeError(w, http.StatusNotFound, "Call not found")
		return
	}
	snapshot := sess.Snapshot()
	writeJSON(w, http.StatusOK, snapshot.Document())
}
