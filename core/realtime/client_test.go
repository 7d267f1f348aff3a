package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/caretone/intake-core/core/tools"
	"github.com/gorilla/websocket"
)

func startFakeAgent(t *testing.T, handler func(r *http.Request, ws *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade connection: %v", err)
			return
		}
		defer ws.Close()
		handler(r, ws)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readJSON(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	var msg map[string]any
	if err := ws.ReadJSON(&msg); err != nil {
		t.Errorf("failed to read message: %v", err)
		return nil
	}
	return msg
}

func sessionCreatedMsg() map[string]any {
	return map[string]any{"type": "session.created", "session": map[string]any{"id": "sess_1"}}
}

func TestDialConfiguresSession(t *testing.T) {
	updates := make(chan map[string]any, 1)
	url := startFakeAgent(t, func(r *http.Request, ws *websocket.Conn) {
		if got := r.URL.Query().Get("model"); got != DefaultModel {
			t.Errorf("expected model query %q, got %q", DefaultModel, got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		if err := ws.WriteJSON(sessionCreatedMsg()); err != nil {
			t.Errorf("failed to send session.created: %v", err)
			return
		}
		updates <- readJSON(t, ws)
		<-time.After(50 * time.Millisecond)
	})

	conn, err := Dial(context.Background(), Config{
		URL:          url,
		APIKey:       "test-key",
		Instructions: "you are an intake nurse",
		Tools:        tools.Definitions(),
	})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	if conn.State() != StateActive {
		t.Fatalf("expected active state, got %q", conn.State())
	}

	update := <-updates
	if update["type"] != "session.update" {
		t.Fatalf("expected session.update, got %v", update["type"])
	}
	session, ok := update["session"].(map[string]any)
	if !ok {
		t.Fatalf("expected session object, got %v", update["session"])
	}
	if session["type"] != "realtime" {
		t.Fatalf("expected realtime session type, got %v", session["type"])
	}
	if session["model"] != DefaultModel {
		t.Fatalf("expected model %q, got %v", DefaultModel, session["model"])
	}
	if session["instructions"] != "you are an intake nurse" {
		t.Fatalf("expected instructions to be installed, got %v", session["instructions"])
	}
	declared, ok := session["tools"].([]any)
	if !ok || len(declared) != len(tools.Names()) {
		t.Fatalf("expected %d declared tools, got %v", len(tools.Names()), session["tools"])
	}
	audio, ok := session["audio"].(map[string]any)
	if !ok {
		t.Fatalf("expected audio config, got %v", session["audio"])
	}
	output, _ := audio["output"].(map[string]any)
	if output["voice"] != DefaultVoice {
		t.Fatalf("expected voice %q, got %v", DefaultVoice, output["voice"])
	}
}

func TestDialFailsOnErrorEvent(t *testing.T) {
	url := startFakeAgent(t, func(_ *http.Request, ws *websocket.Conn) {
		_ = ws.WriteJSON(map[string]any{
			"type":  "error",
			"error": map[string]any{"message": "invalid api key"},
		})
	})

	if _, err := Dial(context.Background(), Config{URL: url, APIKey: "bad-key"}); err == nil {
		t.Fatalf("expected dial to fail on error event")
	}
}

func TestDialRequiresAPIKey(t *testing.T) {
	if _, err := Dial(context.Background(), Config{URL: "ws://unused"}); err == nil {
		t.Fatalf("expected dial to fail without api key")
	}
}

func TestAttachConfiguresAndTriggersGreeting(t *testing.T) {
	received := make(chan []string, 1)
	url := startFakeAgent(t, func(r *http.Request, ws *websocket.Conn) {
		if got := r.URL.Query().Get("call_id"); got != "rtc_123" {
			t.Errorf("expected call_id rtc_123, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer eph-key" {
			t.Errorf("expected ephemeral bearer auth, got %q", got)
		}
		var types []string
		for range 2 {
			msg := readJSON(t, ws)
			if msg == nil {
				return
			}
			types = append(types, msg["type"].(string))
		}
		received <- types
	})

	conn, err := Attach(context.Background(), Config{URL: url, APIKey: "main-key"}, "rtc_123", "eph-key")
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	defer conn.Close()

	types := <-received
	if types[0] != "session.update" || types[1] != "response.create" {
		t.Fatalf("expected configuration then greeting trigger, got %v", types)
	}
}

func TestAttachFallsBackToAPIKey(t *testing.T) {
	url := startFakeAgent(t, func(r *http.Request, ws *websocket.Conn) {
		if got := r.Header.Get("Authorization"); got != "Bearer main-key" {
			t.Errorf("expected fallback to main api key, got %q", got)
		}
		readJSON(t, ws)
		readJSON(t, ws)
	})

	conn, err := Attach(context.Background(), Config{URL: url, APIKey: "main-key"}, "rtc_456", "")
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	_ = conn.Close()
}

type recordingHandler struct {
	types []string
}

func (h *recordingHandler) HandleEvent(_ context.Context, eventType string, _ []byte) error {
	h.types = append(h.types, eventType)
	return nil
}

func TestRunDeliversEventsInArrivalOrder(t *testing.T) {
	url := startFakeAgent(t, func(_ *http.Request, ws *websocket.Conn) {
		_ = ws.WriteJSON(sessionCreatedMsg())
		readJSON(t, ws) // session.update
		_ = ws.WriteJSON(map[string]any{"type": "session.updated"})
		_ = ws.WriteJSON(map[string]any{
			"type":       "conversation.item.input_audio_transcription.completed",
			"transcript": "hello",
		})
		_ = ws.WriteJSON(map[string]any{"type": "response.output_text.done", "text": "hi"})
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	conn, err := Dial(context.Background(), Config{URL: url, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	handler := &recordingHandler{}
	if err := conn.Run(context.Background(), handler); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}

	want := []string{
		"session.updated",
		"conversation.item.input_audio_transcription.completed",
		"response.output_text.done",
	}
	if len(handler.types) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), handler.types)
	}
	for i := range want {
		if handler.types[i] != want[i] {
			t.Fatalf("expected event order %v, got %v", want, handler.types)
		}
	}
}

func TestRunReleasesWatcherWithoutCancellation(t *testing.T) {
	url := startFakeAgent(t, func(_ *http.Request, ws *websocket.Conn) {
		_ = ws.WriteJSON(sessionCreatedMsg())
		readJSON(t, ws) // session.update
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	conn, err := Dial(context.Background(), Config{URL: url, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	if err := conn.Run(context.Background(), &recordingHandler{}); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
	_ = conn.Close()

	// Background contexts are never cancelled; the watcher must still
	// exit once the connection is closed.
	deadline := time.Now().Add(2 * time.Second)
	buf := make([]byte, 1<<20)
	for {
		n := runtime.Stack(buf, true)
		if !strings.Contains(string(buf[:n]), "(*Conn).Run.func") {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected run watcher goroutine to exit after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSendUserMessageWritesItemThenTrigger(t *testing.T) {
	received := make(chan map[string]any, 3)
	url := startFakeAgent(t, func(_ *http.Request, ws *websocket.Conn) {
		_ = ws.WriteJSON(sessionCreatedMsg())
		for range 3 {
			msg := readJSON(t, ws)
			if msg == nil {
				return
			}
			received <- msg
		}
	})

	conn, err := Dial(context.Background(), Config{URL: url, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	<-received // session.update
	if err := conn.SendUserMessage("I live alone"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	item := <-received
	if item["type"] != "conversation.item.create" {
		t.Fatalf("expected conversation.item.create first, got %v", item["type"])
	}
	payload, _ := item["item"].(map[string]any)
	if payload["role"] != "user" {
		t.Fatalf("expected user role, got %v", payload["role"])
	}
	content, _ := payload["content"].([]any)
	if len(content) != 1 {
		t.Fatalf("expected single content part, got %v", payload["content"])
	}
	part, _ := content[0].(map[string]any)
	if part["type"] != "input_text" || part["text"] != "I live alone" {
		t.Fatalf("unexpected content part %v", part)
	}

	trigger := <-received
	if trigger["type"] != "response.create" {
		t.Fatalf("expected response.create second, got %v", trigger["type"])
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	url := startFakeAgent(t, func(_ *http.Request, ws *websocket.Conn) {
		_ = ws.WriteJSON(sessionCreatedMsg())
		readJSON(t, ws)
		<-time.After(100 * time.Millisecond)
	})

	conn, err := Dial(context.Background(), Config{URL: url, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	first := conn.Close()
	second := conn.Close()
	if second != first {
		t.Fatalf("expected repeated close to return the first outcome, got %v then %v", first, second)
	}
	if conn.State() != StateClosed {
		t.Fatalf("expected closed state, got %q", conn.State())
	}
	if err := conn.SendUserMessage("late"); err == nil {
		t.Fatalf("expected send on closed channel to fail")
	}
}
