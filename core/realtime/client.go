// Package realtime manages the bidirectional websocket channel to the
// remote conversational agent: connecting, session configuration, the
// read loop, and outbound message writes.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/caretone/intake-core/core/tools"
	"github.com/gorilla/websocket"
)

const (
	// DefaultURL is the realtime websocket endpoint.
	DefaultURL = "wss://api.openai.com/v1/realtime"
	// DefaultModel is the realtime model a session is created with.
	DefaultModel = "gpt-realtime"
	// DefaultVoice is the audio output voice.
	DefaultVoice = "coral"

	transcriptionModel    = "whisper-1"
	transcriptionLanguage = "en"
)

// State is the lifecycle state of a channel.
type State string

const (
	StateDisconnected       State = "disconnected"
	StateConnecting         State = "connecting"
	StateSessionConfiguring State = "session_configuring"
	StateActive             State = "active"
	StateClosed             State = "closed"
)

// Config carries everything needed to open and configure a channel.
type Config struct {
	// URL is the websocket endpoint; DefaultURL when empty.
	URL string
	// Model selects the agent model; DefaultModel when empty.
	Model string
	// APIKey authenticates direct connections and is the fallback
	// credential for attached ones.
	APIKey string
	// Voice selects the audio output voice; DefaultVoice when empty.
	Voice string
	// Instructions is the system prompt installed on the session.
	Instructions string
	// Tools is the tool set declared to the agent.
	Tools []tools.Definition
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	return c
}

// Conn is one channel to the remote agent. Writes are serialized with
// a mutex; reads happen on a single Run loop.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	stateMu sync.Mutex
	state   State

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}

	config Config
}

// Dial opens a direct connection: a fresh agent session is created,
// acknowledged, and configured before Dial returns.
func Dial(ctx context.Context, config Config) (*Conn, error) {
	ctx, span := tracer.Start(ctx, "dial realtime channel")
	defer span.End()

	config = config.withDefaults()
	if config.APIKey == "" {
		return nil, recordError(span, fmt.Errorf("api key not set"))
	}

	conn := &Conn{state: StateConnecting, config: config, closed: make(chan struct{})}
	ws, err := dialWebsocket(ctx, config.URL, url.Values{"model": {config.Model}}, config.APIKey)
	if err != nil {
		return nil, recordError(span, err)
	}
	conn.ws = ws
	logger.InfoContext(ctx, "connected to realtime channel", "url", config.URL)

	if err := conn.waitForSessionCreated(ctx); err != nil {
		_ = conn.Close()
		return nil, recordError(span, err)
	}
	conn.setState(StateSessionConfiguring)
	if err := conn.configureSession(ctx); err != nil {
		_ = conn.Close()
		return nil, recordError(span, err)
	}
	conn.setState(StateActive)
	return conn, nil
}

// Attach joins an existing agent session by call id, typically one a
// media frontend already holds. The ephemeral key that created the
// session authenticates the attach; the main API key is the fallback.
// The attached session is configured and the opening turn triggered
// before Attach returns.
func Attach(ctx context.Context, config Config, callID, ephemeralKey string) (*Conn, error) {
	ctx, span := tracer.Start(ctx, "attach realtime channel")
	defer span.End()

	config = config.withDefaults()
	key := ephemeralKey
	if key == "" {
		key = config.APIKey
	}
	if key == "" {
		return nil, recordError(span, fmt.Errorf("no credential for attach"))
	}

	conn := &Conn{state: StateConnecting, config: config, closed: make(chan struct{})}
	ws, err := dialWebsocket(ctx, config.URL, url.Values{"call_id": {callID}}, key)
	if err != nil {
		return nil, recordError(span, err)
	}
	conn.ws = ws
	logger.InfoContext(ctx, "attached to realtime channel", "call_id", callID)

	conn.setState(StateSessionConfiguring)
	if err := conn.configureSession(ctx); err != nil {
		_ = conn.Close()
		return nil, recordError(span, err)
	}
	if err := conn.TriggerResponse(); err != nil {
		_ = conn.Close()
		return nil, recordError(span, fmt.Errorf("failed to trigger greeting: %w", err))
	}
	conn.setState(StateActive)
	return conn, nil
}

func dialWebsocket(ctx context.Context, endpoint string, query url.Values, key string) (*websocket.Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid realtime url: %w", err)
	}
	u.RawQuery = query.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(),
		http.Header{"Authorization": {"Bearer " + key}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to realtime api: %w", err)
	}
	return ws, nil
}

// waitForSessionCreated blocks until the session acknowledgment
// arrives. An error event during this window is fatal; anything else
// is skipped.
func (c *Conn) waitForSessionCreated(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("websocket read while awaiting session: %w", err)
		}
		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &envelope); err != nil {
			continue
		}
		switch envelope.Type {
		case EventSessionCreated:
			logger.InfoContext(ctx, "session created")
			return nil
		case EventError:
			var event errorEvent
			_ = json.Unmarshal(msg, &event)
			return fmt.Errorf("session creation failed: %s", string(event.Error))
		}
	}
}

func (c *Conn) configureSession(ctx context.Context) error {
	update := sessionUpdate{
		Type: "session.update",
		Session: sessionConfig{
			Type:         "realtime",
			Model:        c.config.Model,
			Instructions: c.config.Instructions,
			Tools:        c.config.Tools,
			Audio: audioConfig{
				Input: audioInputConfig{
					Transcription: transcriptionConfig{
						Model:    transcriptionModel,
						Language: transcriptionLanguage,
					},
					TurnDetection: turnDetectionConfig{
						Type:              "semantic_vad",
						Eagerness:         "high",
						CreateResponse:    true,
						InterruptResponse: true,
					},
				},
				Output: audioOutputConfig{Voice: c.config.Voice},
			},
		},
	}
	if err := c.sendMessage(update); err != nil {
		return fmt.Errorf("failed to configure session: %w", err)
	}
	logger.InfoContext(ctx, "session configured", "tools", len(c.config.Tools))
	return nil
}

// State reports the current lifecycle state.
func (c *Conn) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Conn) setState(state State) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = state
}

// SendUserMessage injects typed text as completed user input and asks
// the agent to respond to it.
func (c *Conn) SendUserMessage(text string) error {
	if err := c.sendMessage(userMessageItem(text)); err != nil {
		return fmt.Errorf("failed to send user message: %w", err)
	}
	return c.TriggerResponse()
}

// SendToolResult reports one tool invocation's outcome back under its
// call id.
func (c *Conn) SendToolResult(callID, output string) error {
	if err := c.sendMessage(functionCallOutputItem(callID, output)); err != nil {
		return fmt.Errorf("failed to send tool result: %w", err)
	}
	return nil
}

// TriggerResponse asks the agent to produce its next turn.
func (c *Conn) TriggerResponse() error {
	if err := c.sendMessage(responseCreate{Type: "response.create"}); err != nil {
		return fmt.Errorf("failed to trigger response: %w", err)
	}
	return nil
}

func (c *Conn) sendMessage(msg any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.State() == StateClosed {
		return fmt.Errorf("websocket connection closed")
	}
	if err := c.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}

// EventHandler consumes one decoded server event. Run invokes it
// synchronously, so arrival order is processing order.
type EventHandler interface {
	HandleEvent(ctx context.Context, eventType string, data []byte) error
}

// Run is the single consumption loop: it reads events until the
// connection closes or the context is cancelled, handing each one to
// the handler in arrival order. A clean close returns nil.
func (c *Conn) Run(ctx context.Context, handler EventHandler) error {
	// The read loop is the sole consumer; once it exits the channel is
	// unusable, so close it to release the watcher below.
	defer func() { _ = c.Close() }()
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.closed:
		}
	}()

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if c.State() == StateClosed ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.InfoContext(ctx, "realtime channel closed")
				return nil
			}
			return fmt.Errorf("websocket read error: %w", err)
		}

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &envelope); err != nil {
			logger.WarnContext(ctx, "skipping undecodable event", "error", err)
			continue
		}
		if err := handler.HandleEvent(ctx, envelope.Type, msg); err != nil {
			return fmt.Errorf("failed to handle %s event: %w", envelope.Type, err)
		}
	}
}

// Close shuts the channel down exactly once; later calls return the
// first outcome.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.stateMu.Lock()
		c.state = StateClosed
		c.stateMu.Unlock()
		close(c.closed)

		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
