package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caretone/intake-core/core/call"
	"github.com/caretone/intake-core/core/tools"
)

// resultSender is the outbound half the dispatcher needs: sending tool
// acknowledgments and asking for the agent's next turn.
type resultSender interface {
	SendToolResult(callID, output string) error
	TriggerResponse() error
}

// Notifier observes state the dispatcher derives from events. Both
// callbacks run synchronously inside the consumption loop, so
// notification order matches event arrival order; implementations must
// not block.
type Notifier interface {
	// TranscriptAppended fires once per completed turn.
	TranscriptAppended(entry call.TranscriptEntry)
	// StateChanged fires after a tool invocation mutated the record.
	StateChanged()
}

type noopNotifier struct{}

func (noopNotifier) TranscriptAppended(call.TranscriptEntry) {}
func (noopNotifier) StateChanged()                           {}

// Dispatcher turns the server event stream into call-state mutations:
// completed transcripts are appended, tool invocations are routed and
// acknowledged, deltas and unknown events are dropped.
type Dispatcher struct {
	call     *call.Call
	router   *tools.Router
	sender   resultSender
	notifier Notifier
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithNotifier registers an observer for transcript and state updates.
func WithNotifier(notifier Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.notifier = notifier }
}

// NewDispatcher wires a dispatcher to one call's state and its channel.
func NewDispatcher(c *call.Call, router *tools.Router, sender resultSender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{call: c, router: router, sender: sender, notifier: noopNotifier{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleEvent processes one server event. Only send failures are
// returned as errors; agent-side error events and failed responses are
// logged and the session keeps running.
func (d *Dispatcher) HandleEvent(ctx context.Context, eventType string, data []byte) error {
	switch eventType {
	case EventError:
		var event errorEvent
		_ = json.Unmarshal(data, &event)
		logger.ErrorContext(ctx, "agent error event", "error", string(event.Error))

	case EventSessionUpdated:
		logger.InfoContext(ctx, "session configuration acknowledged")

	case EventInputTranscriptionCompleted:
		var event inputTranscriptionCompletedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			logger.WarnContext(ctx, "skipping undecodable transcription event", "error", err)
			return nil
		}
		if event.Transcript == "" {
			return nil
		}
		d.appendTranscript(ctx, "patient", event.Transcript)

	case EventOutputTextDone:
		var event outputTextDoneEvent
		if err := json.Unmarshal(data, &event); err != nil {
			logger.WarnContext(ctx, "skipping undecodable text event", "error", err)
			return nil
		}
		if event.Text == "" {
			return nil
		}
		d.appendTranscript(ctx, "assistant", event.Text)

	case EventOutputAudioTranscriptDone:
		var event outputAudioTranscriptDoneEvent
		if err := json.Unmarshal(data, &event); err != nil {
			logger.WarnContext(ctx, "skipping undecodable transcript event", "error", err)
			return nil
		}
		if event.Transcript == "" {
			return nil
		}
		d.appendTranscript(ctx, "assistant", event.Transcript)

	case EventFunctionCallArgumentsDone:
		var event functionCallArgumentsDoneEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("undecodable function call event: %w", err)
		}
		return d.handleToolCall(ctx, event)

	case EventResponseDone:
		var event responseDoneEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil
		}
		if event.Response.Status == "failed" {
			logger.ErrorContext(ctx, "agent response failed",
				"details", string(event.Response.StatusDetails))
		}

	case EventOutputTextDelta, EventOutputAudioTranscriptDelta:
		// Streaming fragments; only the completed turn is recorded.

	default:
		logger.DebugContext(ctx, "ignoring event", "type", eventType)
	}
	return nil
}

func (d *Dispatcher) appendTranscript(ctx context.Context, speaker, text string) {
	entry := d.call.AppendTranscript(speaker, text)
	logger.InfoContext(ctx, "transcript turn", "speaker", speaker, "text", text)
	d.notifier.TranscriptAppended(entry)
}

// handleToolCall routes one invocation, acknowledges it under its call
// id, and asks for the agent's next turn unless the tool suppresses
// the continuation.
func (d *Dispatcher) handleToolCall(ctx context.Context, event functionCallArgumentsDoneEvent) error {
	result := d.router.Handle(ctx, event.Name, event.Arguments)

	output, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode tool result: %w", err)
	}
	if err := d.sender.SendToolResult(event.CallID, string(output)); err != nil {
		return err
	}
	d.notifier.StateChanged()

	if tools.SuppressesContinuation(event.Name) {
		logger.InfoContext(ctx, "interview ended, not triggering continuation")
		return nil
	}
	return d.sender.TriggerResponse()
}
