// Package session owns the lifecycle of one live intake interview: it
// couples the call record to its agent channel, fans updates out to
// observers, and persists the document exactly once when the interview
// ends.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/caretone/intake-core/core/call"
	"github.com/caretone/intake-core/core/realtime"
	"github.com/caretone/intake-core/core/store"
	"github.com/caretone/intake-core/core/tools"
)

// Channel is the outbound surface of an agent connection. A
// *realtime.Conn satisfies it; tests substitute fakes.
type Channel interface {
	SendUserMessage(text string) error
	SendToolResult(callID, output string) error
	TriggerResponse() error
	Run(ctx context.Context, handler realtime.EventHandler) error
	Close() error
}

// UpdateKind tags what an observer update carries.
type UpdateKind string

const (
	// UpdateTranscript carries one completed conversation turn.
	UpdateTranscript UpdateKind = "transcript"
	// UpdateState carries a full call snapshot after a mutation.
	UpdateState UpdateKind = "state"
)

// Update is one observer notification. Updates for a session are
// delivered in the order the underlying events arrived.
type Update struct {
	Kind  UpdateKind
	Entry call.TranscriptEntry
	State call.Call
}

// Session drives one interview. All call-state access goes through its
// mutex: the event loop, typed user input, and snapshot readers never
// see a half-applied mutation.
type Session struct {
	channel Channel
	store   store.Store

	mu         sync.Mutex
	call       *call.Call
	dispatcher *realtime.Dispatcher
	outputPath string

	obsMu        sync.Mutex
	observers    map[int]chan Update
	nextObserver int
	obsClosed    bool

	finalizeOnce sync.Once
	done         chan struct{}
}

// New creates a session for the given call over an open channel.
func New(c *call.Call, channel Channel, st store.Store) *Session {
	s := &Session{
		channel:   channel,
		store:     st,
		call:      c,
		observers: map[int]chan Update{},
		done:      make(chan struct{}),
	}
	s.dispatcher = realtime.NewDispatcher(c, tools.NewRouter(c), channel, realtime.WithNotifier(s))
	return s
}

// ID returns the immutable call identifier.
func (s *Session) ID() string {
	return s.call.ID
}

// Run consumes the channel's event stream until it closes, then
// finalizes the session. It returns the loop's error, if any; the
// session is finalized either way.
func (s *Session) Run(ctx context.Context) error {
	err := s.channel.Run(ctx, s)
	s.finalize(context.WithoutCancel(ctx))
	return err
}

// HandleEvent applies one server event under the session lock.
func (s *Session) HandleEvent(ctx context.Context, eventType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatcher.HandleEvent(ctx, eventType, data)
}

// SendUserMessage injects typed text as user input, mirrors it into
// the transcript, and notifies observers. Typed input bypasses the
// event stream, so the mirror happens here.
func (s *Session) SendUserMessage(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.channel.SendUserMessage(text); err != nil {
		return err
	}
	entry := s.call.AppendTranscript("patient", text)
	s.broadcast(Update{Kind: UpdateTranscript, Entry: entry})
	return nil
}

// Snapshot returns a deep copy of the current call state.
func (s *Session) Snapshot() call.Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.call.Snapshot()
}

// TranscriptAppended implements realtime.Notifier.
func (s *Session) TranscriptAppended(entry call.TranscriptEntry) {
	s.broadcast(Update{Kind: UpdateTranscript, Entry: entry})
}

// StateChanged implements realtime.Notifier. The dispatcher invokes it
// under the session lock, so the snapshot is consistent.
func (s *Session) StateChanged() {
	s.broadcast(Update{Kind: UpdateState, State: s.call.Snapshot()})
}

// Observe registers an update channel and returns it with its
// unsubscribe function. A slow observer loses updates rather than
// stalling the event loop. Observing a finalized session returns a
// closed channel.
func (s *Session) Observe() (<-chan Update, func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	if s.obsClosed {
		ch := make(chan Update)
		close(ch)
		return ch, func() {}
	}

	id := s.nextObserver
	s.nextObserver++
	ch := make(chan Update, 16)
	s.observers[id] = ch

	return ch, func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		if _, ok := s.observers[id]; ok {
			delete(s.observers, id)
			close(ch)
		}
	}
}

func (s *Session) broadcast(update Update) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	for id, ch := range s.observers {
		select {
		case ch <- update:
		default:
			logger.Warn("dropping update for slow observer", "call_id", s.call.ID, "observer", id)
		}
	}
}

// Done is closed once the session has been finalized.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// OutputPath returns the saved document's location, available after
// Done is closed. Empty when the save failed.
func (s *Session) OutputPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputPath
}

// Shutdown closes the channel and waits for finalization.
func (s *Session) Shutdown(ctx context.Context) error {
	if err := s.channel.Close(); err != nil {
		logger.Warn("error closing channel", "call_id", s.call.ID, "error", err)
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finalize runs exactly once: a call that never reached a terminal
// status is marked abandoned, the document is persisted, the final
// state is broadcast, and observers are released.
func (s *Session) finalize(ctx context.Context) {
	s.finalizeOnce.Do(func() {
		ctx, span := tracer.Start(ctx, "finalize session")
		defer span.End()

		s.mu.Lock()
		if !s.call.Ended() {
			s.call.End(call.StatusAbandoned, time.Now())
			logger.InfoContext(ctx, "call abandoned without explicit end", "call_id", s.call.ID)
		}
		doc := s.call.Document()
		snapshot := s.call.Snapshot()
		s.mu.Unlock()

		path, err := s.store.Save(ctx, doc)
		if err != nil {
			span.RecordError(err)
			logger.ErrorContext(ctx, "failed to save call document", "call_id", s.call.ID, "error", err)
		} else {
			s.mu.Lock()
			s.outputPath = path
			s.mu.Unlock()
		}

		s.broadcast(Update{Kind: UpdateState, State: snapshot})

		s.obsMu.Lock()
		for id, ch := range s.observers {
			delete(s.observers, id)
			close(ch)
		}
		s.obsClosed = true
		s.obsMu.Unlock()

		close(s.done)
	})
}
