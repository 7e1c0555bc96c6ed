package meetchat

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Bridge adapts a generic broadcast Channel into chat publish/receive.
type Bridge struct {
	ch      Channel
	timeout time.Duration
	logger  Logger
	now     func() time.Time

	mu      sync.Mutex
	self    string
	author  string
	unsub   func()
	started bool
	stopped bool

	// handling is held shared by every inbound handler and exclusively by
	// Stop, so Stop returns only once no handler is running.
	handling sync.RWMutex
}

// NewBridge wraps ch. timeout bounds every Publish; zero disables it.
func NewBridge(ch Channel, timeout time.Duration) *Bridge {
	return &Bridge{
		ch:      ch,
		timeout: timeout,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger overrides logger (optional).
func (b *Bridge) SetLogger(l Logger) {
	if l == nil {
		return
	}
	b.mu.Lock()
	b.logger = l
	b.mu.Unlock()
}

// IgnoreAuthor drops inbound chat messages signed with author id, on top of
// those signed with the channel's participant id. Sessions whose author id
// differs from the channel id use it to filter their own looped-back sends.
func (b *Bridge) IgnoreAuthor(id string) {
	b.mu.Lock()
	b.author = id
	b.mu.Unlock()
}

func (b *Bridge) log() Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logger
}

// Start subscribes to inbound events. handler receives decoded chat messages
// from other participants only.
func (b *Bridge) Start(handler func(ChatMessage)) error {
	if b.ch == nil {
		return ErrChannelUnavailable
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return NewError(ErrorChannelUnavailable, "bridge stopped")
	}
	if b.started {
		return nil
	}
	b.self = b.ch.LocalParticipantID()
	b.unsub = b.ch.OnEvent(func(ev Event) { b.handle(ev, handler) })
	b.started = true
	b.logger.Info("bridge started", map[string]any{"participant": b.self})
	return nil
}

// Stop tears down the inbound subscription. It is idempotent and must not be
// called from inside an inbound handler.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	unsub, self, logger := b.unsub, b.self, b.logger
	b.unsub = nil
	b.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	b.handling.Lock()
	b.handling.Unlock() //nolint:staticcheck // barrier for in-flight handlers
	logger.Info("bridge stopped", map[string]any{"participant": self})
}

// Connected reports whether the bridge can publish right now.
func (b *Bridge) Connected() bool {
	return b.live() && b.channelConnected()
}

func (b *Bridge) live() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started && !b.stopped
}

func (b *Bridge) channelConnected() bool {
	if r, ok := b.ch.(ConnectionReporter); ok {
		return r.Connected()
	}
	return true
}

// Publish broadcasts msg. It never retries.
func (b *Bridge) Publish(ctx context.Context, msg ChatMessage) error {
	if msg.Kind != KindChat {
		return NewError(ErrorSendRejected, "only chat messages are broadcast")
	}
	if !b.live() {
		return ErrChannelUnavailable
	}
	ev, err := EncodeChatEvent(msg)
	if err != nil {
		return err
	}

	pubCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	// The channel may ignore its context, and so may its liveness report;
	// the select below still honours it.
	done := make(chan error, 1)
	go func() {
		if !b.channelConnected() {
			done <- ErrChannelUnavailable
			return
		}
		done <- b.ch.Broadcast(pubCtx, ev)
	}()

	select {
	case err = <-done:
	case <-pubCtx.Done():
		err = pubCtx.Err()
	}
	if err == nil {
		return nil
	}
	err = classifyPublishError(ctx, err)
	b.log().Warn("publish failed", map[string]any{"error": err.Error()})
	return err
}

func classifyPublishError(parent context.Context, err error) error {
	switch {
	case CodeOf(err) == ErrorChannelUnavailable:
		return err
	case parent.Err() != nil:
		return WrapError(ErrorSendRejected, "publish cancelled", parent.Err())
	case errors.Is(err, context.DeadlineExceeded):
		return WrapError(ErrorChannelUnavailable, "publish timed out", err)
	default:
		return WrapError(ErrorSendRejected, "broadcast failed", err)
	}
}

func (b *Bridge) handle(ev Event, handler func(ChatMessage)) {
	b.handling.RLock()
	defer b.handling.RUnlock()

	b.mu.Lock()
	stopped, self, author, logger := b.stopped, b.self, b.author, b.logger
	b.mu.Unlock()
	if stopped {
		return
	}

	msg, err := DecodeChatEvent(ev, b.now())
	if err != nil {
		// Unrelated event types are dropped silently.
		if ev.Type == EventTypeChatMessage {
			logger.Debug("ignoring malformed chat event", map[string]any{"error": err.Error()})
		}
		return
	}
	if msg.Author.ID == self || (author != "" && msg.Author.ID == author) {
		logger.Debug("ignoring self echo", map[string]any{"participant": self, "author": msg.Author.ID})
		return
	}
	handler(msg)
}
