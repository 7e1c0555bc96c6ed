// Package wschannel implements meetchat.Channel over a websocket connection
// to a meeting relay, and provides that relay.
package wschannel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/meetchat-sdk/meetchat"
	"github.com/vovakirdan/meetchat-sdk/meetchat/internal"
)

var validate = validator.New()

// Config controls how the channel connects to the relay.
type Config struct {
	URL              string        `env:"MEETCHAT_WS_URL" validate:"required,url"`
	MeetingID        string        `env:"MEETCHAT_MEETING_ID" validate:"required"`
	ParticipantID    string        `env:"MEETCHAT_PARTICIPANT_ID" validate:"required"`
	HandshakeTimeout time.Duration `env:"MEETCHAT_WS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	ReadTimeout      time.Duration `env:"MEETCHAT_WS_READ_TIMEOUT"`
	WriteTimeout     time.Duration `env:"MEETCHAT_WS_WRITE_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns sensible defaults.
// ReadTimeout is 0 because a quiet meeting may go long without chat traffic.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// Option customizes a Channel.
type Option func(*Channel)

// WithLogger sets the channel logger.
func WithLogger(l meetchat.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

// Channel is a meetchat.Channel backed by one websocket connection.
type Channel struct {
	cfg      Config
	logger   meetchat.Logger
	conn     *internal.Conn[Frame]
	handlers internal.Handlers[meetchat.Event]
	done     chan struct{}

	mu        sync.Mutex
	connected bool
	closed    bool
	cancel    context.CancelFunc
}

// Dial connects to the relay, joins the meeting and starts the read loop.
// It returns once the relay has acknowledged the join.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Channel, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, meetchat.WrapError(meetchat.ErrorInvalidConfig, "validate websocket config", err)
	}
	c := &Channel{
		cfg:    cfg,
		logger: meetchat.NopLogger(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	dialCtx := ctx
	if cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.HandshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, cfg.URL, nil)
	if err != nil {
		return nil, meetchat.WrapError(meetchat.ErrorChannelUnavailable, "dial relay", err)
	}
	c.conn = internal.NewConn[Frame](ws, cfg.ReadTimeout, cfg.WriteTimeout)

	join := Frame{Type: frameJoin, Meeting: cfg.MeetingID, Participant: cfg.ParticipantID}
	if err := c.conn.Write(dialCtx, join); err != nil {
		_ = c.conn.Close(websocket.StatusInternalError, "handshake error")
		return nil, meetchat.WrapError(meetchat.ErrorChannelUnavailable, "send join", err)
	}
	ack, err := c.conn.Read(dialCtx)
	if err != nil {
		_ = c.conn.CloseNow()
		return nil, meetchat.WrapError(meetchat.ErrorChannelUnavailable, "await join ack", err)
	}
	switch ack.Type {
	case frameJoined:
	case frameError:
		_ = c.conn.Close(websocket.StatusPolicyViolation, "join refused")
		return nil, ack.Error.toChatError()
	default:
		_ = c.conn.Close(websocket.StatusProtocolError, "unexpected frame")
		return nil, meetchat.NewError(meetchat.ErrorChannelUnavailable, fmt.Sprintf("unexpected %q frame before join ack", ack.Type))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.connected = true
	c.mu.Unlock()

	go c.readLoop(runCtx)
	return c, nil
}

// Broadcast sends ev to every member of the meeting, this client included.
func (c *Channel) Broadcast(ctx context.Context, ev meetchat.Event) error {
	if !c.Connected() {
		return meetchat.ErrChannelUnavailable
	}
	if err := c.conn.Write(ctx, Frame{Type: frameBroadcast, Event: &ev}); err != nil {
		if !c.Connected() {
			return meetchat.WrapError(meetchat.ErrorChannelUnavailable, "write broadcast", err)
		}
		return fmt.Errorf("write broadcast: %w", err)
	}
	return nil
}

// OnEvent registers handler for inbound events. Handlers run on the read loop.
func (c *Channel) OnEvent(handler func(meetchat.Event)) func() {
	return c.handlers.Add(handler)
}

// LocalParticipantID returns the participant id announced on join.
func (c *Channel) LocalParticipantID() string { return c.cfg.ParticipantID }

// Connected reports whether the read loop is still running.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Done is closed when the read loop exits.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Close leaves the meeting and closes the websocket. Only the first call
// does anything.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	cancel := c.cancel
	c.mu.Unlock()

	var err error
	if c.conn != nil {
		err = c.conn.Close(websocket.StatusNormalClosure, "client close")
	}
	if cancel != nil {
		cancel()
	}
	if err != nil && isExpectedDisconnect(context.Background(), err) {
		return nil
	}
	return err
}

func (c *Channel) readLoop(ctx context.Context) {
	defer close(c.done)
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		f, err := c.conn.Read(ctx)
		if err != nil {
			if isExpectedDisconnect(ctx, err) {
				return
			}
			c.logger.Warn("read loop exit", map[string]any{"error": err.Error()})
			return
		}
		switch f.Type {
		case frameEvent:
			if f.Event == nil {
				c.logger.Debug("event frame without event", map[string]any{"from": f.From})
				continue
			}
			c.handlers.Dispatch(*f.Event)
		case frameError:
			c.logger.Warn("relay error", map[string]any{"error": f.Error.Error()})
		default:
			c.logger.Debug("ignoring frame", map[string]any{"type": f.Type})
		}
	}
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
