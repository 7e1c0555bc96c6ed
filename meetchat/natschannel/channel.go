// Package natschannel implements meetchat.Channel over a core NATS subject
// per meeting. Nothing is retained for late subscribers.
package natschannel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"

	"github.com/vovakirdan/meetchat-sdk/meetchat"
	"github.com/vovakirdan/meetchat-sdk/meetchat/internal"
)

var validate = validator.New()

// Config holds NATS channel configuration.
type Config struct {
	URL           string        `env:"MEETCHAT_NATS_URL" envDefault:"nats://localhost:4222" validate:"required"`
	MeetingID     string        `env:"MEETCHAT_MEETING_ID" validate:"required"`
	ParticipantID string        `env:"MEETCHAT_PARTICIPANT_ID" validate:"required"`
	SubjectPrefix string        `env:"MEETCHAT_NATS_SUBJECT_PREFIX" envDefault:"meetchat" validate:"required"`
	MaxReconnects int           `env:"MEETCHAT_NATS_MAX_RECONNECTS" envDefault:"10"`
	ReconnectWait time.Duration `env:"MEETCHAT_NATS_RECONNECT_WAIT" envDefault:"1s"`
}

// DefaultConfig returns the default NATS configuration.
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		SubjectPrefix: "meetchat",
		MaxReconnects: 10,
		ReconnectWait: time.Second,
	}
}

// Subject returns the subject carrying events of the configured meeting.
func (c Config) Subject() string {
	return c.SubjectPrefix + "." + c.MeetingID + ".events"
}

// Channel is a meetchat.Channel backed by a NATS connection.
type Channel struct {
	cfg      Config
	logger   meetchat.Logger
	nc       *nats.Conn
	sub      *nats.Subscription
	handlers internal.Handlers[meetchat.Event]

	done      chan struct{}
	closeOnce sync.Once
}

// Connect establishes the NATS connection and subscribes to the meeting subject.
func Connect(cfg Config, logger meetchat.Logger, opts ...nats.Option) (*Channel, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, meetchat.WrapError(meetchat.ErrorInvalidConfig, "validate nats config", err)
	}
	if logger == nil {
		logger = meetchat.NopLogger()
	}
	c := &Channel{cfg: cfg, logger: logger, done: make(chan struct{})}

	opts = append([]nats.Option{
		nats.Name("meetchat-" + cfg.ParticipantID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", map[string]any{"error": err.Error()})
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", map[string]any{"url": nc.ConnectedUrl()})
		}),
		// Fires on Close and once reconnect attempts are exhausted.
		nats.ClosedHandler(func(*nats.Conn) {
			c.closeOnce.Do(func() { close(c.done) })
		}),
	}, opts...)

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, meetchat.WrapError(meetchat.ErrorChannelUnavailable, "connect to nats", err)
	}
	c.nc = nc

	// Subscription callbacks run on a NATS-owned goroutine.
	sub, err := nc.Subscribe(cfg.Subject(), c.handleMsg)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", cfg.Subject(), err)
	}
	if err := nc.Flush(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("flush subscription: %w", err)
	}
	c.sub = sub
	logger.Info("nats channel ready", map[string]any{"subject": cfg.Subject()})
	return c, nil
}

// Broadcast publishes ev on the meeting subject. NATS echoes it back to this
// connection, like a call SFU would.
func (c *Channel) Broadcast(ctx context.Context, ev meetchat.Event) error {
	if !c.Connected() {
		return meetchat.ErrChannelUnavailable
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return meetchat.WrapError(meetchat.ErrorSerialization, "marshal event", err)
	}
	if err := c.nc.Publish(c.cfg.Subject(), data); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	// Flush surfaces connection errors to the caller instead of losing them
	// in the client's write buffer.
	if _, ok := ctx.Deadline(); ok {
		if err := c.nc.FlushWithContext(ctx); err != nil {
			return fmt.Errorf("flush publish: %w", err)
		}
	}
	return nil
}

// OnEvent registers handler for inbound events.
func (c *Channel) OnEvent(handler func(meetchat.Event)) func() {
	return c.handlers.Add(handler)
}

// LocalParticipantID returns the configured participant id.
func (c *Channel) LocalParticipantID() string { return c.cfg.ParticipantID }

// Connected reports whether the NATS connection is up.
func (c *Channel) Connected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// Done is closed when the NATS connection is closed for good.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Close unsubscribes and closes the connection.
func (c *Channel) Close() error {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil && c.nc.IsConnected() {
			c.logger.Warn("unsubscribe failed", map[string]any{"error": err.Error()})
		}
	}
	if c.nc != nil {
		c.nc.Close()
	}
	return nil
}

func (c *Channel) handleMsg(msg *nats.Msg) {
	var ev meetchat.Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		c.logger.Debug("dropping undecodable nats message", map[string]any{"subject": msg.Subject, "error": err.Error()})
		return
	}
	c.handlers.Dispatch(ev)
}
