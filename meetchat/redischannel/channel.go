// Package redischannel implements meetchat.Channel over Redis Pub/Sub.
// Pub/Sub keeps nothing, so a participant who subscribes late sees only
// what is published afterwards.
package redischannel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/meetchat-sdk/meetchat"
	"github.com/vovakirdan/meetchat-sdk/meetchat/internal"
)

var validate = validator.New()

// Config holds Redis channel configuration.
type Config struct {
	Addr          string `env:"MEETCHAT_REDIS_ADDR" envDefault:"localhost:6379" validate:"required"`
	Password      string `env:"MEETCHAT_REDIS_PASSWORD"`
	DB            int    `env:"MEETCHAT_REDIS_DB"`
	MeetingID     string `env:"MEETCHAT_MEETING_ID" validate:"required"`
	ParticipantID string `env:"MEETCHAT_PARTICIPANT_ID" validate:"required"`
	KeyPrefix     string `env:"MEETCHAT_REDIS_KEY_PREFIX" envDefault:"meetchat" validate:"required"`
}

// DefaultConfig returns the default Redis configuration.
func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		KeyPrefix: "meetchat",
	}
}

// ChannelName returns the Pub/Sub channel of the configured meeting.
func (c Config) ChannelName() string {
	return c.KeyPrefix + ":" + c.MeetingID + ":events"
}

// Channel is a meetchat.Channel backed by a Redis Pub/Sub subscription.
type Channel struct {
	cfg      Config
	logger   meetchat.Logger
	rdb      *redis.Client
	pubsub   *redis.PubSub
	handlers internal.Handlers[meetchat.Event]
	done     chan struct{}

	mu        sync.Mutex
	connected bool
}

// Connect pings Redis, subscribes to the meeting channel and starts
// dispatching. It returns once the subscription is confirmed.
func Connect(ctx context.Context, cfg Config, logger meetchat.Logger) (*Channel, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, meetchat.WrapError(meetchat.ErrorInvalidConfig, "validate redis config", err)
	}
	if logger == nil {
		logger = meetchat.NopLogger()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, meetchat.WrapError(meetchat.ErrorChannelUnavailable, "ping redis", err)
	}

	pubsub := rdb.Subscribe(ctx, cfg.ChannelName())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("subscribe %s: %w", cfg.ChannelName(), err)
	}

	c := newChannel(cfg, logger)
	c.rdb = rdb
	c.pubsub = pubsub
	c.connected = true
	go c.readLoop(pubsub.Channel())
	logger.Info("redis channel ready", map[string]any{"channel": cfg.ChannelName()})
	return c, nil
}

func newChannel(cfg Config, logger meetchat.Logger) *Channel {
	return &Channel{
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Broadcast publishes ev on the meeting channel. Redis delivers it to this
// client's own subscription as well.
func (c *Channel) Broadcast(ctx context.Context, ev meetchat.Event) error {
	if !c.Connected() {
		return meetchat.ErrChannelUnavailable
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return meetchat.WrapError(meetchat.ErrorSerialization, "marshal event", err)
	}
	if err := c.rdb.Publish(ctx, c.cfg.ChannelName(), data).Err(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// OnEvent registers handler for inbound events.
func (c *Channel) OnEvent(handler func(meetchat.Event)) func() {
	return c.handlers.Add(handler)
}

// LocalParticipantID returns the configured participant id.
func (c *Channel) LocalParticipantID() string { return c.cfg.ParticipantID }

// Connected reports whether the subscription is still running.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Done is closed when the subscription stops delivering.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Close ends the subscription and closes the client.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	var firstErr error
	if c.pubsub != nil {
		firstErr = c.pubsub.Close()
	}
	if c.rdb != nil {
		if err := c.rdb.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Channel) readLoop(msgs <-chan *redis.Message) {
	defer close(c.done)
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()
	for msg := range msgs {
		c.dispatch(msg.Payload)
	}
}

func (c *Channel) dispatch(payload string) {
	var ev meetchat.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		c.logger.Debug("dropping undecodable redis message", map[string]any{"channel": c.cfg.ChannelName(), "error": err.Error()})
		return
	}
	c.handlers.Dispatch(ev)
}
