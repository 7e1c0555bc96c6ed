package redischannel

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/meetchat-sdk/meetchat"
)

func TestConfig_ChannelName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MeetingID = "weekly"
	require.Equal(t, "meetchat:weekly:events", cfg.ChannelName())
}

func TestConnect_InvalidConfig(t *testing.T) {
	_, err := Connect(context.Background(), DefaultConfig(), nil)
	require.ErrorIs(t, err, meetchat.ErrInvalidConfig)
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.MeetingID = "standup"
	cfg.ParticipantID = "alice"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, cfg, nil)

	require.ErrorIs(t, err, meetchat.ErrChannelUnavailable)
}

func TestChannel_DispatchDecodesPayload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MeetingID = "standup"
	cfg.ParticipantID = "bob"
	c := newChannel(cfg, meetchat.NopLogger())
	var got []meetchat.Event
	c.OnEvent(func(ev meetchat.Event) { got = append(got, ev) })

	c.dispatch(`{"type":"chat.message","custom":{"text":"hi"}}`)
	c.dispatch(`garbage`)

	require.Len(t, got, 1)
	require.Equal(t, "chat.message", got[0].Type)
	require.JSONEq(t, `{"text":"hi"}`, string(got[0].Custom))
}

func TestChannel_NotConnectedBeforeConnect(t *testing.T) {
	c := newChannel(DefaultConfig(), meetchat.NopLogger())

	require.False(t, c.Connected())
	require.ErrorIs(t, c.Broadcast(context.Background(), meetchat.Event{}), meetchat.ErrChannelUnavailable)
	require.NoError(t, c.Close())
}

func TestChannel_ReadLoopExitClosesDone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MeetingID = "standup"
	cfg.ParticipantID = "bob"
	c := newChannel(cfg, meetchat.NopLogger())
	c.connected = true
	got := make(chan meetchat.Event, 1)
	c.OnEvent(func(ev meetchat.Event) { got <- ev })

	msgs := make(chan *redis.Message, 1)
	msgs <- &redis.Message{Channel: cfg.ChannelName(), Payload: `{"type":"chat.message"}`}
	close(msgs)
	go c.readLoop(msgs)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("done not closed after the subscription ended")
	}
	require.Equal(t, "chat.message", (<-got).Type)
	require.False(t, c.Connected())
}
