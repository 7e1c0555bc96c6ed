package meetchat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vovakirdan/meetchat-sdk/meetchat"
	"github.com/vovakirdan/meetchat-sdk/meetchat/mocks"
)

func chatEvent(t *testing.T, text string, author meetchat.Author) meetchat.Event {
	t.Helper()
	ev, err := meetchat.EncodeChatEvent(meetchat.ChatMessage{
		Text:   text,
		Author: author,
		SentAt: time.Now(),
		Kind:   meetchat.KindChat,
	})
	require.NoError(t, err)
	return ev
}

// startBridge starts a bridge over a mock channel and returns the inbound
// handler the bridge registered.
func startBridge(t *testing.T, ch *mocks.MockChannel, timeout time.Duration, handler func(meetchat.ChatMessage)) (*meetchat.Bridge, func(meetchat.Event), *bool) {
	t.Helper()
	var (
		inbound      func(meetchat.Event)
		unsubscribed bool
	)
	ch.EXPECT().LocalParticipantID().Return("alice")
	ch.EXPECT().OnEvent(gomock.Any()).DoAndReturn(func(h func(meetchat.Event)) func() {
		inbound = h
		return func() { unsubscribed = true }
	})

	b := meetchat.NewBridge(ch, timeout)
	require.NoError(t, b.Start(handler))
	require.NotNil(t, inbound)
	return b, inbound, &unsubscribed
}

func TestBridge_PublishBeforeStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)

	b := meetchat.NewBridge(ch, time.Second)
	err := b.Publish(context.Background(), meetchat.ChatMessage{Text: "hi", Kind: meetchat.KindChat})

	require.ErrorIs(t, err, meetchat.ErrChannelUnavailable)
	require.False(t, b.Connected())
}

func TestBridge_StartWithoutChannel(t *testing.T) {
	b := meetchat.NewBridge(nil, time.Second)
	require.ErrorIs(t, b.Start(func(meetchat.ChatMessage) {}), meetchat.ErrChannelUnavailable)
}

func TestBridge_PublishEncodesChatEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)
	b, _, _ := startBridge(t, ch, time.Second, func(meetchat.ChatMessage) {})

	var (
		got         meetchat.Event
		hasDeadline bool
	)
	ch.EXPECT().Broadcast(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, ev meetchat.Event) error {
		_, hasDeadline = ctx.Deadline()
		got = ev
		return nil
	})

	err := b.Publish(context.Background(), meetchat.ChatMessage{
		Text:   "hello",
		Author: meetchat.Author{ID: "alice", DisplayName: "Alice"},
		SentAt: time.Now(),
		Kind:   meetchat.KindChat,
	})

	require.NoError(t, err)
	require.True(t, hasDeadline)
	require.Equal(t, meetchat.EventTypeChatMessage, got.Type)
	decoded, err := meetchat.DecodeChatEvent(got, time.Now())
	require.NoError(t, err)
	require.Equal(t, "hello", decoded.Text)
	require.Equal(t, "alice", decoded.Author.ID)
}

func TestBridge_PublishRefusesSystemMessages(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)
	b, _, _ := startBridge(t, ch, time.Second, func(meetchat.ChatMessage) {})

	err := b.Publish(context.Background(), meetchat.ChatMessage{Text: "joined", Kind: meetchat.KindSystem})

	require.ErrorIs(t, err, meetchat.ErrSendRejected)
}

func TestBridge_PublishErrorIsSendRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)
	b, _, _ := startBridge(t, ch, time.Second, func(meetchat.ChatMessage) {})

	cause := errors.New("permission denied")
	ch.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(cause)

	err := b.Publish(context.Background(), meetchat.ChatMessage{Text: "hi", Author: meetchat.Author{ID: "alice"}, Kind: meetchat.KindChat})

	require.ErrorIs(t, err, meetchat.ErrSendRejected)
	require.ErrorIs(t, err, cause)
	require.True(t, meetchat.IsSendFailure(err))
}

func TestBridge_PublishKeepsChannelUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)
	b, _, _ := startBridge(t, ch, time.Second, func(meetchat.ChatMessage) {})

	ch.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(meetchat.ErrChannelUnavailable)

	err := b.Publish(context.Background(), meetchat.ChatMessage{Text: "hi", Author: meetchat.Author{ID: "alice"}, Kind: meetchat.KindChat})

	require.ErrorIs(t, err, meetchat.ErrChannelUnavailable)
}

func TestBridge_PublishTimesOutWhenChannelHangs(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)
	b, _, _ := startBridge(t, ch, 50*time.Millisecond, func(meetchat.ChatMessage) {})

	// The channel ignores its context entirely.
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	ch.EXPECT().Broadcast(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, meetchat.Event) error {
		<-release
		return nil
	})

	start := time.Now()
	err := b.Publish(context.Background(), meetchat.ChatMessage{Text: "hi", Author: meetchat.Author{ID: "alice"}, Kind: meetchat.KindChat})

	require.ErrorIs(t, err, meetchat.ErrChannelUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestBridge_PublishCancelledByCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)
	b, _, _ := startBridge(t, ch, time.Second, func(meetchat.ChatMessage) {})

	ctx, cancel := context.WithCancel(context.Background())
	ch.EXPECT().Broadcast(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ meetchat.Event) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})

	err := b.Publish(ctx, meetchat.ChatMessage{Text: "hi", Author: meetchat.Author{ID: "alice"}, Kind: meetchat.KindChat})

	require.ErrorIs(t, err, meetchat.ErrSendRejected)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBridge_InboundFiltersSelfAndNoise(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)
	var got []meetchat.ChatMessage
	_, inbound, _ := startBridge(t, ch, time.Second, func(msg meetchat.ChatMessage) {
		got = append(got, msg)
	})

	inbound(chatEvent(t, "echo of mine", meetchat.Author{ID: "alice", DisplayName: "Alice"}))
	inbound(meetchat.Event{Type: "reaction.added", Custom: []byte(`{"emoji":"tada"}`)})
	inbound(meetchat.Event{Type: meetchat.EventTypeChatMessage, Custom: []byte(`not json`)})
	inbound(chatEvent(t, "hello alice", meetchat.Author{ID: "bob", DisplayName: "Bob"}))

	require.Len(t, got, 1)
	require.Equal(t, "hello alice", got[0].Text)
	require.Equal(t, "Bob", got[0].Author.DisplayName)
}

func TestBridge_StopUnsubscribesAndDropsLateEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)
	calls := 0
	b, inbound, unsubscribed := startBridge(t, ch, time.Second, func(meetchat.ChatMessage) { calls++ })

	b.Stop()
	b.Stop()
	inbound(chatEvent(t, "too late", meetchat.Author{ID: "bob", DisplayName: "Bob"}))

	require.True(t, *unsubscribed)
	require.Zero(t, calls)
	require.False(t, b.Connected())
	require.ErrorIs(t, b.Start(func(meetchat.ChatMessage) {}), meetchat.ErrChannelUnavailable)
}

type reportingChannel struct {
	*mocks.MockChannel
	*mocks.MockConnectionReporter
}

func TestBridge_ConnectedFollowsReporter(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := reportingChannel{
		MockChannel:            mocks.NewMockChannel(ctrl),
		MockConnectionReporter: mocks.NewMockConnectionReporter(ctrl),
	}
	ch.MockChannel.EXPECT().LocalParticipantID().Return("alice")
	ch.MockChannel.EXPECT().OnEvent(gomock.Any()).Return(func() {})
	ch.MockConnectionReporter.EXPECT().Connected().Return(false).Times(2)

	b := meetchat.NewBridge(ch, time.Second)
	require.NoError(t, b.Start(func(meetchat.ChatMessage) {}))

	require.False(t, b.Connected())
	err := b.Publish(context.Background(), meetchat.ChatMessage{Text: "hi", Author: meetchat.Author{ID: "alice"}, Kind: meetchat.KindChat})
	require.ErrorIs(t, err, meetchat.ErrChannelUnavailable)
}

func TestBridge_PublishBoundsBlockingReporter(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := reportingChannel{
		MockChannel:            mocks.NewMockChannel(ctrl),
		MockConnectionReporter: mocks.NewMockConnectionReporter(ctrl),
	}
	ch.MockChannel.EXPECT().LocalParticipantID().Return("alice")
	ch.MockChannel.EXPECT().OnEvent(gomock.Any()).Return(func() {})

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	ch.MockConnectionReporter.EXPECT().Connected().DoAndReturn(func() bool {
		<-release
		return false
	})

	b := meetchat.NewBridge(ch, 50*time.Millisecond)
	require.NoError(t, b.Start(func(meetchat.ChatMessage) {}))

	start := time.Now()
	err := b.Publish(context.Background(), meetchat.ChatMessage{Text: "hi", Author: meetchat.Author{ID: "alice"}, Kind: meetchat.KindChat})

	require.ErrorIs(t, err, meetchat.ErrChannelUnavailable)
	require.Less(t, time.Since(start), time.Second)
}

func TestBridge_IgnoreAuthorDropsLoopedBackSends(t *testing.T) {
	ctrl := gomock.NewController(t)
	ch := mocks.NewMockChannel(ctrl)
	var got []meetchat.ChatMessage
	b, inbound, _ := startBridge(t, ch, time.Second, func(msg meetchat.ChatMessage) {
		got = append(got, msg)
	})

	b.IgnoreAuthor("user-alice")
	inbound(chatEvent(t, "mine, signed by account", meetchat.Author{ID: "user-alice", DisplayName: "Alice"}))
	inbound(chatEvent(t, "mine, signed by participant", meetchat.Author{ID: "alice", DisplayName: "Alice"}))
	inbound(chatEvent(t, "from bob", meetchat.Author{ID: "bob", DisplayName: "Bob"}))

	require.Len(t, got, 1)
	require.Equal(t, "from bob", got[0].Text)
}
