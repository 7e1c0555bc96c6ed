package channeltest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/meetchat-sdk/meetchat"
)

type sink struct {
	mu     sync.Mutex
	events []meetchat.Event
}

func (s *sink) add(ev meetchat.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *sink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestHub_FanoutExcludesSenderByDefault(t *testing.T) {
	hub := NewHub()
	alice, bob := hub.Join("alice"), hub.Join("bob")
	var fromAlice, fromBob sink
	alice.OnEvent(fromAlice.add)
	bob.OnEvent(fromBob.add)

	require.NoError(t, alice.Broadcast(context.Background(), meetchat.Event{Type: "ping"}))
	hub.Wait()

	require.Zero(t, fromAlice.len())
	require.Equal(t, 1, fromBob.len())
	require.Len(t, hub.Sent(), 1)
}

func TestHub_EchoAndRedelivery(t *testing.T) {
	hub := NewHub()
	hub.SetEchoToSender(true)
	hub.SetRedelivery(2)
	alice := hub.Join("alice")
	var got sink
	alice.OnEvent(got.add)

	require.NoError(t, alice.Broadcast(context.Background(), meetchat.Event{Type: "ping"}))
	hub.Wait()

	require.Equal(t, 2, got.len())
}

func TestHub_BroadcastFailureModes(t *testing.T) {
	hub := NewHub()
	alice := hub.Join("alice")

	boom := errors.New("boom")
	hub.SetBroadcastError(boom)
	require.ErrorIs(t, alice.Broadcast(context.Background(), meetchat.Event{}), boom)

	hub.SetBroadcastError(nil)
	hub.SetHang(true)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, alice.Broadcast(ctx, meetchat.Event{}), context.DeadlineExceeded)
	require.Empty(t, hub.Sent())
}

func TestHub_LeaveDisconnects(t *testing.T) {
	hub := NewHub()
	alice := hub.Join("alice")
	require.Same(t, alice, hub.Join("alice"))

	hub.Leave("alice")

	require.False(t, alice.Connected())
	require.ErrorIs(t, alice.Broadcast(context.Background(), meetchat.Event{}), meetchat.ErrChannelUnavailable)
	alice.Inject(meetchat.Event{Type: "late"})
	hub.Wait()
	select {
	case <-alice.Done():
	default:
		t.Fatalf("done not closed after Leave")
	}
}

func TestChannel_ConnectedDoesNotWaitForFullQueue(t *testing.T) {
	hub := NewHub()
	alice := hub.Join("alice")
	release := make(chan struct{})
	alice.OnEvent(func(meetchat.Event) { <-release })

	injected := make(chan struct{})
	go func() {
		defer close(injected)
		for range queueSize + 2 {
			alice.Inject(meetchat.Event{Type: "fill"})
		}
	}()
	// One event is held by the handler, the queue is full and the last
	// Inject is blocked on it.
	require.Eventually(t, func() bool { return len(alice.queue) == queueSize }, 2*time.Second, time.Millisecond)

	connected := make(chan bool, 1)
	go func() { connected <- alice.Connected() }()
	select {
	case ok := <-connected:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatalf("Connected blocked behind a full queue")
	}

	close(release)
	<-injected
	hub.Wait()
}

func TestChannel_LeaveReleasesBlockedSender(t *testing.T) {
	hub := NewHub()
	alice := hub.Join("alice")
	release := make(chan struct{})
	alice.OnEvent(func(meetchat.Event) { <-release })

	injected := make(chan struct{})
	go func() {
		defer close(injected)
		for range queueSize + 2 {
			alice.Inject(meetchat.Event{Type: "fill"})
		}
	}()
	require.Eventually(t, func() bool { return len(alice.queue) == queueSize }, 2*time.Second, time.Millisecond)

	left := make(chan struct{})
	go func() {
		hub.Leave("alice")
		close(left)
	}()
	select {
	case <-injected:
	case <-time.After(time.Second):
		t.Fatalf("sender still blocked after Leave")
	}
	close(release)
	<-left
	hub.Wait()
}
