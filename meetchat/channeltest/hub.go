// Package channeltest provides an in-memory broadcast hub implementing
// meetchat.Channel for tests and demos, with knobs for the failure modes of
// a real call transport: redelivery, echo to the sender, broadcast errors
// and hangs.
package channeltest

import (
	"context"
	"sync"

	"github.com/vovakirdan/meetchat-sdk/meetchat"
	"github.com/vovakirdan/meetchat-sdk/meetchat/internal"
)

const queueSize = 256

// Hub connects in-memory channels that all belong to one call.
type Hub struct {
	mu           sync.Mutex
	members      map[string]*Channel
	copies       int
	echo         bool
	broadcastErr error
	hang         bool
	sent         []meetchat.Event

	pending sync.WaitGroup
}

// NewHub creates a hub delivering each event once, sender excluded.
func NewHub() *Hub {
	return &Hub{
		members: make(map[string]*Channel),
		copies:  1,
	}
}

// SetRedelivery makes every event arrive n times at each receiver.
func (h *Hub) SetRedelivery(n int) {
	if n < 1 {
		n = 1
	}
	h.mu.Lock()
	h.copies = n
	h.mu.Unlock()
}

// SetEchoToSender controls whether the sender receives its own broadcasts.
func (h *Hub) SetEchoToSender(echo bool) {
	h.mu.Lock()
	h.echo = echo
	h.mu.Unlock()
}

// SetBroadcastError makes every Broadcast fail with err; nil restores success.
func (h *Hub) SetBroadcastError(err error) {
	h.mu.Lock()
	h.broadcastErr = err
	h.mu.Unlock()
}

// SetHang makes Broadcast block until its context is done.
func (h *Hub) SetHang(hang bool) {
	h.mu.Lock()
	h.hang = hang
	h.mu.Unlock()
}

// Sent returns every event accepted by Broadcast, in order.
func (h *Hub) Sent() []meetchat.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]meetchat.Event(nil), h.sent...)
}

// Join adds a participant and returns its channel. Joining twice with the
// same id returns the existing channel.
func (h *Hub) Join(participantID string) *Channel {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.members[participantID]; ok {
		return c
	}
	c := &Channel{
		hub:   h,
		id:    participantID,
		queue: make(chan meetchat.Event, queueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	h.members[participantID] = c
	go c.run()
	return c
}

// Leave disconnects a participant. Events already queued are still delivered,
// then the channel's Done is closed.
func (h *Hub) Leave(participantID string) {
	h.mu.Lock()
	c, ok := h.members[participantID]
	delete(h.members, participantID)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// Wait blocks until every queued delivery has been handled.
func (h *Hub) Wait() {
	h.pending.Wait()
}

func (h *Hub) broadcast(ctx context.Context, from *Channel, ev meetchat.Event) error {
	h.mu.Lock()
	err, hang := h.broadcastErr, h.hang
	if err != nil || hang {
		h.mu.Unlock()
		if hang {
			<-ctx.Done()
			return ctx.Err()
		}
		return err
	}
	h.sent = append(h.sent, ev)
	targets := make([]*Channel, 0, len(h.members))
	for id, c := range h.members {
		if id == from.id && !h.echo {
			continue
		}
		targets = append(targets, c)
	}
	copies := h.copies
	h.mu.Unlock()

	for _, c := range targets {
		for range copies {
			c.enqueue(ev)
		}
	}
	return nil
}

// Channel is one participant's view of the hub.
type Channel struct {
	hub      *Hub
	id       string
	handlers internal.Handlers[meetchat.Event]
	queue    chan meetchat.Event
	quit     chan struct{}
	done     chan struct{}

	// qmu guards closed and the registration of senders, never a send.
	qmu     sync.Mutex
	closed  bool
	senders sync.WaitGroup
}

// Broadcast sends ev to the other members.
func (c *Channel) Broadcast(ctx context.Context, ev meetchat.Event) error {
	if !c.Connected() {
		return meetchat.ErrChannelUnavailable
	}
	return c.hub.broadcast(ctx, c, ev)
}

// OnEvent registers handler. Handlers run on the channel's delivery goroutine.
func (c *Channel) OnEvent(handler func(meetchat.Event)) func() {
	return c.handlers.Add(handler)
}

// Inject delivers ev to this channel as if another member had broadcast it.
func (c *Channel) Inject(ev meetchat.Event) {
	c.enqueue(ev)
}

func (c *Channel) LocalParticipantID() string { return c.id }

// Connected reports whether the participant is still in the hub.
func (c *Channel) Connected() bool {
	c.qmu.Lock()
	defer c.qmu.Unlock()
	return !c.closed
}

// Done is closed once the participant has left and its queue is drained.
func (c *Channel) Done() <-chan struct{} { return c.done }

// enqueue blocks while the queue is full, until the event fits or the
// participant leaves.
func (c *Channel) enqueue(ev meetchat.Event) {
	c.qmu.Lock()
	if c.closed {
		c.qmu.Unlock()
		return
	}
	c.senders.Add(1)
	c.hub.pending.Add(1)
	c.qmu.Unlock()
	defer c.senders.Done()

	select {
	case c.queue <- ev:
	case <-c.quit:
		c.hub.pending.Done()
	}
}

func (c *Channel) close() {
	c.qmu.Lock()
	if c.closed {
		c.qmu.Unlock()
		<-c.done
		return
	}
	c.closed = true
	close(c.quit)
	c.qmu.Unlock()

	c.senders.Wait()
	close(c.queue)
	<-c.done
}

func (c *Channel) run() {
	defer close(c.done)
	for ev := range c.queue {
		c.handlers.Dispatch(ev)
		c.hub.pending.Done()
	}
}
