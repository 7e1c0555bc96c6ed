package meetchat

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// Publisher broadcasts a chat message. *Bridge implements it.
type Publisher interface {
	Publish(ctx context.Context, msg ChatMessage) error
}

// Store is the append-only, deduplicated message log of one session plus
// its unread bookkeeping.
//
// Store is the single writer: every mutation runs under one mutex, which is
// also held across the publish in Send, so inbound messages wait for an
// in-flight send to settle.
type Store struct {
	publisher Publisher
	window    time.Duration
	maxText   int
	now       func() time.Time
	newID     func() string
	logger    Logger

	mu       sync.Mutex
	log      []ChatMessage
	unread   int
	visible  bool
	onChange func(Snapshot)
}

// NewStore creates an empty store that publishes through publisher.
func NewStore(publisher Publisher, cfg Config, opts ...Option) *Store {
	o := applyOptions(opts)
	return &Store{
		publisher: publisher,
		window:    cfg.DedupWindow,
		maxText:   cfg.MaxTextLength,
		now:       o.now,
		newID:     o.newID,
		logger:    o.logger,
		visible:   cfg.StartVisible,
	}
}

// SetLogger overrides logger (optional). It waits for an in-flight Send.
func (s *Store) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
}

// OnChange registers the hook called, under the store lock, after every
// mutation that changes the log or the unread count. The hook must not call
// back into the store.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Append stores candidate unless it duplicates a recent message. It returns
// the stored message and true, or the entry it duplicates and false.
func (s *Store) Append(candidate ChatMessage) (ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.appendLocked(candidate)
	if ok {
		s.notifyLocked()
	}
	return msg, ok
}

// Send validates text, broadcasts it and, only once the broadcast succeeded,
// appends the local echo. On error nothing in the store changes.
func (s *Store) Send(ctx context.Context, text string, author Author) (ChatMessage, error) {
	text = strings.TrimSpace(text)
	if err := validateText(text, s.maxText); err != nil {
		return ChatMessage{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.publisher == nil {
		return ChatMessage{}, ErrChannelUnavailable
	}
	candidate := ChatMessage{
		ID:     s.newID(),
		Text:   text,
		Author: author,
		SentAt: s.now(),
		Kind:   KindChat,
	}
	if err := s.publisher.Publish(ctx, candidate); err != nil {
		return ChatMessage{}, err
	}
	msg, ok := s.appendLocked(candidate)
	if !ok {
		// Broadcast went out, but an identical message is already on screen.
		return msg, nil
	}
	s.notifyLocked()
	return msg, nil
}

// Receive appends a message from another participant. The unread count grows
// only when the message was stored and the surface is hidden.
func (s *Store) Receive(candidate ChatMessage) (ChatMessage, bool) {
	candidate.Kind = KindChat

	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.appendLocked(candidate)
	if !ok {
		return ChatMessage{}, false
	}
	if !s.visible {
		s.unread++
	}
	s.notifyLocked()
	return msg, true
}

// EmitSystem appends a local notice. It never touches the network or the
// unread count.
func (s *Store) EmitSystem(text string) (ChatMessage, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, false
	}
	return s.Append(ChatMessage{
		Text:   text,
		Author: SystemAuthor,
		Kind:   KindSystem,
	})
}

// MarkRead resets the unread count.
func (s *Store) MarkRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markReadLocked()
}

// SetVisible records whether the chat surface is on screen. Becoming visible
// marks everything read.
func (s *Store) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
	if visible {
		s.markReadLocked()
	}
}

// Visible reports the last visibility signalled by the surface.
func (s *Store) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Clear empties the log and resets the unread count.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.log) == 0 && s.unread == 0 {
		return
	}
	s.log = nil
	s.unread = 0
	s.notifyLocked()
}

// Messages returns a copy of the log in insertion order.
func (s *Store) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.log)
}

// UnreadCount returns the number of messages received while hidden.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Snapshot returns the current log and unread count.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// withSnapshot runs fn with the current snapshot while holding the store
// lock, so fn is ordered with respect to change notifications.
func (s *Store) withSnapshot(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.snapshotLocked())
}

func (s *Store) appendLocked(c ChatMessage) (ChatMessage, bool) {
	if c.ID == "" {
		c.ID = s.newID()
	}
	c.ReceivedAt = s.now()
	if c.SentAt.IsZero() {
		c.SentAt = c.ReceivedAt
	}
	if prev, dup := s.duplicateLocked(c); dup {
		s.logger.Debug("dropping duplicate message", map[string]any{"author": c.Author.ID, "kept": prev.ID})
		return prev, false
	}
	s.log = append(s.log, c)
	return c, true
}

// duplicateLocked walks back from the tail while entries are inside the
// dedup window, looking for the same author and text.
func (s *Store) duplicateLocked(c ChatMessage) (ChatMessage, bool) {
	for i := len(s.log) - 1; i >= 0; i-- {
		prev := s.log[i]
		if absDuration(c.ReceivedAt.Sub(prev.ReceivedAt)) >= s.window {
			return ChatMessage{}, false
		}
		if prev.Author.ID == c.Author.ID && prev.Text == c.Text {
			return prev, true
		}
	}
	return ChatMessage{}, false
}

func (s *Store) markReadLocked() {
	if s.unread == 0 {
		return
	}
	s.unread = 0
	s.notifyLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Messages: slices.Clone(s.log), UnreadCount: s.unread}
}

func (s *Store) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshotLocked())
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
