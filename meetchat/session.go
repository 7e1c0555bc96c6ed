package meetchat

import (
	"context"
	"sync"
)

// disconnectNotice is the local notice appended when the channel goes away.
const disconnectNotice = "Chat disconnected"

// Session is the chat surface of one meeting. UIs subscribe to it and never
// see the broadcast channel directly; the session outlives any chat panel
// mount/unmount.
type Session struct {
	cfg        Config
	author     Author
	bridge     *Bridge
	store      *Store
	dispatcher Dispatcher

	// transition serializes state changes together with their dispatch.
	transition sync.Mutex

	mu       sync.Mutex
	logger   Logger
	state    ConnectionState
	closed   bool
	watching bool
	stop     chan struct{}
	watchers sync.WaitGroup
}

// NewSession binds a session to ch. Empty author fields default to the
// channel's local participant id.
func NewSession(cfg Config, ch Channel, author Author, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, NewError(ErrorInvalidConfig, "nil channel")
	}
	if author.ID == "" {
		author.ID = ch.LocalParticipantID()
	}
	if author.ID == "" {
		return nil, NewError(ErrorInvalidConfig, "author id is required")
	}
	if author.DisplayName == "" {
		author.DisplayName = author.ID
	}

	o := applyOptions(opts)
	bridge := NewBridge(ch, cfg.PublishTimeout)
	bridge.now = o.now
	bridge.SetLogger(o.logger)
	bridge.IgnoreAuthor(author.ID)

	s := &Session{
		cfg:    cfg,
		author: author,
		logger: o.logger,
		bridge: bridge,
		store:  NewStore(bridge, cfg, opts...),
		state:  StateDisconnected,
		stop:   make(chan struct{}),
	}
	s.store.OnChange(s.dispatcher.DispatchSnapshot)
	return s, nil
}

// SetLogger overrides logger (optional).
func (s *Session) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
	s.bridge.SetLogger(l)
	s.store.SetLogger(l)
}

// Start subscribes to inbound chat events. When the channel implements
// DisconnectNotifier, the session reports its loss as StateDisconnected.
func (s *Session) Start() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return NewError(ErrorChannelUnavailable, "session closed")
	}
	if err := s.bridge.Start(s.receive); err != nil {
		s.setState(StateDisconnected, err)
		return err
	}
	if !s.bridge.Connected() {
		err := NewError(ErrorChannelUnavailable, "channel not connected")
		s.setState(StateDisconnected, err)
		return err
	}
	s.setState(StateConnected, nil)
	s.watchChannel()
	return nil
}

// watchChannel waits for the channel to go away, then reports it once.
func (s *Session) watchChannel() {
	n, ok := s.bridge.ch.(DisconnectNotifier)
	if !ok {
		return
	}
	s.mu.Lock()
	if s.closed || s.watching {
		s.mu.Unlock()
		return
	}
	s.watching = true
	s.watchers.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.watchers.Done()
		select {
		case <-n.Done():
		case <-s.stop:
			return
		}
		cause := NewError(ErrorChannelUnavailable, "channel disconnected")
		s.log().Warn("channel lost", map[string]any{"meeting": s.cfg.MeetingID})
		if s.setState(StateDisconnected, cause) {
			s.store.EmitSystem(disconnectNotice)
		}
	}()
}

// Subscribe registers fn. It is called at once with the current snapshot,
// then synchronously after every change. fn must not call session mutators.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	var id int
	s.store.withSnapshot(func(snap Snapshot) {
		id = s.dispatcher.Subscribe(fn)
		fn(snap)
	})
	var once sync.Once
	return func() {
		once.Do(func() { s.dispatcher.Unsubscribe(id) })
	}
}

// OnStateChange registers callback for connection state changes. fn runs on
// the goroutine that changed the state and must not call Start or Close.
// StateClosed is always the last event.
func (s *Session) OnStateChange(fn func(StateEvent)) { s.dispatcher.SetOnState(fn) }

// Send broadcasts text as the session author. The message shows up in the
// log only if the broadcast succeeded.
func (s *Session) Send(ctx context.Context, text string) (ChatMessage, error) {
	msg, err := s.store.Send(ctx, text, s.author)
	if err != nil && IsSendFailure(err) {
		s.log().Warn("send failed", map[string]any{"meeting": s.cfg.MeetingID, "error": err.Error()})
	}
	return msg, err
}

// SystemMessage appends a local notice.
func (s *Session) SystemMessage(text string) (ChatMessage, bool) {
	return s.store.EmitSystem(text)
}

// Focus tells the session the chat surface is visible; everything is read.
func (s *Session) Focus() { s.store.SetVisible(true) }

// Blur tells the session the chat surface is hidden.
func (s *Session) Blur() { s.store.SetVisible(false) }

// Clear empties the log and the unread count.
func (s *Session) Clear() { s.store.Clear() }

// Close unsubscribes from the channel, then clears the log. The channel
// itself is owned by the caller and stays open.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()

	s.watchers.Wait()
	s.bridge.Stop()
	s.store.Clear()
	s.setState(StateClosed, nil)
	return nil
}

func (s *Session) Messages() []ChatMessage { return s.store.Messages() }
func (s *Session) UnreadCount() int        { return s.store.UnreadCount() }
func (s *Session) Snapshot() Snapshot      { return s.store.Snapshot() }
func (s *Session) Connected() bool         { return s.bridge.Connected() }
func (s *Session) MeetingID() string       { return s.cfg.MeetingID }
func (s *Session) Author() Author          { return s.author }

// State returns the current connection state.
func (s *Session) State() ConnectionState {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	switch {
	case closed:
		return StateClosed
	case s.bridge.Connected():
		return StateConnected
	default:
		return StateDisconnected
	}
}

func (s *Session) receive(msg ChatMessage) {
	s.store.Receive(msg)
}

func (s *Session) log() Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

// setState records next and dispatches the change. Once the session is
// closing, only StateClosed is accepted, and StateClosed is never left.
func (s *Session) setState(next ConnectionState, err error) bool {
	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	prev := s.state
	if prev == next || prev == StateClosed || (s.closed && next != StateClosed) {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.mu.Unlock()
	s.dispatcher.DispatchState(StateEvent{Meeting: s.cfg.MeetingID, OldState: prev, NewState: next, Error: err})
	return true
}
