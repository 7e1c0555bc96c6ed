package meetchat

import "time"

// Kind distinguishes broadcast chat messages from local-only notices.
type Kind int

const (
	// KindChat is a message typed by a participant and broadcast to the meeting.
	KindChat Kind = iota
	// KindSystem is a local notice, e.g. connection status. Never broadcast.
	KindSystem
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindChat:
		return messageTypeChat
	case KindSystem:
		return messageTypeSystem
	default:
		return "unknown"
	}
}

// Author is the identity snapshot captured when a message is created.
type Author struct {
	ID          string
	DisplayName string
	AvatarRef   string // optional
}

// SystemAuthor is the author of every KindSystem message.
var SystemAuthor = Author{ID: "system", DisplayName: "System"}

// ChatMessage is one entry of the session log. Values are never mutated once stored.
type ChatMessage struct {
	ID         string
	Text       string
	Author     Author
	SentAt     time.Time // origin clock, advisory
	ReceivedAt time.Time // local clock, set by the store
	Kind       Kind
}

// Snapshot is the state handed to observers.
type Snapshot struct {
	Messages    []ChatMessage
	UnreadCount int
}

// Len returns the number of messages in the snapshot.
func (s Snapshot) Len() int { return len(s.Messages) }

// Last returns the most recent message, if any.
func (s Snapshot) Last() (ChatMessage, bool) {
	if len(s.Messages) == 0 {
		return ChatMessage{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
