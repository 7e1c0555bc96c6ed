package meetchat

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// EventTypeChatMessage is the envelope type of chat broadcasts.
	EventTypeChatMessage = "chat.message"

	messageTypeChat   = "message"
	messageTypeSystem = "system"
)

// Event is the generic custom-event envelope carried by a call's broadcast
// channel. Chat shares the channel with unrelated traffic.
type Event struct {
	Type   string          `json:"type"`
	Custom json.RawMessage `json:"custom,omitempty"`
}

// ChatPayload is the custom body of a chat.message event.
type ChatPayload struct {
	Text        string      `json:"text"`
	User        UserPayload `json:"user"`
	MessageType string      `json:"messageType"`
	Timestamp   string      `json:"timestamp"`
}

// UserPayload is the author snapshot on the wire.
type UserPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// inboundPayload mirrors ChatPayload with pointers so missing fields can be
// told apart from empty ones.
type inboundPayload struct {
	Text        *string         `json:"text"`
	User        *inboundUser    `json:"user"`
	MessageType *string         `json:"messageType"`
	Timestamp   json.RawMessage `json:"timestamp"`
}

type inboundUser struct {
	ID    *string `json:"id"`
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

// EncodeChatEvent builds the broadcast envelope for msg.
func EncodeChatEvent(msg ChatMessage) (Event, error) {
	payload := ChatPayload{
		Text: msg.Text,
		User: UserPayload{
			ID:    msg.Author.ID,
			Name:  msg.Author.DisplayName,
			Image: msg.Author.AvatarRef,
		},
		MessageType: msg.Kind.String(),
		Timestamp:   msg.SentAt.UTC().Format(time.RFC3339Nano),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, WrapError(ErrorSerialization, "failed to marshal chat payload", err)
	}
	return Event{Type: EventTypeChatMessage, Custom: raw}, nil
}

// DecodeChatEvent extracts a chat candidate from ev. Anything that does not
// have the chat shape yields ErrMalformedInboundEvent. fallback is used as
// SentAt when the advisory timestamp is missing or unparsable.
func DecodeChatEvent(ev Event, fallback time.Time) (ChatMessage, error) {
	if len(ev.Custom) == 0 {
		return ChatMessage{}, NewError(ErrorMalformedInboundEvent, "event has no custom body")
	}
	var in inboundPayload
	if err := json.Unmarshal(ev.Custom, &in); err != nil {
		return ChatMessage{}, WrapError(ErrorMalformedInboundEvent, "custom body does not match chat shape", err)
	}
	switch {
	case in.Text == nil || in.User == nil:
		return ChatMessage{}, NewError(ErrorMalformedInboundEvent, "missing text or user")
	case strings.TrimSpace(*in.Text) == "":
		return ChatMessage{}, NewError(ErrorMalformedInboundEvent, "blank text")
	case in.User.ID == nil || *in.User.ID == "":
		return ChatMessage{}, NewError(ErrorMalformedInboundEvent, "missing user id")
	case in.User.Name == nil:
		return ChatMessage{}, NewError(ErrorMalformedInboundEvent, "missing user name")
	case in.MessageType == nil || *in.MessageType != messageTypeChat:
		return ChatMessage{}, NewError(ErrorMalformedInboundEvent, "unexpected messageType")
	}

	author := Author{ID: *in.User.ID, DisplayName: *in.User.Name}
	if in.User.Image != nil {
		author.AvatarRef = *in.User.Image
	}
	return ChatMessage{
		Text:   *in.Text,
		Author: author,
		SentAt: parseTimestamp(in.Timestamp, fallback),
		Kind:   KindChat,
	}, nil
}

func parseTimestamp(raw json.RawMessage, fallback time.Time) time.Time {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return fallback
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fallback
	}
	return t
}
