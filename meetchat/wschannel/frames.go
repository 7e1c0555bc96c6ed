package wschannel

import "github.com/vovakirdan/meetchat-sdk/meetchat"

const (
	// client -> relay
	frameJoin      = "join"
	frameBroadcast = "broadcast"

	// relay -> client
	frameJoined = "joined"
	frameEvent  = "event"
	frameError  = "error"
)

// Frame is the envelope exchanged between a Channel and the Relay.
type Frame struct {
	Type        string          `json:"type"`
	Meeting     string          `json:"meeting,omitempty"`
	Participant string          `json:"participant,omitempty"`
	From        string          `json:"from,omitempty"`
	Event       *meetchat.Event `json:"event,omitempty"`
	Error       *FrameError     `json:"error,omitempty"`
}

// FrameError describes a relay-side error.
type FrameError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *FrameError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Msg
}

// toChatError converts a relay error frame into the SDK's error taxonomy.
func (e *FrameError) toChatError() *meetchat.ChatError {
	if e == nil {
		return meetchat.NewError(meetchat.ErrorUnknown, "relay error without details")
	}
	return meetchat.NewError(meetchat.ParseErrorCode(e.Code), e.Msg)
}
