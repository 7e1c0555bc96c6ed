package meetchat

// ConnectionState is the session's view of its broadcast channel.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnected    ConnectionState = "connected"
	StateClosed       ConnectionState = "closed" // terminal
)

func (s ConnectionState) String() string { return string(s) }

// StateEvent is delivered to OnStateChange callbacks.
type StateEvent struct {
	Meeting  string
	OldState ConnectionState
	NewState ConnectionState
	Error    error // set when a failure caused the change
}
