//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=mocks/mock_channel.go -package=mocks

package meetchat

import "context"

// Channel is the broadcast primitive provided by the call transport.
//
// Delivery is best effort: no ordering, no acknowledgement, no replay for
// late joiners. Implementations must invoke handlers on their own goroutine,
// never inline from Broadcast.
type Channel interface {
	// Broadcast sends ev to every current member of the call.
	Broadcast(ctx context.Context, ev Event) error
	// OnEvent registers handler for every inbound event and returns a function
	// that removes it.
	OnEvent(handler func(Event)) (unsubscribe func())
	// LocalParticipantID identifies this client within the call.
	LocalParticipantID() string
}

// ConnectionReporter is optionally implemented by channels that can tell
// whether their underlying connection is live.
type ConnectionReporter interface {
	Connected() bool
}

// DisconnectNotifier is optionally implemented by channels that can signal
// when their connection is gone for good. Sessions watch it and report the
// loss through OnStateChange.
type DisconnectNotifier interface {
	// Done is closed once the channel can no longer broadcast or deliver.
	Done() <-chan struct{}
}
