package meetchat

import (
	"time"

	"github.com/google/uuid"
)

// Option customizes a Store or Session.
type Option func(*options)

type options struct {
	now    func() time.Time
	newID  func() string
	logger Logger
}

func defaultOptions() options {
	return options{
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: noopLogger{},
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithClock replaces time.Now for message timestamps and dedup windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator replaces the UUID generator used for message ids.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithLogger sets the logger at construction time.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
