package meetchat

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota

	// Send-path errors
	ErrorChannelUnavailable
	ErrorSendRejected
	ErrorEmptyMessage
	ErrorTextTooLong

	// Inbound errors, never surfaced to the UI
	ErrorMalformedInboundEvent

	// Client-side errors
	ErrorInvalidConfig
	ErrorSerialization
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorChannelUnavailable:
		return "channel_unavailable"
	case ErrorSendRejected:
		return "send_rejected"
	case ErrorEmptyMessage:
		return "empty_message"
	case ErrorTextTooLong:
		return "text_too_long"
	case ErrorMalformedInboundEvent:
		return "malformed_inbound_event"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorSerialization:
		return "serialization_error"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// ParseErrorCode converts an error code string, as sent by a relay, to ErrorCode.
func ParseErrorCode(code string) ErrorCode {
	switch code {
	case "channel_unavailable", "not_joined":
		return ErrorChannelUnavailable
	case "send_rejected", "forbidden":
		return ErrorSendRejected
	case "empty_message":
		return ErrorEmptyMessage
	case "text_too_long":
		return ErrorTextTooLong
	case "malformed_inbound_event", "bad_frame":
		return ErrorMalformedInboundEvent
	case "invalid_config":
		return ErrorInvalidConfig
	case "serialization_error":
		return ErrorSerialization
	default:
		return ErrorUnknown
	}
}

// Sentinels for errors.Is. Comparison is by code, so wrapped errors with
// a different message still match.
var (
	ErrChannelUnavailable    = NewError(ErrorChannelUnavailable, "no active broadcast channel")
	ErrSendRejected          = NewError(ErrorSendRejected, "broadcast rejected")
	ErrEmptyMessage          = NewError(ErrorEmptyMessage, "message text is empty")
	ErrTextTooLong           = NewError(ErrorTextTooLong, "message text exceeds limit")
	ErrMalformedInboundEvent = NewError(ErrorMalformedInboundEvent, "inbound event is not a chat message")
	ErrInvalidConfig         = NewError(ErrorInvalidConfig, "invalid config")
	ErrSerialization         = NewError(ErrorSerialization, "serialization failed")
)

// ChatError is a structured error with code and context.
type ChatError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *ChatError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface for error comparison.
func (e *ChatError) Is(target error) bool {
	t, ok := target.(*ChatError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new ChatError with the given code and message.
func NewError(code ErrorCode, message string) *ChatError {
	return &ChatError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with a ChatError.
func WrapError(code ErrorCode, message string, err error) *ChatError {
	return &ChatError{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// CodeOf returns the code of the first ChatError in err's chain, or ErrorUnknown.
func CodeOf(err error) ErrorCode {
	var ce *ChatError
	if !errors.As(err, &ce) {
		return ErrorUnknown
	}
	return ce.Code
}

// IsSendFailure reports whether err means a message was not broadcast and
// therefore not echoed locally. The user may retry.
func IsSendFailure(err error) bool {
	if err == nil {
		return false
	}
	code := CodeOf(err)
	return code == ErrorChannelUnavailable || code == ErrorSendRejected
}

// IsValidationError reports whether err was raised before any network or
// store mutation because the input text was rejected.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	code := CodeOf(err)
	return code == ErrorEmptyMessage || code == ErrorTextTooLong
}
