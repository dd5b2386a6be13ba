package analysis

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one of the closed set of failures the pipeline can
// produce. Call sites can switch exhaustively on it via AsError / KindOf.
type ErrorKind int

const (
	// ErrUnknown is the zero value and never produced by this package.
	ErrUnknown ErrorKind = iota

	// ErrInvalidChannelCount: decoded buffer reported fewer than one channel.
	ErrInvalidChannelCount

	// ErrChannelLengthMismatch: left/right buffers differ in length.
	ErrChannelLengthMismatch

	// ErrBufferAllocationFailed: the canonical stereo buffer cannot be sized
	// to the reported frame count.
	ErrBufferAllocationFailed

	// ErrTransformSetupFailed: the frequency transform could not be
	// initialized for the configured window size.
	ErrTransformSetupFailed

	// ErrSerializationFailed: the analysis record could not be encoded.
	ErrSerializationFailed

	// ErrWriteFailed: the sidecar file could not be written.
	ErrWriteFailed

	// ErrDecodeFailed: the media decoder collaborator failed.
	ErrDecodeFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidChannelCount:
		return "invalid_channel_count"
	case ErrChannelLengthMismatch:
		return "channel_length_mismatch"
	case ErrBufferAllocationFailed:
		return "buffer_allocation_failed"
	case ErrTransformSetupFailed:
		return "transform_setup_failed"
	case ErrSerializationFailed:
		return "serialization_failed"
	case ErrWriteFailed:
		return "write_failed"
	case ErrDecodeFailed:
		return "decode_failed"
	default:
		return "unknown"
	}
}

// Error is the tagged error type for every failure this package produces.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two *Error values by kind, so errors.Is(err, &Error{Kind: k})
// works without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the ErrorKind carried by err, or ErrUnknown if err is not an
// *Error from this package.
func KindOf(err error) ErrorKind {
	var e *Error
	if !errors.As(err, &e) {
		return ErrUnknown
	}
	return e.Kind
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
