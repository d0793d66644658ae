package wipe

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates an invalid pass count, buffer size or a
	// mode that the current platform cannot provide.
	ErrConfiguration = errors.New("wipe: invalid configuration")

	// ErrDeviceQuery indicates that the size or geometry of a device could
	// not be determined.
	ErrDeviceQuery = errors.New("wipe: device query failed")

	// ErrDeviceOpen indicates that a device could not be opened for writing.
	ErrDeviceOpen = errors.New("wipe: device open failed")

	// ErrAllocation indicates that a write buffer with the requested
	// alignment could not be allocated.
	ErrAllocation = errors.New("wipe: buffer allocation failed")

	// ErrWrite indicates a failed or short write to the device.
	ErrWrite = errors.New("wipe: write failed")

	// ErrSync indicates a failed flush of the device.
	ErrSync = errors.New("wipe: sync failed")

	// ErrRandomSource indicates that the random byte source failed before
	// a buffer was completely filled.
	ErrRandomSource = errors.New("wipe: random source failed")
)

// Error describes a failed operation. It unwraps to both its Kind, one of
// the sentinel errors above, and the underlying cause.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func configErrorf(format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Op: fmt.Sprintf(format, args...)}
}
