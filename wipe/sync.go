package wipe

import (
	"errors"
	"syscall"
)

// SyncPolicy applies the end-of-pass flush for a SyncMode.
type SyncPolicy struct {
	Flusher Flusher
	Durable bool
}

// Apply flushes h. Durable policies use the full flush and fall back to
// the soft flush if the device does not support it. Soft flushes treat
// "not supported" errors as success, raw devices often lack them.
func (p SyncPolicy) Apply(h Handle) error {
	if p.Durable {
		return p.hardSync(h)
	}
	return p.softSync(h)
}

func (p SyncPolicy) softSync(h Handle) error {
	if err := p.Flusher.Flush(h); err != nil && !IsNotSupported(err) {
		return err
	}
	return nil
}

func (p SyncPolicy) hardSync(h Handle) error {
	err := p.Flusher.FullFlush(h)
	if err == nil {
		return nil
	}
	if IsNotSupported(err) {
		return p.softSync(h)
	}
	return err
}

// IsNotSupported reports whether err means that the device class does not
// implement the requested operation.
func IsNotSupported(err error) bool {
	return errors.Is(err, syscall.ENOTTY) ||
		errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EOPNOTSUPP) ||
		errors.Is(err, syscall.EINVAL)
}
