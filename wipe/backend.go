package wipe

import "io"

// Handle is an open, writable device. *os.File satisfies it.
type Handle interface {
	io.Writer
	io.WriterAt
	io.Seeker
	io.Closer

	Sync() error
	Fd() uintptr
}

// Flusher provides the platform flush primitives. Flush is the
// fsync-class primitive, FullFlush the strongest primitive the platform
// offers (F_FULLFSYNC on darwin).
type Flusher interface {
	Flush(h Handle) error
	FullFlush(h Handle) error
}

// Backend is the raw-device capability used by the engine and its
// callers. The engine only ever reaches the operating system through it.
type Backend interface {
	Flusher

	// DeviceSize returns the number of addressable bytes of path.
	DeviceSize(path string) (uint64, error)
	// BlockGeometry returns the logical and physical sector sizes.
	BlockGeometry(path string) (Geometry, error)
	// Open opens path for sequential writing under mode, positioned at
	// offset 0.
	Open(path string, mode SyncMode) (Handle, error)
	// Supports reports whether mode can be provided on this platform.
	Supports(mode SyncMode) bool
}
