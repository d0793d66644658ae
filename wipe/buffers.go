package wipe

import (
	"fmt"
	"unsafe"
)

// Buffers owns the reusable write buffers of one run. The main buffer is
// refilled at the start of every pass, never reallocated.
type Buffers struct {
	main    []byte
	tail    []byte
	direct  bool
	release func() error
}

// NewBuffers allocates a main buffer of size bytes. When direct is set,
// both the base address and the length of the main buffer are multiples
// of sector, which must be a power of two.
func NewBuffers(size int, direct bool, sector int) (*Buffers, error) {
	if size <= 0 {
		return nil, &Error{Kind: ErrAllocation, Op: fmt.Sprintf("allocate %d byte buffer", size)}
	}
	if !direct {
		return &Buffers{main: make([]byte, size)}, nil
	}
	if !isPowerOfTwo(sector) {
		return nil, &Error{Kind: ErrAllocation, Op: fmt.Sprintf("align buffer to %d bytes", sector), Err: fmt.Errorf("alignment must be a power of two")}
	}
	if size%sector != 0 {
		return nil, &Error{Kind: ErrAllocation, Op: fmt.Sprintf("allocate %d byte buffer", size), Err: fmt.Errorf("size is not a multiple of the %d byte sector", sector)}
	}
	main, release, err := alignedAlloc(size, sector)
	if err != nil {
		return nil, &Error{Kind: ErrAllocation, Op: fmt.Sprintf("allocate %d byte buffer aligned to %d", size, sector), Err: err}
	}
	if !isAligned(main, sector) {
		if release != nil {
			_ = release()
		}
		return nil, &Error{Kind: ErrAllocation, Op: fmt.Sprintf("allocate %d byte buffer aligned to %d", size, sector), Err: fmt.Errorf("allocator returned unaligned memory")}
	}
	return &Buffers{
		main:    main,
		tail:    make([]byte, 0, sector),
		direct:  true,
		release: release,
	}, nil
}

// Main returns the main write buffer.
func (b *Buffers) Main() []byte {
	return b.main
}

// Tail returns a buffer of length n for the sub-sector remainder of a
// direct pass. The contents are stale; callers refill it before every use.
func (b *Buffers) Tail(n int) []byte {
	if cap(b.tail) < n {
		b.tail = make([]byte, n)
	}
	return b.tail[:n]
}

// Direct reports whether the main buffer is laid out for direct I/O.
func (b *Buffers) Direct() bool {
	return b.direct
}

// Close releases memory obtained outside of the Go heap.
func (b *Buffers) Close() error {
	if b.release == nil {
		return nil
	}
	err := b.release()
	b.release = nil
	b.main = nil
	return err
}

// overAllocate returns a heap slice of length size whose first byte sits
// on an align boundary.
func overAllocate(size, align int) []byte {
	raw := make([]byte, size+align)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) & uintptr(align-1)); rem != 0 {
		off = align - rem
	}
	return raw[off : off+size : off+size]
}

func isAligned(buf []byte, align int) bool {
	if len(buf) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&buf[0]))&uintptr(align-1) == 0 && len(buf)%align == 0
}
