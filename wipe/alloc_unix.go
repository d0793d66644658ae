//go:build linux || darwin

package wipe

import (
	"os"

	"golang.org/x/sys/unix"
)

// alignedAlloc maps anonymous memory when the page size is a multiple of
// align, which makes the mapping aligned by construction.
func alignedAlloc(size, align int) ([]byte, func() error, error) {
	if os.Getpagesize()%align != 0 {
		return overAllocate(size, align), nil, nil
	}
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return buf, func() error { return unix.Munmap(buf) }, nil
}
