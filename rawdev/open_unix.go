//go:build linux || darwin

package rawdev

import (
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"devwipe/wipe"
)

// Open opens path write-only with the flags of mode and positions it at
// offset 0.
func (b *Backend) Open(path string, mode wipe.SyncMode) (wipe.Handle, error) {
	flags, err := openFlags(mode)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	f := os.NewFile(uintptr(fd), path)
	afterOpen(f)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func ioctlPtr(fd uintptr, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
