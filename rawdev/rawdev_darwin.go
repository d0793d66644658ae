package rawdev

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"devwipe/wipe"
)

const (
	dkiocGetBlockSize  = 0x40046418 // _IOR('d', 24, uint32)
	dkiocGetBlockCount = 0x40086419 // _IOR('d', 25, uint64)
)

// DeviceSize multiplies DKIOCGETBLOCKCOUNT by DKIOCGETBLOCKSIZE. Regular
// files report their length.
func (b *Backend) DeviceSize(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if size, ok := regularFileSize(f); ok {
		return size, nil
	}
	blockSize, err := blockSize(f)
	if err != nil {
		return 0, err
	}
	var count uint64
	if err := ioctlPtr(f.Fd(), dkiocGetBlockCount, unsafe.Pointer(&count)); err != nil {
		return 0, &os.PathError{Op: "DKIOCGETBLOCKCOUNT", Path: path, Err: err}
	}
	hi, lo := bits.Mul64(count, uint64(blockSize))
	if hi != 0 {
		return math.MaxUint64, nil
	}
	return lo, nil
}

// BlockGeometry reports DKIOCGETBLOCKSIZE as both the logical and the
// physical sector size.
func (b *Backend) BlockGeometry(path string) (wipe.Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return wipe.Geometry{}, err
	}
	defer f.Close()
	bs, err := blockSize(f)
	if err != nil {
		return wipe.Geometry{}, err
	}
	return wipe.Geometry{Logical: bs, Physical: bs}, nil
}

func blockSize(f *os.File) (uint32, error) {
	var bs uint32
	if err := ioctlPtr(f.Fd(), dkiocGetBlockSize, unsafe.Pointer(&bs)); err != nil {
		return 0, &os.PathError{Op: "DKIOCGETBLOCKSIZE", Path: f.Name(), Err: err}
	}
	if bs == 0 {
		return 0, &os.PathError{Op: "DKIOCGETBLOCKSIZE", Path: f.Name(), Err: errors.New("device reported a zero block size")}
	}
	return bs, nil
}

// Supports reports false for wipe.Direct, darwin has no O_DIRECT.
func (b *Backend) Supports(mode wipe.SyncMode) bool {
	return mode != wipe.Direct
}

// Flush is fsync(2), which on darwin only reaches the drive cache.
func (b *Backend) Flush(h wipe.Handle) error {
	return os.NewSyscallError("fsync", unix.Fsync(int(h.Fd())))
}

// FullFlush is fcntl(F_FULLFSYNC).
func (b *Backend) FullFlush(h wipe.Handle) error {
	_, err := unix.FcntlInt(h.Fd(), unix.F_FULLFSYNC, 0)
	return os.NewSyscallError("fcntl(F_FULLFSYNC)", err)
}

func openFlags(mode wipe.SyncMode) (int, error) {
	switch mode {
	case wipe.Fast:
		return unix.O_WRONLY, nil
	case wipe.Durable:
		return unix.O_WRONLY | unix.O_SYNC, nil
	case wipe.Direct:
		return 0, fmt.Errorf("mode %v is only available on linux: %w", mode, errors.ErrUnsupported)
	}
	return 0, fmt.Errorf("unknown sync mode %v", mode)
}

// afterOpen keeps the written data out of the unified buffer cache.
func afterOpen(f *os.File) {
	_, _ = unix.FcntlInt(f.Fd(), unix.F_NOCACHE, 1)
}
