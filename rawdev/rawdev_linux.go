package rawdev

import (
	"fmt"
	"math"
	"math/bits"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"

	"devwipe/wipe"
)

// DeviceSize asks the kernel with BLKGETSIZE64 and falls back to the
// sysfs sector count. Regular files report their length.
func (b *Backend) DeviceSize(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if size, ok := regularFileSize(f); ok {
		return size, nil
	}
	var size uint64
	if err := ioctlPtr(f.Fd(), unix.BLKGETSIZE64, unsafe.Pointer(&size)); err == nil && size > 0 {
		return size, nil
	}

	sectors, err := readUint(b.sysfsPath(path, "size"))
	if err != nil {
		return 0, fmt.Errorf("cannot determine size of %s: %w", path, err)
	}
	hi, lo := bits.Mul64(sectors, 512)
	if hi != 0 {
		return math.MaxUint64, nil
	}
	return lo, nil
}

// BlockGeometry reads queue/{logical,physical}_block_size from sysfs and
// falls back to the BLKSSZGET and BLKPBSZGET ioctls.
func (b *Backend) BlockGeometry(path string) (wipe.Geometry, error) {
	logical, err := readUint(b.sysfsPath(path, "queue", "logical_block_size"))
	if err == nil && logical > 0 {
		physical, err := readUint(b.sysfsPath(path, "queue", "physical_block_size"))
		if err != nil || physical == 0 {
			physical = max(logical, 512)
		}
		return wipe.Geometry{Logical: uint32(logical), Physical: uint32(physical)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return wipe.Geometry{}, err
	}
	defer f.Close()
	var lbs int32
	if err := ioctlPtr(f.Fd(), unix.BLKSSZGET, unsafe.Pointer(&lbs)); err != nil {
		return wipe.Geometry{}, &os.PathError{Op: "BLKSSZGET", Path: path, Err: err}
	}
	var pbs uint32
	if err := ioctlPtr(f.Fd(), unix.BLKPBSZGET, unsafe.Pointer(&pbs)); err != nil || pbs == 0 {
		pbs = max(uint32(lbs), 512)
	}
	return wipe.Geometry{Logical: uint32(lbs), Physical: pbs}, nil
}

// Supports reports true for every mode.
func (b *Backend) Supports(wipe.SyncMode) bool {
	return true
}

// Flush is fdatasync(2).
func (b *Backend) Flush(h wipe.Handle) error {
	return os.NewSyscallError("fdatasync", unix.Fdatasync(int(h.Fd())))
}

// FullFlush is fsync(2). Linux has no stronger primitive.
func (b *Backend) FullFlush(h wipe.Handle) error {
	return os.NewSyscallError("fsync", unix.Fsync(int(h.Fd())))
}

func (b *Backend) sysfsPath(dev string, elem ...string) string {
	if resolved, err := filepath.EvalSymlinks(dev); err == nil {
		dev = resolved
	}
	return filepath.Join(append([]string{b.SysfsRoot, filepath.Base(dev)}, elem...)...)
}

func openFlags(mode wipe.SyncMode) (int, error) {
	switch mode {
	case wipe.Fast:
		return unix.O_WRONLY, nil
	case wipe.Durable:
		return unix.O_WRONLY | unix.O_SYNC, nil
	case wipe.Direct:
		return unix.O_WRONLY | unix.O_DIRECT, nil
	}
	return 0, fmt.Errorf("unknown sync mode %v", mode)
}

func afterOpen(*os.File) {}
