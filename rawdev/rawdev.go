// Package rawdev implements wipe.Backend on top of raw block devices.
//
// Linux and darwin are supported. Regular files are accepted everywhere a
// device path is, which keeps the package usable against disk images.
package rawdev

import (
	"os"
	"strconv"
	"strings"

	"devwipe/wipe"
)

// Backend queries, opens and flushes raw devices. The zero value is not
// usable, create one with New.
type Backend struct {
	// SysfsRoot is the directory holding one entry per block device,
	// /sys/class/block on linux.
	SysfsRoot string
	// DevRoot is scanned by Discover.
	DevRoot string
	// ProcRoot is the procfs mount point whose self/mountinfo is read by
	// Mounts on linux.
	ProcRoot string
}

var _ wipe.Backend = (*Backend)(nil)

// New returns a Backend for the host system.
func New() *Backend {
	return &Backend{
		SysfsRoot: "/sys/class/block",
		DevRoot:   "/dev",
		ProcRoot:  "/proc",
	}
}

func readUint(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
}

func regularFileSize(f *os.File) (uint64, bool) {
	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		return 0, false
	}
	return uint64(fi.Size()), true
}
