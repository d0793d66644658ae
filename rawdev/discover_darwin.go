package rawdev

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

func (b *Backend) describe(d *Disk) {
	d.Kind = "Disk"
	if size, err := b.DeviceSize(d.Path); err == nil {
		d.Size = size
	}
}

// Mounts lists the mounted filesystems with getfsstat(2).
func (b *Backend) Mounts() ([]Mount, error) {
	n, err := unix.Getfsstat(nil, unix.MNT_NOWAIT)
	if err != nil {
		return nil, err
	}
	buf := make([]unix.Statfs_t, n)
	n, err = unix.Getfsstat(buf, unix.MNT_NOWAIT)
	if err != nil {
		return nil, err
	}
	mounts := make([]Mount, 0, n)
	for _, st := range buf[:n] {
		mounts = append(mounts, Mount{
			Device:     unix.ByteSliceToString(st.Mntfromname[:]),
			MountPoint: filepath.Clean(unix.ByteSliceToString(st.Mntonname[:])),
			FSType:     unix.ByteSliceToString(st.Fstypename[:]),
			Size:       st.Blocks * uint64(st.Bsize),
		})
	}
	sortMounts(mounts)
	return mounts, nil
}
