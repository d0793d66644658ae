package rawdev

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

func (b *Backend) describe(d *Disk) {
	d.Kind = "Disk"
	sys := filepath.Join(b.SysfsRoot, filepath.Base(d.Path))
	if v, err := os.ReadFile(filepath.Join(sys, "removable")); err == nil {
		if strings.TrimSpace(string(v)) == "1" {
			d.Kind = "Removable Disk"
		} else {
			d.Kind = "Fixed Disk"
		}
	}
	if v, err := os.ReadFile(filepath.Join(sys, "device", "serial")); err == nil {
		d.Serial = strings.TrimSpace(string(v))
	}
	if size, err := b.DeviceSize(d.Path); err == nil {
		d.Size = size
	}
}

// Mounts reads the mount table from ProcRoot. Sizes are filled in with
// statfs(2) where the mount point is reachable.
func (b *Backend) Mounts() ([]Mount, error) {
	fs, err := procfs.NewFS(b.ProcRoot)
	if err != nil {
		return nil, err
	}
	infos, err := fs.GetMounts()
	if err != nil {
		return nil, err
	}
	mounts := make([]Mount, 0, len(infos))
	for _, mi := range infos {
		m := Mount{
			Device:     unescapeMount(mi.Source),
			MountPoint: unescapeMount(mi.MountPoint),
			FSType:     mi.FSType,
		}
		var st unix.Statfs_t
		if unix.Statfs(m.MountPoint, &st) == nil {
			m.Size = st.Blocks * uint64(st.Bsize)
		}
		mounts = append(mounts, m)
	}
	sortMounts(mounts)
	return mounts, nil
}
