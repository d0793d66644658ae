package rawdev

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Disk is a device node found by Discover.
type Disk struct {
	Path string
	// Whole is set for whole-disk devices, the only valid wipe targets.
	Whole  bool
	Reason string

	Kind   string
	Serial string
	Size   uint64
}

// Mount is a mounted filesystem.
type Mount struct {
	Device     string
	MountPoint string
	FSType     string
	Size       uint64
}

var (
	wholeName     = regexp.MustCompile(`^((s|v|xv|h)d[a-z]+|nvme\d+n\d+|mmcblk\d+|r?disk\d+)$`)
	partitionName = regexp.MustCompile(`^(?:((?:s|v|xv|h)d[a-z]+)\d+|(nvme\d+n\d+|mmcblk\d+)p\d+|(r?disk\d+)s\d+)$`)
	loopName      = regexp.MustCompile(`^loop\d+$`)
)

// classify sorts a /dev entry into whole disks and partitions. ok is false
// for nodes that are not disks at all.
func classify(name string) (d Disk, ok bool) {
	switch {
	case wholeName.MatchString(name):
		return Disk{Whole: true}, true
	case partitionName.MatchString(name):
		return Disk{Reason: "partition"}, true
	case loopName.MatchString(name):
		return Disk{Reason: "loop device"}, true
	}
	return Disk{}, false
}

// Discover lists the disks and partitions below DevRoot. Details are
// only filled in for whole disks.
func (b *Backend) Discover() ([]Disk, error) {
	entries, err := os.ReadDir(b.DevRoot)
	if err != nil {
		return nil, err
	}
	var disks []Disk
	for _, e := range entries {
		d, ok := classify(e.Name())
		if !ok {
			continue
		}
		d.Path = filepath.Join(b.DevRoot, e.Name())
		if d.Whole {
			b.describe(&d)
		}
		disks = append(disks, d)
	}
	return disks, nil
}

// WholeDisk maps a partition path to the path of its disk. Any other path
// is returned unchanged.
func WholeDisk(path string) string {
	dir, base := filepath.Split(path)
	m := partitionName.FindStringSubmatch(base)
	if m == nil {
		return path
	}
	for _, whole := range m[1:] {
		if whole != "" {
			return filepath.Join(dir, whole)
		}
	}
	return path
}

// MountsOn returns the mounts whose source is device or one of its
// partitions.
func MountsOn(mounts []Mount, device string) []Mount {
	target := canonical(device)
	var out []Mount
	for _, m := range mounts {
		if canonical(m.Device) == target || canonical(WholeDisk(m.Device)) == target {
			out = append(out, m)
		}
	}
	return out
}

// canonical resolves symlinks and maps darwin's raw rdiskN nodes onto
// their buffered diskN twins.
func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	dir, base := filepath.Split(filepath.Clean(path))
	if strings.HasPrefix(base, "rdisk") {
		base = base[1:]
	}
	return filepath.Join(dir, base)
}

// Resolve maps a mount point or device path to its device and, when it
// is mounted, the mount point.
func (b *Backend) Resolve(p string) (device, mountpoint string, err error) {
	p = filepath.Clean(p)
	mounts, mountsErr := b.Mounts()
	if strings.HasPrefix(p, b.DevRoot+string(filepath.Separator)) {
		for _, m := range MountsOn(mounts, p) {
			if canonical(m.Device) == canonical(p) {
				return p, m.MountPoint, nil
			}
		}
		return p, "", nil
	}
	if mountsErr != nil {
		return "", "", mountsErr
	}
	for _, m := range mounts {
		if filepath.Clean(m.MountPoint) == p {
			return m.Device, m.MountPoint, nil
		}
	}
	return "", "", fmt.Errorf("cannot resolve device for %s", p)
}

var mountEscapes = strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)

// unescapeMount undoes the octal escaping of the kernel's mount tables.
func unescapeMount(s string) string {
	return mountEscapes.Replace(s)
}

func sortMounts(mounts []Mount) {
	sort.SliceStable(mounts, func(i, j int) bool { return mounts[i].MountPoint < mounts[j].MountPoint })
}
