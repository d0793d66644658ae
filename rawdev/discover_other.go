//go:build !linux && !darwin

package rawdev

func (b *Backend) describe(d *Disk) {
	d.Kind = "Disk"
}

// Mounts is not implemented on this platform.
func (b *Backend) Mounts() ([]Mount, error) {
	return nil, errPlatform
}
