package wipe

// Buffer size bounds used by ChooseBufferSize.
const (
	DefaultBufferSize = 64 * 1024
	MinBufferSize     = 16 * 1024
	MaxBufferSize     = 1024 * 1024
)

// Geometry holds the logical and physical sector sizes of a device in
// bytes.
type Geometry struct {
	Logical  uint32
	Physical uint32
}

// DefaultGeometry is used when a device does not report its block sizes.
var DefaultGeometry = Geometry{Logical: 512, Physical: 4096}

// Sector returns the effective sector size, the larger of the logical and
// physical block sizes. This is the alignment granularity for direct I/O.
func (g Geometry) Sector() int {
	return int(max(g.Logical, g.Physical))
}

// ChooseBufferSize normalizes a requested buffer size. A requested size of
// zero or less selects DefaultBufferSize. The size is clamped to
// [MinBufferSize, MaxBufferSize] and then rounded up to a multiple of the
// effective sector.
func ChooseBufferSize(g Geometry, requested int) int {
	target := requested
	if target <= 0 {
		target = DefaultBufferSize
	}
	target = min(max(target, MinBufferSize), MaxBufferSize)

	sector := g.Sector()
	if sector > 1 {
		if rem := target % sector; rem != 0 {
			target += sector - rem
		}
	}
	return target
}

// FullLimit returns the number of bytes of a pass that are written through
// the primary handle. In direct mode this is the largest multiple of sector
// that does not exceed size. The remainder, size - FullLimit, is the tail.
func FullLimit(size uint64, sector int, direct bool) uint64 {
	if !direct || sector <= 1 {
		return size
	}
	return size - size%uint64(sector)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
