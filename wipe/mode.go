package wipe

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// SyncMode selects the open flags and the end-of-pass flush strength.
type SyncMode int

const (
	// Fast adds no barrier beyond the operating system default. The end of
	// a pass performs a best-effort flush.
	Fast SyncMode = iota
	// Durable opens the device write-through where available and forces a
	// full flush at the end of every pass.
	Durable
	// Direct bypasses the page cache. Buffers, lengths and offsets must be
	// sector aligned, except for the tail.
	Direct
)

var _ pflag.Value = (*SyncMode)(nil)

// ParseSyncMode parses "fast", "durable" or "direct".
func ParseSyncMode(s string) (SyncMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return Fast, nil
	case "durable":
		return Durable, nil
	case "direct":
		return Direct, nil
	default:
		return Fast, configErrorf("unknown mode %q, expected fast|durable|direct", s)
	}
}

func (m SyncMode) String() string {
	switch m {
	case Fast:
		return "fast"
	case Durable:
		return "durable"
	case Direct:
		return "direct"
	default:
		return fmt.Sprintf("SyncMode(%d)", int(m))
	}
}

// IsDurable reports whether passes end with a full, platform-strength flush.
func (m SyncMode) IsDurable() bool {
	return m == Durable
}

// IsDirect reports whether the primary handle bypasses the page cache.
func (m SyncMode) IsDirect() bool {
	return m == Direct
}

// Set implements pflag.Value.
func (m *SyncMode) Set(s string) error {
	v, err := ParseSyncMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Type implements pflag.Value.
func (m *SyncMode) Type() string {
	return "fast|durable|direct"
}
