//go:build !linux && !darwin

package rawdev

import (
	"errors"
	"fmt"
	"runtime"

	"devwipe/wipe"
)

var errPlatform = fmt.Errorf("raw device access on %s: %w", runtime.GOOS, errors.ErrUnsupported)

func (b *Backend) DeviceSize(string) (uint64, error) { return 0, errPlatform }

func (b *Backend) BlockGeometry(string) (wipe.Geometry, error) { return wipe.Geometry{}, errPlatform }

func (b *Backend) Open(string, wipe.SyncMode) (wipe.Handle, error) { return nil, errPlatform }

func (b *Backend) Supports(wipe.SyncMode) bool { return false }

func (b *Backend) Flush(wipe.Handle) error { return errPlatform }

func (b *Backend) FullFlush(wipe.Handle) error { return errPlatform }
