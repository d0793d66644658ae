package main

import (
	"context"
	"errors"
	"time"

	"github.com/buildbarn/bb-storage/pkg/clock"
)

var errAborted = errors.New("aborted by the operator, no data was written")

// waitGrace blocks for d, giving the operator a last chance to abort
// through ctx or stop.
func waitGrace(ctx context.Context, clk clock.Clock, d time.Duration, stop <-chan struct{}) error {
	if err := ctx.Err(); err != nil {
		return errAborted
	}
	if d <= 0 {
		return nil
	}
	t, expired := clk.NewTimer(d)
	defer t.Stop()
	select {
	case <-expired:
		return nil
	case <-ctx.Done():
		return errAborted
	case <-stop:
		return errAborted
	}
}
