package wipe

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"syscall"
)

// Plan describes the passes of a run. Passes 1..Passes-1 write random
// data, the last pass writes zeros.
type Plan struct {
	Passes int
	Mode   SyncMode
	Sector int
}

// NewPlan validates passes and sector and returns a Plan.
func NewPlan(passes int, mode SyncMode, sector int) (Plan, error) {
	if passes < 1 {
		return Plan{}, configErrorf("pass count must be >= 1, got %d", passes)
	}
	if mode.IsDirect() && !isPowerOfTwo(sector) {
		return Plan{}, configErrorf("direct mode needs a power of two sector size, got %d", sector)
	}
	return Plan{Passes: passes, Mode: mode, Sector: sector}, nil
}

// PatternFor returns the fill pattern of the 1-based pass.
func (p Plan) PatternFor(pass int) Pattern {
	if pass >= p.Passes {
		return Zero
	}
	return Random
}

// Config carries the collaborators of an Engine. They persist across
// passes; only the fill pattern changes from one pass to the next.
type Config struct {
	Backend    Backend
	Path       string
	DeviceSize uint64
	Plan       Plan
	Buffers    *Buffers
	Tracker    *Tracker

	// TailHandle is a non-direct handle used for the sub-sector tail of
	// direct passes. When nil, a fast-mode handle is opened per pass.
	TailHandle Handle
	// Random defaults to crypto/rand.Reader.
	Random io.Reader
	// Announce, when set, is called before every pass.
	Announce func(pass, passes int, p Pattern)
}

// Engine runs overwrite passes over a single device.
type Engine struct {
	cfg    Config
	policy SyncPolicy
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Random == nil {
		cfg.Random = rand.Reader
	}
	return &Engine{
		cfg: cfg,
		policy: SyncPolicy{
			Flusher: cfg.Backend,
			Durable: cfg.Plan.Mode.IsDurable(),
		},
	}
}

// Run executes every pass of the plan in order through h. The handle is
// rewound to offset 0 before each pass. The first error aborts the run.
func (e *Engine) Run(h Handle) error {
	for pass := 1; pass <= e.cfg.Plan.Passes; pass++ {
		p := e.cfg.Plan.PatternFor(pass)
		if e.cfg.Announce != nil {
			e.cfg.Announce(pass, e.cfg.Plan.Passes, p)
		}
		e.cfg.Tracker.StartPass(pass)
		if _, err := h.Seek(0, io.SeekStart); err != nil {
			return &Error{Kind: ErrWrite, Op: "rewind", Path: e.cfg.Path, Err: err}
		}
		if err := e.RunPass(h, p); err != nil {
			return fmt.Errorf("pass %d/%d (%s): %w", pass, e.cfg.Plan.Passes, p, err)
		}
	}
	return nil
}

// RunPass overwrites the whole device once with pattern p. The handle's
// write cursor must be at offset 0. In direct mode the sub-sector tail is
// written and flushed through a non-direct handle before the pass is
// reported finished and the primary handle is flushed. The pass is
// reported completed only after that flush succeeded.
func (e *Engine) RunPass(h Handle, p Pattern) error {
	buf := e.cfg.Buffers.Main()
	if err := p.Fill(buf, e.cfg.Random); err != nil {
		return err
	}

	direct := e.cfg.Buffers.Direct()
	limit := FullLimit(e.cfg.DeviceSize, e.cfg.Plan.Sector, direct)
	var written uint64
	for written < limit {
		n := min(limit-written, uint64(len(buf)))
		if err := writeAll(h, buf[:n]); err != nil {
			return &Error{Kind: ErrWrite, Op: fmt.Sprintf("write at offset %d of", written), Path: e.cfg.Path, Err: err}
		}
		written += n
		e.cfg.Tracker.RecordChunk(n)
	}

	if direct && written < e.cfg.DeviceSize {
		if err := e.writeTail(p, written); err != nil {
			return err
		}
	}

	e.cfg.Tracker.FinishLine()

	if err := e.policy.Apply(h); err != nil {
		return &Error{Kind: ErrSync, Op: "sync", Path: e.cfg.Path, Err: err}
	}
	e.cfg.Tracker.CompletePass()
	return nil
}

func (e *Engine) writeTail(p Pattern, off uint64) (err error) {
	n := e.cfg.DeviceSize - off
	buf := e.cfg.Buffers.Tail(int(n))
	if err := p.Fill(buf, e.cfg.Random); err != nil {
		return err
	}

	h := e.cfg.TailHandle
	if h == nil {
		fresh, err := e.cfg.Backend.Open(e.cfg.Path, Fast)
		if err != nil {
			return &Error{Kind: ErrDeviceOpen, Op: "open tail handle for", Path: e.cfg.Path, Err: err}
		}
		defer func() {
			if closeErr := fresh.Close(); closeErr != nil && err == nil {
				err = &Error{Kind: ErrWrite, Op: "close tail handle for", Path: e.cfg.Path, Err: closeErr}
			}
		}()
		h = fresh
	}

	if _, err := h.WriteAt(buf, int64(off)); err != nil {
		return &Error{Kind: ErrWrite, Op: fmt.Sprintf("write %d byte tail at offset %d of", n, off), Path: e.cfg.Path, Err: err}
	}
	e.cfg.Tracker.RecordChunk(n)
	if err := e.policy.Apply(h); err != nil {
		return &Error{Kind: ErrSync, Op: "sync tail of", Path: e.cfg.Path, Err: err}
	}
	return nil
}

func writeAll(w io.Writer, buf []byte) error {
	n, err := w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

// IsBusy reports whether err was caused by the device being in use, for
// example because it is mounted.
func IsBusy(err error) bool {
	return errors.Is(err, syscall.EBUSY)
}
