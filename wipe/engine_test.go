package wipe

import (
	"crypto/rand"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	path     string
	size     uint64
	backend  *fileBackend
	reporter *recordingReporter
	tracker  *Tracker
	buffers  *Buffers
}

func newEngineFixture(t *testing.T, size int64, passes, bufSize int, direct bool, sector int) *engineFixture {
	t.Helper()
	path := scratchDevice(t, uuid.NewRandom, size)
	garbage := make([]byte, size)
	_, err := rand.Read(garbage)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, garbage, 0o600))

	buffers, err := NewBuffers(bufSize, direct, sector)
	require.NoError(t, err)
	t.Cleanup(func() { buffers.Close() })

	rec := &recordingReporter{}
	return &engineFixture{
		path:     path,
		size:     uint64(size),
		backend:  newFileBackend(),
		reporter: rec,
		tracker:  NewTracker(passes, uint64(size), newFakeClock(), rec),
		buffers:  buffers,
	}
}

func (f *engineFixture) config(plan Plan) Config {
	return Config{
		Backend:    f.backend,
		Path:       f.path,
		DeviceSize: f.size,
		Plan:       plan,
		Buffers:    f.buffers,
		Tracker:    f.tracker,
	}
}

func TestEngineSingleZeroPass(t *testing.T) {
	f := newEngineFixture(t, 128*1024, 1, 32*1024, false, 4096)
	plan, err := NewPlan(1, Fast, 4096)
	require.NoError(t, err)

	require.NoError(t, NewEngine(f.config(plan)).Run(openPrimary(t, f.path)))

	assert.Equal(t, []string{"start", "chunk", "chunk", "chunk", "chunk", "finish", "complete"}, f.reporter.events)
	for i, s := range f.reporter.reports {
		assert.Equal(t, uint64(i+1)*32*1024, s.PassDone)
	}
	assert.Equal(t, []string{"flush primary"}, f.backend.flushes)
	assert.Empty(t, f.backend.opens)

	data := readAll(t, f.path)
	require.Len(t, data, 128*1024)
	assert.True(t, allZero(data))
}

func TestEngineDirectTailThroughFreshHandle(t *testing.T) {
	f := newEngineFixture(t, 10000, 1, 4096, true, 4096)
	plan, err := NewPlan(2, Direct, 4096)
	require.NoError(t, err)
	src := &countingReader{}
	cfg := f.config(plan)
	cfg.Random = src
	e := NewEngine(cfg)

	f.tracker.StartPass(1)
	require.NoError(t, e.RunPass(openPrimary(t, f.path), Random))

	assert.Equal(t, uint64(8192), FullLimit(10000, 4096, true))
	assert.Equal(t, 4096+1808, src.n, "tail must be refilled from the source")
	assert.Equal(t, []SyncMode{Fast}, f.backend.opens)
	assert.Equal(t, []string{"flush fast", "flush primary"}, f.backend.flushes)

	var done []uint64
	for _, s := range f.reporter.reports {
		done = append(done, s.PassDone)
	}
	assert.Equal(t, []uint64{4096, 8192, 10000}, done)
	assert.Equal(t, []string{"chunk", "finish", "complete"}, f.reporter.events[len(f.reporter.events)-3:])

	data := readAll(t, f.path)
	require.Len(t, data, 10000)
	assert.False(t, allZero(data[8192:]))
}

func TestEngineDirectTailThroughAuxiliaryHandle(t *testing.T) {
	f := newEngineFixture(t, 10000, 2, 4096, true, 4096)
	plan, err := NewPlan(2, Direct, 4096)
	require.NoError(t, err)

	tail, err := f.backend.Open(f.path, Fast)
	require.NoError(t, err)
	defer tail.Close()

	cfg := f.config(plan)
	cfg.TailHandle = tail
	require.NoError(t, NewEngine(cfg).Run(openPrimary(t, f.path)))

	assert.Equal(t, []SyncMode{Fast}, f.backend.opens, "tail handle is opened once per run")
	assert.Equal(t, []string{"flush fast", "flush primary", "flush fast", "flush primary"}, f.backend.flushes)
	assert.True(t, allZero(readAll(t, f.path)))
}

func TestEngineDurableDirectTailUsesFullFlush(t *testing.T) {
	f := newEngineFixture(t, 5000, 1, 4096, true, 4096)
	plan := Plan{Passes: 1, Mode: Durable, Sector: 4096}
	require.NoError(t, NewEngine(f.config(plan)).Run(openPrimary(t, f.path)))
	assert.Equal(t, []string{"fullflush fast", "fullflush primary"}, f.backend.flushes)
}

func TestEngineEightPassSchedule(t *testing.T) {
	f := newEngineFixture(t, 4096, 8, 16*1024, false, 4096)
	plan, err := NewPlan(8, Fast, 4096)
	require.NoError(t, err)

	var patterns []Pattern
	var passes []int
	cfg := f.config(plan)
	cfg.Announce = func(pass, total int, p Pattern) {
		require.Equal(t, 8, total)
		passes = append(passes, pass)
		patterns = append(patterns, p)
	}
	require.NoError(t, NewEngine(cfg).Run(openPrimary(t, f.path)))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, passes)
	assert.Equal(t, []Pattern{Random, Random, Random, Random, Random, Random, Random, Zero}, patterns)
	assert.Len(t, f.backend.flushes, 8)
	assert.Equal(t, uint64(8*4096), f.tracker.Snapshot().TotalDone)
	assert.True(t, allZero(readAll(t, f.path)))
}

func TestEngineRandomPassOverwritesZeros(t *testing.T) {
	f := newEngineFixture(t, 64*1024, 2, 16*1024, false, 4096)
	plan, err := NewPlan(1, Fast, 4096)
	require.NoError(t, err)
	e := NewEngine(f.config(plan))
	h := openPrimary(t, f.path)

	require.NoError(t, e.Run(h))
	zeros := readAll(t, f.path)
	require.True(t, allZero(zeros))

	_, err = h.Seek(0, io.SeekStart)
	require.NoError(t, err)
	f.tracker.StartPass(2)
	require.NoError(t, e.RunPass(h, Random))

	random := readAll(t, f.path)
	require.Len(t, random, len(zeros))
	assert.NotEqual(t, zeros, random)
}

func TestEngineWriteFailure(t *testing.T) {
	f := newEngineFixture(t, 8192, 1, 4096, false, 4096)
	plan, err := NewPlan(1, Fast, 4096)
	require.NoError(t, err)
	e := NewEngine(f.config(plan))

	err = e.Run(&failingHandle{writeErr: os.NewSyscallError("write", syscall.EIO)})
	require.ErrorIs(t, err, ErrWrite)
	require.ErrorIs(t, err, syscall.EIO)
	assert.Contains(t, err.Error(), "pass 1/1 (zeros)")
	assert.Empty(t, f.backend.flushes)
}

func TestEngineShortWrite(t *testing.T) {
	f := newEngineFixture(t, 8192, 1, 4096, false, 4096)
	plan, err := NewPlan(1, Fast, 4096)
	require.NoError(t, err)

	err = NewEngine(f.config(plan)).RunPass(&failingHandle{short: true}, Zero)
	require.ErrorIs(t, err, ErrWrite)
	require.ErrorIs(t, err, io.ErrShortWrite)
}

func TestEngineSyncFailure(t *testing.T) {
	f := newEngineFixture(t, 8192, 1, 4096, false, 4096)
	f.backend.flushErr = os.NewSyscallError("fsync", syscall.EIO)
	plan, err := NewPlan(1, Fast, 4096)
	require.NoError(t, err)

	err = NewEngine(f.config(plan)).Run(openPrimary(t, f.path))
	require.ErrorIs(t, err, ErrSync)
	require.ErrorIs(t, err, syscall.EIO)
	assert.Equal(t, []string{"start", "chunk", "chunk", "finish"}, f.reporter.events, "an unflushed pass is never completed")
}

func TestEngineTailSyncFailureDoesNotCompletePass(t *testing.T) {
	f := newEngineFixture(t, 5000, 1, 4096, true, 4096)
	f.backend.flushErr = os.NewSyscallError("fdatasync", syscall.EIO)
	plan, err := NewPlan(1, Direct, 4096)
	require.NoError(t, err)

	err = NewEngine(f.config(plan)).Run(openPrimary(t, f.path))
	require.ErrorIs(t, err, ErrSync)
	assert.Contains(t, err.Error(), "sync tail of")
	assert.NotContains(t, f.reporter.events, "finish")
	assert.NotContains(t, f.reporter.events, "complete")
}

func TestEngineRandomSourceFailure(t *testing.T) {
	f := newEngineFixture(t, 8192, 2, 4096, false, 4096)
	plan, err := NewPlan(2, Fast, 4096)
	require.NoError(t, err)
	cfg := f.config(plan)
	cfg.Random = &chunkedReader{max: 128, limit: 1000, err: errBrokenSource}
	h := &failingHandle{}

	err = NewEngine(cfg).Run(h)
	require.ErrorIs(t, err, ErrRandomSource)
	require.ErrorIs(t, err, errBrokenSource)
	assert.Contains(t, err.Error(), "pass 1/2 (random data)")
	assert.Empty(t, f.reporter.reports, "nothing may be written after a failed fill")
}

func TestEngineTailOpenFailure(t *testing.T) {
	f := newEngineFixture(t, 5000, 1, 4096, true, 4096)
	plan, err := NewPlan(1, Direct, 4096)
	require.NoError(t, err)
	cfg := f.config(plan)
	cfg.Path = f.path + ".missing"

	err = NewEngine(cfg).RunPass(&failingHandle{}, Zero)
	require.ErrorIs(t, err, ErrDeviceOpen)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewPlan(t *testing.T) {
	_, err := NewPlan(0, Fast, 4096)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewPlan(3, Direct, 3000)
	require.ErrorIs(t, err, ErrConfiguration)

	plan, err := NewPlan(1, Fast, 4096)
	require.NoError(t, err)
	assert.Equal(t, Zero, plan.PatternFor(1))
}

func TestIsBusy(t *testing.T) {
	err := &Error{Kind: ErrDeviceOpen, Op: "open", Path: "/dev/sdz", Err: &os.PathError{Op: "open", Path: "/dev/sdz", Err: syscall.EBUSY}}
	assert.True(t, IsBusy(err))
	assert.ErrorIs(t, err, ErrDeviceOpen)
	assert.Equal(t, "open /dev/sdz: open /dev/sdz: device or resource busy", err.Error())
	assert.False(t, IsBusy(&Error{Kind: ErrWrite, Err: syscall.EIO}))
}
