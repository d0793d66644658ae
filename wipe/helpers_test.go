package wipe

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/buildbarn/bb-storage/pkg/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// idGenerator yields unique names for scratch devices.
type idGenerator func() (uuid.UUID, error)

// scratchDevice creates a regular file of size bytes standing in for a
// block device.
func scratchDevice(t *testing.T, gen idGenerator, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev-"+uuid.Must(gen()).String()+".img")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

// fileBackend is a Backend over regular files. It records opens and
// flushes in call order.
type fileBackend struct {
	mu      sync.Mutex
	opens   []SyncMode
	flushes []string

	flushErr     error
	fullFlushErr error
	names        map[uintptr]string
}

func newFileBackend() *fileBackend {
	return &fileBackend{names: map[uintptr]string{}}
}

func (b *fileBackend) DeviceSize(path string) (uint64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(fi.Size()), nil
}

func (b *fileBackend) BlockGeometry(string) (Geometry, error) {
	return DefaultGeometry, nil
}

func (b *fileBackend) Open(path string, mode SyncMode) (Handle, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opens = append(b.opens, mode)
	b.names[f.Fd()] = mode.String()
	return f, nil
}

func (b *fileBackend) Supports(SyncMode) bool { return true }

// label names the handle the way the test sees it: "primary" for handles
// the test opened itself, otherwise the mode it was opened with.
func (b *fileBackend) label(h Handle) string {
	if name, ok := b.names[h.Fd()]; ok {
		return name
	}
	return "primary"
}

func (b *fileBackend) Flush(h Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushes = append(b.flushes, "flush "+b.label(h))
	if b.flushErr != nil {
		return b.flushErr
	}
	return h.Sync()
}

func (b *fileBackend) FullFlush(h Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushes = append(b.flushes, "fullflush "+b.label(h))
	if b.fullFlushErr != nil {
		return b.fullFlushErr
	}
	return h.Sync()
}

// openPrimary opens path without going through the backend, so flushes
// of the returned handle are labelled "primary".
func openPrimary(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// failingHandle is a Handle whose writes fail or come up short.
type failingHandle struct {
	writeErr error
	short    bool
	syncs    int
}

func (h *failingHandle) Write(p []byte) (int, error) {
	if h.writeErr != nil {
		return 0, h.writeErr
	}
	if h.short && len(p) > 0 {
		return len(p) - 1, nil
	}
	return len(p), nil
}

func (h *failingHandle) WriteAt(p []byte, _ int64) (int, error) { return h.Write(p) }
func (h *failingHandle) Seek(int64, int) (int64, error)         { return 0, nil }
func (h *failingHandle) Close() error                           { return nil }
func (h *failingHandle) Sync() error                            { h.syncs++; return nil }
func (h *failingHandle) Fd() uintptr                            { return ^uintptr(0) }

// fakeClock is a manually advanced clock.Clock. Only Now is implemented.
type fakeClock struct {
	clock.Clock
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// recordingReporter keeps every update it receives.
type recordingReporter struct {
	events  []string
	reports []Status
}

func (r *recordingReporter) PassStarted(s Status) {
	r.events = append(r.events, "start")
}

func (r *recordingReporter) Report(s Status) {
	r.events = append(r.events, "chunk")
	r.reports = append(r.reports, s)
}

func (r *recordingReporter) PassFinished(s Status) {
	r.events = append(r.events, "finish")
}

func (r *recordingReporter) PassCompleted(s Status) {
	r.events = append(r.events, "complete")
}

// countingReader yields an endless, non-zero byte stream and counts the
// bytes handed out.
type countingReader struct {
	n int
}

func (r *countingReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.n%255) + 1
		r.n++
	}
	return len(p), nil
}

// chunkedReader hands out at most max bytes per call, then fails with err
// after limit bytes.
type chunkedReader struct {
	max   int
	limit int
	err   error
	read  int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.read >= r.limit {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := min(len(p), r.max, r.limit-r.read)
	for i := range n {
		p[i] = 0xAA
	}
	r.read += n
	return n, nil
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, nil }

var errBrokenSource = errors.New("entropy pool unavailable")

func readAll(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
