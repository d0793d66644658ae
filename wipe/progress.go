package wipe

import (
	"math"
	"math/bits"
	"time"

	"github.com/buildbarn/bb-storage/pkg/clock"
)

// UnknownETA is reported while no throughput has been observed yet.
const UnknownETA time.Duration = -1

// Status is a snapshot of the progress of a run.
type Status struct {
	Pass   int
	Passes int

	DeviceSize  uint64
	PassDone    uint64
	TotalTarget uint64
	TotalDone   uint64

	// Percent of the current pass, in [0, 100].
	Percent  float64
	PassETA  time.Duration
	TotalETA time.Duration
	Elapsed  time.Duration
}

// Reporter receives progress updates. Report is called once per recorded
// chunk, without any time based debouncing. PassFinished follows the last
// chunk of a pass; PassCompleted is only delivered once the pass has also
// been flushed to the device.
type Reporter interface {
	PassStarted(s Status)
	Report(s Status)
	PassFinished(s Status)
	PassCompleted(s Status)
}

// Tracker accounts for the bytes written per pass and per run. It is owned
// by a single writer and is not safe for concurrent use.
type Tracker struct {
	clock    clock.Clock
	reporter Reporter

	deviceSize  uint64
	passes      int
	totalTarget uint64
	totalDone   uint64
	passDone    uint64
	pass        int

	runStart  time.Time
	passStart time.Time
}

// NewTracker creates a Tracker for a run of passes over deviceSize bytes.
// A nil reporter suppresses all output.
func NewTracker(passes int, deviceSize uint64, clk clock.Clock, reporter Reporter) *Tracker {
	passes = max(passes, 1)
	hi, target := bits.Mul64(deviceSize, uint64(passes))
	if hi != 0 {
		target = math.MaxUint64
	}
	now := clk.Now()
	return &Tracker{
		clock:       clk,
		reporter:    reporter,
		deviceSize:  deviceSize,
		passes:      passes,
		totalTarget: target,
		runStart:    now,
		passStart:   now,
	}
}

// StartPass resets the pass clock and byte counter and records the
// 1-based pass index.
func (t *Tracker) StartPass(pass int) {
	t.pass = pass
	t.passStart = t.clock.Now()
	t.passDone = 0
	if t.reporter != nil {
		t.reporter.PassStarted(t.Snapshot())
	}
}

// RecordChunk adds n written bytes to the pass and run counters and emits
// a status update.
func (t *Tracker) RecordChunk(n uint64) {
	t.passDone = saturatingAdd(t.passDone, n)
	t.totalDone = min(saturatingAdd(t.totalDone, n), t.totalTarget)
	if t.reporter != nil && t.deviceSize != 0 {
		t.reporter.Report(t.Snapshot())
	}
}

// FinishLine terminates the status output of the current pass.
func (t *Tracker) FinishLine() {
	if t.reporter != nil {
		t.reporter.PassFinished(t.Snapshot())
	}
}

// CompletePass reports that the current pass reached the device.
func (t *Tracker) CompletePass() {
	if t.reporter != nil {
		t.reporter.PassCompleted(t.Snapshot())
	}
}

// Snapshot computes the current Status.
func (t *Tracker) Snapshot() Status {
	now := t.clock.Now()
	return Status{
		Pass:        t.pass,
		Passes:      t.passes,
		DeviceSize:  t.deviceSize,
		PassDone:    t.passDone,
		TotalTarget: t.totalTarget,
		TotalDone:   t.totalDone,
		Percent:     Percent(t.passDone, t.deviceSize),
		PassETA:     ETA(t.passDone, t.deviceSize, now.Sub(t.passStart)),
		TotalETA:    ETA(t.totalDone, t.totalTarget, now.Sub(t.runStart)),
		Elapsed:     now.Sub(t.runStart),
	}
}

// Percent returns done/size as a percentage clamped to [0, 100].
func Percent(done, size uint64) float64 {
	if size == 0 {
		return 0
	}
	return min(max(float64(done)/float64(size)*100, 0), 100)
}

// ETA extrapolates the remaining time linearly from the average throughput
// observed over elapsed. It returns UnknownETA when nothing has been done
// yet and zero once done reaches target.
func ETA(done, target uint64, elapsed time.Duration) time.Duration {
	if target == 0 {
		return UnknownETA
	}
	if done >= target {
		return 0
	}
	if done == 0 || elapsed <= 0 {
		return UnknownETA
	}
	speed := float64(done) / elapsed.Seconds()
	remaining := float64(target-done) / speed
	if remaining >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(remaining * float64(time.Second))
}

func saturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}
