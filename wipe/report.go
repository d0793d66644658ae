package wipe

import (
	"fmt"
	"io"
	"math"
	"time"
)

// LineReporter renders one status line per chunk, rewritten in place with
// a carriage return:
//
//	Pass 2/8 | Progress:  41% | Pass ETA: 03:12 | Total ETA: 1:02:47
type LineReporter struct {
	w   io.Writer
	buf []byte
}

// NewLineReporter creates a LineReporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w, buf: make([]byte, 0, 96)}
}

// PassStarted implements Reporter.
func (r *LineReporter) PassStarted(Status) {}

// Report implements Reporter.
func (r *LineReporter) Report(s Status) {
	r.buf = append(r.buf[:0], '\r')
	r.buf = fmt.Appendf(r.buf, "Pass %d/%d | Progress: %3d%% | Pass ETA: %s | Total ETA: %s",
		s.Pass, s.Passes, int(math.Round(s.Percent)), FormatETA(s.PassETA), FormatETA(s.TotalETA))
	_, _ = r.w.Write(r.buf)
}

// PassFinished implements Reporter.
func (r *LineReporter) PassFinished(Status) {
	_, _ = io.WriteString(r.w, "\n")
}

// PassCompleted implements Reporter.
func (r *LineReporter) PassCompleted(Status) {}

// FormatETA renders d as mm:ss below one hour and h:mm:ss above. Partial
// seconds round up. UnknownETA renders as "--:--".
func FormatETA(d time.Duration) string {
	if d < 0 {
		return "--:--"
	}
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

type multiReporter []Reporter

// MultiReporter fans updates out to every non-nil reporter. It returns nil
// when no reporter remains, which silences the Tracker.
func MultiReporter(reporters ...Reporter) Reporter {
	var m multiReporter
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

func (m multiReporter) PassStarted(s Status) {
	for _, r := range m {
		r.PassStarted(s)
	}
}

func (m multiReporter) Report(s Status) {
	for _, r := range m {
		r.Report(s)
	}
}

func (m multiReporter) PassFinished(s Status) {
	for _, r := range m {
		r.PassFinished(s)
	}
}

func (m multiReporter) PassCompleted(s Status) {
	for _, r := range m {
		r.PassCompleted(s)
	}
}
