package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"

	"devwipe/wipe"
)

// redrawInterval limits how often Report repaints the screen.
const redrawInterval = 100 * time.Millisecond

var _ wipe.Reporter = (*Dashboard)(nil)

// PassStarted implements wipe.Reporter.
func (d *Dashboard) PassStarted(s wipe.Status) {
	d.update(s)
	d.Draw()
}

// Report implements wipe.Reporter.
func (d *Dashboard) Report(s wipe.Status) {
	if d.clock.Now().Sub(d.lastDraw) < redrawInterval {
		return
	}
	d.update(s)
	d.Draw()
}

// PassFinished implements wipe.Reporter.
func (d *Dashboard) PassFinished(s wipe.Status) {
	d.update(s)
	d.Draw()
}

// PassCompleted implements wipe.Reporter. Only flushed passes get their
// check mark.
func (d *Dashboard) PassCompleted(s wipe.Status) {
	d.passDone[s.Pass] = true
	d.update(s)
	d.Draw()
}

func (d *Dashboard) update(s wipe.Status) {
	d.statusLines = StatusLines(s)
	w, h := d.Size()
	rows := h - 1 - len(d.summaryLines) - len(d.legendLines) - 4 - len(d.statusLines)
	d.mapLines = ProgressMap(s.Percent, w, max(rows, 1))
}

// StatusLines renders the status block for s.
func StatusLines(s wipe.Status) []string {
	return []string{
		fmt.Sprintf("Pass %d/%d   Progress: %3d%%   Written: %s of %s",
			s.Pass, s.Passes, int(math.Round(s.Percent)),
			datasize.ByteSize(s.PassDone).HumanReadable(), datasize.ByteSize(s.DeviceSize).HumanReadable()),
		fmt.Sprintf("Elapsed: %s   Pass ETA: %s   Total ETA: %s",
			wipe.FormatETA(s.Elapsed), wipe.FormatETA(s.PassETA), wipe.FormatETA(s.TotalETA)),
	}
}

// ProgressMap lays percent out over a w x rows grid, one glyph per cell:
// █ for overwritten cells of the current pass, ░ for the rest.
func ProgressMap(percent float64, w, rows int) []string {
	if w <= 0 || rows <= 0 {
		return nil
	}
	cells := w * rows
	filled := int(math.Round(min(max(percent, 0), 100) / 100 * float64(cells)))
	lines := make([]string, rows)
	for row := range lines {
		start := row * w
		n := min(max(filled-start, 0), w)
		lines[row] = strings.Repeat("█", n) + strings.Repeat("░", w-n)
	}
	return lines
}
