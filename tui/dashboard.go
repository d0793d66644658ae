// Package tui renders a fullscreen wipe dashboard with tcell.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/buildbarn/bb-storage/pkg/clock"
	"github.com/gdamore/tcell/v2"
)

// Dashboard shows a title, summary lines, a legend, a pass checklist, a
// progress map and status lines. Drawing happens on the caller's
// goroutine; a background goroutine only watches the keyboard.
type Dashboard struct {
	mu       sync.Mutex // guards s, Close may run on a signal goroutine
	s        tcell.Screen
	real     bool
	clock    clock.Clock
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	title        string
	summaryLines []string
	legendLines  []string
	passes       []string
	passDone     map[int]bool
	statusLines  []string
	mapLines     []string

	lastDraw time.Time
}

// New takes over the terminal.
func New(clk clock.Clock) (*Dashboard, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	d, err := NewWithScreen(s, clk)
	if err != nil {
		return nil, err
	}
	d.real = true
	return d, nil
}

// NewWithScreen initializes s and starts watching it for quit keys.
func NewWithScreen(s tcell.Screen, clk clock.Clock) (*Dashboard, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.DisableMouse()
	d := &Dashboard{
		s:        s,
		clock:    clk,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		passDone: map[int]bool{},
	}
	go d.eventLoop()
	return d, nil
}

// Close restores the terminal. It is safe to call more than once and
// concurrently with drawing.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.s == nil {
		return
	}
	_ = d.s.PostEvent(tcell.NewEventInterrupt(nil))
	<-d.done
	d.s.Fini()
	d.s = nil
	if d.real {
		fmt.Print("\033[?1049l\033[?25h")
	}
}

// Stopped is closed once the operator pressed q, Esc or Ctrl+C.
func (d *Dashboard) Stopped() <-chan struct{} {
	return d.stopChan
}

func (d *Dashboard) requestStop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
}

// SetTitle sets the title drawn into the top border.
func (d *Dashboard) SetTitle(t string) {
	d.title = t
}

// SetSummaryLines sets the lines below the title.
func (d *Dashboard) SetSummaryLines(lines []string) {
	d.summaryLines = append([]string(nil), lines...)
}

// SetLegend sets the lines below the summary.
func (d *Dashboard) SetLegend(lines []string) {
	d.legendLines = append([]string(nil), lines...)
}

// SetPasses sets the labels of the pass checklist, in pass order.
func (d *Dashboard) SetPasses(labels []string) {
	d.passes = append([]string(nil), labels...)
}

// Size returns the screen width and height.
func (d *Dashboard) Size() (width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.s == nil {
		return 0, 0
	}
	return d.s.Size()
}

func putStr(s tcell.Screen, x, y int, str string) {
	w, _ := s.Size()
	for i, r := range []rune(str) {
		if x+i >= w {
			break
		}
		s.SetContent(x+i, y, r, nil, tcell.StyleDefault)
	}
}

// Draw redraws the whole screen.
func (d *Dashboard) Draw() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.s == nil {
		return
	}
	d.lastDraw = d.clock.Now()
	d.s.Clear()
	w, h := d.s.Size()
	y := 0

	if d.title != "" {
		putStr(d.s, 0, y, strings.Repeat("═", w))
		putStr(d.s, max((w-len([]rune(d.title)))/2, 0), y, d.title)
		y++
	}
	for _, lines := range [][]string{d.summaryLines, d.legendLines} {
		for _, line := range lines {
			if y >= h {
				break
			}
			putStr(d.s, 0, y, line)
			y++
		}
	}

	// Leave room for the checklist and status block below the map.
	avail := max(h-y-3-len(d.statusLines), 1)
	for i := 0; i < len(d.mapLines) && i < avail && y < h; i++ {
		putStr(d.s, 0, y, d.mapLines[i])
		y++
	}

	if len(d.passes) > 0 && y < h {
		putStr(d.s, 0, y, strings.Repeat("─", w))
		putStr(d.s, 2, y, " Passes ")
		y++
		var b strings.Builder
		for i, p := range d.passes {
			if i > 0 {
				b.WriteByte(' ')
			}
			mark := ' '
			if d.passDone[i+1] {
				mark = '✓'
			}
			fmt.Fprintf(&b, "[%c]%s", mark, p)
		}
		putStr(d.s, 0, y, b.String())
		y++
	}

	if len(d.statusLines) > 0 && y < h {
		putStr(d.s, 0, y, strings.Repeat("─", w))
		putStr(d.s, 2, y, " Status ")
		y++
		for _, line := range d.statusLines {
			if y >= h {
				break
			}
			putStr(d.s, 0, y, line)
			y++
		}
	}
	d.s.Show()
}

func (d *Dashboard) eventLoop() {
	defer close(d.done)
	for {
		switch ev := d.s.PollEvent().(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyCtrlC, ev.Key() == tcell.KeyEscape:
				d.requestStop()
			case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
				d.requestStop()
			}
		case *tcell.EventResize:
			d.s.Sync()
		case *tcell.EventInterrupt, nil:
			return
		}
	}
}
