package visualization

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/robertpaananen/llpp/internal/model"
)

var (
	styleEmpty    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWaypoint = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleAgent    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleShared   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleStatus   = tcell.StyleDefault.Reverse(true)
)

// Viewer animates a model on a terminal screen, one tick per frame.
type Viewer struct {
	screen   tcell.Screen
	model    *model.Model
	frame    Frame
	maxTicks int
	interval time.Duration
	paused   bool
}

// NewViewer creates a viewer that draws m on screen. The grid frame is fitted
// to the initial positions and waypoints. maxTicks of zero runs until quit.
func NewViewer(screen tcell.Screen, m *model.Model, maxTicks int, interval time.Duration) *Viewer {
	return &Viewer{
		screen:   screen,
		model:    m,
		frame:    Fit(m.Positions(), m.Destinations(), 1),
		maxTicks: maxTicks,
		interval: interval,
	}
}

// Done reports whether the tick budget is spent.
func (v *Viewer) Done() bool {
	return v.maxTicks > 0 && v.model.Ticks() >= v.maxTicks
}

// Draw renders the current model state and a status line.
func (v *Viewer) Draw() {
	v.screen.Clear()
	width, height := v.screen.Size()

	positions := v.model.Positions()
	rows := Grid(v.frame, positions, v.model.Destinations())
	for y := 0; y < len(rows) && y < height-1; y++ {
		for x := 0; x < len(rows[y]) && x < width; x++ {
			r := rows[y][x]
			v.screen.SetContent(x, y, r, nil, glyphStyle(r))
		}
	}

	status := fmt.Sprintf(" tick %d  %s/%s  %d agents  [space] pause  [q] quit ",
		v.model.Ticks(), v.model.StrategyName(), v.model.Mode(), len(positions))
	if v.paused {
		status += "PAUSED "
	}
	for x, r := range []rune(status) {
		if x >= width {
			break
		}
		v.screen.SetContent(x, height-1, r, nil, styleStatus)
	}

	v.screen.Show()
}

func glyphStyle(r rune) tcell.Style {
	switch r {
	case glyphWaypoint:
		return styleWaypoint
	case glyphAgent:
		return styleAgent
	case glyphShared:
		return styleShared
	}
	return styleEmpty
}

// Step advances the model by one tick unless paused or done, then redraws.
func (v *Viewer) Step() {
	if !v.paused && !v.Done() {
		v.model.Tick()
	}
	v.Draw()
}

// handleInput returns false when the viewer should exit.
func (v *Viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
			v.paused = !v.paused
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'f':
			v.frame = Fit(v.model.Positions(), v.model.Destinations(), 1)
		}
		v.Draw()
	case *tcell.EventResize:
		v.screen.Sync()
		v.Draw()
	}
	return true
}

// Run animates until the context is cancelled, the user quits or the tick
// budget is spent. The caller owns the screen and must Fini it.
func (v *Viewer) Run(ctx context.Context) error {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !v.handleInput(ev) {
				return nil
			}
		case <-ticker.C:
			v.Step()
			if v.Done() {
				return nil
			}
		}
	}
}
