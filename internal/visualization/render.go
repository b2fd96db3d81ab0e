// Package visualization renders agent positions as text, JSON, a live
// terminal view and an HTTP snapshot feed.
package visualization

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/robertpaananen/llpp/internal/models"
)

// Format specifies the output format for snapshot rendering.
type Format string

const (
	FormatASCII Format = "ascii"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatASCII, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (valid: ascii, json)", s)
}

// Cell glyphs.
const (
	glyphEmpty    = '.'
	glyphWaypoint = '+'
	glyphAgent    = '@'
	glyphShared   = '#'
)

// Frames never exceed MaxFrameWidth by MaxFrameHeight cells. Fit narrows a
// larger extent to a viewport centered on the agents.
const (
	MaxFrameWidth  = 512
	MaxFrameHeight = 256
)

// coordLimit bounds the coordinates Fit works with so spans cannot overflow.
const coordLimit = 1 << 40

// Frame is the rectangle of grid cells that is drawn. Row 0 is Origin.Y.
type Frame struct {
	Origin models.Position
	Width  int
	Height int
}

// Contains reports whether p lies inside the frame.
func (f Frame) Contains(p models.Position) bool {
	return within(p.X, f.Origin.X, f.Width) && within(p.Y, f.Origin.Y, f.Height)
}

// within reports whether origin <= v < origin+extent without overflowing.
func within(v, origin, extent int) bool {
	return v >= origin && extent > 0 && uint(v)-uint(origin) < uint(extent)
}

func clampCoord(v int) int {
	return max(-coordLimit, min(coordLimit, v))
}

// waypointCell returns the cell of a waypoint center.
func waypointCell(w *models.Waypoint) models.Position {
	cell := func(v float64) int {
		if math.IsNaN(v) {
			return 0
		}
		return int(math.Round(max(-coordLimit, min(coordLimit, v))))
	}
	return models.Pos(cell(w.X()), cell(w.Y()))
}

// bounds is a bounding box over clamped coordinates.
type bounds struct {
	minX, minY, maxX, maxY int
	n                      int
}

func (b *bounds) include(x, y int) {
	x, y = clampCoord(x), clampCoord(y)
	if b.n == 0 {
		b.minX, b.maxX, b.minY, b.maxY = x, x, y, y
	} else {
		b.minX, b.maxX = min(b.minX, x), max(b.maxX, x)
		b.minY, b.maxY = min(b.minY, y), max(b.maxY, y)
	}
	b.n++
}

// clip returns the origin and extent of [lo-margin, hi+margin] on one axis.
// An extent above limit is narrowed to limit cells centered on
// [focusLo, focusHi].
func clip(lo, hi, focusLo, focusHi, margin, limit int) (int, int) {
	origin, extent := lo-margin, hi-lo+1+2*margin
	if extent <= limit {
		return origin, extent
	}
	center := focusLo + (focusHi-focusLo)/2
	return center - limit/2, limit
}

// Fit returns the smallest frame holding every position and waypoint center,
// padded by margin cells on each side and capped at MaxFrameWidth by
// MaxFrameHeight.
func Fit(positions []models.Position, waypoints []*models.Waypoint, margin int) Frame {
	margin = max(0, min(margin, MaxFrameHeight/2))
	if len(positions) == 0 && len(waypoints) == 0 {
		return Frame{Width: 1 + 2*margin, Height: 1 + 2*margin, Origin: models.Pos(-margin, -margin)}
	}

	var all, agents bounds
	for _, p := range positions {
		all.include(p.X, p.Y)
		agents.include(p.X, p.Y)
	}
	for _, w := range waypoints {
		c := waypointCell(w)
		all.include(c.X, c.Y)
	}
	focus := agents
	if focus.n == 0 {
		focus = all
	}

	x, width := clip(all.minX, all.maxX, focus.minX, focus.maxX, margin, MaxFrameWidth)
	y, height := clip(all.minY, all.maxY, focus.minY, focus.maxY, margin, MaxFrameHeight)
	return Frame{Origin: models.Pos(x, y), Width: width, Height: height}
}

// Grid rasterizes positions and waypoints into frame rows. A cell holding more
// than one agent is marked as shared. Frames larger than the maximum are
// truncated.
func Grid(frame Frame, positions []models.Position, waypoints []*models.Waypoint) [][]rune {
	frame.Width = max(0, min(frame.Width, MaxFrameWidth))
	frame.Height = max(0, min(frame.Height, MaxFrameHeight))
	rows := make([][]rune, frame.Height)
	for y := range rows {
		rows[y] = []rune(strings.Repeat(string(glyphEmpty), frame.Width))
	}

	for _, w := range waypoints {
		c := waypointCell(w)
		if frame.Contains(c) {
			d := c.Sub(frame.Origin)
			rows[d.Y][d.X] = glyphWaypoint
		}
	}

	for _, p := range positions {
		if !frame.Contains(p) {
			continue
		}
		d := p.Sub(frame.Origin)
		if rows[d.Y][d.X] == glyphAgent || rows[d.Y][d.X] == glyphShared {
			rows[d.Y][d.X] = glyphShared
		} else {
			rows[d.Y][d.X] = glyphAgent
		}
	}
	return rows
}

// RenderASCII draws the frame as text, one line per row.
func RenderASCII(frame Frame, positions []models.Position, waypoints []*models.Waypoint) string {
	var b strings.Builder
	for _, row := range Grid(frame, positions, waypoints) {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Snapshot is the JSON form of the state after a tick.
type Snapshot struct {
	Tick      int                `json:"tick"`
	Strategy  string             `json:"strategy,omitempty"`
	Mode      string             `json:"mode,omitempty"`
	Agents    []models.Position  `json:"agents"`
	Waypoints []*models.Waypoint `json:"waypoints"`
}

// RenderJSON encodes a snapshot as indented JSON.
func RenderJSON(s Snapshot) ([]byte, error) {
	if s.Agents == nil {
		s.Agents = []models.Position{}
	}
	if s.Waypoints == nil {
		s.Waypoints = []*models.Waypoint{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}
