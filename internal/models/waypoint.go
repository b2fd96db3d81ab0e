package models

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Waypoint is a circular destination area. Agents cycle through their
// waypoints, switching to the next one once inside the radius.
type Waypoint struct {
	ID     int       `json:"id"`
	Center orb.Point `json:"center"`
	Radius float64   `json:"radius"`
}

// NewWaypoint creates a waypoint centered on (x, y).
func NewWaypoint(id int, x, y, r float64) *Waypoint {
	return &Waypoint{ID: id, Center: orb.Point{x, y}, Radius: r}
}

// X returns the x coordinate of the center.
func (w *Waypoint) X() float64 { return w.Center.X() }

// Y returns the y coordinate of the center.
func (w *Waypoint) Y() float64 { return w.Center.Y() }

// Distance returns the Euclidean distance from p to the center.
func (w *Waypoint) Distance(p Position) float64 {
	return planar.Distance(orb.Point{float64(p.X), float64(p.Y)}, w.Center)
}

// Reached reports whether p lies strictly inside the waypoint radius.
func (w *Waypoint) Reached(p Position) bool {
	return w.Distance(p) < w.Radius
}
