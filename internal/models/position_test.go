package models

import "testing"

func TestPositionArithmetic(t *testing.T) {
	p := Pos(5, 5)
	d := Pos(0, 2)

	if got := p.Add(d); got != Pos(5, 7) {
		t.Errorf("Add() = %v, want (5,7)", got)
	}
	if got := Pos(5, 7).Sub(p); got != d {
		t.Errorf("Sub() = %v, want %v", got, d)
	}
	if got := p.String(); got != "(5,5)" {
		t.Errorf("String() = %q, want (5,5)", got)
	}
}

func TestPositionAsMapKey(t *testing.T) {
	set := map[Position]struct{}{Pos(1, 2): {}}
	if _, ok := set[Pos(1, 2)]; !ok {
		t.Error("equal positions should hash to the same key")
	}
	if _, ok := set[Pos(2, 1)]; ok {
		t.Error("swapped coordinates should not match")
	}
}

func TestWaypointReached(t *testing.T) {
	w := NewWaypoint(1, 10, 10, 2)

	tests := []struct {
		name string
		pos  Position
		want bool
	}{
		{"center", Pos(10, 10), true},
		{"inside", Pos(11, 10), true},
		{"on radius is outside", Pos(12, 10), false},
		{"far away", Pos(0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Reached(tt.pos); got != tt.want {
				t.Errorf("Reached(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestWaypointDistance(t *testing.T) {
	w := NewWaypoint(1, 3, 4, 1)
	if got := w.Distance(Pos(0, 0)); got != 5 {
		t.Errorf("Distance() = %v, want 5", got)
	}
	if w.X() != 3 || w.Y() != 4 {
		t.Errorf("center = (%v,%v), want (3,4)", w.X(), w.Y())
	}
}
