package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robertpaananen/llpp/internal/models"
)

const hallway = `
name: hallway
seed: 7
waypoints:
  - {id: 1, x: 10, y: 10, r: 2}
  - {id: 2, x: -10, y: 10, r: 2.5}
agents:
  - {x: 0, y: 0, n: 4, dx: 6, dy: 6, waypoints: [1, 2]}
  - {x: 3, y: 3, waypoints: [2]}
`

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(hallway))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.Name != "hallway" || sc.Seed != 7 {
		t.Errorf("Name/Seed = %q/%d", sc.Name, sc.Seed)
	}
	if len(sc.Waypoints) != 2 || sc.Waypoints[1].Radius != 2.5 {
		t.Errorf("unexpected waypoints: %+v", sc.Waypoints)
	}
	if sc.Size() != 5 {
		t.Errorf("Size() = %d, want 5", sc.Size())
	}
}

func TestParse_DefaultSeed(t *testing.T) {
	sc, err := Parse([]byte("agents:\n  - {x: 1, y: 1}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.Seed != 1 {
		t.Errorf("Seed = %d, want 1", sc.Seed)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"bad yaml", "agents: [", "parsing scenario"},
		{"unknown waypoint", "waypoints: [{id: 1, x: 0, y: 0, r: 1}]\nagents: [{x: 0, y: 0, waypoints: [3]}]", "unknown waypoint id 3"},
		{"zero radius", "waypoints: [{id: 1, x: 0, y: 0, r: 0}]", "radius must be positive"},
		{"nan radius", "waypoints: [{id: 1, x: 0, y: 0, r: .nan}]", "radius must be positive"},
		{"infinite radius", "waypoints: [{id: 1, x: 0, y: 0, r: .inf}]", "radius must be positive"},
		{"nan center", "waypoints: [{id: 1, x: .nan, y: 0, r: 1}]", "center must be finite"},
		{"infinite center", "waypoints: [{id: 1, x: 0, y: -.inf, r: 1}]", "center must be finite"},
		{"duplicate id", "waypoints: [{id: 1, x: 0, y: 0, r: 1}, {id: 1, x: 2, y: 2, r: 1}]", "duplicate waypoint id"},
		{"negative n", "agents: [{x: 0, y: 0, n: -2}]", "n must be non-negative"},
		{"negative spread", "agents: [{x: 0, y: 0, dx: -1}]", "dx and dy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	sc, err := Parse([]byte(hallway))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	agents, waypoints := sc.Build()

	if len(agents) != 5 || len(waypoints) != 2 {
		t.Fatalf("Build() = %d agents, %d waypoints", len(agents), len(waypoints))
	}
	for i, a := range agents[:4] {
		if a.X() < -3 || a.X() > 3 || a.Y() < -3 || a.Y() > 3 {
			t.Errorf("agent %d spawned at %v, outside the 6x6 box", i, a.Position())
		}
		if len(a.Waypoints()) != 2 || a.Waypoints()[0] != waypoints[0] {
			t.Errorf("agent %d waypoints not shared with the scenario", i)
		}
	}
	if agents[4].Position() != models.Pos(3, 3) {
		t.Errorf("agent without spread at %v, want (3,3)", agents[4].Position())
	}
}

func TestBuild_Deterministic(t *testing.T) {
	sc, err := Parse([]byte(hallway))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	first, _ := sc.Build()
	second, _ := sc.Build()
	for i := range first {
		if first[i] == second[i] {
			t.Fatalf("agent %d reused between builds", i)
		}
		if first[i].Position() != second[i].Position() {
			t.Errorf("agent %d: %v vs %v", i, first[i].Position(), second[i].Position())
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corridor.yaml")
	if err := os.WriteFile(path, []byte("agents: [{x: 0, y: 0, n: 2}]\n"), 0600); err != nil {
		t.Fatal(err)
	}

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.Name != "corridor" {
		t.Errorf("Name = %q, want file stem", sc.Name)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParse_SanitizesName(t *testing.T) {
	sc, err := Parse([]byte("name: \"rush hour\\x1b[0m\"\nagents: [{x: 0, y: 0}]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.Name != "rush-hour0m" {
		t.Errorf("Name = %q, want %q", sc.Name, "rush-hour0m")
	}
}

func TestLoadWithin(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "ok.yaml"), []byte(hallway), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadWithin(root, "ok.yaml"); err != nil {
		t.Errorf("LoadWithin inside root: %v", err)
	}
	if _, err := LoadWithin(root, "../ok.yaml"); err == nil {
		t.Error("expected error for path outside root")
	}
}

func TestGenerate(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 64} {
		sc := Generate(n, 3)
		if err := sc.Validate(); err != nil {
			t.Fatalf("Generate(%d) invalid: %v", n, err)
		}
		agents, waypoints := sc.Build()
		if len(agents) != n {
			t.Errorf("Generate(%d) built %d agents", n, len(agents))
		}
		if len(waypoints) != 2 {
			t.Errorf("Generate(%d) built %d waypoints", n, len(waypoints))
		}
		seen := make(map[models.Position]bool)
		for _, a := range agents {
			if seen[a.Position()] {
				t.Errorf("Generate(%d): duplicate start cell %v", n, a.Position())
			}
			seen[a.Position()] = true
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	sc := Generate(5, 9)
	data, err := sc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a, _ := sc.Build()
	b, _ := back.Build()
	for i := range a {
		if a[i].Position() != b[i].Position() {
			t.Errorf("agent %d: %v vs %v", i, a[i].Position(), b[i].Position())
		}
	}
}

func TestInitialPositions(t *testing.T) {
	sc, err := Parse([]byte(hallway))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	agents, _ := sc.Build()
	got := sc.InitialPositions()
	if len(got) != len(agents) {
		t.Fatalf("InitialPositions() has %d entries, want %d", len(got), len(agents))
	}
	for i, a := range agents {
		if got[i] != a.Position() {
			t.Errorf("agent %d: %v, want %v", i, got[i], a.Position())
		}
	}
}
