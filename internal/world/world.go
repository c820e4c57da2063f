// Package world is a small voxel host for the liquid engine: a bounded
// sparse grid with a handful of terrain types, a tick scheduler and a
// simulation loop that drives one engine per liquid.
package world

import (
	"fmt"
	"sort"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"

	"mad-liquid/internal/liquid"
)

// Terrain enumerates the static block layer.
type Terrain uint8

const (
	// Air holds liquid and is open on every face.
	Air Terrain = iota
	// Solid blocks liquid on every face.
	Solid
	// Floor holds liquid but seals its bottom face: liquid cannot leave it
	// downward or enter it from below.
	Floor
	// Grate lets liquid pass through its faces but cannot hold any.
	Grate
)

// String returns a lowercase name for the terrain.
func (t Terrain) String() string {
	switch t {
	case Air:
		return "air"
	case Solid:
		return "solid"
	case Floor:
		return "floor"
	case Grate:
		return "grate"
	default:
		return fmt.Sprintf("terrain(%d)", uint8(t))
	}
}

// ParseTerrain maps a terrain name back to its value.
func ParseTerrain(name string) (Terrain, error) {
	for _, t := range []Terrain{Air, Solid, Floor, Grate} {
		if t.String() == name {
			return t, nil
		}
	}
	return Air, fmt.Errorf("%w: %q", ErrUnknownTerrain, name)
}

// Bounds is an inclusive box of cell positions.
type Bounds struct {
	Min, Max cube.Pos
}

// Contains reports whether pos lies inside the box.
func (b Bounds) Contains(pos cube.Pos) bool {
	for i := 0; i < 3; i++ {
		if pos[i] < b.Min[i] || pos[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Validate rejects inverted boxes.
func (b Bounds) Validate() error {
	for i := 0; i < 3; i++ {
		if b.Min[i] > b.Max[i] {
			return fmt.Errorf("%w: min %v exceeds max %v", ErrInvalidBounds, b.Min, b.Max)
		}
	}
	return nil
}

// World stores terrain and liquid for every cell inside its bounds. Cells
// default to air without liquid. Positions outside the bounds read as
// empty, are impassable and ignore writes.
type World struct {
	bounds  Bounds
	terrain map[cube.Pos]Terrain
	cells   map[cube.Pos]liquid.CellState
}

// New allocates an empty world.
func New(b Bounds) *World {
	return &World{
		bounds:  b,
		terrain: map[cube.Pos]Terrain{},
		cells:   map[cube.Pos]liquid.CellState{},
	}
}

// Bounds returns the world box.
func (w *World) Bounds() Bounds { return w.bounds }

// Terrain returns the block at pos. Outside the bounds everything is solid.
func (w *World) Terrain(pos cube.Pos) Terrain {
	if !w.bounds.Contains(pos) {
		return Solid
	}
	return w.terrain[pos]
}

// SetTerrain replaces the block at pos without notifying any liquid. Use
// Simulation.SetTerrain to have flowing cells react.
func (w *World) SetTerrain(pos cube.Pos, t Terrain) {
	if !w.bounds.Contains(pos) {
		return
	}
	if t == Air {
		delete(w.terrain, pos)
		return
	}
	w.terrain[pos] = t
}

// Cell implements liquid.Grid.
func (w *World) Cell(pos cube.Pos) liquid.CellState {
	if !w.bounds.Contains(pos) {
		return liquid.EmptyCell()
	}
	return w.cells[pos]
}

// SetCell implements liquid.Grid.
func (w *World) SetCell(pos cube.Pos, c liquid.CellState) {
	if !w.bounds.Contains(pos) {
		return
	}
	if c.IsEmpty() {
		delete(w.cells, pos)
		return
	}
	w.cells[pos] = c
}

// Passable implements liquid.Grid.
func (w *World) Passable(from cube.Pos, face cube.Face, to cube.Pos) bool {
	if !w.bounds.Contains(from) || !w.bounds.Contains(to) {
		return false
	}
	tf, tt := w.Terrain(from), w.Terrain(to)
	switch {
	case tf == Solid || tt == Solid:
		return false
	case tf == Floor && face == cube.FaceDown:
		return false
	case tt == Floor && face == cube.FaceUp:
		return false
	}
	return true
}

// CanHold implements liquid.Grid.
func (w *World) CanHold(pos cube.Pos, _ *liquid.Liquid) bool {
	if !w.bounds.Contains(pos) {
		return false
	}
	switch w.Terrain(pos) {
	case Air, Floor:
		return true
	}
	return false
}

// Positions returns every cell holding liquid l (or any liquid when l is
// nil), ordered by y, then x, then z.
func (w *World) Positions(l *liquid.Liquid) []cube.Pos {
	out := make([]cube.Pos, 0, len(w.cells))
	for pos, c := range w.cells {
		if l == nil || c.Holds(l) {
			out = append(out, pos)
		}
	}
	sortPositions(out)
	return out
}

// Len returns the number of cells holding liquid.
func (w *World) Len() int { return len(w.cells) }

// Column returns the cells at x, z from y0 to y1 inclusive.
func (w *World) Column(x, z, y0, y1 int) []liquid.CellState {
	if y1 < y0 {
		return nil
	}
	out := make([]liquid.CellState, 0, y1-y0+1)
	for y := y0; y <= y1; y++ {
		out = append(out, w.Cell(cube.Pos{x, y, z}))
	}
	return out
}

// Census counts the cells of one liquid.
type Census struct {
	Liquid  string `json:"liquid"`
	Sources int    `json:"sources"`
	Flowing int    `json:"flowing"`
	// Top is the highest y holding the liquid.
	Top int `json:"top"`
	// Centroid is the mean of the block centres.
	Centroid mgl64.Vec3 `json:"centroid"`
}

// Total returns sources plus flowing cells.
func (c Census) Total() int { return c.Sources + c.Flowing }

// Census counts cells per liquid, ordered by liquid name.
func (w *World) Census() []Census {
	byName := map[string]*Census{}
	sums := map[string]cube.Pos{}
	for pos, c := range w.cells {
		name := c.Liquid.Name()
		entry, ok := byName[name]
		if !ok {
			entry = &Census{Liquid: name, Top: pos[1]}
			byName[name] = entry
		}
		if c.IsSource() {
			entry.Sources++
		} else {
			entry.Flowing++
		}
		entry.Top = max(entry.Top, pos[1])
		sums[name] = sums[name].Add(pos)
	}
	out := make([]Census, 0, len(byName))
	for _, entry := range byName {
		n := float64(entry.Total())
		entry.Centroid = sums[entry.Liquid].Vec3().Mul(1 / n).Add(mgl64.Vec3{0.5, 0.5, 0.5})
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Liquid < out[j].Liquid })
	return out
}

func sortPositions(ps []cube.Pos) {
	sort.Slice(ps, func(i, j int) bool { return lessPos(ps[i], ps[j]) })
}

func lessPos(a, b cube.Pos) bool {
	if a[1] != b[1] {
		return a[1] < b[1]
	}
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[2] < b[2]
}
