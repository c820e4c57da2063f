package liquid

import "github.com/df-mc/dragonfly/server/block/cube"

// Grid is the host-owned voxel world. The engine reads and writes one cell
// at a time and never keeps state between calls.
type Grid interface {
	// Cell returns the liquid state at pos. Cells outside the world are
	// empty.
	Cell(pos cube.Pos) CellState
	// SetCell replaces the liquid state at pos.
	SetCell(pos cube.Pos, c CellState)
	// Passable reports whether liquid can cross the face shared by from
	// and to. Cells outside the world are never passable.
	Passable(from cube.Pos, face cube.Face, to cube.Pos) bool
	// CanHold reports whether pos may contain liquid l.
	CanHold(pos cube.Pos, l *Liquid) bool
}

// Scheduler arms a delayed tick for a cell. Scheduling a cell that already
// has a pending tick must be harmless.
type Scheduler interface {
	Schedule(pos cube.Pos, delay int)
}

// faces lists the six face directions in evaluation order.
var faces = [...]cube.Face{
	cube.FaceDown,
	cube.FaceUp,
	cube.FaceNorth,
	cube.FaceSouth,
	cube.FaceWest,
	cube.FaceEast,
}

var horizontalFaces = [...]cube.Face{
	cube.FaceNorth,
	cube.FaceSouth,
	cube.FaceWest,
	cube.FaceEast,
}
