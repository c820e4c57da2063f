package liquid

import "github.com/df-mc/dragonfly/server/block/cube"

// Resolve computes the state pos should hold given its current neighbours.
// It never writes to the grid. A source of this liquid is returned as is;
// everything else is rebuilt from scratch. A cell that cannot hold the
// liquid always resolves to empty, so a tick armed before a terrain edit
// never refills it.
func (e *Engine) Resolve(g Grid, pos cube.Pos) CellState {
	if !g.CanHold(pos, e.liquid) {
		return EmptyCell()
	}
	cur := g.Cell(pos)
	if cur.IsSource() && cur.Holds(e.liquid) {
		return NewSource(e.liquid)
	}

	maxStrength, found, sourced := 0, false, false
	for _, face := range faces {
		n := pos.Side(face)
		if !g.Passable(pos, face, n) {
			continue
		}
		nc := g.Cell(n)
		if !nc.Holds(e.liquid) {
			continue
		}
		found = true
		if nc.IsSource() {
			sourced = true
		}
		if c := e.contribution(face, nc.Amount()); c > maxStrength {
			maxStrength = c
		}
	}
	if !found {
		return EmptyCell()
	}
	if !sourced && !e.ReachesSource(g, pos, e.params.SearchRadius) {
		return EmptyCell()
	}
	if maxStrength <= 0 {
		return EmptyCell()
	}
	return NewFlowing(e.liquid, maxStrength)
}

// contribution is the strength a neighbour of strength s, seen through
// face, lends to the cell being resolved.
func (e *Engine) contribution(face cube.Face, s int) int {
	switch face {
	case cube.FaceDown:
		return max(MinStrength, s-e.params.BelowDecay)
	case cube.FaceUp:
		return min(MaxFlowing, s+e.params.AboveBoost)
	default:
		return max(MinStrength, s-e.params.Dropoff)
	}
}
