package liquid

import "github.com/df-mc/dragonfly/server/block/cube"

// ReachesSource reports whether a source of this liquid can be reached
// from start without leaving the cube of the given radius. A false negative
// only makes a cell dissipate early; a false positive is never produced.
func (e *Engine) ReachesSource(g Grid, start cube.Pos, radius int) bool {
	if radius <= 0 {
		return false
	}
	if e.params.Connectivity == FloodFill {
		return e.floodReaches(g, start, radius)
	}
	return e.columnReaches(g, start, radius)
}

// columnReaches walks up and down from start. Only a source in the same
// column joined to start by an unbroken, passable run of the liquid counts;
// sources elsewhere in the cube can never satisfy that test, so walking the
// column outward is the same check as scanning the whole cube.
func (e *Engine) columnReaches(g Grid, start cube.Pos, radius int) bool {
	for _, face := range [...]cube.Face{cube.FaceDown, cube.FaceUp} {
		prev := start
		for d := 1; d <= radius; d++ {
			pos := prev.Side(face)
			if !g.Passable(prev, face, pos) {
				break
			}
			c := g.Cell(pos)
			if !c.Holds(e.liquid) {
				break
			}
			if c.IsSource() {
				return true
			}
			prev = pos
		}
	}
	return false
}

// visitedSet is the bounded set of positions seen by one flood search.
type visitedSet struct {
	seen  map[cube.Pos]struct{}
	limit int
}

func newVisitedSet(limit int) *visitedSet {
	return &visitedSet{seen: make(map[cube.Pos]struct{}, limit), limit: limit}
}

// add records pos and reports whether it was new. It refuses new entries
// once the limit is reached.
func (v *visitedSet) add(pos cube.Pos) bool {
	if _, ok := v.seen[pos]; ok {
		return false
	}
	if len(v.seen) >= v.limit {
		return false
	}
	v.seen[pos] = struct{}{}
	return true
}

func (v *visitedSet) full() bool { return len(v.seen) >= v.limit }

// floodReaches searches breadth-first through passable cells of the liquid.
// The search stops when the visited set is full.
func (e *Engine) floodReaches(g Grid, start cube.Pos, radius int) bool {
	visited := newVisitedSet(e.params.FloodLimit)
	visited.add(start)
	queue := []cube.Pos{start}
	for head := 0; head < len(queue); head++ {
		pos := queue[head]
		for _, face := range faces {
			n := pos.Side(face)
			if !withinRadius(start, n, radius) || !g.Passable(pos, face, n) {
				continue
			}
			c := g.Cell(n)
			if !c.Holds(e.liquid) {
				continue
			}
			if c.IsSource() {
				return true
			}
			if visited.add(n) {
				queue = append(queue, n)
			} else if visited.full() {
				// Cells still queued are abandoned on purpose: a full set
				// means the body is too large to prove connected, and
				// reporting false only dissipates early.
				return false
			}
		}
	}
	return false
}

func withinRadius(a, b cube.Pos, radius int) bool {
	for i := 0; i < 3; i++ {
		d := a[i] - b[i]
		if d < -radius || d > radius {
			return false
		}
	}
	return true
}
