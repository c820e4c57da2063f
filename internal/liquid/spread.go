package liquid

import "github.com/df-mc/dragonfly/server/block/cube"

// maxWakeCells bounds the work queue of a single region wake-up.
const maxWakeCells = 4096

// Advance applies a resolved state to the grid and moves the liquid on.
//
// A cell that becomes empty wakes the connected body of liquid around it
// one tick out: cells further up a column may have been relying on it to
// reach their source. A cell that changes is written and re-armed. In every
// non-empty case the liquid then spreads: up if it can, sideways only when
// the way up is blocked.
func (e *Engine) Advance(g Grid, s Scheduler, pos cube.Pos, old, next CellState) {
	if next.IsEmpty() {
		if !old.IsEmpty() {
			g.SetCell(pos, EmptyCell())
			woken := e.wakeRegion(g, s, pos, e.params.SearchRadius)
			e.log.Debug("liquid dissipated", "liquid", e.liquid.Name(), "pos", pos, "was", old.String(), "woken", woken)
		}
		return
	}
	if !next.Equal(old) {
		e.write(g, s, pos, next, e.spreadDelay(old, next))
	}
	e.spread(g, s, pos, next)
}

// write stores c at pos, arms pos after delay and re-arms the neighbours
// whose resolution depends on it.
func (e *Engine) write(g Grid, s Scheduler, pos cube.Pos, c CellState, delay int) {
	g.SetCell(pos, c)
	s.Schedule(pos, delay)
	e.wakeNeighbours(g, s, pos, e.params.TickDelay)
}

// spreadDelay slows down a weakening cell so dissipation reads as gradual.
func (e *Engine) spreadDelay(old, next CellState) int {
	if !old.IsEmpty() && next.Amount() < old.Amount() {
		return e.params.TickDelay * e.params.DissipationSlowdown
	}
	return e.params.TickDelay
}

func (e *Engine) spread(g Grid, s Scheduler, pos cube.Pos, c CellState) {
	strength := c.Amount()
	if strength < MinStrength {
		return
	}
	above := pos.Side(cube.FaceUp)
	if !e.open(g, pos, cube.FaceUp, above) {
		e.spreadSideways(g, s, pos, strength)
		return
	}

	ac := g.Cell(above)
	if !ac.IsEmpty() {
		if !ac.Holds(e.liquid) || ac.IsSource() || ac.Amount() >= strength {
			return
		}
	}
	up := clamp(strength+e.params.UpwardBoost, MinStrength, MaxFlowing)
	if !ac.IsEmpty() && ac.Amount() >= up {
		return
	}
	// Never seed a cell its own tick would dissipate straight away, and
	// never lift an existing cell above what it resolves to.
	r := e.Resolve(g, above)
	if r.IsEmpty() || (!ac.IsEmpty() && up > r.Amount()) {
		return
	}
	e.write(g, s, above, NewFlowing(e.liquid, up), e.params.TickDelay)
}

// spreadSideways fills empty horizontal neighbours. Cells already holding
// liquid are left for their own ticks to settle.
func (e *Engine) spreadSideways(g Grid, s Scheduler, pos cube.Pos, strength int) {
	side := clamp(strength-e.params.HorizontalDecay, MinStrength, MaxFlowing)
	for _, face := range horizontalFaces {
		n := pos.Side(face)
		if !e.open(g, pos, face, n) || !g.Cell(n).IsEmpty() {
			continue
		}
		if e.Resolve(g, n).IsEmpty() {
			continue
		}
		delay := e.params.TickDelay * 2
		if up := n.Side(cube.FaceUp); side >= 2 && e.open(g, n, cube.FaceUp, up) {
			delay = e.params.TickDelay + 2
		}
		e.write(g, s, n, NewFlowing(e.liquid, side), delay)
	}
}

func (e *Engine) open(g Grid, from cube.Pos, face cube.Face, to cube.Pos) bool {
	return g.Passable(from, face, to) && g.CanHold(to, e.liquid)
}

// wakeNeighbours re-arms flowing neighbours of this liquid.
func (e *Engine) wakeNeighbours(g Grid, s Scheduler, pos cube.Pos, delay int) {
	for _, face := range faces {
		n := pos.Side(face)
		c := g.Cell(n)
		if c.Holds(e.liquid) && !c.IsSource() {
			s.Schedule(n, delay)
		}
	}
}

// OnRemoved is called by the host after it cleared pos from outside the
// engine (a block broken, a bucket filled). Every flowing cell of this
// liquid connected to pos within the wake radius is re-armed one tick out.
// It returns the number of cells woken.
func (e *Engine) OnRemoved(g Grid, s Scheduler, pos cube.Pos) int {
	woken := e.wakeRegion(g, s, pos, e.params.WakeRadius)
	e.log.Debug("liquid removed", "liquid", e.liquid.Name(), "pos", pos, "woken", woken)
	return woken
}

// OnBlockChanged is called by the host after the terrain at pos changed in
// a way that may open or close faces. pos and the connected liquid around
// it are re-armed one tick out.
func (e *Engine) OnBlockChanged(g Grid, s Scheduler, pos cube.Pos) int {
	woken := e.wakeRegion(g, s, pos, e.params.WakeRadius)
	if c := g.Cell(pos); c.Holds(e.liquid) && !c.IsSource() {
		s.Schedule(pos, 1)
		woken++
	}
	return woken
}

// wakeRegion re-arms, one tick out, every flowing cell of this liquid joined
// to pos through other cells of it and no further than radius away on any
// axis. pos itself is not woken.
func (e *Engine) wakeRegion(g Grid, s Scheduler, pos cube.Pos, radius int) int {
	radius = max(1, radius)
	visited := map[cube.Pos]struct{}{pos: {}}
	queue := []cube.Pos{pos}
	woken := 0
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		for _, face := range faces {
			n := cur.Side(face)
			if _, ok := visited[n]; ok || !withinRadius(pos, n, radius) {
				continue
			}
			visited[n] = struct{}{}
			c := g.Cell(n)
			if !c.Holds(e.liquid) {
				continue
			}
			if len(queue) < maxWakeCells {
				queue = append(queue, n)
			}
			if !c.IsSource() {
				s.Schedule(n, 1)
				woken++
			}
		}
	}
	return woken
}
