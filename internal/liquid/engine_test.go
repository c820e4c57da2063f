package liquid

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// testGrid is an unbounded grid where every cell is open air unless marked
// solid or dry.
type testGrid struct {
	cells  map[cube.Pos]CellState
	solid  map[cube.Pos]bool
	dry    map[cube.Pos]bool // passable but never holds liquid
	sealed map[cube.Pos]bool // blocks the face between pos and the cell above
}

func newTestGrid() *testGrid {
	return &testGrid{
		cells:  map[cube.Pos]CellState{},
		solid:  map[cube.Pos]bool{},
		dry:    map[cube.Pos]bool{},
		sealed: map[cube.Pos]bool{},
	}
}

func (g *testGrid) Cell(pos cube.Pos) CellState { return g.cells[pos] }

func (g *testGrid) SetCell(pos cube.Pos, c CellState) {
	if c.IsEmpty() {
		delete(g.cells, pos)
		return
	}
	g.cells[pos] = c
}

func (g *testGrid) Passable(from cube.Pos, face cube.Face, to cube.Pos) bool {
	if g.solid[from] || g.solid[to] {
		return false
	}
	if face == cube.FaceUp && g.sealed[from] {
		return false
	}
	if face == cube.FaceDown && g.sealed[to] {
		return false
	}
	return true
}

func (g *testGrid) CanHold(pos cube.Pos, _ *Liquid) bool { return !g.solid[pos] && !g.dry[pos] }

type scheduled struct {
	pos   cube.Pos
	delay int
}

// recorder keeps the earliest delay requested per position.
type recorder struct {
	calls []scheduled
	delay map[cube.Pos]int
}

func newRecorder() *recorder { return &recorder{delay: map[cube.Pos]int{}} }

func (r *recorder) Schedule(pos cube.Pos, delay int) {
	r.calls = append(r.calls, scheduled{pos: pos, delay: delay})
	if cur, ok := r.delay[pos]; !ok || delay < cur {
		r.delay[pos] = delay
	}
}

func quietEngine(t *testing.T, l *Liquid) *Engine {
	t.Helper()
	e, err := New(l, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New(%s): %v", l.Name(), err)
	}
	return e
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("New(nil) error = %v, want ErrInvalidConfig", err)
	}

	cases := map[string]func(*Params){
		"zero radius":      func(p *Params) { p.SearchRadius = 0 },
		"negative radius":  func(p *Params) { p.SearchRadius = -4 },
		"zero tick delay":  func(p *Params) { p.TickDelay = 0 },
		"slowdown":         func(p *Params) { p.DissipationSlowdown = 0 },
		"negative dropoff": func(p *Params) { p.Dropoff = -1 },
		"strategy":         func(p *Params) { p.Connectivity = "teleport" },
		"flood limit": func(p *Params) {
			p.Connectivity = FloodFill
			p.FloodLimit = 0
		},
	}
	for name, mutate := range cases {
		p := DefaultParams()
		mutate(&p)
		if _, err := Define("broken", p); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: Define error = %v, want ErrInvalidConfig", name, err)
		}
		// Bypass Define to make sure New validates on its own.
		l := &Liquid{name: "broken", params: p}
		if _, err := New(l); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: New error = %v, want ErrInvalidConfig", name, err)
		}
	}
}

func TestBuiltinLiquidsAreValid(t *testing.T) {
	for _, name := range Names() {
		l, ok := Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) failed", name)
		}
		if err := l.Params().Validate(); err != nil {
			t.Fatalf("%s params invalid: %v", name, err)
		}
	}
	if _, ok := Lookup("lava"); ok {
		t.Fatal("Lookup should not find unknown liquids")
	}
	if MagicWater.IsSame(Experience) {
		t.Fatal("magic water and experience must be different liquids")
	}
	renamed, err := MagicWater.With(DefaultParams())
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if !renamed.IsSame(MagicWater) {
		t.Fatal("a re-tuned liquid keeps its identity")
	}
}

func TestTickSeedsColumnAboveSource(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	g.SetCell(cube.Pos{0, 0, 0}, NewSource(MagicWater))

	e.Tick(g, s, cube.Pos{0, 0, 0})

	above := g.Cell(cube.Pos{0, 1, 0})
	if above.Kind != Flowing || above.Strength != 7 {
		t.Fatalf("cell above source = %s, want flowing 7", above)
	}
	if got := s.delay[cube.Pos{0, 1, 0}]; got != MagicWater.Params().TickDelay {
		t.Fatalf("seeded cell delay = %d, want %d", got, MagicWater.Params().TickDelay)
	}
	for _, face := range horizontalFaces {
		if c := g.Cell(cube.Pos{0, 0, 0}.Side(face)); !c.IsEmpty() {
			t.Fatalf("open shaft must not spread sideways, found %s at %v", c, face)
		}
	}
	if c := g.Cell(cube.Pos{0, 0, 0}); !c.IsSource() {
		t.Fatalf("source changed to %s", c)
	}
}

func TestTickFallsBackSidewaysWhenBlocked(t *testing.T) {
	for _, l := range []*Liquid{MagicWater, Experience} {
		e := quietEngine(t, l)
		g := newTestGrid()
		s := newRecorder()
		g.SetCell(cube.Pos{0, 0, 0}, NewSource(l))
		g.solid[cube.Pos{0, 1, 0}] = true
		g.solid[cube.Pos{0, 0, -1}] = true

		e.Tick(g, s, cube.Pos{0, 0, 0})

		want := max(1, SourceStrength-l.Params().HorizontalDecay)
		for _, face := range horizontalFaces {
			pos := cube.Pos{0, 0, 0}.Side(face)
			got := g.Cell(pos)
			if face == cube.FaceNorth {
				if !got.IsEmpty() {
					t.Fatalf("%s: solid neighbour filled with %s", l.Name(), got)
				}
				continue
			}
			if got.Kind != Flowing || got.Strength != want {
				t.Fatalf("%s: %v neighbour = %s, want flowing %d", l.Name(), face, got, want)
			}
			wantDelay := l.Params().TickDelay + 2
			if want < 2 {
				wantDelay = l.Params().TickDelay * 2
			}
			if d := s.delay[pos]; d != wantDelay {
				t.Fatalf("%s: %v neighbour delay = %d, want %d", l.Name(), face, d, wantDelay)
			}
		}
	}
}

func TestSidewaysDelayDoublesUnderCeiling(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	g.SetCell(cube.Pos{0, 0, 0}, NewSource(MagicWater))
	g.solid[cube.Pos{0, 1, 0}] = true
	g.solid[cube.Pos{1, 1, 0}] = true

	e.Tick(g, s, cube.Pos{0, 0, 0})

	if d := s.delay[cube.Pos{1, 0, 0}]; d != MagicWater.Params().TickDelay*2 {
		t.Fatalf("covered neighbour delay = %d, want %d", d, MagicWater.Params().TickDelay*2)
	}
	if d := s.delay[cube.Pos{-1, 0, 0}]; d != MagicWater.Params().TickDelay+2 {
		t.Fatalf("open neighbour delay = %d, want %d", d, MagicWater.Params().TickDelay+2)
	}
}

func TestSidewaysNeverReplacesLiquid(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	g.SetCell(cube.Pos{0, 0, 0}, NewSource(MagicWater))
	g.solid[cube.Pos{0, 1, 0}] = true
	g.SetCell(cube.Pos{1, 0, 0}, NewSource(Experience))
	g.SetCell(cube.Pos{-1, 0, 0}, NewFlowing(MagicWater, 2))

	e.Tick(g, s, cube.Pos{0, 0, 0})

	if c := g.Cell(cube.Pos{1, 0, 0}); !c.IsSource() || !c.Holds(Experience) {
		t.Fatalf("foreign source replaced by %s", c)
	}
	if c := g.Cell(cube.Pos{-1, 0, 0}); c.Strength != 2 {
		t.Fatalf("existing flowing cell rewritten to %s", c)
	}
}

func TestAdvanceEmptyWakesNeighbours(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	pos := cube.Pos{0, 5, 0}
	g.SetCell(pos, NewFlowing(MagicWater, 4))
	g.SetCell(cube.Pos{0, 6, 0}, NewFlowing(MagicWater, 5))
	g.SetCell(cube.Pos{1, 5, 0}, NewFlowing(MagicWater, 3))
	g.SetCell(cube.Pos{-1, 5, 0}, NewSource(MagicWater))
	g.SetCell(cube.Pos{0, 4, 0}, NewFlowing(Experience, 6))

	e.Advance(g, s, pos, g.Cell(pos), EmptyCell())

	if c := g.Cell(pos); !c.IsEmpty() {
		t.Fatalf("cell = %s, want empty", c)
	}
	for _, p := range []cube.Pos{{0, 6, 0}, {1, 5, 0}} {
		if d, ok := s.delay[p]; !ok || d != 1 {
			t.Fatalf("neighbour %v delay = %d (armed %v), want 1", p, d, ok)
		}
	}
	if _, ok := s.delay[cube.Pos{-1, 5, 0}]; ok {
		t.Fatal("sources must not be woken")
	}
	if _, ok := s.delay[cube.Pos{0, 4, 0}]; ok {
		t.Fatal("other liquids must not be woken")
	}
}

func TestAdvanceEmptyToEmptyDoesNothing(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	g.SetCell(cube.Pos{1, 0, 0}, NewFlowing(MagicWater, 3))

	e.Advance(g, s, cube.Pos{0, 0, 0}, EmptyCell(), EmptyCell())

	if len(s.calls) != 0 {
		t.Fatalf("unexpected schedules %v", s.calls)
	}
}

func TestAdvanceSlowsWeakeningCells(t *testing.T) {
	e := quietEngine(t, Experience)
	p := Experience.Params()
	cases := []struct {
		name      string
		old, next CellState
		want      int
	}{
		{"weaker", NewFlowing(Experience, 6), NewFlowing(Experience, 3), p.TickDelay * p.DissipationSlowdown},
		{"stronger", NewFlowing(Experience, 3), NewFlowing(Experience, 6), p.TickDelay},
		{"fresh", EmptyCell(), NewFlowing(Experience, 2), p.TickDelay},
	}
	for _, tc := range cases {
		g := newTestGrid()
		s := newRecorder()
		pos := cube.Pos{0, 0, 0}
		g.solid[pos.Side(cube.FaceUp)] = true
		for _, face := range horizontalFaces {
			g.solid[pos.Side(face)] = true
		}
		g.SetCell(pos, tc.old)

		e.Advance(g, s, pos, tc.old, tc.next)

		if c := g.Cell(pos); !c.Equal(tc.next) {
			t.Fatalf("%s: cell = %s, want %s", tc.name, c, tc.next)
		}
		if s.delay[pos] != tc.want {
			t.Fatalf("%s: delay = %d, want %d", tc.name, s.delay[pos], tc.want)
		}
	}
}

func TestAdvanceUnchangedDoesNotRearmSelf(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	pos := cube.Pos{0, 0, 0}
	g.solid[pos.Side(cube.FaceUp)] = true
	for _, face := range horizontalFaces {
		g.solid[pos.Side(face)] = true
	}
	c := NewFlowing(MagicWater, 5)
	g.SetCell(pos, c)

	e.Advance(g, s, pos, c, c)

	if len(s.calls) != 0 {
		t.Fatalf("unchanged sealed cell scheduled %v", s.calls)
	}
}

func TestStaleTickOnForeignLiquidIsDropped(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	pos := cube.Pos{0, 1, 0}
	g.SetCell(cube.Pos{0, 0, 0}, NewSource(MagicWater))
	g.SetCell(pos, NewFlowing(Experience, 4))

	e.Tick(g, s, pos)

	if c := g.Cell(pos); !c.Holds(Experience) || c.Strength != 4 {
		t.Fatalf("foreign cell changed to %s", c)
	}
	if len(s.calls) != 0 {
		t.Fatalf("unexpected schedules %v", s.calls)
	}
}

func TestStaleTickOnEmptiedCellIsHarmless(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()

	e.Tick(g, s, cube.Pos{3, 3, 3})

	if len(g.cells) != 0 || len(s.calls) != 0 {
		t.Fatalf("tick on empty space wrote %v and scheduled %v", g.cells, s.calls)
	}
}

func TestStaleTickOnCellThatCannotHoldStaysEmpty(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	src, pos := cube.Pos{0, 0, 0}, cube.Pos{0, 1, 0}
	g.SetCell(src, NewSource(MagicWater))
	g.dry[pos] = true

	if got := e.Resolve(g, pos); !got.IsEmpty() {
		t.Fatalf("Resolve on a dry cell = %s, want empty", got)
	}
	e.Tick(g, s, pos)
	if c := g.Cell(pos); !c.IsEmpty() {
		t.Fatalf("stale tick refilled a dry cell with %s", c)
	}
	if len(s.calls) != 0 {
		t.Fatalf("stale tick scheduled %v", s.calls)
	}
}

func TestOnPlacedArmsCellAndNeighbours(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	pos := cube.Pos{0, 0, 0}
	g.SetCell(pos, NewSource(MagicWater))
	g.SetCell(cube.Pos{0, 1, 0}, NewFlowing(MagicWater, 3))

	e.OnPlaced(g, s, pos)

	delay := MagicWater.Params().TickDelay
	if s.delay[pos] != delay || s.delay[cube.Pos{0, 1, 0}] != delay {
		t.Fatalf("delays = %v, want %d for cell and neighbour", s.delay, delay)
	}
}

func TestRandomTickOnlyArmsFlowingCells(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	g.SetCell(cube.Pos{0, 0, 0}, NewSource(MagicWater))
	g.SetCell(cube.Pos{0, 1, 0}, NewFlowing(MagicWater, 7))
	g.SetCell(cube.Pos{0, 2, 0}, NewFlowing(Experience, 7))

	for y := 0; y < 4; y++ {
		e.RandomTick(g, s, cube.Pos{0, y, 0})
	}

	if len(s.calls) != 1 || s.calls[0] != (scheduled{pos: cube.Pos{0, 1, 0}, delay: 1}) {
		t.Fatalf("random ticks scheduled %v, want only the flowing magic water cell", s.calls)
	}
}

func TestOnRemovedWakesConnectedBodyWithinRadius(t *testing.T) {
	p := DefaultParams()
	p.WakeRadius = 3
	l, err := Define("test_liquid", p)
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	e := quietEngine(t, l)
	g := newTestGrid()
	s := newRecorder()
	for y := 1; y <= 6; y++ {
		g.SetCell(cube.Pos{0, y, 0}, NewFlowing(l, 7))
	}
	g.SetCell(cube.Pos{1, 1, 0}, NewSource(l))
	// Detached from the column by a gap at x=3.
	g.SetCell(cube.Pos{4, 0, 0}, NewFlowing(l, 5))
	g.SetCell(cube.Pos{2, 0, 0}, NewFlowing(Experience, 5))

	woken := e.OnRemoved(g, s, cube.Pos{0, 0, 0})

	if woken != 3 {
		t.Fatalf("woken = %d, want 3 (column cells up to the wake radius)", woken)
	}
	for y := 1; y <= 3; y++ {
		if d := s.delay[cube.Pos{0, y, 0}]; d != 1 {
			t.Fatalf("column cell y=%d delay = %d, want 1", y, d)
		}
	}
	for _, pos := range []cube.Pos{{0, 4, 0}, {1, 1, 0}, {4, 0, 0}, {2, 0, 0}} {
		if _, ok := s.delay[pos]; ok {
			t.Fatalf("%v must not be woken", pos)
		}
	}
}

func TestOnBlockChangedArmsTheChangedCell(t *testing.T) {
	e := quietEngine(t, MagicWater)
	g := newTestGrid()
	s := newRecorder()
	pos := cube.Pos{0, 2, 0}
	g.SetCell(pos, NewFlowing(MagicWater, 6))
	g.SetCell(cube.Pos{0, 3, 0}, NewFlowing(MagicWater, 5))

	woken := e.OnBlockChanged(g, s, pos)

	if woken != 2 || s.delay[pos] != 1 || s.delay[cube.Pos{0, 3, 0}] != 1 {
		t.Fatalf("woken = %d, delays = %v", woken, s.delay)
	}
}
