// Package upflow shows one liquid rising from a single source. The
// simulation is three dimensional; the view is the x/y plane at a fixed z.
package upflow

import (
	"log/slog"

	"github.com/df-mc/dragonfly/server/block/cube"

	"mad-liquid/internal/core"
	"mad-liquid/internal/liquid"
	"mad-liquid/internal/world"
)

// View adapts a world.Simulation to core.Sim.
type View struct {
	cfg    Config
	sim    *world.Simulation
	liquid *liquid.Liquid
	bounds world.Bounds

	display *core.ByteGrid
	pending []float32
	seed    int64
}

// New returns a view of the named liquid using defaults.
func New(name string) *View {
	return NewWithConfig(DefaultConfig(name))
}

// NewWithConfig returns a view configured from the provided options.
func NewWithConfig(cfg Config) *View {
	if cfg.Width <= 0 {
		cfg.Width = 1
	}
	if cfg.Height <= 0 {
		cfg.Height = 1
	}
	if cfg.Depth <= 0 {
		cfg.Depth = 1
	}
	cfg.Slice = clampSlice(cfg.Slice, cfg.Depth)
	v := &View{
		cfg:     cfg,
		display: core.NewByteGrid(cfg.Width, cfg.Height),
		pending: make([]float32, cfg.Width*cfg.Height),
	}
	v.Reset(0)
	return v
}

// Name returns the simulated liquid.
func (v *View) Name() string { return v.cfg.Liquid }

// Size reports the dimensions of the displayed plane.
func (v *View) Size() core.Size { return core.Size{W: v.cfg.Width, H: v.cfg.Height} }

// Cells exposes the current display buffer. Row 0 is the top of the box.
func (v *View) Cells() []uint8 { return v.display.Cells() }

// Config returns the active configuration.
func (v *View) Config() Config { return v.cfg }

// Simulation exposes the underlying simulation.
func (v *View) Simulation() *world.Simulation { return v.sim }

// Source returns the position of the source block.
func (v *View) Source() cube.Pos { return cube.Pos{0, v.bounds.Min[1], v.cfg.Slice} }

// Reset rebuilds the box and places a fresh source. A zero seed reuses the
// configured one.
func (v *View) Reset(seed int64) {
	effective := seed
	if effective == 0 {
		effective = v.cfg.Seed
	}
	v.seed = effective

	l, err := v.buildLiquid()
	if err != nil {
		slog.Warn("liquid tunables rejected, using defaults", "liquid", v.cfg.Liquid, "error", err)
		l, _ = liquid.Lookup(v.cfg.Liquid)
		if l == nil {
			l = liquid.MagicWater
		}
	}
	v.liquid = l

	minX := -(v.cfg.Width / 2)
	minZ, maxZ := zRange(v.cfg.Depth)
	v.bounds = world.Bounds{
		Min: cube.Pos{minX, 0, minZ},
		Max: cube.Pos{minX + v.cfg.Width - 1, v.cfg.Height - 1, maxZ},
	}
	sim, err := world.NewSimulation(world.Config{
		Bounds:      v.bounds,
		Liquids:     []*liquid.Liquid{l},
		RandomTicks: v.cfg.RandomTicks,
		Seed:        effective,
	})
	if err != nil {
		slog.Error("failed to build simulation", "liquid", l.Name(), "error", err)
		return
	}
	v.sim = sim
	v.buildLayout()
	if err := sim.PlaceSource(v.Source(), l); err != nil {
		slog.Warn("failed to place source", "pos", v.Source(), "error", err)
	}
	v.rebuildDisplay()
}

// Step advances the simulation by one tick.
func (v *View) Step() {
	if v.sim == nil {
		return
	}
	v.sim.Step()
	v.rebuildDisplay()
}

// ToggleSource removes the source if it is present and places it again
// otherwise.
func (v *View) ToggleSource() {
	if v.sim == nil {
		return
	}
	pos := v.Source()
	if v.sim.Cell(pos).IsSource() {
		v.sim.Remove(pos)
	} else if err := v.sim.PlaceSource(pos, v.liquid); err != nil {
		slog.Warn("failed to place source", "pos", pos, "error", err)
	}
	v.rebuildDisplay()
}

// Census returns the liquid count of the whole box.
func (v *View) Census() []world.Census {
	if v.sim == nil {
		return nil
	}
	return v.sim.World().Census()
}

// Tick returns the number of steps taken since the last reset.
func (v *View) Tick() int64 {
	if v.sim == nil {
		return 0
	}
	return v.sim.Now()
}

// Pending returns the number of armed ticks in the whole box.
func (v *View) Pending() int {
	if v.sim == nil {
		return 0
	}
	return v.sim.Pending()
}

// PendingMask marks displayed cells that have a tick armed with 1.
func (v *View) PendingMask() []float32 { return v.pending }

// StrengthMask maps the displayed liquid amount to [0, 1].
func (v *View) StrengthMask() []float32 {
	out := make([]float32, len(v.pending))
	if v.sim == nil {
		return out
	}
	v.eachDisplayed(func(i int, pos cube.Pos) {
		out[i] = float32(v.sim.Cell(pos).Amount()) / 8
	})
	return out
}

func (v *View) buildLiquid() (*liquid.Liquid, error) {
	base, ok := liquid.Lookup(v.cfg.Liquid)
	if !ok {
		base = liquid.MagicWater
		v.cfg.Liquid = base.Name()
	}
	p := base.Params()
	p.Connectivity = v.cfg.Connectivity
	p.TickDelay = v.cfg.TickDelay
	p.SearchRadius = v.cfg.SearchRadius
	return base.With(p)
}

// buildLayout writes terrain straight into the world. Nothing is placed
// yet, so there is no liquid to wake.
func (v *View) buildLayout() {
	w := v.sim.World()
	b := v.bounds
	switch v.cfg.Layout {
	case LayoutShaft:
		for x := b.Min[0]; x <= b.Max[0]; x++ {
			for z := b.Min[2]; z <= b.Max[2]; z++ {
				if x == 0 && z == v.cfg.Slice {
					continue
				}
				for y := b.Min[1]; y <= b.Max[1]; y++ {
					w.SetTerrain(cube.Pos{x, y, z}, world.Solid)
				}
			}
		}
	case LayoutLedge:
		for x := -2; x <= 2; x++ {
			w.SetTerrain(cube.Pos{x, LedgeHeight, v.cfg.Slice}, world.Solid)
		}
	}
}

func (v *View) eachDisplayed(fn func(i int, pos cube.Pos)) {
	for row := 0; row < v.display.H; row++ {
		y := v.bounds.Max[1] - row
		for col := 0; col < v.display.W; col++ {
			fn(v.display.Index(col, row), cube.Pos{v.bounds.Min[0] + col, y, v.cfg.Slice})
		}
	}
}

func (v *View) rebuildDisplay() {
	if v.sim == nil {
		return
	}
	w := v.sim.World()
	sched := v.sim.Scheduler()
	name := v.liquid.Name()
	cells := v.display.Cells()
	v.eachDisplayed(func(i int, pos cube.Pos) {
		cells[i] = encodeDisplayValue(w.Terrain(pos), w.Cell(pos))
		v.pending[i] = 0
		if sched.PendingAt(pos, name) {
			v.pending[i] = 1
		}
	})
}

func init() {
	for _, name := range liquid.Names() {
		core.Register(name, func(cfg map[string]string) core.Sim {
			return NewWithConfig(FromMap(name, cfg))
		})
	}
}
