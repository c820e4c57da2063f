package world

import (
	"fmt"
	"log/slog"

	"github.com/df-mc/dragonfly/server/block/cube"

	"mad-liquid/internal/liquid"
	rng "mad-liquid/pkg/core"
)

// Config controls a Simulation.
type Config struct {
	Bounds  Bounds
	Liquids []*liquid.Liquid

	// RandomTicks is the number of liquid cells re-armed at random each
	// step. Zero disables random ticks, which lets RunUntilIdle terminate.
	RandomTicks int
	Seed        int64

	Logger *slog.Logger
}

// DefaultConfig returns a 17x33x17 world with both built-in liquids.
func DefaultConfig() Config {
	return Config{
		Bounds:  Bounds{Min: cube.Pos{-8, 0, -8}, Max: cube.Pos{8, 32, 8}},
		Liquids: []*liquid.Liquid{liquid.MagicWater, liquid.Experience},
		Seed:    1,
	}
}

// Simulation drives one engine per liquid over a World.
type Simulation struct {
	cfg     Config
	world   *World
	sched   *TickScheduler
	engines map[string]*liquid.Engine
	order   []string
	rng     *rng.RNG
	log     *slog.Logger
}

// NewSimulation validates cfg and builds the engines.
func NewSimulation(cfg Config) (*Simulation, error) {
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Liquids) == 0 {
		return nil, fmt.Errorf("%w: no liquids configured", liquid.ErrInvalidConfig)
	}
	if cfg.RandomTicks < 0 {
		cfg.RandomTicks = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulation{
		cfg:     cfg,
		world:   New(cfg.Bounds),
		sched:   NewTickScheduler(),
		engines: make(map[string]*liquid.Engine, len(cfg.Liquids)),
		rng:     rng.NewRNG(cfg.Seed),
		log:     logger,
	}
	for _, l := range cfg.Liquids {
		if _, dup := s.engines[l.Name()]; dup {
			return nil, fmt.Errorf("%w: liquid %q configured twice", liquid.ErrInvalidConfig, l.Name())
		}
		e, err := liquid.New(l, liquid.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		s.engines[l.Name()] = e
		s.order = append(s.order, l.Name())
	}
	return s, nil
}

// World returns the grid the simulation runs on.
func (s *Simulation) World() *World { return s.world }

// Scheduler returns the tick scheduler.
func (s *Simulation) Scheduler() *TickScheduler { return s.sched }

// Now returns the number of steps taken.
func (s *Simulation) Now() int64 { return s.sched.Now() }

// Pending returns the number of armed ticks.
func (s *Simulation) Pending() int { return s.sched.Pending() }

// Cell returns the liquid at pos.
func (s *Simulation) Cell(pos cube.Pos) liquid.CellState { return s.world.Cell(pos) }

// Liquids returns the configured liquids in configuration order.
func (s *Simulation) Liquids() []*liquid.Liquid {
	out := make([]*liquid.Liquid, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.engines[name].Liquid())
	}
	return out
}

// Engine returns the engine for the named liquid.
func (s *Simulation) Engine(name string) (*liquid.Engine, bool) {
	e, ok := s.engines[name]
	return e, ok
}

func (s *Simulation) engineFor(l *liquid.Liquid) (*liquid.Engine, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: nil liquid", ErrUnknownLiquid)
	}
	e, ok := s.engines[l.Name()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLiquid, l.Name())
	}
	return e, nil
}

// PlaceSource puts a source of l at pos.
func (s *Simulation) PlaceSource(pos cube.Pos, l *liquid.Liquid) error {
	return s.Place(pos, liquid.NewSource(l))
}

// Place writes c at pos from outside the engine and arms its first tick.
// Whatever liquid was there before is treated as removed.
func (s *Simulation) Place(pos cube.Pos, c liquid.CellState) error {
	if c.IsEmpty() {
		_, _ = s.Remove(pos)
		return nil
	}
	e, err := s.engineFor(c.Liquid)
	if err != nil {
		return err
	}
	if !s.world.Bounds().Contains(pos) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	if !s.world.CanHold(pos, c.Liquid) {
		return fmt.Errorf("%w: %s at %v", ErrCannotHold, s.world.Terrain(pos), pos)
	}
	old := s.world.Cell(pos)
	s.world.SetCell(pos, c)
	if !old.IsEmpty() && !old.Holds(c.Liquid) {
		if prev, err := s.engineFor(old.Liquid); err == nil {
			prev.OnRemoved(s.world, s.sched.For(old.Liquid), pos)
		}
	}
	e.OnPlaced(s.world, s.sched.For(c.Liquid), pos)
	return nil
}

// Remove clears pos from outside the engine and wakes the liquid that was
// connected to it. It returns the removed state and whether anything was
// there.
func (s *Simulation) Remove(pos cube.Pos) (liquid.CellState, bool) {
	old := s.world.Cell(pos)
	if old.IsEmpty() {
		return old, false
	}
	s.world.SetCell(pos, liquid.EmptyCell())
	if e, err := s.engineFor(old.Liquid); err == nil {
		e.OnRemoved(s.world, s.sched.For(old.Liquid), pos)
	} else {
		s.log.Warn("removed liquid without engine", "pos", pos, "liquid", old.Liquid.Name())
	}
	return old, true
}

// SetTerrain replaces the block at pos and wakes every liquid around it.
// Liquid in a block that can no longer hold it is removed.
func (s *Simulation) SetTerrain(pos cube.Pos, t Terrain) error {
	if !s.world.Bounds().Contains(pos) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	s.world.SetTerrain(pos, t)
	if c := s.world.Cell(pos); !c.IsEmpty() && !s.world.CanHold(pos, c.Liquid) {
		s.Remove(pos)
	}
	for _, name := range s.order {
		e := s.engines[name]
		e.OnBlockChanged(s.world, s.sched.For(e.Liquid()), pos)
	}
	return nil
}

// Step advances one tick: every due cell is resolved and advanced, then
// the configured number of random ticks is handed out. It returns the
// number of scheduled ticks that fired.
func (s *Simulation) Step() int {
	due := s.sched.Advance()
	for _, t := range due {
		e, ok := s.engines[t.Liquid]
		if !ok {
			continue
		}
		e.Tick(s.world, s.sched.For(e.Liquid()), t.Pos)
	}
	s.randomTicks()
	return len(due)
}

func (s *Simulation) randomTicks() {
	if s.cfg.RandomTicks == 0 || s.world.Len() == 0 {
		return
	}
	positions := s.world.Positions(nil)
	for i := 0; i < s.cfg.RandomTicks; i++ {
		pos := positions[s.rng.IntN(len(positions))]
		c := s.world.Cell(pos)
		if e, ok := s.engines[c.Liquid.Name()]; ok {
			e.RandomTick(s.world, s.sched.For(e.Liquid()), pos)
		}
	}
}

// RunUntilIdle steps until no tick is pending or limit steps have run. It
// returns the steps taken and whether the simulation went idle. With random
// ticks enabled it only stops at limit.
func (s *Simulation) RunUntilIdle(limit int) (int, bool) {
	steps := 0
	for steps < limit {
		if s.Idle() {
			return steps, true
		}
		s.Step()
		steps++
	}
	return steps, s.Idle()
}

// Idle reports whether nothing is left to do: no tick is pending and random
// ticks are disabled.
func (s *Simulation) Idle() bool {
	return s.cfg.RandomTicks == 0 && s.sched.Pending() == 0
}

// Run advances exactly n steps and returns the number of ticks fired.
func (s *Simulation) Run(n int) int {
	fired := 0
	for i := 0; i < n; i++ {
		fired += s.Step()
	}
	return fired
}
