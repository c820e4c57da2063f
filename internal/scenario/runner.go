package scenario

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/google/uuid"

	"mad-liquid/internal/liquid"
	"mad-liquid/internal/world"
	"mad-liquid/internal/xp"
)

// Options tweaks a run.
type Options struct {
	Logger *slog.Logger

	// RunID generates the report identifier. Defaults to a UUIDv7.
	RunID func() string
}

// Report summarises a finished run.
type Report struct {
	RunID    string         `json:"run_id"`
	Scenario string         `json:"scenario"`
	Steps    int            `json:"steps"`
	Idle     bool           `json:"idle"`
	Pending  int            `json:"pending"`
	Census   []world.Census `json:"census"`
	XP       int            `json:"xp"`
	Failures []string       `json:"failures,omitempty"`
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool { return len(r.Failures) == 0 }

// Cells returns the total liquid cells across all liquids.
func (r *Report) Cells() int {
	n := 0
	for _, c := range r.Census {
		n += c.Total()
	}
	return n
}

// Result is a report plus the state it was taken from.
type Result struct {
	Report Report
	Sim    *world.Simulation
	Tank   *xp.Tank
}

// Run builds the scenario world and steps it until it is idle with no
// event left, or until MaxSteps.
func Run(sc *Scenario, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := opts.RunID
	if runID == nil {
		runID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}

	liquids, err := sc.liquids()
	if err != nil {
		return nil, err
	}
	sim, err := world.NewSimulation(world.Config{
		Bounds:      sc.bounds(),
		Liquids:     liquids,
		RandomTicks: sc.RandomTicks,
		Seed:        sc.Seed,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	r := &runner{sim: sim, tank: xp.NewTank(1 << 30), liquids: liquids, log: logger}

	for _, t := range sc.Terrain {
		if err := r.terrain(t); err != nil {
			return nil, err
		}
	}
	for _, p := range sc.Place {
		if err := r.place(p); err != nil {
			return nil, err
		}
	}

	events := append([]Event(nil), sc.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })

	id := runID()
	logger.Info("running scenario", "scenario", sc.Name, "run_id", id, "max_steps", sc.MaxSteps)

	steps, next := 0, 0
	for {
		for next < len(events) && events[next].At <= steps {
			if err := r.apply(events[next]); err != nil {
				return nil, fmt.Errorf("event %d at step %d: %w", next, events[next].At, err)
			}
			next++
		}
		if steps >= sc.MaxSteps || (sim.Idle() && next == len(events)) {
			break
		}
		sim.Step()
		steps++
	}

	rep := Report{
		RunID:    id,
		Scenario: sc.Name,
		Steps:    steps,
		Idle:     sim.Idle(),
		Pending:  sim.Pending(),
		Census:   sim.World().Census(),
		XP:       r.tank.Points(),
	}
	if sc.Expect != nil {
		rep.Failures = check(sc.Expect, &rep, sim.World())
	}
	logger.Info("scenario finished", "scenario", sc.Name, "run_id", id, "steps", steps, "idle", rep.Idle, "failures", len(rep.Failures))
	return &Result{Report: rep, Sim: sim, Tank: r.tank}, nil
}

type runner struct {
	sim     *world.Simulation
	tank    *xp.Tank
	liquids []*liquid.Liquid
	log     *slog.Logger
}

func (r *runner) lookup(name string) (*liquid.Liquid, error) {
	for _, l := range r.liquids {
		if l.Name() == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is not enabled", world.ErrUnknownLiquid, name)
}

func (r *runner) place(p Placement) error {
	l, err := r.lookup(p.Liquid)
	if err != nil {
		return err
	}
	c := liquid.NewSource(l)
	if p.Strength > 0 {
		c = liquid.NewFlowing(l, p.Strength)
	}
	return r.sim.Place(p.Pos.Pos(), c)
}

func (r *runner) terrain(t TerrainSpec) error {
	kind, err := world.ParseTerrain(t.Kind)
	if err != nil {
		return err
	}
	from := t.From.Pos()
	to := from
	if t.To != nil {
		to = t.To.Pos()
	}
	for x := min(from[0], to[0]); x <= max(from[0], to[0]); x++ {
		for y := min(from[1], to[1]); y <= max(from[1], to[1]); y++ {
			for z := min(from[2], to[2]); z <= max(from[2], to[2]); z++ {
				if err := r.sim.SetTerrain(cube.Pos{x, y, z}, kind); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *runner) apply(e Event) error {
	switch {
	case e.Place != nil:
		return r.place(*e.Place)
	case e.Remove != nil:
		if _, ok := r.sim.Remove(e.Remove.Pos()); !ok {
			r.log.Warn("remove event hit an empty cell", "pos", e.Remove.Pos())
		}
		return nil
	case e.Terrain != nil:
		return r.terrain(*e.Terrain)
	case e.PickUp != nil:
		_, err := xp.PickUp(r.sim, r.tank, e.PickUp.Pos())
		return err
	case e.Pour != nil:
		return xp.Pour(r.sim, r.tank, e.Pour.Pos())
	}
	return nil
}
