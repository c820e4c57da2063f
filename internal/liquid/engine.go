// Package liquid implements a tick-driven propagation engine for liquids
// that rise instead of fall.
//
// A cell only ever looks at its six neighbours. Each tick the resolver
// recomputes the cell from those neighbours, and the driver writes the
// result, wakes neighbours that depend on it and spreads the liquid,
// upward first. Flowing cells that can no longer trace a short path back to
// a source dissipate, and no combination of flowing cells ever produces a
// new source.
//
// The engine owns no state besides the liquid parameters. The Grid and the
// Scheduler belong to the host and are passed into every call.
package liquid

import (
	"fmt"
	"log/slog"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// Engine runs the propagation rules for a single liquid.
type Engine struct {
	liquid *Liquid
	params Params
	log    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an engine for l. Configuration problems are reported here so
// that they never surface mid-simulation.
func New(l *Liquid, opts ...Option) (*Engine, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: liquid is required", ErrInvalidConfig)
	}
	if err := l.params.Validate(); err != nil {
		return nil, fmt.Errorf("liquid %q: %w", l.name, err)
	}
	e := &Engine{liquid: l, params: l.params, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Liquid returns the liquid this engine propagates.
func (e *Engine) Liquid() *Liquid { return e.liquid }

// Tick runs one scheduled update of pos: resolve, then advance. Ticks that
// fire against a cell now holding another liquid are dropped.
func (e *Engine) Tick(g Grid, s Scheduler, pos cube.Pos) {
	old := g.Cell(pos)
	if !old.IsEmpty() && !old.Holds(e.liquid) {
		return
	}
	next := e.Resolve(g, pos)
	e.Advance(g, s, pos, old, next)
}

// OnPlaced arms the first tick of a cell the host has just filled, along
// with the flowing neighbours it now feeds.
func (e *Engine) OnPlaced(g Grid, s Scheduler, pos cube.Pos) {
	s.Schedule(pos, e.params.TickDelay)
	e.wakeNeighbours(g, s, pos, e.params.TickDelay)
}

// RandomTick re-arms a flowing cell so a stale region re-checks itself
// even if it missed a wake-up.
func (e *Engine) RandomTick(g Grid, s Scheduler, pos cube.Pos) {
	c := g.Cell(pos)
	if c.Holds(e.liquid) && !c.IsSource() {
		s.Schedule(pos, 1)
	}
}
