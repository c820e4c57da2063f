// Package xp converts experience points to and from liquid experience and
// moves liquid experience between the world and tanks.
package xp

import (
	"errors"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"

	"mad-liquid/internal/liquid"
)

const (
	// MillibucketsPerPoint is the liquid volume of one experience point.
	MillibucketsPerPoint = 10
	// MillibucketsPerBlock is the volume of one source block.
	MillibucketsPerBlock = 1000
	// DefaultTankCapacity holds sixteen source blocks.
	DefaultTankCapacity = 16 * MillibucketsPerBlock
)

var (
	// ErrTankFull is returned when a tank has no room for a whole block.
	ErrTankFull = errors.New("tank full")
	// ErrTankEmpty is returned when a tank holds less than a whole block.
	ErrTankEmpty = errors.New("not enough liquid in tank")
	// ErrNotASource is returned when PickUp targets anything but an
	// experience source.
	ErrNotASource = errors.New("no experience source")
	// ErrNotEnabled is returned when the host runs no experience liquid.
	ErrNotEnabled = errors.New("experience liquid not enabled")
)

// PointsToMillibuckets converts experience points to liquid volume.
func PointsToMillibuckets(points int) int {
	if points <= 0 {
		return 0
	}
	return points * MillibucketsPerPoint
}

// MillibucketsToPoints converts a liquid volume back to whole points,
// dropping any remainder.
func MillibucketsToPoints(mb int) int {
	if mb <= 0 {
		return 0
	}
	return mb / MillibucketsPerPoint
}

// Tank stores liquid experience up to a fixed capacity.
type Tank struct {
	capacity int
	amount   int
}

// NewTank returns an empty tank. A non-positive capacity selects
// DefaultTankCapacity.
func NewTank(capacity int) *Tank {
	if capacity <= 0 {
		capacity = DefaultTankCapacity
	}
	return &Tank{capacity: capacity}
}

// Capacity returns the most the tank can hold, in mB.
func (t *Tank) Capacity() int { return t.capacity }

// Amount returns the volume stored, in mB.
func (t *Tank) Amount() int { return t.amount }

// Space returns the volume still free, in mB.
func (t *Tank) Space() int { return t.capacity - t.amount }

// Points returns the whole experience points stored.
func (t *Tank) Points() int { return MillibucketsToPoints(t.amount) }

// Fill adds up to mb and returns the volume accepted.
func (t *Tank) Fill(mb int) int {
	if mb <= 0 {
		return 0
	}
	n := min(mb, t.Space())
	t.amount += n
	return n
}

// Drain removes up to mb and returns the volume removed.
func (t *Tank) Drain(mb int) int {
	if mb <= 0 {
		return 0
	}
	n := min(mb, t.amount)
	t.amount -= n
	return n
}

// Store converts points to liquid and fills the tanks in order. It returns
// the volume that did not fit.
func Store(tanks []*Tank, points int) int {
	left := PointsToMillibuckets(points)
	for _, t := range tanks {
		if left == 0 {
			break
		}
		if t == nil {
			continue
		}
		left -= t.Fill(left)
	}
	return left
}

// Host is the part of a world PickUp and Pour need. Remove and PlaceSource
// are expected to notify the engine so the surrounding liquid reacts.
type Host interface {
	Cell(pos cube.Pos) liquid.CellState
	Remove(pos cube.Pos) (liquid.CellState, bool)
	PlaceSource(pos cube.Pos, l *liquid.Liquid) error
	Liquids() []*liquid.Liquid
}

// PickUp drains the experience source at pos into t. Flowing cells cannot
// be picked up. Nothing changes unless the tank has room for a full block.
func PickUp(h Host, t *Tank, pos cube.Pos) (int, error) {
	c := h.Cell(pos)
	if !c.IsSource() || !c.Holds(liquid.Experience) {
		return 0, fmt.Errorf("%w at %v", ErrNotASource, pos)
	}
	if t.Space() < MillibucketsPerBlock {
		return 0, fmt.Errorf("%w: %d/%d mB", ErrTankFull, t.Amount(), t.Capacity())
	}
	if _, ok := h.Remove(pos); !ok {
		return 0, fmt.Errorf("%w at %v", ErrNotASource, pos)
	}
	return t.Fill(MillibucketsPerBlock), nil
}

// Pour places one experience source at pos from t. The source uses the
// host's own experience liquid, so tuned copies keep their parameters.
func Pour(h Host, t *Tank, pos cube.Pos) error {
	if t.Amount() < MillibucketsPerBlock {
		return fmt.Errorf("%w: %d mB", ErrTankEmpty, t.Amount())
	}
	l := experienceOf(h)
	if l == nil {
		return ErrNotEnabled
	}
	if err := h.PlaceSource(pos, l); err != nil {
		return err
	}
	t.Drain(MillibucketsPerBlock)
	return nil
}

func experienceOf(h Host) *liquid.Liquid {
	for _, l := range h.Liquids() {
		if l.Name() == liquid.Experience.Name() {
			return l
		}
	}
	return nil
}
