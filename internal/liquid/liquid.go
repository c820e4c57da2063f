package liquid

import (
	"fmt"
	"sort"
)

// Strategy selects how the connectivity guard decides whether a flowing
// cell is still attached to a source.
type Strategy string

const (
	// ColumnScan accepts only sources in the same vertical column, joined
	// by an unbroken run of the liquid.
	ColumnScan Strategy = "column"
	// FloodFill runs a bounded breadth-first search over passable cells of
	// the liquid.
	FloodFill Strategy = "flood"
)

// Params holds the tunables that distinguish one liquid from another. The
// propagation rules are shared; only these numbers vary.
type Params struct {
	// Resolver deltas: a neighbour below contributes max(1, s-BelowDecay),
	// one above contributes min(7, s+AboveBoost), a horizontal one
	// contributes max(1, s-Dropoff).
	BelowDecay int
	AboveBoost int
	Dropoff    int

	// Driver deltas: upward spread writes clamp(s+UpwardBoost, 1, 7),
	// horizontal spread writes max(1, s-HorizontalDecay).
	UpwardBoost     int
	HorizontalDecay int

	// TickDelay is the base delay between ticks of a moving cell.
	// DissipationSlowdown multiplies it when a cell weakens.
	TickDelay           int
	DissipationSlowdown int

	// Connectivity picks the guard. SearchRadius bounds it on every axis;
	// FloodLimit caps the cells a flood search may visit. A limit smaller
	// than the bodies it meets makes the guard flip as a body grows, so
	// keep it well above the cells within SearchRadius a body can fill.
	Connectivity Strategy
	SearchRadius int
	FloodLimit   int

	// WakeRadius bounds the region re-armed when a cell is removed from
	// outside the engine.
	WakeRadius int

	// Fluid-type properties. Not used by the propagation rules.
	Density    int
	Viscosity  int
	LightLevel int
}

// DefaultParams returns the reference tunables.
func DefaultParams() Params {
	return Params{
		BelowDecay:          1,
		AboveBoost:          1,
		Dropoff:             1,
		UpwardBoost:         1,
		HorizontalDecay:     3,
		TickDelay:           5,
		DissipationSlowdown: 3,
		Connectivity:        ColumnScan,
		SearchRadius:        16,
		FloodLimit:          4096,
		WakeRadius:          10,
		Density:             1000,
		Viscosity:           1000,
	}
}

// Validate reports the first configuration problem found.
func (p Params) Validate() error {
	switch {
	case p.SearchRadius <= 0:
		return fmt.Errorf("%w: search radius %d must be positive", ErrInvalidConfig, p.SearchRadius)
	case p.TickDelay <= 0:
		return fmt.Errorf("%w: tick delay %d must be positive", ErrInvalidConfig, p.TickDelay)
	case p.DissipationSlowdown < 1:
		return fmt.Errorf("%w: dissipation slowdown %d must be at least 1", ErrInvalidConfig, p.DissipationSlowdown)
	case p.BelowDecay < 0 || p.AboveBoost < 0 || p.Dropoff < 0:
		return fmt.Errorf("%w: resolver deltas must not be negative", ErrInvalidConfig)
	case p.UpwardBoost < 0 || p.HorizontalDecay < 0:
		return fmt.Errorf("%w: spread deltas must not be negative", ErrInvalidConfig)
	case p.WakeRadius < 0:
		return fmt.Errorf("%w: wake radius %d must not be negative", ErrInvalidConfig, p.WakeRadius)
	}
	switch p.Connectivity {
	case ColumnScan:
	case FloodFill:
		if p.FloodLimit < 1 {
			return fmt.Errorf("%w: flood limit %d must be at least 1", ErrInvalidConfig, p.FloodLimit)
		}
	default:
		return fmt.Errorf("%w: unknown connectivity strategy %q", ErrInvalidConfig, p.Connectivity)
	}
	return nil
}

// Liquid identifies a liquid type and carries its parameters. Values are
// immutable once constructed and are shared by pointer between cells.
type Liquid struct {
	name   string
	params Params
}

// Define creates a liquid with the given name and parameters.
func Define(name string, p Params) (*Liquid, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: liquid name is required", ErrInvalidConfig)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("liquid %q: %w", name, err)
	}
	return &Liquid{name: name, params: p}, nil
}

// Name returns the liquid identifier.
func (l *Liquid) Name() string {
	if l == nil {
		return ""
	}
	return l.name
}

// Params returns a copy of the liquid's parameters.
func (l *Liquid) Params() Params { return l.params }

// IsSame reports whether two liquids are the same type.
func (l *Liquid) IsSame(o *Liquid) bool {
	if l == nil || o == nil {
		return false
	}
	return l == o || l.name == o.name
}

// With returns a copy of l with modified parameters. The copy keeps l's
// name, so cells of either remain interchangeable.
func (l *Liquid) With(p Params) (*Liquid, error) {
	return Define(l.name, p)
}

// MagicWater is the light, decorative liquid: strongly upward, steep
// horizontal decay, near-zero density.
var MagicWater = mustDefine("magic_water", func() Params {
	p := DefaultParams()
	p.TickDelay = 5
	p.UpwardBoost = 1
	p.HorizontalDecay = 3
	p.WakeRadius = 10
	p.Density = -1000
	p.Viscosity = 500
	p.LightLevel = 2
	return p
}())

// Experience is the slower liquid paired with XP conversion. Horizontal
// spread uses the standard dropoff and upward spread carries strength
// without a bonus.
var Experience = mustDefine("experience", func() Params {
	p := DefaultParams()
	p.TickDelay = 10
	p.UpwardBoost = 0
	p.HorizontalDecay = p.Dropoff
	p.WakeRadius = 2
	p.Density = 800
	p.Viscosity = 1200
	p.LightLevel = 10
	return p
}())

var builtin = map[string]*Liquid{
	MagicWater.Name(): MagicWater,
	Experience.Name(): Experience,
}

// Lookup returns a built-in liquid by name.
func Lookup(name string) (*Liquid, bool) {
	l, ok := builtin[name]
	return l, ok
}

// Names lists the built-in liquids in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mustDefine(name string, p Params) *Liquid {
	l, err := Define(name, p)
	if err != nil {
		panic(err)
	}
	return l
}
