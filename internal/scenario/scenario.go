// Package scenario loads liquid scenarios from YAML, runs them against the
// reference world and reports how the liquid settled.
package scenario

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/df-mc/dragonfly/server/block/cube"
	"gopkg.in/yaml.v3"

	"mad-liquid/internal/liquid"
	"mad-liquid/internal/world"
)

//go:embed schema.cue
var schemaSource string

var (
	// ErrSchema is returned when a file does not match the scenario schema.
	ErrSchema = errors.New("scenario schema violation")
	// ErrInvalid is returned for scenarios that parse but cannot run.
	ErrInvalid = errors.New("invalid scenario")
)

// Scenario describes a world, the liquid placed in it, timed edits and the
// expected outcome.
type Scenario struct {
	// Name identifies the scenario in reports and golden files.
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	Bounds  BoundsSpec    `yaml:"bounds"`
	Liquids []LiquidSpec  `yaml:"liquids,omitempty"`
	Terrain []TerrainSpec `yaml:"terrain,omitempty"`
	Place   []Placement   `yaml:"place,omitempty"`
	Events  []Event       `yaml:"events,omitempty"`

	// MaxSteps caps the run. Runs stop earlier once the world is idle and
	// no event is left.
	MaxSteps    int   `yaml:"max_steps"`
	RandomTicks int   `yaml:"random_ticks,omitempty"`
	Seed        int64 `yaml:"seed,omitempty"`

	// Slice is the z coordinate rendered by RenderSlice.
	Slice int `yaml:"slice,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Vec is a position written as [x, y, z].
type Vec []int

// Pos converts v to a block position. Short vectors are zero padded.
func (v Vec) Pos() cube.Pos {
	var p cube.Pos
	copy(p[:], v)
	return p
}

type BoundsSpec struct {
	Min Vec `yaml:"min"`
	Max Vec `yaml:"max"`
}

// LiquidSpec enables a built-in liquid, optionally with overrides.
type LiquidSpec struct {
	Name         string `yaml:"name"`
	Connectivity string `yaml:"connectivity,omitempty"`
	TickDelay    int    `yaml:"tick_delay,omitempty"`
	SearchRadius int    `yaml:"search_radius,omitempty"`
	FloodLimit   int    `yaml:"flood_limit,omitempty"`
	WakeRadius   *int   `yaml:"wake_radius,omitempty"`
}

// TerrainSpec fills the box From..To with one kind of block. A missing To
// fills the single block at From.
type TerrainSpec struct {
	Kind string `yaml:"kind"`
	From Vec    `yaml:"from"`
	To   Vec    `yaml:"to,omitempty"`
}

// Placement puts liquid at Pos. Strength 0 places a source.
type Placement struct {
	Pos      Vec    `yaml:"pos"`
	Liquid   string `yaml:"liquid"`
	Strength int    `yaml:"strength,omitempty"`
}

// Event is one external edit applied before step At runs. Exactly one of
// the action fields is set.
type Event struct {
	At      int          `yaml:"at"`
	Place   *Placement   `yaml:"place,omitempty"`
	Remove  Vec          `yaml:"remove,omitempty"`
	Terrain *TerrainSpec `yaml:"terrain,omitempty"`
	PickUp  Vec          `yaml:"pickup,omitempty"`
	// Pour places an experience source from the blocks picked up so far.
	Pour Vec `yaml:"pour,omitempty"`
}

// Expect lists the checks made after the run. Unset fields are skipped.
type Expect struct {
	Idle    *bool          `yaml:"idle,omitempty"`
	Cells   *int           `yaml:"cells,omitempty"`
	Sources *int           `yaml:"sources,omitempty"`
	XP      *int           `yaml:"xp,omitempty"`
	Columns []ColumnExpect `yaml:"columns,omitempty"`
	Empty   []Vec          `yaml:"empty,omitempty"`
}

// ColumnExpect checks the amounts in column (X, Z) starting at From. An
// amount of 8 is a source and 0 is empty.
type ColumnExpect struct {
	X         int   `yaml:"x"`
	Z         int   `yaml:"z"`
	From      int   `yaml:"from"`
	Strengths []int `yaml:"strengths"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse checks data against the schema, decodes it strictly and validates
// the result.
func Parse(data []byte) (*Scenario, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func checkSchema(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("%w: empty document", ErrSchema)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling scenario schema: %w", err)
	}
	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

// validateScenario covers the rules the schema cannot express.
func validateScenario(s *Scenario) error {
	bounds := s.bounds()
	if err := bounds.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	seen := map[string]bool{}
	for _, l := range s.Liquids {
		if seen[l.Name] {
			return fmt.Errorf("%w: liquid %q listed twice", ErrInvalid, l.Name)
		}
		seen[l.Name] = true
	}
	for i, e := range s.Events {
		actions := 0
		if e.Place != nil {
			actions++
		}
		if e.Remove != nil {
			actions++
		}
		if e.Terrain != nil {
			actions++
		}
		if e.PickUp != nil {
			actions++
		}
		if e.Pour != nil {
			actions++
		}
		if actions != 1 {
			return fmt.Errorf("%w: event %d has %d actions, want exactly one", ErrInvalid, i, actions)
		}
		if e.At > s.MaxSteps {
			return fmt.Errorf("%w: event %d at step %d is after max_steps %d", ErrInvalid, i, e.At, s.MaxSteps)
		}
	}
	return nil
}

func (s *Scenario) bounds() world.Bounds {
	return world.Bounds{Min: s.Bounds.Min.Pos(), Max: s.Bounds.Max.Pos()}
}

// liquids resolves the configured liquids with their overrides. No entry
// enables both built-ins unchanged.
func (s *Scenario) liquids() ([]*liquid.Liquid, error) {
	if len(s.Liquids) == 0 {
		return []*liquid.Liquid{liquid.MagicWater, liquid.Experience}, nil
	}
	out := make([]*liquid.Liquid, 0, len(s.Liquids))
	for _, spec := range s.Liquids {
		base, ok := liquid.Lookup(spec.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", world.ErrUnknownLiquid, spec.Name)
		}
		p := base.Params()
		if spec.Connectivity != "" {
			p.Connectivity = liquid.Strategy(spec.Connectivity)
		}
		if spec.TickDelay > 0 {
			p.TickDelay = spec.TickDelay
		}
		if spec.SearchRadius > 0 {
			p.SearchRadius = spec.SearchRadius
		}
		if spec.FloodLimit > 0 {
			p.FloodLimit = spec.FloodLimit
		}
		if spec.WakeRadius != nil {
			p.WakeRadius = *spec.WakeRadius
		}
		l, err := base.With(p)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
