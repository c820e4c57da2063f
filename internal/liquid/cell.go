package liquid

import "fmt"

// Kind enumerates the states a liquid cell can be in.
type Kind uint8

const (
	// Empty marks a cell without liquid.
	Empty Kind = iota
	// Flowing marks a non-source cell whose strength decays with distance.
	Flowing
	// Source marks a cell that supplies liquid indefinitely.
	Source
)

const (
	// MinStrength is the weakest strength a liquid cell can carry.
	MinStrength = 1
	// MaxFlowing is the strongest strength a flowing cell can carry.
	MaxFlowing = 7
	// SourceStrength is reserved for sources.
	SourceStrength = 8
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Flowing:
		return "flowing"
	case Source:
		return "source"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// CellState is the liquid content of a single grid cell. It is a value type;
// the Liquid pointer refers to an immutable strategy object shared by every
// cell of that liquid.
type CellState struct {
	Liquid   *Liquid
	Kind     Kind
	Strength int
	// Falling is carried for hosts that track it. The engine never sets it
	// and clears it on every write.
	Falling bool
}

// EmptyCell returns the empty state.
func EmptyCell() CellState { return CellState{} }

// NewSource returns a source cell of l.
func NewSource(l *Liquid) CellState {
	return CellState{Liquid: l, Kind: Source, Strength: SourceStrength}
}

// NewFlowing returns a flowing cell of l with strength clamped to [1, 7].
func NewFlowing(l *Liquid, strength int) CellState {
	return CellState{Liquid: l, Kind: Flowing, Strength: clamp(strength, MinStrength, MaxFlowing)}
}

// IsEmpty reports whether the cell holds no liquid.
func (c CellState) IsEmpty() bool { return c.Kind == Empty || c.Liquid == nil }

// IsSource reports whether the cell is a source.
func (c CellState) IsSource() bool { return !c.IsEmpty() && c.Kind == Source }

// Holds reports whether the cell contains liquid l, in any non-empty state.
func (c CellState) Holds(l *Liquid) bool { return !c.IsEmpty() && c.Liquid.IsSame(l) }

// Amount returns the strength as seen by neighbours: sources always report
// 8, other values are clamped to [1, 8] so malformed host data cannot leak
// out of range. Empty cells report 0.
func (c CellState) Amount() int {
	switch {
	case c.IsEmpty():
		return 0
	case c.Kind == Source:
		return SourceStrength
	default:
		return clamp(c.Strength, MinStrength, SourceStrength)
	}
}

// Equal compares two states by liquid identity, kind and strength.
func (c CellState) Equal(o CellState) bool {
	if c.IsEmpty() || o.IsEmpty() {
		return c.IsEmpty() && o.IsEmpty()
	}
	return c.Liquid.IsSame(o.Liquid) && c.Kind == o.Kind && c.Amount() == o.Amount() && c.Falling == o.Falling
}

// String formats the state for logs and test failures.
func (c CellState) String() string {
	if c.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%s:%s(%d)", c.Liquid.Name(), c.Kind, c.Amount())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
