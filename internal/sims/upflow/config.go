package upflow

import (
	"strconv"

	"mad-liquid/internal/liquid"
)

// Layout names the terrain the source is placed into.
type Layout string

const (
	// LayoutOpen leaves the whole box as air.
	LayoutOpen Layout = "open"
	// LayoutShaft fills every column except the source column with solid.
	LayoutShaft Layout = "shaft"
	// LayoutLedge puts a solid plate across the source column a few
	// blocks above the source.
	LayoutLedge Layout = "ledge"
)

// LedgeHeight is the y of the plate in LayoutLedge.
const LedgeHeight = 6

// Config controls an upflow view: the box the liquid runs in, the plane
// shown on screen and the liquid tunables the HUD can adjust.
type Config struct {
	Liquid string `json:"liquid"`

	Width  int `json:"w"`
	Height int `json:"h"`
	Depth  int `json:"d"`
	// Slice is the z coordinate of the displayed x/y plane. The source
	// sits in that plane.
	Slice int `json:"slice"`

	Layout       Layout          `json:"layout"`
	Connectivity liquid.Strategy `json:"connectivity"`
	TickDelay    int             `json:"tick_delay"`
	SearchRadius int             `json:"search_radius"`
	RandomTicks  int             `json:"random_ticks"`

	Seed int64 `json:"seed"`
}

// DefaultConfig returns the standard configuration for the named liquid.
// Unknown names fall back to magic water.
func DefaultConfig(name string) Config {
	base, ok := liquid.Lookup(name)
	if !ok {
		base = liquid.MagicWater
	}
	p := base.Params()
	return Config{
		Liquid:       base.Name(),
		Width:        17,
		Height:       24,
		Depth:        5,
		Layout:       LayoutOpen,
		Connectivity: p.Connectivity,
		TickDelay:    p.TickDelay,
		SearchRadius: p.SearchRadius,
		Seed:         1337,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(name string, cfg map[string]string) Config {
	c := DefaultConfig(name)
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["d"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Depth = parsed
		}
	}
	if v, ok := cfg["slice"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Slice = parsed
		}
	}
	if v, ok := cfg["layout"]; ok {
		switch l := Layout(v); l {
		case LayoutOpen, LayoutShaft, LayoutLedge:
			c.Layout = l
		}
	}
	if v, ok := cfg["connectivity"]; ok {
		switch s := liquid.Strategy(v); s {
		case liquid.ColumnScan, liquid.FloodFill:
			c.Connectivity = s
		}
	}
	if v, ok := cfg["tick_delay"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.TickDelay = parsed
		}
	}
	if v, ok := cfg["search_radius"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.SearchRadius = parsed
		}
	}
	if v, ok := cfg["random_ticks"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.RandomTicks = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	c.Slice = clampSlice(c.Slice, c.Depth)
	return c
}

// zRange returns the inclusive z extent of a box of the given depth.
func zRange(depth int) (int, int) {
	lo := -(depth / 2)
	return lo, lo + depth - 1
}

func clampSlice(slice, depth int) int {
	lo, hi := zRange(depth)
	if slice < lo {
		return lo
	}
	if slice > hi {
		return hi
	}
	return slice
}
