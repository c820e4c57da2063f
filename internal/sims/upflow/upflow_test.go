package upflow

import (
	"slices"
	"testing"

	"mad-liquid/internal/core"
	"mad-liquid/internal/liquid"
)

func TestRegisteredForEveryLiquid(t *testing.T) {
	for _, name := range liquid.Names() {
		factory, ok := core.Sims()[name]
		if !ok {
			t.Fatalf("no sim registered for %q", name)
		}
		sim := factory(map[string]string{"w": "9", "h": "12"})
		if sim.Name() != name {
			t.Fatalf("sim name = %q, want %q", sim.Name(), name)
		}
		if got := sim.Size(); got != (core.Size{W: 9, H: 12}) {
			t.Fatalf("size = %+v, want 9x12", got)
		}
	}
}

func TestFromMapClamps(t *testing.T) {
	cfg := FromMap("experience", map[string]string{
		"d":             "3",
		"slice":         "5",
		"layout":        "cavern",
		"connectivity":  "flood",
		"tick_delay":    "0",
		"search_radius": "6",
		"random_ticks":  "-2",
	})
	if cfg.Liquid != "experience" {
		t.Fatalf("liquid = %q", cfg.Liquid)
	}
	if cfg.Slice != 1 {
		t.Fatalf("slice = %d, want 1 (clamped to depth 3)", cfg.Slice)
	}
	if cfg.Layout != LayoutOpen {
		t.Fatalf("unknown layout should keep default, got %q", cfg.Layout)
	}
	if cfg.Connectivity != liquid.FloodFill {
		t.Fatalf("connectivity = %q", cfg.Connectivity)
	}
	if cfg.TickDelay != liquid.Experience.Params().TickDelay {
		t.Fatalf("tick delay = %d, want liquid default", cfg.TickDelay)
	}
	if cfg.SearchRadius != 6 || cfg.RandomTicks != 0 {
		t.Fatalf("unexpected radius/random ticks: %+v", cfg)
	}
}

func TestResetShowsSourceAtBottomCentre(t *testing.T) {
	v := New("magic_water")
	size := v.Size()
	cells := v.Cells()
	if len(cells) != size.W*size.H {
		t.Fatalf("display has %d cells, want %d", len(cells), size.W*size.H)
	}
	bottom := (size.H-1)*size.W + size.W/2
	if cells[bottom] != displaySource {
		t.Fatalf("bottom centre = %d, want source", cells[bottom])
	}
	if v.PendingMask()[bottom] != 1 {
		t.Fatal("fresh source must have a tick armed")
	}
	for i, c := range cells {
		if i != bottom && c != displayAir {
			t.Fatalf("cell %d = %d, want air", i, c)
		}
	}
}

func TestShaftSettlesIntoColumn(t *testing.T) {
	cfg := DefaultConfig("magic_water")
	cfg.Layout = LayoutShaft
	v := NewWithConfig(cfg)
	for i := 0; i < 200; i++ {
		v.Step()
	}
	if v.Pending() != 0 {
		t.Fatalf("expected shaft to settle, %d ticks pending", v.Pending())
	}

	size := v.Size()
	centre := size.W / 2
	var column []uint8
	for row := size.H - 1; row >= 0; row-- {
		column = append(column, v.Cells()[row*size.W+centre])
	}
	want := []uint8{displaySource}
	for i := 0; i < 15; i++ {
		want = append(want, displayFlowing+6)
	}
	want = append(want, displayFlowing+5, displayAir)
	if !slices.Equal(column[:len(want)], want) {
		t.Fatalf("column = %v, want prefix %v", column, want)
	}
	if got := v.Cells()[0]; got != displaySolid {
		t.Fatalf("corner = %d, want solid", got)
	}
}

func TestToggleSourceDrains(t *testing.T) {
	v := New("experience")
	for i := 0; i < 200; i++ {
		v.Step()
	}
	v.ToggleSource()
	for i := 0; i < 20; i++ {
		v.Step()
	}
	if census := v.Census(); len(census) != 0 {
		t.Fatalf("expected an empty box after removing the source, got %+v", census)
	}
	v.ToggleSource()
	if census := v.Census(); len(census) != 1 || census[0].Sources != 1 {
		t.Fatalf("expected the source back, got %+v", census)
	}
}

func TestSetIntParameterRebuilds(t *testing.T) {
	v := New("magic_water")
	for i := 0; i < 20; i++ {
		v.Step()
	}
	if !v.SetIntParameter("search_radius", 4) {
		t.Fatal("search_radius should be adjustable")
	}
	if v.Tick() != 0 {
		t.Fatalf("adjusting a tunable should reset the box, tick = %d", v.Tick())
	}
	e, ok := v.Simulation().Engine("magic_water")
	if !ok || e.Liquid().Params().SearchRadius != 4 {
		t.Fatal("engine did not pick up the new search radius")
	}
	if v.SetIntParameter("tick_delay", 0) {
		t.Fatal("zero tick delay must be rejected")
	}
	if v.SetIntParameter("unknown", 1) {
		t.Fatal("unknown keys must be rejected")
	}
	if !v.SetIntParameter("slice", -2) || v.Source()[2] != -2 {
		t.Fatalf("slice should move the source, got %v", v.Source())
	}
	if v.SetIntParameter("slice", -9) {
		t.Fatal("slice already at the lowest plane")
	}
}

func TestParametersExposeControls(t *testing.T) {
	v := New("magic_water")
	keys := map[string]bool{}
	for _, group := range v.Parameters().Groups {
		for _, p := range group.Params {
			keys[p.Key] = true
		}
	}
	for _, ctrl := range v.ParameterControls() {
		if !keys[ctrl.Key] {
			t.Fatalf("control %q missing from parameter snapshot", ctrl.Key)
		}
	}
}

func TestPalettesCoverDisplayValues(t *testing.T) {
	for _, name := range liquid.Names() {
		p := New(name).Palette()
		if len(p) != int(displaySource)+1 {
			t.Fatalf("%s palette has %d entries", name, len(p))
		}
		for s := 2; s <= 7; s++ {
			weaker, stronger := p[displayFlowing+uint8(s)-2], p[displayFlowing+uint8(s)-1]
			if weaker == stronger {
				t.Fatalf("%s strengths %d and %d share a colour", name, s-1, s)
			}
		}
	}
	if slices.Equal(New("magic_water").Palette(), New("experience").Palette()) {
		t.Fatal("liquids should be told apart by colour")
	}
}
