package upflow

import (
	"strconv"
	"sync"

	"mad-liquid/internal/world"
)

// ProfileResult captures telemetry from a deterministic run used for tuning.
type ProfileResult struct {
	// SettleTicks is the number of steps until no tick was pending, or the
	// step limit when the run never settled.
	SettleTicks int  `json:"settle_ticks"`
	Idle        bool `json:"idle"`
	// ColumnHeight counts the unbroken run of liquid from the source up,
	// the source included.
	ColumnHeight int `json:"column_height"`
	// Cells is the liquid cell count of the whole box once settled.
	Cells int `json:"cells"`
	// DissipateTicks is the number of steps the box took to drain after
	// the source was removed. Residual counts what was left.
	DissipateTicks int `json:"dissipate_ticks"`
	Residual       int `json:"residual"`
}

// SweepRecord documents a single improvement encountered while exploring the
// tuning parameter space.
type SweepRecord struct {
	Pass      int           `json:"pass"`
	Parameter string        `json:"parameter"`
	Value     string        `json:"value"`
	Result    ProfileResult `json:"result"`
	Config    Config        `json:"config"`
}

// ProfileRun builds the configured box, lets it settle, then removes the
// source and lets it drain. Each phase runs for at most steps ticks.
func ProfileRun(cfg Config, steps int) ProfileResult {
	if steps <= 0 {
		return ProfileResult{}
	}
	v := NewWithConfig(cfg)
	sim := v.Simulation()
	if sim == nil {
		return ProfileResult{}
	}

	var result ProfileResult
	result.SettleTicks, result.Idle = sim.RunUntilIdle(steps)
	result.Cells = totalCells(sim.World().Census())

	src := v.Source()
	for pos := src; sim.Cell(pos).Holds(v.liquid); pos[1]++ {
		result.ColumnHeight++
	}

	sim.Remove(src)
	result.DissipateTicks, _ = sim.RunUntilIdle(steps)
	result.Residual = totalCells(sim.World().Census())
	return result
}

func totalCells(census []world.Census) int {
	n := 0
	for _, c := range census {
		n += c.Total()
	}
	return n
}

type intSpec struct {
	name   string
	values []int
	getter func(Config) int
	setter func(*Config, int)
}

// ParameterSweep performs a coarse coordinate-descent search over the tick
// delay and search radius for a column of the target height that settles
// and drains quickly. It returns the best configuration found with its
// telemetry and an improvement trace.
func ParameterSweep(base Config, target, steps, passes, workers int) (Config, ProfileResult, []SweepRecord) {
	if steps <= 0 {
		steps = 2000
	}
	if passes <= 0 {
		passes = 1
	}
	if workers <= 0 {
		workers = 1
	}
	if target <= 0 {
		target = base.Height
	}

	current := base
	currentResult := ProfileRun(current, steps)
	records := []SweepRecord{{
		Pass:      0,
		Parameter: "baseline",
		Result:    currentResult,
		Config:    current,
	}}

	specs := []intSpec{
		{
			name:   "search_radius",
			values: []int{4, 8, 12, 16, 20, 24, 32},
			getter: func(c Config) int { return c.SearchRadius },
			setter: func(c *Config, v int) { c.SearchRadius = v },
		},
		{
			name:   "tick_delay",
			values: []int{1, 2, 3, 5, 8, 10, 15},
			getter: func(c Config) int { return c.TickDelay },
			setter: func(c *Config, v int) { c.TickDelay = v },
		},
	}

	for pass := 1; pass <= passes; pass++ {
		improved := false
		for _, spec := range specs {
			best, bestResult, changed, rec := evaluateIntSpec(current, currentResult, spec, target, steps, workers, pass)
			if changed {
				current = best
				currentResult = bestResult
				records = append(records, rec...)
				improved = true
			}
		}
		if !improved {
			break
		}
	}
	return current, currentResult, records
}

func evaluateIntSpec(cfg Config, baseline ProfileResult, spec intSpec, target, steps, workers, pass int) (Config, ProfileResult, bool, []SweepRecord) {
	best := cfg
	bestResult := baseline
	changed := false
	records := make([]SweepRecord, 0)

	type candidate struct {
		result ProfileResult
		valid  bool
	}

	candidates := make([]candidate, len(spec.values))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for idx, value := range spec.values {
		if value == spec.getter(cfg) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i, v int) {
			defer wg.Done()
			candidateCfg := cfg
			spec.setter(&candidateCfg, v)
			candidates[i] = candidate{result: ProfileRun(candidateCfg, steps), valid: true}
			<-sem
		}(idx, value)
	}

	wg.Wait()

	for idx, value := range spec.values {
		cand := candidates[idx]
		if !cand.valid {
			continue
		}
		if betterProfile(cand.result, bestResult, target) {
			candidateCfg := cfg
			spec.setter(&candidateCfg, value)
			best = candidateCfg
			bestResult = cand.result
			changed = true
			records = append(records, SweepRecord{
				Pass:      pass,
				Parameter: spec.name,
				Value:     strconv.Itoa(value),
				Result:    cand.result,
				Config:    candidateCfg,
			})
		}
	}
	return best, bestResult, changed, records
}

// betterProfile prefers runs that settle, then columns closer to target,
// then fewer ticks to settle and drain.
func betterProfile(a, b ProfileResult, target int) bool {
	if a.Idle != b.Idle {
		return a.Idle
	}
	da, db := absInt(a.ColumnHeight-target), absInt(b.ColumnHeight-target)
	if da != db {
		return da < db
	}
	return a.SettleTicks+a.DissipateTicks < b.SettleTicks+b.DissipateTicks
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
