package upflow

import (
	"strconv"

	"mad-liquid/internal/core"
)

func (v *View) Parameters() core.ParameterSnapshot {
	groups := []core.ParameterGroup{
		{
			Name: "Box",
			Params: []core.Parameter{
				intParam("w", "Width", v.cfg.Width),
				intParam("h", "Height", v.cfg.Height),
				intParam("d", "Depth", v.cfg.Depth),
				intParam("slice", "Slice z", v.cfg.Slice),
				stringParam("layout", "Layout", string(v.cfg.Layout)),
				int64Param("seed", "Seed", v.seed),
			},
		},
		{
			Name: "Liquid",
			Params: []core.Parameter{
				stringParam("connectivity", "Connectivity", string(v.cfg.Connectivity)),
				intParam("tick_delay", "Tick delay", v.cfg.TickDelay),
				intParam("search_radius", "Search radius", v.cfg.SearchRadius),
				intParam("random_ticks", "Random ticks", v.cfg.RandomTicks),
			},
		},
		{
			Name: "State",
			Params: []core.Parameter{
				int64Param("tick", "Tick", v.Tick()),
				intParam("pending", "Pending ticks", v.Pending()),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the tunables adjustable from the HUD.
func (v *View) ParameterControls() []core.ParameterControl {
	lo, hi := zRange(v.cfg.Depth)
	return []core.ParameterControl{
		{Key: "slice", Label: "Slice z", Type: core.ParamTypeInt, Step: 1, Min: float64(lo), Max: float64(hi), HasMin: true, HasMax: true},
		{Key: "tick_delay", Label: "Tick delay", Type: core.ParamTypeInt, Step: 1, Min: 1, Max: 40, HasMin: true, HasMax: true},
		{Key: "search_radius", Label: "Search radius", Type: core.ParamTypeInt, Step: 1, Min: 1, Max: 32, HasMin: true, HasMax: true},
		{Key: "random_ticks", Label: "Random ticks", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: 64, HasMin: true, HasMax: true},
	}
}

// SetIntParameter applies a HUD adjustment and rebuilds the box with the
// current seed. The source follows the slice.
func (v *View) SetIntParameter(key string, value int) bool {
	switch key {
	case "slice":
		value = clampSlice(value, v.cfg.Depth)
		if value == v.cfg.Slice {
			return false
		}
		v.cfg.Slice = value
		v.Reset(v.seed)
		return true
	case "tick_delay":
		if value <= 0 {
			return false
		}
		v.cfg.TickDelay = value
	case "search_radius":
		if value <= 0 {
			return false
		}
		v.cfg.SearchRadius = value
	case "random_ticks":
		if value < 0 {
			return false
		}
		v.cfg.RandomTicks = value
	default:
		return false
	}
	v.Reset(v.seed)
	return true
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func stringParam(key, label, value string) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeString,
		Value: value,
	}
}
