package upflow

import (
	"image/color"

	"mad-liquid/internal/liquid"
	"mad-liquid/internal/world"
)

const (
	displayAir uint8 = iota
	displaySolid
	displayFloor
	displayGrate
	// displayFlowing+s-1 encodes a flowing cell of strength s.
	displayFlowing
	displaySource = displayFlowing + 7
)

var (
	magicWaterPalette = buildPalette(color.NRGBA{R: 120, G: 80, B: 230, A: 255})
	experiencePalette = buildPalette(color.NRGBA{R: 140, G: 230, B: 60, A: 255})
)

// Palette exposes the color palette used for rendering the view.
func (v *View) Palette() []color.RGBA {
	if v.cfg.Liquid == liquid.Experience.Name() {
		return experiencePalette
	}
	return magicWaterPalette
}

func buildPalette(tint color.NRGBA) []color.RGBA {
	air := color.NRGBA{R: 12, G: 14, B: 22, A: 255}
	palette := make([]color.RGBA, displaySource+1)
	palette[displayAir] = toRGBA(air)
	palette[displaySolid] = toRGBA(color.NRGBA{R: 110, G: 110, B: 118, A: 255})
	palette[displayFloor] = toRGBA(color.NRGBA{R: 150, G: 112, B: 70, A: 255})
	palette[displayGrate] = toRGBA(color.NRGBA{R: 70, G: 74, B: 84, A: 255})
	for s := 1; s <= 7; s++ {
		weight := 0.25 + 0.6*float64(s)/7
		palette[displayFlowing+uint8(s)-1] = toRGBA(blendColors(air, tint, weight))
	}
	palette[displaySource] = toRGBA(blendColors(tint, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, 0.35))
	return palette
}

func toRGBA(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func blendColors(base, overlay color.NRGBA, overlayWeight float64) color.NRGBA {
	if overlayWeight <= 0 {
		return base
	}
	if overlayWeight >= 1 {
		return overlay
	}
	br, bg, bb, ba := float64(base.R), float64(base.G), float64(base.B), float64(base.A)
	or, og, ob, oa := float64(overlay.R), float64(overlay.G), float64(overlay.B), float64(overlay.A)
	w := overlayWeight
	inv := 1 - w
	return color.NRGBA{
		R: uint8(br*inv + or*w + 0.5),
		G: uint8(bg*inv + og*w + 0.5),
		B: uint8(bb*inv + ob*w + 0.5),
		A: uint8(ba*inv + oa*w + 0.5),
	}
}

// encodeDisplayValue folds a block and its liquid into one palette index.
// Liquid wins over terrain.
func encodeDisplayValue(t world.Terrain, c liquid.CellState) uint8 {
	switch {
	case c.IsSource():
		return displaySource
	case !c.IsEmpty():
		s := min(max(c.Amount(), 1), 7)
		return displayFlowing + uint8(s) - 1
	}
	switch t {
	case world.Solid:
		return displaySolid
	case world.Floor:
		return displayFloor
	case world.Grate:
		return displayGrate
	default:
		return displayAir
	}
}
