package scenario

import (
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"

	"mad-liquid/internal/liquid"
	"mad-liquid/internal/world"
)

// Glyphs used by RenderSlice. Flowing cells print their strength.
const (
	glyphAir   = '.'
	glyphSolid = '#'
	glyphFloor = '='
	glyphGrate = '+'
)

// sourceGlyphs marks sources by liquid. Unknown liquids print 'S'.
var sourceGlyphs = map[string]byte{
	liquid.MagicWater.Name(): 'M',
	liquid.Experience.Name(): 'E',
}

// RenderSlice draws the x/y plane at depth z, highest row first.
func RenderSlice(w *world.World, z int) string {
	b := w.Bounds()
	var sb strings.Builder
	width := b.Max[0] - b.Min[0] + 1
	sb.Grow((width + 1) * (b.Max[1] - b.Min[1] + 1))
	for y := b.Max[1]; y >= b.Min[1]; y-- {
		for x := b.Min[0]; x <= b.Max[0]; x++ {
			sb.WriteByte(glyph(w, cube.Pos{x, y, z}))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func glyph(w *world.World, pos cube.Pos) byte {
	c := w.Cell(pos)
	switch {
	case c.IsSource():
		if g, ok := sourceGlyphs[c.Liquid.Name()]; ok {
			return g
		}
		return 'S'
	case !c.IsEmpty():
		return byte('0' + c.Amount())
	}
	switch w.Terrain(pos) {
	case world.Solid:
		return glyphSolid
	case world.Floor:
		return glyphFloor
	case world.Grate:
		return glyphGrate
	default:
		return glyphAir
	}
}
