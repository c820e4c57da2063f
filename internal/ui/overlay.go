//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"mad-liquid/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type maskProvider interface {
	PendingMask() []float32
	StrengthMask() []float32
}

// Overlay draws optional debugging visuals on top of the base simulation.
// Key 1 toggles scheduled ticks, key 2 toggles flow strength.
type Overlay struct {
	sim          core.Sim
	scale        int
	showPending  bool
	showStrength bool
	maskImg      *ebiten.Image
	maskBuf      []byte
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	return &Overlay{sim: sim, scale: scale}
}

// Update reads the overlay toggle keys.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showPending = !o.showPending
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showStrength = !o.showStrength
	}
}

// Draw renders the enabled masks onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if !o.showPending && !o.showStrength {
		return
	}
	provider, ok := o.sim.(maskProvider)
	if !ok {
		return
	}
	size := o.sim.Size()
	total := size.W * size.H
	if total <= 0 {
		return
	}
	if o.maskImg == nil || o.maskImg.Bounds().Dx() != size.W || o.maskImg.Bounds().Dy() != size.H {
		o.maskImg = ebiten.NewImage(size.W, size.H)
	}
	if len(o.maskBuf) != 4*total {
		o.maskBuf = make([]byte, 4*total)
	}

	if o.showStrength {
		o.drawMask(screen, provider.StrengthMask(), color.RGBA{R: 64, G: 164, B: 223})
	}
	if o.showPending {
		o.drawMask(screen, provider.PendingMask(), color.RGBA{R: 255, G: 120, B: 40})
	}
}

func (o *Overlay) drawMask(screen *ebiten.Image, mask []float32, tint color.RGBA) {
	if len(mask)*4 != len(o.maskBuf) {
		return
	}
	const (
		maxAlpha      = 140.0
		glowBase      = 0.35
		glowRange     = 0.65
		intensityBias = 0.75
	)

	for i := range mask {
		base := i * 4
		intensity := clamp01(float64(mask[i]))
		if intensity == 0 {
			clear(o.maskBuf[base : base+4])
			continue
		}
		alpha := uint8(math.Round(maxAlpha * math.Pow(intensity, intensityBias)))
		glow := glowBase + glowRange*math.Sqrt(intensity)

		o.maskBuf[base+0] = scaleColorComponent(tint.R, glow)
		o.maskBuf[base+1] = scaleColorComponent(tint.G, glow)
		o.maskBuf[base+2] = scaleColorComponent(tint.B, glow)
		o.maskBuf[base+3] = alpha
	}
	o.maskImg.WritePixels(o.maskBuf)
	op := &ebiten.DrawImageOptions{}
	scale := o.scale
	if scale <= 0 {
		scale = 1
	}
	op.GeoM.Scale(float64(scale), float64(scale))
	screen.DrawImage(o.maskImg, op)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func scaleColorComponent(value uint8, factor float64) uint8 {
	scaled := math.Round(float64(value) * factor)
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}
