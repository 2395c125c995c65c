// Package overlay stacks two images with an adjustable transparency.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

const (
	// DefaultOpacity is the initial opacity of the top image
	DefaultOpacity = 0.5
	// OpacityStep is the granularity of the opacity control
	OpacityStep = 0.01
)

// NormalizeOpacity clamps an opacity to [0,1] and quantizes it to OpacityStep
func NormalizeOpacity(o float64) float64 {
	if math.IsNaN(o) {
		return DefaultOpacity
	}
	o = math.Round(o/OpacityStep) * OpacityStep
	return math.Max(0, math.Min(1, o))
}

// Compose draws base and then top over it with the given opacity. Both images are
// anchored at the top-left corner; the result has the dimensions of base.
func Compose(base, top image.Image, opacity float64) *image.RGBA {
	opacity = NormalizeOpacity(opacity)

	bb := base.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(out, out.Bounds(), base, bb.Min, draw.Src)

	alpha := uint8(math.Round(opacity * 0xff))
	if alpha == 0 {
		return out
	}
	mask := image.NewUniform(color.Alpha{A: alpha})
	draw.DrawMask(out, out.Bounds(), top, top.Bounds().Min, mask, image.Point{}, draw.Over)
	return out
}

// Compositor keeps the two layers and the current opacity of an overlay view
type Compositor struct {
	base    image.Image
	top     image.Image
	opacity float64
}

// NewCompositor creates a compositor at DefaultOpacity
func NewCompositor(base, top image.Image) *Compositor {
	return &Compositor{base: base, top: top, opacity: DefaultOpacity}
}

// SetOpacity changes the opacity and returns the normalized value
func (c *Compositor) SetOpacity(o float64) float64 {
	c.opacity = NormalizeOpacity(o)
	return c.opacity
}

// Opacity returns the current opacity
func (c *Compositor) Opacity() float64 {
	return c.opacity
}

// Render composes the layers at the current opacity
func (c *Compositor) Render() *image.RGBA {
	return Compose(c.base, c.top, c.opacity)
}
