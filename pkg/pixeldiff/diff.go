// Package pixeldiff highlights the pixels that differ between two images.
package pixeldiff

import (
	"image"
	"image/draw"
	"math"

	"github.com/sdejongh/doccompare/pkg/models"
)

const (
	// DefaultThreshold is the default sensitivity
	DefaultThreshold = 30
	// MinThreshold and MaxThreshold bound the user-adjustable sensitivity
	MinThreshold = 5
	MaxThreshold = 100
	// ThresholdStep is the granularity of the sensitivity control
	ThresholdStep = 5
)

// NormalizeThreshold clamps a sensitivity to [MinThreshold, MaxThreshold] and snaps it to ThresholdStep
func NormalizeThreshold(t float64) float64 {
	if math.IsNaN(t) {
		return DefaultThreshold
	}
	t = math.Round(t/ThresholdStep) * ThresholdStep
	return math.Max(MinThreshold, math.Min(MaxThreshold, t))
}

// Stats describes a computed diff
type Stats struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	Different int `json:"differentPixels"`
}

// Pixels returns the number of compared pixels
func (s Stats) Pixels() int {
	return s.Width * s.Height
}

// Ratio returns the share of differing pixels in [0,1]
func (s Stats) Ratio() float64 {
	if s.Pixels() == 0 {
		return 0
	}
	return float64(s.Different) / float64(s.Pixels())
}

// Compute compares the overlapping top-left rectangle of a and b.
// A pixel whose RGB distance exceeds threshold is rendered as a red highlight of a's color;
// every other pixel copies a's color. The output is fully opaque and has the dimensions of
// the overlap. Images without overlap fail with models.ErrNoOverlap.
func Compute(a, b image.Image, threshold float64) (*image.RGBA, Stats, error) {
	ab, bb := a.Bounds(), b.Bounds()
	w := min(ab.Dx(), bb.Dx())
	h := min(ab.Dy(), bb.Dy())
	if w <= 0 || h <= 0 {
		return nil, Stats{}, models.ErrNoOverlap
	}

	bufA := rasterize(a, w, h)
	bufB := rasterize(b, w, h)
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	limit := threshold * threshold
	stats := Stats{Width: w, Height: h}

	for i := 0; i < len(bufA.Pix); i += 4 {
		r, g, bl := bufA.Pix[i], bufA.Pix[i+1], bufA.Pix[i+2]
		dr := float64(r) - float64(bufB.Pix[i])
		dg := float64(g) - float64(bufB.Pix[i+1])
		db := float64(bl) - float64(bufB.Pix[i+2])

		if dr*dr+dg*dg+db*db > limit {
			stats.Different++
			r, g, bl = highlight(r, g, bl)
		}

		out.Pix[i] = r
		out.Pix[i+1] = g
		out.Pix[i+2] = bl
		out.Pix[i+3] = 0xff
	}

	return out, stats, nil
}

// highlight boosts red toward 255 in proportion to the original red and
// attenuates green and blue to 30%
func highlight(r, g, b uint8) (uint8, uint8, uint8) {
	return 128 + r/2, uint8(uint16(g) * 3 / 10), uint8(uint16(b) * 3 / 10)
}

// rasterize draws the top-left w×h area of img into a non-premultiplied buffer
func rasterize(img image.Image, w, h int) *image.NRGBA {
	buf := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(buf, buf.Bounds(), img, img.Bounds().Min, draw.Src)
	return buf
}
