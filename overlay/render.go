package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Grid is a 2D array of values addressed by (row, col).
type Grid interface {
	Shape() (height, width int)
	At(row, col int) float64
}

// Render paints base with cm, each value windowed to the base's own min and
// max. If mask is non-nil, cells where the mask is > 0 are blended on top using
// maskCM at the given alpha; the mask is windowed over its positive cells only.
func Render(base Grid, cm Colormap, mask Grid, maskCM Colormap, alpha float64) (*image.NRGBA, error) {
	h, w := base.Shape()
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("Cannot render an empty grid (%dx%d)", h, w)
	}

	if mask != nil {
		mh, mw := mask.Shape()
		if mh != h || mw != w {
			return nil, fmt.Errorf("Mask shape %dx%d does not match image shape %dx%d", mh, mw, h, w)
		}
	}

	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}

	lo, hi := window(base, false)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			out.SetNRGBA(col, row, cm.At(scale(base.At(row, col), lo, hi)))
		}
	}

	if mask == nil {
		return out, nil
	}

	mlo, mhi := window(mask, true)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			v := mask.At(row, col)
			if v <= 0 {
				continue
			}

			under := out.NRGBAAt(col, row)
			over := maskCM.At(scale(v, mlo, mhi))
			out.SetNRGBA(col, row, color.NRGBA{
				R: blend(under.R, over.R, alpha),
				G: blend(under.G, over.G, alpha),
				B: blend(under.B, over.B, alpha),
				A: 255,
			})
		}
	}

	return out, nil
}

// window finds the min and max of g, optionally over positive cells only.
func window(g Grid, positiveOnly bool) (float64, float64) {
	h, w := g.Shape()

	lo, hi := math.Inf(1), math.Inf(-1)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			v := g.At(row, col)
			if positiveOnly && v <= 0 {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	if math.IsInf(lo, 0) {
		return 0, 0
	}

	return lo, hi
}

// scale maps v into [0, 1]. A flat window maps everything to 0.
func scale(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}

	return (v - lo) / (hi - lo)
}

func blend(under, over uint8, alpha float64) uint8 {
	return uint8(math.Round(alpha*float64(over) + (1-alpha)*float64(under)))
}
