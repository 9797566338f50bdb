package overlay

import (
	"image"

	"github.com/carbocation/nucleiseg/annotation"
	"github.com/fogleman/gg"
)

// DrawRegions outlines each polygon on a copy of img. Vertices are pixel
// indices, so paths run through pixel centers.
func DrawRegions(img image.Image, regions []annotation.Region, colorCode string, lineWidth float64) (image.Image, error) {
	col, err := nrgbaFromColorCode(colorCode)
	if err != nil {
		return nil, err
	}

	ctx := gg.NewContextForImage(img)
	ctx.SetColor(col)
	ctx.SetLineWidth(lineWidth)

	for _, region := range regions {
		if len(region) < 2 {
			continue
		}

		ctx.MoveTo(float64(region[0].X)+0.5, float64(region[0].Y)+0.5)
		for _, v := range region[1:] {
			ctx.LineTo(float64(v.X)+0.5, float64(v.Y)+0.5)
		}
		ctx.ClosePath()
		ctx.Stroke()
	}

	return ctx.Image(), nil
}
