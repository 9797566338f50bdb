package overlay

import (
	"image"

	"github.com/disintegration/imaging"
)

// Fit rescales img with nearest-neighbor sampling so that its longer side is
// size pixels. A non-positive size returns img unchanged.
func Fit(img image.Image, size int) image.Image {
	if size <= 0 {
		return img
	}

	b := img.Bounds()
	if b.Dx() >= b.Dy() {
		return imaging.Resize(img, size, 0, imaging.NearestNeighbor)
	}

	return imaging.Resize(img, 0, size, imaging.NearestNeighbor)
}
