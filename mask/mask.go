// Package mask rasterizes polygon regions into a binary occupancy mask.
package mask

import (
	"fmt"
	"image"
	"image/color"

	"github.com/carbocation/pfx"
)

const (
	Background uint8 = 0
	Foreground uint8 = 1
)

// Mask is a row-major binary grid. Every cell is Background or Foreground.
type Mask struct {
	Height int
	Width  int
	Pix    []uint8
}

// New allocates an all-background mask.
func New(height, width int) (*Mask, error) {
	if height <= 0 || width <= 0 {
		return nil, pfx.Err(fmt.Errorf("Mask dimensions must be positive, got %dx%d", height, width))
	}

	return &Mask{
		Height: height,
		Width:  width,
		Pix:    make([]uint8, height*width),
	}, nil
}

func (m *Mask) At(row, col int) uint8 {
	return m.Pix[row*m.Width+col]
}

// Set marks (row, col) as foreground. Cells outside the grid are ignored.
func (m *Mask) Set(row, col int) {
	if row < 0 || col < 0 || row >= m.Height || col >= m.Width {
		return
	}
	m.Pix[row*m.Width+col] = Foreground
}

// Count returns the number of foreground cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != Background {
			n++
		}
	}

	return n
}

func (m *Mask) Equal(other *Mask) bool {
	if other == nil || m.Height != other.Height || m.Width != other.Width {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != other.Pix[i] {
			return false
		}
	}

	return true
}

// ToImage renders foreground as white and background as black.
func (m *Mask) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			if m.At(row, col) != Background {
				img.SetGray(col, row, color.Gray{Y: 255})
			}
		}
	}

	return img
}
