// Package nifti writes NIfTI-1 volumes for the training framework and reads
// slices back for rendering.
package nifti

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/carbocation/nucleiseg/distance"
	"github.com/carbocation/pfx"
)

// Volume is voxel data plus the little header metadata we control. Data is
// little endian in NIfTI order: the first dimension varies fastest.
type Volume struct {
	Dims        []int
	Datatype    int16
	Data        []byte
	Description string
}

// VoxelCount is the product of the dimensions.
func (v Volume) VoxelCount() int {
	if len(v.Dims) == 0 {
		return 0
	}

	n := 1
	for _, d := range v.Dims {
		n *= d
	}

	return n
}

// Validate checks that the dimensions, datatype and data length agree.
func (v Volume) Validate() error {
	if len(v.Dims) == 0 || len(v.Dims) > 7 {
		return pfx.Err(fmt.Errorf("NIfTI-1 supports 1 to 7 dimensions, got %d", len(v.Dims)))
	}
	for i, d := range v.Dims {
		if d <= 0 || d > math.MaxInt16 {
			return pfx.Err(fmt.Errorf("Dimension %d has invalid size %d", i, d))
		}
	}

	bits := bitpix(v.Datatype)
	if bits == 0 {
		return pfx.Err(fmt.Errorf("Unsupported datatype %d", v.Datatype))
	}

	if want := v.VoxelCount() * int(bits) / 8; len(v.Data) != want {
		return pfx.Err(fmt.Errorf("Expected %d bytes of voxel data, got %d", want, len(v.Data)))
	}

	return nil
}

// FromField lays a distance field out as float32 voxels with dims [H, W, 1]:
// voxel (i, j) is (row, col) and i varies fastest, followed by a trailing
// channel axis.
func FromField(f *distance.Field) Volume {
	h, w := f.Height, f.Width
	data := make([]byte, 4*h*w)

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			idx := row + col*h
			binary.LittleEndian.PutUint32(data[4*idx:], math.Float32bits(float32(f.At(row, col))))
		}
	}

	return Volume{
		Dims:        []int{h, w, 1},
		Datatype:    DatatypeFloat32,
		Data:        data,
		Description: "normalized distance map",
	}
}

// FromImage lays out an 8-bit image as uint8 voxels with dims [H, W, C, 1],
// where C is 1 for grayscale images and 3 otherwise. Alpha is dropped.
func FromImage(img image.Image) Volume {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()

	channels := 3
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		channels = 1
	}

	data := make([]byte, h*w*channels)
	plane := h * w
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			r, g, bl, _ := img.At(b.Min.X+col, b.Min.Y+row).RGBA()
			idx := row + col*h
			data[idx] = uint8(r >> 8)
			if channels == 3 {
				data[plane+idx] = uint8(g >> 8)
				data[2*plane+idx] = uint8(bl >> 8)
			}
		}
	}

	return Volume{
		Dims:        []int{h, w, channels, 1},
		Datatype:    DatatypeUint8,
		Data:        data,
		Description: "image",
	}
}
