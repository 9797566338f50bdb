package nifti

import (
	"fmt"
	"os"

	"github.com/carbocation/pfx"
	hnifti "github.com/henghuang/nifti"
)

// Slice is one 2D plane of a volume, row-major, with rows along the first
// NIfTI axis.
type Slice struct {
	Height int
	Width  int
	Values []float64
}

func (s Slice) Shape() (int, int) {
	return s.Height, s.Width
}

func (s Slice) At(row, col int) float64 {
	return s.Values[row*s.Width+col]
}

// MinMax returns the smallest and largest values of the slice.
func (s Slice) MinMax() (float64, float64) {
	if len(s.Values) == 0 {
		return 0, 0
	}

	lo, hi := s.Values[0], s.Values[0]
	for _, v := range s.Values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	return lo, hi
}

// SafelyNiftiParse consumes panics emitted by the nifti library, which are
// inappropriate and must be captured in order to turn them into recoverable
// errors.
func SafelyNiftiParse(filename string, rdata bool) (parsedData hnifti.Nifti1Image, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%s: %v", filename, panicErr)
		}
	}()

	parsedData.LoadImage(filename, rdata)

	return
}

// Read loads the first plane (z=0, t=0) of a .nii or .nii.gz file. A third
// axis of size 3 is taken to be RGB and averaged to gray, matching the layout
// FromImage writes.
func Read(filename string) (out Slice, err error) {
	if _, err := os.Stat(filename); err != nil {
		return out, pfx.Err(err)
	}

	img, err := SafelyNiftiParse(filename, true)
	if err != nil {
		return out, pfx.Err(err)
	}

	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = pfx.Err(fmt.Errorf("%s: %v", filename, panicErr))
		}
	}()

	dims := img.GetDims()
	xm, ym, zm := dims[0], dims[1], dims[2]
	if xm <= 0 || ym <= 0 {
		return out, pfx.Err(fmt.Errorf("%s: empty volume with dims %v", filename, dims))
	}

	channels := 1
	if zm == 3 {
		channels = 3
	}

	out = Slice{Height: xm, Width: ym, Values: make([]float64, xm*ym)}
	for x := 0; x < xm; x++ {
		for y := 0; y < ym; y++ {
			sum := 0.0
			for z := 0; z < channels; z++ {
				sum += float64(img.GetAt(x, y, z, 0))
			}
			out.Values[x*ym+y] = sum / float64(channels)
		}
	}

	return out, nil
}

// SafelyNiftiHeaderParse is SafelyNiftiParse for the header alone.
func SafelyNiftiHeaderParse(filename string) (parsedData hnifti.Nifti1Header, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%s: %v", filename, panicErr)
		}
	}()

	parsedData.LoadHeader(filename)

	return
}

// Spacing returns the voxel size along the first three axes.
func Spacing(filename string) ([3]float64, error) {
	var out [3]float64

	if _, err := os.Stat(filename); err != nil {
		return out, pfx.Err(err)
	}

	hdr, err := SafelyNiftiHeaderParse(filename)
	if err != nil {
		return out, pfx.Err(err)
	}

	for i := range out {
		out[i] = float64(hdr.Pixdim[i+1])
	}

	return out, nil
}
