package nifti

// Header is the 348-byte NIfTI-1 header, laid out field for field so that it
// can be written with encoding/binary. Based on the official definition,
// https://nifti.nimh.nih.gov/pub/dist/src/niftilib/nifti1.h
type Header struct {
	SizeofHdr          int32      // Must be 348
	UnusedDataType     [10]byte   // Unused
	UnusedDbName       [18]byte   // Unused
	UnusedExtents      int32      // Unused
	UnusedSessionError int16      // Unused
	UnusedRegular      byte       // Unused
	DimInfo            byte       // MRI slice ordering
	Dim                [8]int16   // Data array dimensions
	IntentP1           float32    // 1st intent parameter
	IntentP2           float32    // 2nd intent parameter
	IntentP3           float32    // 3rd intent parameter
	IntentCode         int16      // NIFTI_INTENT_* code
	Datatype           int16      // Defines data type
	Bitpix             int16      // Number bits/voxel
	SliceStart         int16      // First slice index
	Pixdim             [8]float32 // Grid spacing
	VoxOffset          float32    // Offset into .nii file
	SclSlope           float32    // Data scaling: slope
	SclInter           float32    // Data scaling: offset
	SliceEnd           int16      // Last slice index
	SliceCode          byte       // Slice timing order
	XyztUnits          byte       // Units of pixdim[1..4]
	CalMax             float32    // Max display intensity
	CalMin             float32    // Min display intensity
	SliceDuration      float32    // Time for 1 slice
	Toffset            float32    // Time axis shift
	UnusedGlmax        int32      // Unused
	UnusedGlmin        int32      // Unused
	Descrip            [80]byte   // Any text you like
	AuxFile            [24]byte   // Auxiliary filename
	QformCode          int16      // NIFTI_XFORM_* code
	SformCode          int16      // NIFTI_XFORM_* code
	QuaternB           float32    // Quaternion b params
	QuaternC           float32    // Quaternion c params
	QuaternD           float32    // Quaternion d params
	QoffsetX           float32    // Quaternion x shift
	QoffsetY           float32    // Quaternion y shift
	QoffsetZ           float32    // Quaternion z shift
	SrowX              [4]float32 // 1st row affine transform
	SrowY              [4]float32 // 2nd row affine transform
	SrowZ              [4]float32 // 3rd row affine transform
	IntentName         [16]byte   // 'name' or meaning of data
	Magic              [4]byte    // Must be "ni1\0" or "n+1\0"
}

const (
	HeaderSize = 348

	// Single-file .nii data starts after the header and the 4-byte extension
	// flag.
	SingleFileVoxOffset = 352

	DatatypeUint8   int16 = 2
	DatatypeInt16   int16 = 4
	DatatypeFloat32 int16 = 16
	DatatypeFloat64 int16 = 64

	XformUnknown int16 = 0
	XformAligned int16 = 2
)

// bitpix returns the bits per voxel for the datatypes we write.
func bitpix(datatype int16) int16 {
	switch datatype {
	case DatatypeUint8:
		return 8
	case DatatypeInt16:
		return 16
	case DatatypeFloat32:
		return 32
	case DatatypeFloat64:
		return 64
	}

	return 0
}

// newHeader fills in a single-file header with an identity affine: sform is
// the identity and marked aligned, qform is left unknown, and every pixdim is
// 1.
func newHeader(v Volume) Header {
	h := Header{
		SizeofHdr: HeaderSize,
		Datatype:  v.Datatype,
		Bitpix:    bitpix(v.Datatype),
		VoxOffset: SingleFileVoxOffset,
		SclSlope:  1,
		QformCode: XformUnknown,
		SformCode: XformAligned,
		SrowX:     [4]float32{1, 0, 0, 0},
		SrowY:     [4]float32{0, 1, 0, 0},
		SrowZ:     [4]float32{0, 0, 1, 0},
		Magic:     [4]byte{'n', '+', '1', 0},
	}

	h.Dim[0] = int16(len(v.Dims))
	for i, d := range v.Dims {
		h.Dim[i+1] = int16(d)
	}
	for i := len(v.Dims) + 1; i < len(h.Dim); i++ {
		h.Dim[i] = 1
	}

	// pixdim[0] is qfac
	for i := range h.Pixdim {
		h.Pixdim[i] = 1
	}

	copy(h.Descrip[:len(h.Descrip)-1], v.Description)

	return h
}
