package render

import "fmt"

// DataType selects the element type of converted output samples.
type DataType uint8

const (
	// TypeUint8 scales clamped samples by 255 and rounds to nearest even.
	TypeUint8 DataType = iota

	// TypeUint16 scales clamped samples by 65535 and rounds to nearest even.
	TypeUint16

	// TypeFloat16 demotes samples to IEEE 754 binary16.
	TypeFloat16

	// TypeFloat32 passes samples through unchanged.
	TypeFloat32
)

// Size returns the sample size in bytes.
func (t DataType) Size() int {
	switch t {
	case TypeUint8:
		return 1
	case TypeUint16, TypeFloat16:
		return 2
	case TypeFloat32:
		return 4
	default:
		return 0
	}
}

// String returns a human-readable name for the data type.
func (t DataType) String() string {
	switch t {
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeFloat16:
		return "float16"
	case TypeFloat32:
		return "float32"
	default:
		return "unknown"
	}
}

// ImageFormat is the fully resolved output configuration of the callback
// stage. All fields are fixed at construction time.
type ImageFormat struct {
	// Width and Height are the dimensions of the decoded image, before any
	// orientation undo. When UndoOrientation transposes, the delivered
	// image is Height x Width.
	Width  int
	Height int

	// NumChannels maps 1, 2, 3, 4 to gray, gray+alpha, RGB, RGBA.
	NumChannels int

	// DataType is the element type of delivered samples.
	DataType DataType

	// HasAlpha reports whether the decoded image carries an alpha channel,
	// and AlphaChannel is its index. The alpha index is always distinct
	// from the three fixed color channel indices 0, 1, 2.
	HasAlpha     bool
	AlphaChannel int

	// UnpremultiplyAlpha requests recovery of straight color values from
	// alpha-premultiplied samples.
	UnpremultiplyAlpha bool

	// SwapEndianness byte-swaps every converted sample.
	SwapEndianness bool

	// UndoOrientation is the deferred transform to reverse at output time.
	// The zero value is treated as OrientationIdentity.
	UndoOrientation Orientation
}

func (f *ImageFormat) validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid output dimensions %dx%d", f.Width, f.Height)
	}
	if f.NumChannels < 1 || f.NumChannels > 4 {
		return fmt.Errorf("invalid channel count %d", f.NumChannels)
	}
	if f.HasAlpha && f.AlphaChannel < 3 {
		return fmt.Errorf("alpha channel index %d collides with color channels", f.AlphaChannel)
	}
	if f.UndoOrientation > OrientationRotate270CW {
		return fmt.Errorf("invalid orientation %d", f.UndoOrientation)
	}
	return nil
}

// numColor returns the number of color channels read from the input:
// one for the gray paths, three otherwise.
func (f *ImageFormat) numColor() int {
	if f.NumChannels < 3 {
		return 1
	}
	return 3
}

// wantAlpha reports whether the delivered channel set includes alpha.
func (f *ImageFormat) wantAlpha() bool {
	return f.NumChannels == 2 || f.NumChannels == 4
}
