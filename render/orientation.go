package render

// Orientation describes a physical transform the decoder deferred instead of
// materializing during decode. Output stages undo it by reordering samples.
// The numeric values follow the EXIF/codestream encoding (1..8).
type Orientation uint8

const (
	OrientationIdentity Orientation = 1 + iota
	OrientationFlipHorizontal
	OrientationRotate180
	OrientationFlipVertical
	OrientationTranspose
	OrientationRotate90CW
	OrientationAntiTranspose
	OrientationRotate270CW
)

// FlipsX reports whether undoing o mirrors pixels horizontally.
func (o Orientation) FlipsX() bool {
	switch o {
	case OrientationFlipHorizontal, OrientationRotate180,
		OrientationRotate270CW, OrientationAntiTranspose:
		return true
	}
	return false
}

// FlipsY reports whether undoing o mirrors rows vertically.
func (o Orientation) FlipsY() bool {
	switch o {
	case OrientationFlipVertical, OrientationRotate180,
		OrientationRotate90CW, OrientationAntiTranspose:
		return true
	}
	return false
}

// Transposes reports whether undoing o swaps the x and y axes, which also
// swaps the output dimensions relative to the decoded ones.
func (o Orientation) Transposes() bool {
	switch o {
	case OrientationTranspose, OrientationRotate90CW,
		OrientationRotate270CW, OrientationAntiTranspose:
		return true
	}
	return false
}

// String returns a human-readable name for the orientation.
func (o Orientation) String() string {
	switch o {
	case OrientationIdentity:
		return "identity"
	case OrientationFlipHorizontal:
		return "flip-horizontal"
	case OrientationRotate180:
		return "rotate-180"
	case OrientationFlipVertical:
		return "flip-vertical"
	case OrientationTranspose:
		return "transpose"
	case OrientationRotate90CW:
		return "rotate-90cw"
	case OrientationAntiTranspose:
		return "anti-transpose"
	case OrientationRotate270CW:
		return "rotate-270cw"
	default:
		return "unknown"
	}
}
