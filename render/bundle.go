// Copyright 2025 The jpeg-xl Go Authors. SPDX-License-Identifier: Apache-2.0

package render

import (
	"github.com/ajroetker/go-highway/hwy/contrib/image"
)

// ColorEncoding tags the color interpretation of an ImageBundle. The output
// stages carry it through reallocation but never convert between encodings.
type ColorEncoding uint8

const (
	ColorEncodingUnknown ColorEncoding = iota
	ColorEncodingSRGB
	ColorEncodingLinearSRGB
	ColorEncodingGray
)

// String returns a human-readable name for the color encoding.
func (e ColorEncoding) String() string {
	switch e {
	case ColorEncodingUnknown:
		return "unknown"
	case ColorEncodingSRGB:
		return "srgb"
	case ColorEncodingLinearSRGB:
		return "linear-srgb"
	case ColorEncodingGray:
		return "gray"
	default:
		return "invalid"
	}
}

// ImageBundle is a structured planar container: three color planes, a
// variable-length list of auxiliary channels (alpha, depth, spot colors)
// and a color-encoding tag.
type ImageBundle struct {
	color    *image.Image3[float32]
	extra    []*image.Image[float32]
	encoding ColorEncoding
}

// NewImageBundle returns an empty bundle with zero-sized planes.
func NewImageBundle() *ImageBundle {
	return &ImageBundle{color: image.NewImage3[float32](0, 0)}
}

// Color returns the 3-plane color image.
func (b *ImageBundle) Color() *image.Image3[float32] {
	return b.color
}

// SetFromImage replaces the color planes and encoding tag. Extra channels
// are left untouched.
func (b *ImageBundle) SetFromImage(img *image.Image3[float32], encoding ColorEncoding) {
	b.color = img
	b.encoding = encoding
}

// NumExtraChannels returns the number of auxiliary channels.
func (b *ImageBundle) NumExtraChannels() int {
	return len(b.extra)
}

// ExtraChannel returns auxiliary channel i.
func (b *ImageBundle) ExtraChannel(i int) *image.Image[float32] {
	return b.extra[i]
}

// SetExtraChannels replaces the auxiliary channel list.
func (b *ImageBundle) SetExtraChannels(channels []*image.Image[float32]) {
	b.extra = channels
}

// ColorEncoding returns the current encoding tag.
func (b *ImageBundle) ColorEncoding() ColorEncoding {
	return b.encoding
}

// SetColorEncoding assigns the encoding tag without touching the planes.
func (b *ImageBundle) SetColorEncoding(encoding ColorEncoding) {
	b.encoding = encoding
}

// Width returns the color plane width.
func (b *ImageBundle) Width() int {
	return b.color.Width()
}

// Height returns the color plane height.
func (b *ImageBundle) Height() int {
	return b.color.Height()
}
