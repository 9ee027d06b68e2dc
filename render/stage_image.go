// Copyright 2025 The jpeg-xl Go Authors. SPDX-License-Identifier: Apache-2.0

package render

import (
	"errors"
	"fmt"

	"github.com/ajroetker/go-highway/hwy/contrib/image"
)

// WriteImage3Stage writes the three color channels into a caller-owned
// planar float image. The image is (re)allocated during the one-time size
// negotiation; rows are plain copies including the symmetric margin, with
// no numeric conversion.
type WriteImage3Stage struct {
	baseStage
	img *image.Image3[float32]
}

// NewWriteImage3Stage creates a 3-plane output stage writing into img.
func NewWriteImage3Stage(img *image.Image3[float32]) (*WriteImage3Stage, error) {
	if img == nil {
		return nil, errors.New("nil destination image")
	}
	return &WriteImage3Stage{img: img}, nil
}

// SetInputSizes reallocates the destination to the negotiated dimensions.
func (s *WriteImage3Stage) SetInputSizes(sizes [][2]int) error {
	if len(sizes) < 3 {
		return fmt.Errorf("need at least 3 channels, got %d", len(sizes))
	}
	for c := 1; c < 3; c++ {
		if sizes[c] != sizes[0] {
			return fmt.Errorf("channel %d size %dx%d differs from %dx%d",
				c, sizes[c][0], sizes[c][1], sizes[0][0], sizes[0][1])
		}
	}
	*s.img = *image.NewImage3[float32](sizes[0][0], sizes[0][1])
	return nil
}

// ChannelMode reports the three color channels as inputs.
func (s *WriteImage3Stage) ChannelMode(c int) ChannelMode {
	if c < 3 {
		return ChannelModeInput
	}
	return ChannelModeIgnored
}

// Name returns the diagnostic identifier of the stage.
func (s *WriteImage3Stage) Name() string { return "WriteImage3" }

// ProcessRow copies one extended row per color plane.
func (s *WriteImage3Stage) ProcessRow(rows RowInfo, xextra, xsize, xpos, ypos, threadID int) {
	if ypos >= s.img.Height() {
		return
	}
	for c := range 3 {
		copy(s.img.PlaneRow(c, ypos)[xpos-xextra:], rows.Row(c)[:xsize+2*xextra])
	}
}

// WriteImageBundleStage writes every channel into a caller-owned
// ImageBundle: channels 0..2 into the color planes, the rest into the
// bundle's auxiliary channel list. The one-time size negotiation
// reallocates planes and the channel list while preserving an externally
// assigned color encoding.
type WriteImageBundleStage struct {
	baseStage
	bundle   *ImageBundle
	encoding ColorEncoding
}

// NewWriteImageBundleStage creates a structured output stage writing into
// bundle. When encoding is ColorEncodingUnknown, the bundle's previously
// assigned encoding survives reallocation; otherwise encoding replaces it.
func NewWriteImageBundleStage(bundle *ImageBundle, encoding ColorEncoding) (*WriteImageBundleStage, error) {
	if bundle == nil {
		return nil, errors.New("nil destination bundle")
	}
	return &WriteImageBundleStage{bundle: bundle, encoding: encoding}, nil
}

// SetInputSizes reallocates the color planes and the auxiliary channel list
// to the negotiated dimensions.
func (s *WriteImageBundleStage) SetInputSizes(sizes [][2]int) error {
	if len(sizes) < 3 {
		return fmt.Errorf("need at least 3 channels, got %d", len(sizes))
	}
	for c := 1; c < len(sizes); c++ {
		if sizes[c] != sizes[0] {
			return fmt.Errorf("channel %d size %dx%d differs from %dx%d",
				c, sizes[c][0], sizes[c][1], sizes[0][0], sizes[0][1])
		}
	}
	encoding := s.encoding
	if encoding == ColorEncodingUnknown {
		encoding = s.bundle.ColorEncoding()
	}
	s.bundle.SetFromImage(image.NewImage3[float32](sizes[0][0], sizes[0][1]), encoding)
	extra := make([]*image.Image[float32], 0, len(sizes)-3)
	for c := 3; c < len(sizes); c++ {
		extra = append(extra, image.NewImage[float32](sizes[c][0], sizes[c][1]))
	}
	s.bundle.SetExtraChannels(extra)
	return nil
}

// ChannelMode reports every channel as input.
func (s *WriteImageBundleStage) ChannelMode(c int) ChannelMode {
	return ChannelModeInput
}

// Name returns the diagnostic identifier of the stage.
func (s *WriteImageBundleStage) Name() string { return "WriteImageBundle" }

// ProcessRow copies one extended row per color plane and auxiliary channel.
func (s *WriteImageBundleStage) ProcessRow(rows RowInfo, xextra, xsize, xpos, ypos, threadID int) {
	if ypos >= s.bundle.Height() {
		return
	}
	n := xsize + 2*xextra
	for c := range 3 {
		copy(s.bundle.Color().PlaneRow(c, ypos)[xpos-xextra:], rows.Row(c)[:n])
	}
	for ec := range s.bundle.NumExtraChannels() {
		copy(s.bundle.ExtraChannel(ec).Row(ypos)[xpos-xextra:], rows.Row(3+ec)[:n])
	}
}
