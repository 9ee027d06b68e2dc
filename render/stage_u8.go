// Copyright 2025 The jpeg-xl Go Authors. SPDX-License-Identifier: Apache-2.0

package render

import (
	"errors"
	"fmt"

	"github.com/ajroetker/go-highway/hwy"
)

// WriteU8Stage writes 3- or 4-channel interleaved 8-bit samples into a
// caller-owned byte buffer with a fixed stride. Each of R, G, B and alpha is
// clamped to [0,1], scaled by 255 and rounded to nearest even; when the
// buffer is RGBA but the image has no alpha channel, the alpha byte is 255.
type WriteU8Stage struct {
	baseStage
	dst          []byte
	stride       int
	height       int
	rgba         bool
	hasAlpha     bool
	alphaChannel int
}

// NewWriteU8Stage creates an interleaved-byte output stage. dst must hold at
// least stride*height bytes; rows beyond height are silently skipped.
func NewWriteU8Stage(dst []byte, stride, height int, rgba, hasAlpha bool, alphaChannel int) (*WriteU8Stage, error) {
	if stride <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid buffer geometry stride=%d height=%d", stride, height)
	}
	if len(dst) < stride*height {
		return nil, fmt.Errorf("buffer too small: %d bytes for stride=%d height=%d", len(dst), stride, height)
	}
	if hasAlpha && alphaChannel < 3 {
		return nil, errors.New("alpha channel index collides with color channels")
	}
	return &WriteU8Stage{
		dst:          dst,
		stride:       stride,
		height:       height,
		rgba:         rgba,
		hasAlpha:     hasAlpha,
		alphaChannel: alphaChannel,
	}, nil
}

// ChannelMode reports the three color channels, plus alpha when present, as
// inputs.
func (s *WriteU8Stage) ChannelMode(c int) ChannelMode {
	if c < 3 || (s.hasAlpha && c == s.alphaChannel) {
		return ChannelModeInput
	}
	return ChannelModeIgnored
}

// Name returns the diagnostic identifier of the stage.
func (s *WriteU8Stage) Name() string { return "WriteU8" }

// ProcessRow converts one row. The destination region for a given
// (xpos, ypos) never overlaps between concurrent calls, so no locking is
// needed. The symmetric margin is ignored; only [xpos, xpos+xsize) is
// written.
func (s *WriteU8Stage) ProcessRow(rows RowInfo, xextra, xsize, xpos, ypos, threadID int) {
	if ypos >= s.height {
		return
	}
	bytesPer := 3
	if s.rgba {
		bytesPer = 4
	}
	rowR := rows.Row(0)[xextra:]
	rowG := rows.Row(1)[xextra:]
	rowB := rows.Row(2)[xextra:]
	var rowA []float32
	if s.rgba && s.hasAlpha {
		rowA = rows.Row(s.alphaChannel)[xextra:]
	}
	out := s.dst[ypos*s.stride+bytesPer*xpos:]

	lanes := hwy.MaxLanes[float32]()
	zero := hwy.Zero[float32]()
	one := hwy.Set[float32](1)
	scale := hwy.Set[float32](255)
	qr := make([]int32, lanes)
	qg := make([]int32, lanes)
	qb := make([]int32, lanes)
	qa := make([]int32, lanes)

	i := 0
	for ; i+lanes <= xsize; i += lanes {
		quantLanes(rowR[i:], zero, one, scale, qr)
		quantLanes(rowG[i:], zero, one, scale, qg)
		quantLanes(rowB[i:], zero, one, scale, qb)
		if rowA != nil {
			quantLanes(rowA[i:], zero, one, scale, qa)
		}
		for k := range lanes {
			o := bytesPer * (i + k)
			out[o] = uint8(qr[k])
			out[o+1] = uint8(qg[k])
			out[o+2] = uint8(qb[k])
			if s.rgba {
				if rowA != nil {
					out[o+3] = uint8(qa[k])
				} else {
					out[o+3] = 255
				}
			}
		}
	}
	// Scalar remainder, bit-identical to the vector path above.
	for ; i < xsize; i++ {
		o := bytesPer * i
		out[o] = quantizeU8(rowR[i])
		out[o+1] = quantizeU8(rowG[i])
		out[o+2] = quantizeU8(rowB[i])
		if s.rgba {
			if rowA != nil {
				out[o+3] = quantizeU8(rowA[i])
			} else {
				out[o+3] = 255
			}
		}
	}
}

// quantLanes converts one vector of samples to quantized 8-bit values held
// in int32 lanes.
func quantLanes(src []float32, zero, one, scale hwy.Vec[float32], q []int32) {
	v := hwy.Mul(hwy.Clamp(hwy.Load(src), zero, one), scale)
	hwy.Store(hwy.ConvertToInt32(hwy.RoundToEven(v)), q)
}
