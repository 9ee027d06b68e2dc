// Copyright 2025 The jpeg-xl Go Authors. SPDX-License-Identifier: Apache-2.0

package render

import (
	"errors"
	"fmt"

	"github.com/ajroetker/go-highway/hwy"
)

// WriteCallbackStage is the most general output variant: it interleaves the
// required channels into per-thread scratch, optionally un-premultiplies
// alpha, undoes a deferred orientation, converts to the target element type
// and delivers chunks of up to maxPixelsPerCall pixels to a foreign
// PixelSink.
//
// Vertical flips are handled by inverting the row index before chunking.
// Horizontal flips reverse pixel order within each chunk and mirror the
// destination x origin so chunks still tile correctly across the row.
// Transposition forces one sink call per pixel, since it changes which
// destination row receives which samples.
type WriteCallbackStage struct {
	baseStage
	format ImageFormat
	sink   PixelSink

	numColor  int
	wantAlpha bool
	flipX     bool
	flipY     bool
	transpose bool

	opaqueAlpha []float32

	runCtx   any
	prepared bool
	tempF    [][]float32
	tempU    [][]uint16
	tempB    [][]uint8
}

// NewWriteCallbackStage creates a callback-driven output stage for the
// given fully resolved format.
func NewWriteCallbackStage(format ImageFormat, sink PixelSink) (*WriteCallbackStage, error) {
	if format.UndoOrientation == 0 {
		format.UndoOrientation = OrientationIdentity
	}
	if err := format.validate(); err != nil {
		return nil, err
	}
	if !sink.valid() {
		return nil, errors.New("pixel sink needs Init and Run hooks")
	}
	s := &WriteCallbackStage{
		format:      format,
		sink:        sink,
		numColor:    format.numColor(),
		wantAlpha:   format.wantAlpha(),
		flipX:       format.UndoOrientation.FlipsX(),
		flipY:       format.UndoOrientation.FlipsY(),
		transpose:   format.UndoOrientation.Transposes(),
		opaqueAlpha: make([]float32, maxPixelsPerCall),
	}
	for i := range s.opaqueAlpha {
		s.opaqueAlpha[i] = 1
	}
	return s, nil
}

// ChannelMode reports the color channels the format needs, plus alpha when
// the image carries one.
func (s *WriteCallbackStage) ChannelMode(c int) ChannelMode {
	if c < s.numColor || (s.format.HasAlpha && c == s.format.AlphaChannel) {
		return ChannelModeInput
	}
	return ChannelModeIgnored
}

// Name returns the diagnostic identifier of the stage.
func (s *WriteCallbackStage) Name() string { return "WritePixelCB" }

// PrepareForThreads initializes the sink exactly once and allocates one
// scratch slot per worker thread, sized for maxPixelsPerCall pixels and
// rounded up to a whole number of vectors so the conversion loops never
// need a masked store.
func (s *WriteCallbackStage) PrepareForThreads(numThreads int) error {
	ctx, err := s.sink.Init(numThreads, maxPixelsPerCall)
	if err != nil {
		return fmt.Errorf("pixel sink init: %w", err)
	}
	if ctx == nil {
		return errors.New("pixel sink init returned no context")
	}
	s.runCtx = ctx
	s.prepared = true

	size := hwy.AlignedSize[float32](maxPixelsPerCall * s.format.NumChannels)
	s.tempF = make([][]float32, numThreads)
	for i := range s.tempF {
		s.tempF[i] = make([]float32, size)
	}
	switch s.format.DataType {
	case TypeUint16, TypeFloat16:
		s.tempU = make([][]uint16, numThreads)
		for i := range s.tempU {
			s.tempU[i] = make([]uint16, size)
		}
	case TypeUint8:
		s.tempB = make([][]uint8, numThreads)
		for i := range s.tempB {
			s.tempB[i] = make([]uint8, size)
		}
	}
	return nil
}

// Close releases the sink context. Safe to call more than once.
func (s *WriteCallbackStage) Close() error {
	if s.runCtx != nil && s.sink.Destroy != nil {
		s.sink.Destroy(s.runCtx)
	}
	s.runCtx = nil
	s.prepared = false
	return nil
}

// ProcessRow converts and delivers one row in chunks.
func (s *WriteCallbackStage) ProcessRow(rows RowInfo, xextra, xsize, xpos, ypos, threadID int) {
	if !s.prepared || ypos >= s.format.Height {
		return
	}
	f := &s.format
	var line [4][]float32
	for c := range s.numColor {
		line[c] = rows.Row(c)
	}
	var alphaLine []float32
	if f.HasAlpha {
		alphaLine = rows.Row(f.AlphaChannel)
	}
	y := ypos
	if s.flipY {
		y = f.Height - 1 - ypos
	}

	// Chunk indices are relative to xpos; clamp to the visible image.
	begin := -xextra
	if xpos+begin < 0 {
		begin = -xpos
	}
	limit := xextra + xsize
	if m := f.Width - xpos; m < limit {
		limit = m
	}

	temp := s.tempF[threadID]
	nc := f.NumChannels
	for x0 := begin; x0 < limit; x0 += maxPixelsPerCall {
		j := 0
		ix := 0
		for ; ix < maxPixelsPerCall && x0+ix < limit; ix++ {
			src := x0 + xextra + ix
			for c := range s.numColor {
				temp[j] = line[c][src]
				j++
			}
			if s.wantAlpha {
				if alphaLine != nil {
					temp[j] = alphaLine[src]
				} else {
					temp[j] = s.opaqueAlpha[ix]
				}
				j++
			}
		}
		xlen := ix
		xstart := xpos + x0
		count := xlen * nc

		if f.HasAlpha && s.wantAlpha && f.UnpremultiplyAlpha {
			unpremultiplyRow(temp, s.numColor, nc, xlen)
		}
		if s.flipX {
			for lo, hi := 0, (xlen-1)*nc; lo < hi; lo, hi = lo+nc, hi-nc {
				for c := range nc {
					temp[lo+c], temp[hi+c] = temp[hi+c], temp[lo+c]
				}
			}
			xstart = f.Width - xstart - xlen
		}

		var payload []byte
		switch f.DataType {
		case TypeFloat32:
			if f.SwapEndianness {
				bswapF32Row(temp, count)
			}
			payload = f32Bytes(temp[:count])
		case TypeUint16:
			tmp := s.tempU[threadID]
			storeU16Row(temp, tmp, count)
			if f.SwapEndianness {
				bswap16Row(tmp, count)
			}
			payload = u16Bytes(tmp[:count])
		case TypeFloat16:
			tmp := s.tempU[threadID]
			storeF16Row(temp, tmp, count)
			if f.SwapEndianness {
				bswap16Row(tmp, count)
			}
			payload = u16Bytes(tmp[:count])
		case TypeUint8:
			tmp := s.tempB[threadID]
			storeU8Row(temp, tmp, count)
			payload = tmp[:count]
		}
		s.deliver(threadID, xstart, y, xlen, payload)
	}
}

// deliver issues the sink calls for one converted chunk. When the undone
// orientation transposes, every pixel lands on a different destination row,
// so each one is delivered individually with x and y swapped.
func (s *WriteCallbackStage) deliver(threadID, xstart, y, xlen int, payload []byte) {
	if s.transpose {
		step := s.format.NumChannels * s.format.DataType.Size()
		for i := range xlen {
			s.sink.Run(s.runCtx, threadID, y, xstart+i, 1, payload[i*step:(i+1)*step])
		}
	} else {
		s.sink.Run(s.runCtx, threadID, xstart, y, xlen, payload)
	}
}
