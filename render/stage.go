// Copyright 2025 The jpeg-xl Go Authors. SPDX-License-Identifier: Apache-2.0

// Package render implements the output end of a JPEG XL decode render
// pipeline: it converts decoded planar float32 samples into externally
// consumable pixel formats.
//
// The decoder's row-dispatch executor negotiates channel modes and input
// sizes once, then invokes ProcessRow concurrently across worker threads.
// Each output stage pulls from per-channel row views and pushes to its
// configured destination: an interleaved byte buffer, a foreign pixel sink,
// or caller-owned planar images.
//
// Per-pixel math (clamping, quantization, half-float demotion) is written
// against hwy vectors with an explicit scalar tail that produces results
// bit-identical to the vector path.
package render

// maxPixelsPerCall bounds the number of pixels converted per sink call and
// sizes the per-thread scratch buffers allocated in PrepareForThreads.
const maxPixelsPerCall = 1024

// ChannelMode tells the executor whether a stage reads a given channel.
// Modes are negotiated once, before any row is processed.
type ChannelMode uint8

const (
	// ChannelModeIgnored marks a channel the stage never reads.
	ChannelModeIgnored ChannelMode = iota

	// ChannelModeInput marks a channel the stage reads during ProcessRow.
	ChannelModeInput
)

// String returns a human-readable name for the channel mode.
func (m ChannelMode) String() string {
	switch m {
	case ChannelModeIgnored:
		return "ignored"
	case ChannelModeInput:
		return "input"
	default:
		return "unknown"
	}
}

// RowInfo is a read-only view of one row group's channel data.
//
// Row(c) returns the samples of channel c over the extended index range
// [xpos-xextra, xpos+xsize+xextra): element 0 of the slice is the sample at
// x = xpos-xextra, element xextra is the sample at x = xpos. Stages that do
// not need the margin index from xextra onward.
type RowInfo struct {
	rows [][]float32
}

// MakeRowInfo wraps per-channel row slices into a RowInfo view.
// rows[c] must span the extended range described on RowInfo.
func MakeRowInfo(rows [][]float32) RowInfo {
	return RowInfo{rows: rows}
}

// Row returns the extended row slice for channel c.
func (r RowInfo) Row(c int) []float32 {
	return r.rows[c]
}

// NumChannels returns the number of channels in the view.
func (r RowInfo) NumChannels() int {
	return len(r.rows)
}

// Stage is one unit of per-row output transformation.
//
// A stage is created once per decode session with its destination fully
// resolved. The executor queries ChannelMode for every channel, negotiates
// input sizes for buffer-owning stages, prepares thread scratch exactly
// once, then calls ProcessRow many times, concurrently across threads.
//
// ProcessRow must be reentrant: the only mutable state it may touch is the
// scratch slot indexed by threadID and the destination region, which the
// executor guarantees is disjoint between concurrent calls. Rows at or
// beyond the declared image height are silently ignored.
type Stage interface {
	// ChannelMode reports whether the stage reads channel c.
	// It is a pure function of construction-time configuration.
	ChannelMode(c int) ChannelMode

	// SetInputSizes is the one-time size negotiation for buffer-owning
	// stages. sizes[c] holds {width, height} for channel c. Stages without
	// owned buffers ignore it.
	SetInputSizes(sizes [][2]int) error

	// PrepareForThreads allocates numThreads independent scratch regions
	// and invokes any external sink initializer exactly once. A returned
	// error aborts pipeline setup before any row is processed.
	PrepareForThreads(numThreads int) error

	// ProcessRow consumes xsize+2*xextra samples per required input channel
	// and writes the fully processed output for that row.
	ProcessRow(rows RowInfo, xextra, xsize, xpos, ypos, threadID int)

	// Name returns a diagnostic identifier for the stage.
	Name() string

	// Close releases any externally owned sink context. It is invoked once
	// at the end of the decode and is safe to call multiple times.
	Close() error
}

// baseStage provides no-op defaults for the optional Stage methods.
type baseStage struct{}

func (baseStage) SetInputSizes(sizes [][2]int) error     { return nil }
func (baseStage) PrepareForThreads(numThreads int) error { return nil }
func (baseStage) Close() error                           { return nil }
