// Copyright 2025 The jpeg-xl Go Authors. SPDX-License-Identifier: Apache-2.0

package render

import (
	"errors"
	"fmt"

	"github.com/ajroetker/go-highway/hwy/contrib/image"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// Pipeline owns an ordered collection of output stages and exposes the
// negotiation and dispatch entry points the row-dispatch executor drives.
// It performs no locking of its own: concurrent ProcessRow calls rely on
// the executor partitioning destination regions disjointly and passing
// stable, unique thread ids.
type Pipeline struct {
	stages      []Stage
	numChannels int
	prepared    bool
}

// NewPipeline creates an empty pipeline for images with the given channel
// count (3 color channels plus any extra channels; gray images may use a
// single channel).
func NewPipeline(numChannels int) (*Pipeline, error) {
	if numChannels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", numChannels)
	}
	return &Pipeline{numChannels: numChannels}, nil
}

// AddStage appends a stage. Stages are invoked in insertion order.
func (p *Pipeline) AddStage(s Stage) {
	p.stages = append(p.stages, s)
}

// NumChannels returns the negotiated channel count.
func (p *Pipeline) NumChannels() int {
	return p.numChannels
}

// ChannelModes queries every stage for every channel once and returns the
// union: a channel is an input if any stage reads it.
func (p *Pipeline) ChannelModes() []ChannelMode {
	modes := make([]ChannelMode, p.numChannels)
	for _, s := range p.stages {
		for c := range modes {
			if s.ChannelMode(c) == ChannelModeInput {
				modes[c] = ChannelModeInput
			}
		}
	}
	return modes
}

// SetInputSizes runs the one-time size negotiation on every stage.
func (p *Pipeline) SetInputSizes(sizes [][2]int) error {
	if len(sizes) != p.numChannels {
		return fmt.Errorf("got %d channel sizes, want %d", len(sizes), p.numChannels)
	}
	for _, s := range p.stages {
		if err := s.SetInputSizes(sizes); err != nil {
			return fmt.Errorf("set input sizes on %s: %w", s.Name(), err)
		}
	}
	return nil
}

// PrepareForThreads allocates thread scratch on every stage. Any failure
// aborts setup; no row may be processed afterwards.
func (p *Pipeline) PrepareForThreads(numThreads int) error {
	if numThreads < 1 {
		return fmt.Errorf("invalid thread count %d", numThreads)
	}
	for _, s := range p.stages {
		if err := s.PrepareForThreads(numThreads); err != nil {
			return fmt.Errorf("prepare %s for %d threads: %w", s.Name(), numThreads, err)
		}
	}
	p.prepared = true
	return nil
}

// ProcessRow forwards one row to every stage.
func (p *Pipeline) ProcessRow(rows RowInfo, xextra, xsize, xpos, ypos, threadID int) {
	for _, s := range p.stages {
		s.ProcessRow(rows, xextra, xsize, xpos, ypos, threadID)
	}
}

// Close releases every stage's external resources, returning the first
// error encountered.
func (p *Pipeline) Close() error {
	var firstErr error
	for _, s := range p.stages {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", s.Name(), err)
		}
	}
	return firstErr
}

// ProcessImage drives the whole pipeline over planar channel data,
// modelling the external row-dispatch executor: it negotiates input sizes,
// prepares thread scratch if that has not happened yet, then partitions
// rows into contiguous groups processed concurrently on pool. A nil pool
// runs everything on the calling goroutine with thread id 0.
func (p *Pipeline) ProcessImage(pool *workerpool.Pool, planes []*image.Image[float32]) error {
	if len(planes) != p.numChannels {
		return fmt.Errorf("got %d planes, want %d", len(planes), p.numChannels)
	}
	if len(planes) == 0 {
		return errors.New("no channel planes")
	}
	sizes := make([][2]int, len(planes))
	for c, pl := range planes {
		if pl == nil {
			return fmt.Errorf("nil plane for channel %d", c)
		}
		sizes[c] = [2]int{pl.Width(), pl.Height()}
	}
	if err := p.SetInputSizes(sizes); err != nil {
		return err
	}

	workers := 1
	if pool != nil {
		workers = pool.NumWorkers()
	}
	if !p.prepared {
		if err := p.PrepareForThreads(workers); err != nil {
			return err
		}
	}

	xsize := planes[0].Width()
	ysize := planes[0].Height()
	processRows := func(y0, y1, threadID int) {
		rows := make([][]float32, len(planes))
		for y := y0; y < y1; y++ {
			for c, pl := range planes {
				rows[c] = pl.Row(y)
			}
			p.ProcessRow(MakeRowInfo(rows), 0, xsize, 0, y, threadID)
		}
	}
	if pool == nil || workers == 1 {
		processRows(0, ysize, 0)
		return nil
	}

	// One work item per thread slot keeps thread ids stable and unique for
	// the lifetime of the prepared pipeline.
	rowsPer := (ysize + workers - 1) / workers
	pool.ParallelFor(workers, func(start, end int) {
		for t := start; t < end; t++ {
			y0 := t * rowsPer
			y1 := min(y0+rowsPer, ysize)
			if y0 < y1 {
				processRows(y0, y1, t)
			}
		}
	})
	return nil
}
