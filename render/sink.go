// Copyright 2025 The jpeg-xl Go Authors. SPDX-License-Identifier: Apache-2.0

package render

// PixelSink is the foreign callback interface of the callback-driven output
// stage. It bundles three hooks owned by the stage and invoked at exactly
// three call sites: Init once from PrepareForThreads, Run many times during
// row processing, Destroy once from Close.
//
// Init receives the worker thread count and the maximum number of pixels a
// single Run call may carry, and returns an opaque context threaded through
// every subsequent hook invocation. Returning a nil context or an error
// aborts pipeline setup.
//
// Run receives the destination position (x, y), the pixel count, and the
// encoded samples: numPixels * NumChannels samples of the configured
// DataType, with endianness already applied. The slice aliases per-thread
// scratch and is only valid for the duration of the call. threadID is
// stable and unique per worker, so the sink may keep its own per-thread
// state without locking.
type PixelSink struct {
	Init    func(numThreads, maxPixels int) (context any, err error)
	Run     func(context any, threadID, x, y, numPixels int, samples []byte)
	Destroy func(context any)
}

func (s *PixelSink) valid() bool {
	return s.Init != nil && s.Run != nil
}
