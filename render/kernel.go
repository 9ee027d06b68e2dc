// Copyright 2025 The jpeg-xl Go Authors. SPDX-License-Identifier: Apache-2.0

package render

import (
	"math"
	"math/bits"
	"unsafe"

	"github.com/ajroetker/go-highway/hwy"
)

// This file holds the per-pixel conversion kernels shared by the output
// stages. Each row kernel runs a vector main loop over full hwy lanes and a
// scalar tail for the remainder; the tail replicates the vector lane math
// operation for operation so both paths produce identical bytes.

// smallAlpha bounds the divisor during alpha un-premultiplication. Alpha
// values below it (including zero) divide by smallAlpha instead, so the
// degenerate alpha=0 case yields color * 2^26 rather than NaN or Inf.
const smallAlpha = 1.0 / (1 << 26)

// quantizeU8 is the scalar-tail equivalent of the clamp/scale/round/narrow
// vector sequence for 8-bit targets.
func quantizeU8(v float32) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(int32(float32(math.RoundToEven(float64(v * 255)))))
}

// quantizeU16 is the scalar-tail equivalent for 16-bit integer targets.
func quantizeU16(v float32) uint16 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint16(int32(float32(math.RoundToEven(float64(v * 65535)))))
}

// storeU8Row converts src[:n] to 8-bit samples in dst.
func storeU8Row(src []float32, dst []uint8, n int) {
	lanes := hwy.MaxLanes[float32]()
	zero := hwy.Zero[float32]()
	one := hwy.Set[float32](1)
	scale := hwy.Set[float32](255)
	quant := make([]int32, lanes)

	i := 0
	for ; i+lanes <= n; i += lanes {
		v := hwy.Mul(hwy.Clamp(hwy.Load(src[i:]), zero, one), scale)
		hwy.Store(hwy.ConvertToInt32(hwy.RoundToEven(v)), quant)
		for k := range lanes {
			dst[i+k] = uint8(quant[k])
		}
	}
	for ; i < n; i++ {
		dst[i] = quantizeU8(src[i])
	}
}

// storeU16Row converts src[:n] to 16-bit integer samples in dst.
func storeU16Row(src []float32, dst []uint16, n int) {
	lanes := hwy.MaxLanes[float32]()
	zero := hwy.Zero[float32]()
	one := hwy.Set[float32](1)
	scale := hwy.Set[float32](65535)
	quant := make([]int32, lanes)

	i := 0
	for ; i+lanes <= n; i += lanes {
		v := hwy.Mul(hwy.Clamp(hwy.Load(src[i:]), zero, one), scale)
		hwy.Store(hwy.ConvertToInt32(hwy.RoundToEven(v)), quant)
		for k := range lanes {
			dst[i+k] = uint16(quant[k])
		}
	}
	for ; i < n; i++ {
		dst[i] = quantizeU16(src[i])
	}
}

// storeF16Row demotes src[:n] to IEEE binary16 bit patterns in dst.
// Unlike the integer targets there is no clamping; out-of-range values
// overflow to infinity per the demotion rules.
func storeF16Row(src []float32, dst []uint16, n int) {
	lanes := hwy.MaxLanes[float32]()

	i := 0
	for ; i+lanes <= n; i += lanes {
		hwy.StoreF16(hwy.DemoteF32ToF16(hwy.Load(src[i:])), dst[i:])
	}
	for ; i < n; i++ {
		dst[i] = uint16(hwy.Float32ToFloat16(src[i]))
	}
}

// bswap16Row byte-swaps buf[:n] in place.
func bswap16Row(buf []uint16, n int) {
	for i := range n {
		buf[i] = bits.ReverseBytes16(buf[i])
	}
}

// bswapF32Row byte-swaps the float32 bit patterns of buf[:n] in place.
func bswapF32Row(buf []float32, n int) {
	for i := range n {
		buf[i] = math.Float32frombits(bits.ReverseBytes32(math.Float32bits(buf[i])))
	}
}

// unpremultiplyRow recovers straight color from premultiplied samples for n
// interleaved pixels. Pixels are numChannels wide with alpha last; the
// first numColor channels are divided by max(alpha, smallAlpha).
func unpremultiplyRow(px []float32, numColor, numChannels, n int) {
	alphaOff := numChannels - 1
	for i, j := 0, 0; i < n; i, j = i+1, j+numChannels {
		a := px[j+alphaOff]
		if a < smallAlpha {
			a = smallAlpha
		}
		m := 1 / a
		for c := range numColor {
			px[j+c] *= m
		}
	}
}

// u16Bytes reinterprets s as its native-endian byte representation.
func u16Bytes(s []uint16) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*2)
}

// f32Bytes reinterprets s as its native-endian byte representation.
func f32Bytes(s []float32) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
}
