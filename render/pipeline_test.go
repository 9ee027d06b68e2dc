package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ajroetker/go-highway/hwy/contrib/image"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

func makePlanes(w, h, n int) []*image.Image[float32] {
	planes := make([]*image.Image[float32], n)
	for c := range planes {
		planes[c] = image.NewImage[float32](w, h)
		for y := range h {
			row := planes[c].Row(y)
			for x := range w {
				row[x] = float32(c)*0.1 + float32(y*w+x)/float32(w*h)
			}
		}
	}
	return planes
}

func renderU8(t *testing.T, pool *workerpool.Pool, planes []*image.Image[float32], w, h int) []byte {
	t.Helper()
	dst := make([]byte, 3*w*h)
	stage, err := NewWriteU8Stage(dst, 3*w, h, false, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPipeline(len(planes))
	if err != nil {
		t.Fatal(err)
	}
	p.AddStage(stage)
	if err := p.ProcessImage(pool, planes); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	return dst
}

func TestPipelineConcurrentMatchesSerial(t *testing.T) {
	const w, h = 33, 17
	planes := makePlanes(w, h, 3)

	serial := renderU8(t, nil, planes, w, h)

	pool := workerpool.New(4)
	defer pool.Close()
	concurrent := renderU8(t, pool, planes, w, h)

	if !bytes.Equal(serial, concurrent) {
		t.Error("concurrent output differs from serial output")
	}
}

func TestPipelineChannelModes(t *testing.T) {
	p, err := NewPipeline(5)
	if err != nil {
		t.Fatal(err)
	}
	u8, err := NewWriteU8Stage(make([]byte, 3), 3, 1, false, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	col := newCollector(1, 1, 2, TypeFloat32)
	cb, err := NewWriteCallbackStage(ImageFormat{
		Width: 1, Height: 1, NumChannels: 2,
		DataType: TypeFloat32, HasAlpha: true, AlphaChannel: 4,
	}, col.sink())
	if err != nil {
		t.Fatal(err)
	}
	p.AddStage(u8)
	p.AddStage(cb)

	// Channels 0..2 feed the interleaved stage, channel 4 is the callback
	// stage's alpha; channel 3 is read by nobody.
	want := []ChannelMode{
		ChannelModeInput, ChannelModeInput, ChannelModeInput,
		ChannelModeIgnored, ChannelModeInput,
	}
	modes := p.ChannelModes()
	for c, m := range want {
		if modes[c] != m {
			t.Errorf("channel %d: got %v, want %v", c, modes[c], m)
		}
	}
}

func TestPipelinePrepareErrorNamesStage(t *testing.T) {
	failing := PixelSink{
		Init: func(numThreads, maxPixels int) (any, error) {
			return nil, errors.New("out of handles")
		},
		Run: func(ctx any, threadID, x, y, numPixels int, samples []byte) {},
	}
	cb, err := NewWriteCallbackStage(ImageFormat{
		Width: 1, Height: 1, NumChannels: 1, DataType: TypeUint8,
	}, failing)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPipeline(1)
	if err != nil {
		t.Fatal(err)
	}
	p.AddStage(cb)

	err = p.PrepareForThreads(2)
	if err == nil {
		t.Fatal("expected prepare error")
	}
	if !strings.Contains(err.Error(), cb.Name()) {
		t.Errorf("error %q does not name the failing stage", err)
	}
}

func TestPipelineSetInputSizesValidation(t *testing.T) {
	p, err := NewPipeline(3)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetInputSizes([][2]int{{1, 1}}); err == nil {
		t.Error("wrong channel count: expected error")
	}
	if _, err := NewPipeline(0); err == nil {
		t.Error("zero channels: expected error")
	}
}

func TestPipelineFanOut(t *testing.T) {
	// Two destinations fed by one pass over the planes.
	const w, h = 4, 2
	planes := makePlanes(w, h, 3)

	img := image.NewImage3[float32](0, 0)
	imgStage, err := NewWriteImage3Stage(img)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]byte, 3*w*h)
	u8Stage, err := NewWriteU8Stage(dst, 3*w, h, false, false, 0)
	if err != nil {
		t.Fatal(err)
	}

	p, err := NewPipeline(3)
	if err != nil {
		t.Fatal(err)
	}
	p.AddStage(imgStage)
	p.AddStage(u8Stage)
	if err := p.ProcessImage(nil, planes); err != nil {
		t.Fatal(err)
	}

	for y := range h {
		for x := range w {
			if got, want := img.PlaneRow(0, y)[x], planes[0].Row(y)[x]; got != want {
				t.Fatalf("plane copy (%d,%d): got %v, want %v", x, y, got, want)
			}
			if got, want := dst[y*3*w+3*x], quantizeU8(planes[0].Row(y)[x]); got != want {
				t.Fatalf("interleaved byte (%d,%d): got %d, want %d", x, y, got, want)
			}
		}
	}
}
