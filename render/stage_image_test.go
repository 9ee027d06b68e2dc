package render

import (
	"testing"

	"github.com/ajroetker/go-highway/hwy/contrib/image"
	"github.com/google/go-cmp/cmp"
)

func TestWriteImage3Negotiation(t *testing.T) {
	img := image.NewImage3[float32](0, 0)
	stage, err := NewWriteImage3Stage(img)
	if err != nil {
		t.Fatal(err)
	}
	sizes := [][2]int{{6, 2}, {6, 2}, {6, 2}, {6, 2}}
	if err := stage.SetInputSizes(sizes); err != nil {
		t.Fatal(err)
	}
	if img.Width() != 6 || img.Height() != 2 {
		t.Fatalf("destination: got %dx%d, want 6x2", img.Width(), img.Height())
	}

	// Repeat negotiation with new dimensions reallocates.
	if err := stage.SetInputSizes([][2]int{{3, 1}, {3, 1}, {3, 1}}); err != nil {
		t.Fatal(err)
	}
	if img.Width() != 3 || img.Height() != 1 {
		t.Fatalf("reallocated destination: got %dx%d, want 3x1", img.Width(), img.Height())
	}
}

func TestWriteImage3CopiesMargin(t *testing.T) {
	img := image.NewImage3[float32](6, 2)
	stage, err := NewWriteImage3Stage(img)
	if err != nil {
		t.Fatal(err)
	}
	if err := stage.SetInputSizes([][2]int{{6, 2}, {6, 2}, {6, 2}}); err != nil {
		t.Fatal(err)
	}

	// Interior call: xpos=1 with one pixel of margin either side covers
	// columns 0 through 5.
	rows := make([][]float32, 3)
	for c := range rows {
		rows[c] = make([]float32, 6)
		for x := range rows[c] {
			rows[c][x] = float32(10*c + x)
		}
	}
	stage.ProcessRow(MakeRowInfo(rows), 1, 4, 1, 0, 0)

	for c := range 3 {
		got := img.PlaneRow(c, 0)[:6]
		if diff := cmp.Diff(rows[c], got); diff != "" {
			t.Errorf("plane %d row 0 (-want +got):\n%s", c, diff)
		}
	}

	// Rows past the height are alignment padding and must be ignored.
	stage.ProcessRow(MakeRowInfo(rows), 0, 6, 0, 2, 0)
}

func TestWriteImage3SizeMismatch(t *testing.T) {
	stage, err := NewWriteImage3Stage(image.NewImage3[float32](0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if err := stage.SetInputSizes([][2]int{{4, 4}, {4, 4}}); err == nil {
		t.Error("two channels: expected error")
	}
	if err := stage.SetInputSizes([][2]int{{4, 4}, {4, 4}, {2, 4}}); err == nil {
		t.Error("mismatched color plane: expected error")
	}
}

func TestWriteImageBundleNegotiation(t *testing.T) {
	bundle := NewImageBundle()
	bundle.SetColorEncoding(ColorEncodingLinearSRGB)
	stage, err := NewWriteImageBundleStage(bundle, ColorEncodingUnknown)
	if err != nil {
		t.Fatal(err)
	}
	sizes := [][2]int{{4, 3}, {4, 3}, {4, 3}, {4, 3}, {4, 3}}
	if err := stage.SetInputSizes(sizes); err != nil {
		t.Fatal(err)
	}
	if bundle.Width() != 4 || bundle.Height() != 3 {
		t.Fatalf("color planes: got %dx%d, want 4x3", bundle.Width(), bundle.Height())
	}
	if got := bundle.NumExtraChannels(); got != 2 {
		t.Fatalf("extra channels: got %d, want 2", got)
	}
	if got := bundle.ExtraChannel(0).Width(); got != 4 {
		t.Errorf("extra channel width: got %d, want 4", got)
	}
	// Unknown stage encoding keeps the bundle's own tag alive across
	// reallocation.
	if got := bundle.ColorEncoding(); got != ColorEncodingLinearSRGB {
		t.Errorf("encoding: got %v, want %v", got, ColorEncodingLinearSRGB)
	}

	if err := stage.SetInputSizes([][2]int{{4, 3}, {4, 3}, {4, 3}, {2, 3}}); err == nil {
		t.Error("mismatched extra channel: expected error")
	}
}

func TestWriteImageBundleEncodingOverride(t *testing.T) {
	bundle := NewImageBundle()
	bundle.SetColorEncoding(ColorEncodingLinearSRGB)
	stage, err := NewWriteImageBundleStage(bundle, ColorEncodingSRGB)
	if err != nil {
		t.Fatal(err)
	}
	if err := stage.SetInputSizes([][2]int{{2, 2}, {2, 2}, {2, 2}}); err != nil {
		t.Fatal(err)
	}
	if got := bundle.ColorEncoding(); got != ColorEncodingSRGB {
		t.Errorf("encoding: got %v, want %v", got, ColorEncodingSRGB)
	}
}

func TestWriteImageBundleCopiesChannels(t *testing.T) {
	bundle := NewImageBundle()
	stage, err := NewWriteImageBundleStage(bundle, ColorEncodingSRGB)
	if err != nil {
		t.Fatal(err)
	}
	const w, h = 5, 2
	sizes := make([][2]int, 4)
	for c := range sizes {
		sizes[c] = [2]int{w, h}
	}
	if err := stage.SetInputSizes(sizes); err != nil {
		t.Fatal(err)
	}

	rows := make([][]float32, 4)
	for c := range rows {
		rows[c] = make([]float32, w)
	}
	for y := range h {
		for c := range rows {
			for x := range w {
				rows[c][x] = float32(100*c + 10*y + x)
			}
		}
		stage.ProcessRow(MakeRowInfo(rows), 0, w, 0, y, 0)

		for c := range 3 {
			for x := range w {
				want := float32(100*c + 10*y + x)
				if got := bundle.Color().PlaneRow(c, y)[x]; got != want {
					t.Fatalf("color plane %d (%d,%d): got %v, want %v", c, x, y, got, want)
				}
			}
		}
		for x := range w {
			want := float32(300 + 10*y + x)
			if got := bundle.ExtraChannel(0).Row(y)[x]; got != want {
				t.Fatalf("extra channel (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}

	if got := stage.ChannelMode(7); got != ChannelModeInput {
		t.Errorf("channel 7: got %v, want input", got)
	}
}
