// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestFrame_PixelRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format PixelFormat
	}{
		{"rgba", FormatRGBA8},
		{"bgra", FormatBGRA8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrameWithFormat(4, 4, tt.format)
			f.SetPixel(1, 2, 10, 20, 30, 40)
			r, g, b, a := f.Pixel(1, 2)
			if r != 10 || g != 20 || b != 30 || a != 40 {
				t.Errorf("Pixel = (%d,%d,%d,%d), want (10,20,30,40)", r, g, b, a)
			}
		})
	}
}

func TestFrame_BGRAStorageOrder(t *testing.T) {
	f := NewFrameWithFormat(1, 1, FormatBGRA8)
	f.SetPixel(0, 0, 10, 20, 30, 40)
	d := f.Data()
	if d[0] != 30 || d[1] != 20 || d[2] != 10 || d[3] != 40 {
		t.Errorf("bytes = %v, want [30 20 10 40]", d[:4])
	}
}

func TestFrame_CloneIsIndependent(t *testing.T) {
	f := NewFrame(2, 2)
	f.SetPixel(0, 0, 255, 0, 0, 255)
	c := f.Clone()
	c.SetPixel(0, 0, 0, 255, 0, 255)
	if r, _, _, _ := f.Pixel(0, 0); r != 255 {
		t.Error("clone mutation leaked into original")
	}
}

func TestFrame_CopyFromSizeMismatch(t *testing.T) {
	dst := NewFrame(2, 2)
	src := NewFrame(3, 2)
	if err := dst.CopyFrom(src); !errors.Is(err, ErrFrameSizeMismatch) {
		t.Errorf("err = %v, want ErrFrameSizeMismatch", err)
	}
}

func TestFrame_ImageRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(2, 1, color.RGBA{R: 9, G: 8, B: 7, A: 255})

	f := FrameFromImage(img)
	if f.Width() != 3 || f.Height() != 2 {
		t.Fatalf("dims = %dx%d", f.Width(), f.Height())
	}
	if r, g, b, _ := f.Pixel(2, 1); r != 9 || g != 8 || b != 7 {
		t.Errorf("Pixel = (%d,%d,%d)", r, g, b)
	}

	back := f.ToImage()
	if got := back.RGBAAt(2, 1); got.R != 9 || got.G != 8 || got.B != 7 {
		t.Errorf("RGBAAt = %+v", got)
	}
}
