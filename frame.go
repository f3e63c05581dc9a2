// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// PixelFormat identifies the channel layout of a frame's pixel data.
type PixelFormat uint8

const (
	// FormatRGBA8 is the standard RGBA format with 8 bits per channel.
	FormatRGBA8 PixelFormat = iota

	// FormatBGRA8 is BGRA order, common for decoder output and surface
	// presentation.
	FormatBGRA8
)

// String returns a human-readable name for the format.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
func (f PixelFormat) BytesPerPixel() int {
	return 4
}

// Frame is a decoded video frame: a rectangular pixel buffer of known
// width, height and pixel format. The engine neither decodes nor encodes
// containers; frames arrive already decoded and leave in the same format.
type Frame struct {
	width  int
	height int
	format PixelFormat
	data   []uint8 // 4 bytes per pixel, row by row
}

// NewFrame creates a zeroed frame with the given dimensions in RGBA8.
func NewFrame(width, height int) *Frame {
	return NewFrameWithFormat(width, height, FormatRGBA8)
}

// NewFrameWithFormat creates a zeroed frame with the given dimensions and
// pixel format.
func NewFrameWithFormat(width, height int, format PixelFormat) *Frame {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Frame{
		width:  width,
		height: height,
		format: format,
		data:   make([]uint8, width*height*format.BytesPerPixel()),
	}
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int {
	return f.width
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	return f.height
}

// Format returns the frame's pixel format.
func (f *Frame) Format() PixelFormat {
	return f.format
}

// Data returns the raw pixel data. The slice is owned by the frame; callers
// must not hold it across a tick.
func (f *Frame) Data() []uint8 {
	return f.data
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := NewFrameWithFormat(f.width, f.height, f.format)
	copy(c.data, f.data)
	return c
}

// CopyFrom copies pixel data from src. The dimensions and format must match.
func (f *Frame) CopyFrom(src *Frame) error {
	if src == nil {
		return ErrNilFrame
	}
	if src.width != f.width || src.height != f.height || src.format != f.format {
		return fmt.Errorf("%w: have %dx%d %s, got %dx%d %s",
			ErrFrameSizeMismatch, f.width, f.height, f.format,
			src.width, src.height, src.format)
	}
	copy(f.data, src.data)
	return nil
}

// SetPixel sets a single pixel. Coordinates outside the frame are ignored.
// r, g, b, a are in channel order regardless of the underlying format.
func (f *Frame) SetPixel(x, y int, r, g, b, a uint8) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	i := (y*f.width + x) * 4
	if f.format == FormatBGRA8 {
		r, b = b, r
	}
	f.data[i+0] = r
	f.data[i+1] = g
	f.data[i+2] = b
	f.data[i+3] = a
}

// Pixel returns the color of a single pixel in r, g, b, a channel order.
// Coordinates outside the frame return zeros.
func (f *Frame) Pixel(x, y int) (r, g, b, a uint8) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return 0, 0, 0, 0
	}
	i := (y*f.width + x) * 4
	r, g, b, a = f.data[i+0], f.data[i+1], f.data[i+2], f.data[i+3]
	if f.format == FormatBGRA8 {
		r, b = b, r
	}
	return r, g, b, a
}

// ToImage converts the frame to an image.RGBA.
func (f *Frame) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	if f.format == FormatRGBA8 {
		copy(img.Pix, f.data)
		return img
	}
	for i := 0; i < len(f.data); i += 4 {
		img.Pix[i+0] = f.data[i+2]
		img.Pix[i+1] = f.data[i+1]
		img.Pix[i+2] = f.data[i+0]
		img.Pix[i+3] = f.data[i+3]
	}
	return img
}

// FrameFromImage creates an RGBA8 frame from an image.
func FrameFromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	fr := NewFrame(bounds.Dx(), bounds.Dy())
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == fr.width*4 {
		copy(fr.data, rgba.Pix)
		return fr
	}
	for y := 0; y < fr.height; y++ {
		for x := 0; x < fr.width; x++ {
			c := color.RGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
			fr.SetPixel(x, y, c.R, c.G, c.B, c.A)
		}
	}
	return fr
}

// SavePNG saves the frame to a PNG file. Intended for demos and tests.
func (f *Frame) SavePNG(path string) error {
	file, err := os.Create(path) //nolint:gosec // path is caller-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return png.Encode(file, f.ToImage())
}
