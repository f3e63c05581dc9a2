// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import (
	"math"
	"testing"
)

func gradientFrame(w, h int) *Frame {
	f := NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.SetPixel(x, y, uint8(x*255/(w-1)), uint8(y*255/(h-1)), 128, 255)
		}
	}
	return f
}

func absDiff(a, b uint8) int {
	return int(math.Abs(float64(a) - float64(b)))
}

func TestSoftwareCompositor_IdentityWithoutPoints(t *testing.T) {
	src := gradientFrame(32, 24)
	dst := NewFrame(32, 24)
	mesh, err := GenerateMesh(8)
	if err != nil {
		t.Fatal(err)
	}
	snap := &Snapshot{Params: WarpParameters{GlobalStrength: 1, Kernel: KernelSmooth, QualityTier: TierFinal}}

	sc := NewSoftwareCompositor()
	if err := sc.Composite(dst, src, mesh, snap); err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			sr, sg, sb, sa := src.Pixel(x, y)
			dr, dg, db, da := dst.Pixel(x, y)
			if absDiff(sr, dr) > 1 || absDiff(sg, dg) > 1 || absDiff(sb, db) > 1 || sa != da {
				t.Fatalf("pixel (%d,%d): src (%d,%d,%d,%d) dst (%d,%d,%d,%d)",
					x, y, sr, sg, sb, sa, dr, dg, db, da)
			}
		}
	}
}

func TestSoftwareCompositor_WarpMovesCenterOnly(t *testing.T) {
	src := gradientFrame(64, 64)
	dst := NewFrame(64, 64)
	mesh, err := GenerateMesh(16)
	if err != nil {
		t.Fatal(err)
	}
	snap := &Snapshot{
		Points: []ControlPoint{{
			ID: 1, Position: Pt(0.5, 0.5), Kind: PointStretch,
			Strength: 2, Radius: 0.4,
		}},
		Params: WarpParameters{GlobalStrength: 2, Kernel: KernelLinear, QualityTier: TierFinal},
	}

	sc := NewSoftwareCompositor()
	if err := sc.Composite(dst, src, mesh, snap); err != nil {
		t.Fatal(err)
	}

	// Corners are far outside every influence radius: identity.
	for _, xy := range [][2]int{{0, 0}, {63, 0}, {0, 63}, {63, 63}} {
		sr, sg, sb, _ := src.Pixel(xy[0], xy[1])
		dr, dg, db, _ := dst.Pixel(xy[0], xy[1])
		if absDiff(sr, dr) > 1 || absDiff(sg, dg) > 1 || absDiff(sb, db) > 1 {
			t.Errorf("corner (%d,%d) changed: (%d,%d,%d) -> (%d,%d,%d)",
				xy[0], xy[1], sr, sg, sb, dr, dg, db)
		}
	}

	// Somewhere inside the radius the image must have changed.
	changed := false
	for y := 20; y < 44 && !changed; y++ {
		for x := 20; x < 44; x++ {
			sr, _, _, _ := src.Pixel(x, y)
			dr, _, _, _ := dst.Pixel(x, y)
			if absDiff(sr, dr) > 2 {
				changed = true
				break
			}
		}
	}
	if !changed {
		t.Error("warp had no visible effect near the stretch point")
	}
}

func TestSoftwareCompositor_TierQuantization(t *testing.T) {
	src := gradientFrame(16, 16)
	mesh, err := GenerateMesh(8)
	if err != nil {
		t.Fatal(err)
	}
	sc := NewSoftwareCompositor()

	dst := NewFrame(16, 16)
	snap := &Snapshot{Params: WarpParameters{GlobalStrength: 1, QualityTier: TierDraft}}
	if err := sc.Composite(dst, src, mesh, snap); err != nil {
		t.Fatal(err)
	}

	// Draft output holds at most 2^5 distinct values per color channel.
	seen := map[uint8]bool{}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			r, _, _, a := dst.Pixel(x, y)
			seen[r] = true
			if a != 255 {
				t.Fatalf("alpha quantized at (%d,%d): %d", x, y, a)
			}
		}
	}
	if len(seen) > 32 {
		t.Errorf("draft tier produced %d distinct red values, want <= 32", len(seen))
	}
}

func TestSoftwareCompositor_ResizesViaIdentityFill(t *testing.T) {
	src := gradientFrame(32, 32)
	dst := NewFrame(16, 16)
	mesh, err := GenerateMesh(8)
	if err != nil {
		t.Fatal(err)
	}
	snap := &Snapshot{Params: WarpParameters{GlobalStrength: 1, QualityTier: TierFinal}}

	sc := NewSoftwareCompositor()
	if err := sc.Composite(dst, src, mesh, snap); err != nil {
		t.Fatal(err)
	}

	// The downsampled gradient keeps its endpoints.
	r0, _, _, _ := dst.Pixel(0, 0)
	r1, _, _, _ := dst.Pixel(15, 0)
	if r0 > 2 || r1 < 253 {
		t.Errorf("gradient endpoints after resize: %d .. %d", r0, r1)
	}
}

func TestSoftwareCompositor_OnePixelTarget(t *testing.T) {
	// Degenerate output dimensions must not divide by zero; the single
	// pixel maps to uv (0,0).
	src := gradientFrame(8, 8)
	mesh, err := GenerateMesh(4)
	if err != nil {
		t.Fatal(err)
	}
	snap := &Snapshot{Params: WarpParameters{GlobalStrength: 1, QualityTier: TierFinal}}
	sc := NewSoftwareCompositor()

	for _, dims := range [][2]int{{1, 1}, {1, 8}, {8, 1}} {
		dst := NewFrame(dims[0], dims[1])
		if err := sc.Composite(dst, src, mesh, snap); err != nil {
			t.Fatalf("%dx%d target: %v", dims[0], dims[1], err)
		}
		if _, _, _, a := dst.Pixel(0, 0); a != 255 {
			t.Errorf("%dx%d target: pixel (0,0) alpha = %d, want 255", dims[0], dims[1], a)
		}
	}
}

func TestSoftwareCompositor_NilFrames(t *testing.T) {
	sc := NewSoftwareCompositor()
	mesh, _ := GenerateMesh(4)
	snap := &Snapshot{Params: DefaultParameters()}
	if err := sc.Composite(nil, NewFrame(4, 4), mesh, snap); err != ErrNilFrame {
		t.Errorf("nil target: err = %v", err)
	}
	if err := sc.Composite(NewFrame(4, 4), nil, mesh, snap); err != ErrNilFrame {
		t.Errorf("nil source: err = %v", err)
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		v    uint8
		bits int
		want uint8
	}{
		{0, 5, 0},
		{255, 5, 255},
		{0, 8, 0},
		{128, 8, 128},
		{255, 8, 255},
	}
	for _, tt := range tests {
		if got := quantize(tt.v, tt.bits); got != tt.want {
			t.Errorf("quantize(%d, %d) = %d, want %d", tt.v, tt.bits, got, tt.want)
		}
	}
	// Quantization is idempotent.
	for _, bits := range []int{5, 6, 8} {
		for v := 0; v <= 255; v += 7 {
			q := quantize(uint8(v), bits)
			if quantize(q, bits) != q {
				t.Fatalf("quantize not idempotent at v=%d bits=%d", v, bits)
			}
		}
	}
}
