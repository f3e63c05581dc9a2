// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import "math"

// SoftwareCompositor is the CPU frame compositor. It forward-rasterizes the
// displaced mesh over the target: for every triangle, output positions come
// from the displaced vertex UVs and texture-sample coordinates from the
// original vertex UVs, interpolated barycentrically per pixel and sampled
// bilinearly with edge-clamped addressing.
//
// It is always available and serves both as the engine's fallback when no
// GPU compositor is registered (or when one declines a frame) and as the
// offline exporter's render path.
//
// SoftwareCompositor is not safe for concurrent use; the engine guarantees
// at most one Composite call in flight.
type SoftwareCompositor struct {
	displaced []Point // scratch, reused across ticks
}

// NewSoftwareCompositor creates a software compositor.
func NewSoftwareCompositor() *SoftwareCompositor {
	return &SoftwareCompositor{}
}

// Name returns "software".
func (sc *SoftwareCompositor) Name() string { return "software" }

// Init is a no-op; the software path needs no resources.
func (sc *SoftwareCompositor) Init() error { return nil }

// Close is a no-op.
func (sc *SoftwareCompositor) Close() {}

// Composite implements the Compositor interface on the CPU.
func (sc *SoftwareCompositor) Composite(target, source *Frame, mesh *Mesh, snap *Snapshot) error {
	if target == nil || source == nil {
		return ErrNilFrame
	}

	sc.displaced = DisplaceMesh(sc.displaced, mesh, snap)

	// Uncovered output pixels (boundary contraction can pull the mesh off
	// the frame edge) fall back to an identity passthrough of the source,
	// so the warp degrades gracefully instead of exposing background.
	identityFill(target, source)

	bits := snap.Params.QualityTier.ColorBits()

	for tri := 0; tri < len(mesh.Indices); tri += 3 {
		i0 := mesh.Indices[tri+0]
		i1 := mesh.Indices[tri+1]
		i2 := mesh.Indices[tri+2]
		rasterizeTriangle(target, source,
			sc.displaced[i0], sc.displaced[i1], sc.displaced[i2],
			mesh.Vertices[i0], mesh.Vertices[i1], mesh.Vertices[i2],
			bits)
	}
	return nil
}

// identityFill writes source into target with no deformation, resampling
// bilinearly when the dimensions differ.
func identityFill(target, source *Frame) {
	if target.Width() == source.Width() && target.Height() == source.Height() &&
		target.Format() == source.Format() {
		copy(target.Data(), source.Data())
		return
	}
	w, h := target.Width(), target.Height()
	for y := 0; y < h; y++ {
		v := 0.0
		if h > 1 {
			v = float64(y) / float64(h-1)
		}
		for x := 0; x < w; x++ {
			u := 0.0
			if w > 1 {
				u = float64(x) / float64(w-1)
			}
			r, g, b, a := sampleBilinear(source, u, v)
			target.SetPixel(x, y, r, g, b, a)
		}
	}
}

// rasterizeTriangle scans the displaced triangle's bounding box in target
// pixel space, interpolating source UVs barycentrically for covered pixels.
func rasterizeTriangle(target, source *Frame, d0, d1, d2, s0, s1, s2 Point, bits int) {
	w, h := target.Width(), target.Height()
	sx := float64(w - 1)
	sy := float64(h - 1)

	// Displaced positions in target pixel space.
	ax, ay := d0.X*sx, d0.Y*sy
	bx, by := d1.X*sx, d1.Y*sy
	cx, cy := d2.X*sx, d2.Y*sy

	// Signed double area; skip degenerate triangles (a fully collapsed
	// cell under a strong anchor).
	area := (bx-ax)*(cy-ay) - (cx-ax)*(by-ay)
	if math.Abs(area) < 1e-12 {
		return
	}
	inv := 1 / area

	minX := int(math.Floor(min3(ax, bx, cx)))
	maxX := int(math.Ceil(max3(ax, bx, cx)))
	minY := int(math.Floor(min3(ay, by, cy)))
	maxY := int(math.Ceil(max3(ay, by, cy)))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > w-1 {
		maxX = w - 1
	}
	if maxY > h-1 {
		maxY = h - 1
	}

	for y := minY; y <= maxY; y++ {
		py := float64(y)
		for x := minX; x <= maxX; x++ {
			px := float64(x)

			// Barycentric weights relative to the displaced triangle.
			l0 := ((bx-px)*(cy-py) - (cx-px)*(by-py)) * inv
			l1 := ((cx-px)*(ay-py) - (ax-px)*(cy-py)) * inv
			l2 := 1 - l0 - l1
			const edge = -1e-9
			if l0 < edge || l1 < edge || l2 < edge {
				continue
			}

			u := l0*s0.X + l1*s1.X + l2*s2.X
			v := l0*s0.Y + l1*s1.Y + l2*s2.Y

			r, g, b, a := sampleBilinear(source, u, v)
			target.SetPixel(x, y, quantize(r, bits), quantize(g, bits), quantize(b, bits), a)
		}
	}
}

// sampleBilinear samples the frame at normalized (u, v) with bilinear
// filtering and edge-clamped addressing.
func sampleBilinear(f *Frame, u, v float64) (r, g, b, a uint8) {
	fx := clamp(u, 0, 1) * float64(f.Width()-1)
	fy := clamp(v, 0, 1) * float64(f.Height()-1)

	x0 := int(fx)
	y0 := int(fy)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > f.Width()-1 {
		x1 = f.Width() - 1
	}
	if y1 > f.Height()-1 {
		y1 = f.Height() - 1
	}
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	r00, g00, b00, a00 := f.Pixel(x0, y0)
	r10, g10, b10, a10 := f.Pixel(x1, y0)
	r01, g01, b01, a01 := f.Pixel(x0, y1)
	r11, g11, b11, a11 := f.Pixel(x1, y1)

	lerp2 := func(c00, c10, c01, c11 uint8) uint8 {
		top := float64(c00) + (float64(c10)-float64(c00))*tx
		bot := float64(c01) + (float64(c11)-float64(c01))*tx
		return uint8(math.Round(top + (bot-top)*ty))
	}
	return lerp2(r00, r10, r01, r11),
		lerp2(g00, g10, g01, g11),
		lerp2(b00, b10, b01, b11),
		lerp2(a00, a10, a01, a11)
}

// quantize reduces a channel to the given bit depth, re-expanded to 8 bits.
// 8 bits is the identity.
func quantize(v uint8, bits int) uint8 {
	if bits >= 8 {
		return v
	}
	levels := float64(int(1)<<bits - 1)
	q := math.Round(float64(v) / 255 * levels)
	return uint8(math.Round(q / levels * 255))
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// Ensure SoftwareCompositor implements Compositor.
var _ Compositor = (*SoftwareCompositor)(nil)
