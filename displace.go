// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

// MaxActivePoints is the fixed capacity of the displacement field. Points
// beyond this count are retained in the store but excluded from the field
// until an active point is removed. The cap matches the fixed-size uniform
// array feeding the GPU stage and bounds per-tick cost; it is a designed
// limit, not an error condition.
const MaxActivePoints = 16

// Displacement tuning constants, in normalized UV units.
const (
	// kStretch scales stretch displacement per unit of strength. At the
	// parameter maxima (strength 2, global strength 2) a stretch point
	// moves a coincident-adjacent vertex by 0.2 of the frame.
	kStretch = 0.05

	// kAnchor scales anchor contraction per unit of strength. The value
	// is chosen so the accumulated pull factor never exceeds 1: at the
	// parameter maxima an anchor pulls a vertex exactly onto itself,
	// never past it.
	kAnchor = 0.25

	// epsilon guards the undefined displacement direction when a vertex
	// coincides with a control point.
	epsilon = 1e-6
)

// falloff converts the raw linear influence t = 1 - d/radius into a weight
// according to the kernel.
func falloff(k Kernel, t float64) float64 {
	switch k {
	case KernelLinear:
		return t
	case KernelSmooth:
		return smoothstep(t)
	case KernelElastic:
		// Same curve as smooth; kept distinct, see Kernel docs.
		return t * t * (3 - 2*t)
	default:
		return t
	}
}

// smoothstep is the Hermite interpolation smoothstep(0, 1, t) for t already
// clamped into [0,1].
func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// Displace maps a vertex position through the displacement field induced by
// the control points, applied independently to every mesh vertex.
//
// The function is pure: identical inputs always produce identical output.
// Points contribute in insertion order up to MaxActivePoints; when fields
// overlap the accumulation order is the documented, deterministic
// tie-break. With zero control points, Displace is the identity. The result
// is clamped into [0,1]².
//
// Inputs are assumed clamped by the store; Displace never re-clamps point
// parameters.
func Displace(p Point, points []ControlPoint, params WarpParameters) Point {
	warped := p

	active := points
	if len(active) > MaxActivePoints {
		active = active[:MaxActivePoints]
	}

	for i := range active {
		c := &active[i]

		offset := p.Sub(c.Position)
		d := offset.Length()
		if d >= c.Radius {
			continue // outside influence radius
		}
		if d < epsilon {
			continue // direction undefined, zero net motion
		}

		t := 1 - d/c.Radius
		influence := falloff(params.Kernel, t)
		scale := c.Strength * influence * params.GlobalStrength

		switch c.Kind {
		case PointStretch:
			warped = warped.Add(offset.Normalize().Mul(scale * kStretch))
		case PointAnchor:
			warped = warped.Sub(offset.Mul(scale * kAnchor))
		}
	}

	return warped.Clamp(0, 1)
}

// DisplaceMesh evaluates the field for every vertex of the mesh, writing
// the displaced positions into dst. dst is grown as needed and returned;
// pass nil to allocate. The mesh itself is never modified.
func DisplaceMesh(dst []Point, m *Mesh, snap *Snapshot) []Point {
	need := len(m.Vertices)
	if cap(dst) < need {
		dst = make([]Point, need)
	}
	dst = dst[:need]

	for i, v := range m.Vertices {
		dst[i] = Displace(v, snap.Points, snap.Params)
	}
	return dst
}

// MaxDisplacement returns an upper bound on the displacement magnitude any
// vertex can receive from the snapshot, in UV units. The GPU resample pass
// derives its bounded search window from this.
func MaxDisplacement(snap *Snapshot) float64 {
	active := snap.Points
	if len(active) > MaxActivePoints {
		active = active[:MaxActivePoints]
	}

	var total float64
	for i := range active {
		c := &active[i]
		switch c.Kind {
		case PointStretch:
			total += c.Strength * snap.Params.GlobalStrength * kStretch
		case PointAnchor:
			// Anchor displacement is bounded by offset < radius.
			total += c.Strength * snap.Params.GlobalStrength * kAnchor * c.Radius
		}
	}
	return total
}
