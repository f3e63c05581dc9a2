// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import "fmt"

// PointKind determines the displacement direction a control point induces.
type PointKind uint8

const (
	// PointStretch pushes mesh vertices radially away from the point.
	PointStretch PointKind = iota

	// PointAnchor pulls mesh vertices toward the point proportionally to
	// their current offset, contracting space rather than translating it.
	PointAnchor
)

// String returns a human-readable name for the kind.
func (k PointKind) String() string {
	switch k {
	case PointStretch:
		return "stretch"
	case PointAnchor:
		return "anchor"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Value ranges enforced by the Store on every write. The evaluator never
// clamps; it relies on these holding.
const (
	// MinStrength and MaxStrength bound a point's strength multiplier.
	MinStrength = 0.0
	MaxStrength = 2.0

	// MinRadius and MaxRadius bound a point's influence radius in
	// normalized space. A radius of zero would make the point inert, so
	// the lower bound is a small positive value.
	MinRadius = 1e-3
	MaxRadius = 1.0

	// DefaultStrength and DefaultRadius are applied to newly added points.
	DefaultStrength = 1.0
	DefaultRadius   = 0.25
)

// ControlPoint is a user-placed 2-D point influencing nearby mesh vertices.
//
// Position is normalized to [0,1]² relative to frame dimensions. Strength
// is in [0,2] and multiplies displacement magnitude. Radius is in (0,1];
// displacement is zero at distance ≥ Radius. Locked points are immutable to
// interactive editing but still contribute to the field.
type ControlPoint struct {
	// ID is a stable unique identifier, assigned at creation, never reused.
	ID uint64

	// Position in normalized UV space, always inside [0,1]².
	Position Point

	// Kind selects stretch or anchor displacement.
	Kind PointKind

	// Strength multiplies displacement magnitude, in [0,2].
	Strength float64

	// Radius is the influence radius in normalized space, in (0,1].
	Radius float64

	// Locked marks the position immutable to interactive editing.
	Locked bool
}

// clampPoint normalizes a control point's numeric fields into their valid
// ranges. Called by the store on every write path.
func clampPoint(c ControlPoint) ControlPoint {
	c.Position = c.Position.Clamp(0, 1)
	c.Strength = clamp(c.Strength, MinStrength, MaxStrength)
	c.Radius = clamp(c.Radius, MinRadius, MaxRadius)
	return c
}
