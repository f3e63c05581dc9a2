// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import (
	"math"
	"testing"
)

const testEps = 1e-12

func pointsEqual(p1, p2 Point, eps float64) bool {
	return math.Abs(p1.X-p2.X) < eps && math.Abs(p1.Y-p2.Y) < eps
}

func stretchAt(pos Point, strength, radius float64) ControlPoint {
	return ControlPoint{ID: 1, Position: pos, Kind: PointStretch, Strength: strength, Radius: radius}
}

func TestDisplace_EmptyPointsIsIdentity(t *testing.T) {
	params := DefaultParameters()
	for _, p := range []Point{Pt(0, 0), Pt(0.5, 0.5), Pt(1, 1), Pt(0.123, 0.987)} {
		if got := Displace(p, nil, params); got != p {
			t.Errorf("Displace(%v, nil) = %v, want identity", p, got)
		}
	}
}

func TestDisplace_OutsideRadiusIsIdentity(t *testing.T) {
	c := stretchAt(Pt(0.5, 0.5), 1, 0.2)
	params := DefaultParameters()

	tests := []struct {
		name string
		p    Point
	}{
		{"exactly at radius", Pt(0.7, 0.5)},
		{"beyond radius", Pt(0.9, 0.5)},
		{"corner", Pt(0, 0)},
		{"diagonal at radius", Pt(0.5+0.2/math.Sqrt2, 0.5+0.2/math.Sqrt2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Displace(tt.p, []ControlPoint{c}, params); got != tt.p {
				t.Errorf("Displace(%v) = %v, want identity", tt.p, got)
			}
		})
	}
}

func TestDisplace_CoincidentVertexIsIdentity(t *testing.T) {
	c := stretchAt(Pt(0.5, 0.5), 2, 0.3)
	p := Pt(0.5, 0.5)
	if got := Displace(p, []ControlPoint{c}, DefaultParameters()); got != p {
		t.Errorf("Displace at point position = %v, want identity (no defined direction)", got)
	}
}

func TestDisplace_MonotonicFalloff(t *testing.T) {
	c := stretchAt(Pt(0.5, 0.5), 1, 0.3)

	for _, kernel := range []Kernel{KernelLinear, KernelSmooth, KernelElastic} {
		t.Run(kernel.String(), func(t *testing.T) {
			params := DefaultParameters()
			params.Kernel = kernel

			prev := math.Inf(1)
			// Walk outward from just off-center to the radius edge.
			for i := 1; i <= 50; i++ {
				d := float64(i) / 50 * c.Radius
				p := Pt(0.5+d, 0.5)
				mag := Displace(p, []ControlPoint{c}, params).Distance(p)
				if mag > prev+testEps {
					t.Fatalf("magnitude increased at d=%v: %v > %v", d, mag, prev)
				}
				prev = mag
			}
		})
	}
}

func TestDisplace_Deterministic(t *testing.T) {
	points := []ControlPoint{
		stretchAt(Pt(0.3, 0.4), 1.2, 0.25),
		{ID: 2, Position: Pt(0.7, 0.6), Kind: PointAnchor, Strength: 0.8, Radius: 0.3},
	}
	params := DefaultParameters()
	p := Pt(0.45, 0.52)

	first := Displace(p, points, params)
	for i := 0; i < 10; i++ {
		if got := Displace(p, points, params); got != first {
			t.Fatalf("run %d: got %v, want bit-identical %v", i, got, first)
		}
	}
}

func TestDisplace_GlobalStrengthLinearity(t *testing.T) {
	c := stretchAt(Pt(0.5, 0.5), 1, 0.3)
	params := DefaultParameters()
	params.Kernel = KernelLinear
	p := Pt(0.6, 0.5)

	params.GlobalStrength = 0.5
	base := Displace(p, []ControlPoint{c}, params).Distance(p)

	params.GlobalStrength = 1.0
	doubled := Displace(p, []ControlPoint{c}, params).Distance(p)

	if math.Abs(doubled-2*base) > testEps {
		t.Errorf("doubling globalStrength: magnitude %v, want %v", doubled, 2*base)
	}

	params.GlobalStrength = 0
	if got := Displace(p, []ControlPoint{c}, params); got != p {
		t.Errorf("globalStrength 0 should be identity, got %v", got)
	}
}

func TestDisplace_StretchPushesOutward(t *testing.T) {
	c := stretchAt(Pt(0.5, 0.5), 1, 0.3)
	p := Pt(0.6, 0.5)
	got := Displace(p, []ControlPoint{c}, DefaultParameters())
	if got.X <= p.X {
		t.Errorf("stretch should push away from the point: %v -> %v", p, got)
	}
	if math.Abs(got.Y-p.Y) > testEps {
		t.Errorf("displacement should stay on the radial axis, got Y=%v", got.Y)
	}
}

func TestDisplace_AnchorPullsInward(t *testing.T) {
	c := ControlPoint{ID: 1, Position: Pt(0.5, 0.5), Kind: PointAnchor, Strength: 1, Radius: 0.3}
	p := Pt(0.6, 0.5)
	got := Displace(p, []ControlPoint{c}, DefaultParameters())
	if got.X >= p.X || got.X <= c.Position.X {
		t.Errorf("anchor should pull toward the point without overshooting: %v -> %v", p, got)
	}
}

func TestDisplace_ResultStaysInUnitSquare(t *testing.T) {
	// A max-strength stretch point near the border pushes vertices out of
	// range before the clamp.
	c := stretchAt(Pt(0.98, 0.5), 2, 0.5)
	params := DefaultParameters()
	params.GlobalStrength = 2

	for i := 0; i <= 20; i++ {
		p := Pt(0.98+float64(i)*0.001, 0.5)
		p = p.Clamp(0, 1)
		got := Displace(p, []ControlPoint{c}, params)
		if got.X < 0 || got.X > 1 || got.Y < 0 || got.Y > 1 {
			t.Fatalf("Displace(%v) = %v escaped [0,1]^2", p, got)
		}
	}
}

func TestDisplace_ActivePointCap(t *testing.T) {
	params := DefaultParameters()
	probe := Pt(0.5, 0.5)

	// 20 points in a ring around the probe, all inside their radius.
	var points []ControlPoint
	for i := 0; i < 20; i++ {
		angle := float64(i) / 20 * 2 * math.Pi
		points = append(points, ControlPoint{
			ID:       uint64(i + 1),
			Position: Pt(0.5+0.1*math.Cos(angle), 0.5+0.1*math.Sin(angle)),
			Kind:     PointStretch,
			Strength: 1,
			Radius:   0.3,
		})
	}

	with20 := Displace(probe, points, params)
	with16 := Displace(probe, points[:MaxActivePoints], params)
	if with20 != with16 {
		t.Errorf("points beyond the cap changed the field: %v vs %v", with20, with16)
	}

	// A 21st point leaves the field unchanged too.
	extra := append(append([]ControlPoint{}, points...), stretchAt(Pt(0.51, 0.5), 2, 0.4))
	with21 := Displace(probe, extra, params)
	if with21 != with16 {
		t.Errorf("21st point changed the field: %v vs %v", with21, with16)
	}

	// Removing one of the active 16 promotes the 17th into the field.
	promoted := Displace(probe, points[1:], params)
	if promoted == with16 {
		t.Errorf("removing an active point should change the field")
	}
}

func TestDisplaceMesh_ReusesBuffer(t *testing.T) {
	m, err := GenerateMesh(4)
	if err != nil {
		t.Fatal(err)
	}
	snap := &Snapshot{Params: DefaultParameters()}

	buf := DisplaceMesh(nil, m, snap)
	if len(buf) != m.VertexCount() {
		t.Fatalf("len = %d, want %d", len(buf), m.VertexCount())
	}
	again := DisplaceMesh(buf, m, snap)
	if &again[0] != &buf[0] {
		t.Errorf("expected buffer reuse")
	}
}

func TestDisplaceMesh_IdentityWithoutPoints(t *testing.T) {
	m, err := GenerateMesh(8)
	if err != nil {
		t.Fatal(err)
	}
	snap := &Snapshot{Params: DefaultParameters()}
	out := DisplaceMesh(nil, m, snap)
	for i, v := range out {
		if v != m.Vertices[i] {
			t.Fatalf("vertex %d moved with no control points: %v -> %v", i, m.Vertices[i], v)
		}
	}
}

// End-to-end editing scenario: one stretch point at center, strength 1,
// radius 0.2, linear kernel, global strength 1.
func TestDisplace_CenterStretchScenario(t *testing.T) {
	points := []ControlPoint{stretchAt(Pt(0.5, 0.5), 1, 0.2)}
	params := WarpParameters{GlobalStrength: 1, Kernel: KernelLinear, QualityTier: TierPreview}

	// Zero-distance guard: the coincident vertex stays put.
	if got := Displace(Pt(0.5, 0.5), points, params); got != Pt(0.5, 0.5) {
		t.Errorf("center vertex moved: %v", got)
	}

	// Exactly at the radius boundary: unaffected.
	if got := Displace(Pt(0.5, 0.3), points, params); got != Pt(0.5, 0.3) {
		t.Errorf("boundary vertex moved: %v", got)
	}

	// Half-radius: moves strictly away by the t=0.5 magnitude.
	p := Pt(0.5, 0.4)
	got := Displace(p, points, params)
	if got.Distance(Pt(0.5, 0.5)) <= p.Distance(Pt(0.5, 0.5)) {
		t.Errorf("half-radius vertex did not move away: %v -> %v", p, got)
	}
	wantMag := 1.0 * 0.5 * 1.0 * kStretch // strength * t * global * kStretch
	if mag := got.Distance(p); math.Abs(mag-wantMag) > testEps {
		t.Errorf("half-radius magnitude = %v, want %v", mag, wantMag)
	}

	// On an R=4 mesh this field moves nothing: the only vertex inside the
	// radius is the center itself, guarded by the zero-distance rule.
	m, err := GenerateMesh(4)
	if err != nil {
		t.Fatal(err)
	}
	snap := &Snapshot{Points: points, Params: params}
	out := DisplaceMesh(nil, m, snap)
	for i, v := range out {
		if v != m.Vertices[i] {
			t.Errorf("vertex %d at %v moved to %v", i, m.Vertices[i], v)
		}
	}
}

func TestMaxDisplacement_BoundsActualDisplacement(t *testing.T) {
	snap := &Snapshot{
		Points: []ControlPoint{
			stretchAt(Pt(0.4, 0.4), 1.7, 0.3),
			{ID: 2, Position: Pt(0.6, 0.6), Kind: PointAnchor, Strength: 2, Radius: 0.4},
		},
		Params: DefaultParameters(),
	}
	bound := MaxDisplacement(snap)

	m, err := GenerateMesh(32)
	if err != nil {
		t.Fatal(err)
	}
	out := DisplaceMesh(nil, m, snap)
	for i, v := range out {
		if d := v.Distance(m.Vertices[i]); d > bound+testEps {
			t.Fatalf("vertex %d displaced %v, bound %v", i, d, bound)
		}
	}
}
