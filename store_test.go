// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import "testing"

func TestStore_AddAssignsUniqueIDs(t *testing.T) {
	s := NewStore()
	id1 := s.Add(Pt(0.1, 0.1), PointStretch)
	id2 := s.Add(Pt(0.2, 0.2), PointAnchor)
	if id1 == id2 {
		t.Fatalf("ids not unique: %d", id1)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestStore_IDsNeverReused(t *testing.T) {
	s := NewStore()
	id1 := s.Add(Pt(0.1, 0.1), PointStretch)
	if !s.Remove(id1) {
		t.Fatal("Remove failed")
	}
	id2 := s.Add(Pt(0.1, 0.1), PointStretch)
	if id2 == id1 {
		t.Errorf("id %d reused after removal", id1)
	}
}

func TestStore_AddClampsPosition(t *testing.T) {
	tests := []struct {
		name string
		pos  Point
		want Point
	}{
		{"inside", Pt(0.5, 0.5), Pt(0.5, 0.5)},
		{"negative", Pt(-0.5, -1), Pt(0, 0)},
		{"above one", Pt(1.5, 2), Pt(1, 1)},
		{"mixed", Pt(-0.1, 0.7), Pt(0, 0.7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			id := s.Add(tt.pos, PointStretch)
			c, ok := s.Point(id)
			if !ok {
				t.Fatal("point missing")
			}
			if c.Position != tt.want {
				t.Errorf("Position = %v, want %v", c.Position, tt.want)
			}
		})
	}
}

func TestStore_MutationClamping(t *testing.T) {
	s := NewStore()
	id := s.Add(Pt(0.5, 0.5), PointStretch)

	s.SetStrength(id, 5)
	if c, _ := s.Point(id); c.Strength != MaxStrength {
		t.Errorf("Strength = %v, want clamped to %v", c.Strength, MaxStrength)
	}
	s.SetStrength(id, -1)
	if c, _ := s.Point(id); c.Strength != MinStrength {
		t.Errorf("Strength = %v, want clamped to %v", c.Strength, MinStrength)
	}

	s.SetRadius(id, 0)
	if c, _ := s.Point(id); c.Radius != MinRadius {
		t.Errorf("Radius = %v, want clamped to %v", c.Radius, MinRadius)
	}
	s.SetRadius(id, 3)
	if c, _ := s.Point(id); c.Radius != MaxRadius {
		t.Errorf("Radius = %v, want clamped to %v", c.Radius, MaxRadius)
	}

	s.Move(id, Pt(2, -2))
	if c, _ := s.Point(id); c.Position != Pt(1, 0) {
		t.Errorf("Position = %v, want (1,0)", c.Position)
	}
}

func TestStore_LockedPointRefusesMove(t *testing.T) {
	s := NewStore()
	id := s.Add(Pt(0.5, 0.5), PointAnchor)
	s.SetLocked(id, true)

	if s.Move(id, Pt(0.9, 0.9)) {
		t.Error("Move succeeded on a locked point")
	}
	if c, _ := s.Point(id); c.Position != Pt(0.5, 0.5) {
		t.Errorf("locked point moved to %v", c.Position)
	}

	// Locked points still accept parameter edits and still contribute.
	if !s.SetStrength(id, 1.5) {
		t.Error("SetStrength refused on a locked point")
	}
	s.SetLocked(id, false)
	if !s.Move(id, Pt(0.9, 0.9)) {
		t.Error("Move refused after unlock")
	}
}

func TestStore_RemoveUnknownID(t *testing.T) {
	s := NewStore()
	if s.Remove(42) {
		t.Error("Remove(42) on empty store returned true")
	}
	if s.Move(42, Pt(0.5, 0.5)) {
		t.Error("Move on unknown id returned true")
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := NewStore()
	id := s.Add(Pt(0.2, 0.2), PointStretch)

	snap := s.Snapshot()
	if len(snap.Points) != 1 {
		t.Fatalf("snapshot has %d points", len(snap.Points))
	}

	// Mutations after the snapshot must not be visible through it.
	s.Move(id, Pt(0.8, 0.8))
	s.Add(Pt(0.3, 0.3), PointAnchor)
	if snap.Points[0].Position != Pt(0.2, 0.2) {
		t.Errorf("old snapshot changed: %v", snap.Points[0].Position)
	}
	if len(snap.Points) != 1 {
		t.Errorf("old snapshot grew to %d points", len(snap.Points))
	}

	fresh := s.Snapshot()
	if len(fresh.Points) != 2 || fresh.Points[0].Position != Pt(0.8, 0.8) {
		t.Errorf("fresh snapshot stale: %+v", fresh.Points)
	}
}

func TestStore_ParameterClamping(t *testing.T) {
	s := NewStore()
	s.SetParameters(WarpParameters{GlobalStrength: 7, Kernel: KernelElastic, QualityTier: TierFinal})
	p := s.Params()
	if p.GlobalStrength != MaxStrength {
		t.Errorf("GlobalStrength = %v, want %v", p.GlobalStrength, MaxStrength)
	}
	if p.Kernel != KernelElastic || p.QualityTier != TierFinal {
		t.Errorf("non-numeric params mangled: %+v", p)
	}

	s.SetGlobalStrength(-3)
	if got := s.Params().GlobalStrength; got != MinStrength {
		t.Errorf("SetGlobalStrength(-3) = %v, want %v", got, MinStrength)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Add(Pt(0.1, 0.1), PointStretch)
	s.Add(Pt(0.2, 0.2), PointAnchor)
	s.SetGlobalStrength(1.5)

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len = %d after Clear", s.Len())
	}
	// Clear removes points, not parameters.
	if got := s.Params().GlobalStrength; got != 1.5 {
		t.Errorf("Clear reset parameters: GlobalStrength = %v", got)
	}

	// IDs continue past cleared points.
	id := s.Add(Pt(0.3, 0.3), PointStretch)
	if id < 3 {
		t.Errorf("id %d reused after Clear", id)
	}
}

func TestStore_CapacityOverflowIsNotAnError(t *testing.T) {
	s := NewStore()
	for i := 0; i < MaxActivePoints+5; i++ {
		s.Add(Pt(float64(i)/25, 0.5), PointStretch)
	}
	if s.Len() != MaxActivePoints+5 {
		t.Errorf("Len = %d, want %d", s.Len(), MaxActivePoints+5)
	}
	// All points are retained in the snapshot; the evaluator applies the cap.
	if got := len(s.Snapshot().Points); got != MaxActivePoints+5 {
		t.Errorf("snapshot has %d points", got)
	}
}
