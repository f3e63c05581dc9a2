// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import (
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable, point-in-time copy of the store's state. The
// render timeline reads exactly one snapshot per tick; a snapshot is never
// mutated after publication, so readers observe either all of a mutation's
// effects or none.
type Snapshot struct {
	// Points in insertion order. Only the first MaxActivePoints contribute
	// to the displacement field.
	Points []ControlPoint

	// Params are the global warp parameters.
	Params WarpParameters
}

// Store holds the current set of control points and global warp parameters.
// It is the single source of truth: the editing actor is the only writer,
// the render timeline is a read-only observer.
//
// Mutation is published as atomic snapshot replacement (copy-on-write), so
// no lock is ever held across a render tick or a GPU call. The write path
// is serialized internally; concurrent writers are safe but the store is
// designed for a single editing goroutine.
type Store struct {
	mu     sync.Mutex // serializes writers
	snap   atomic.Pointer[Snapshot]
	nextID atomic.Uint64
}

// NewStore creates an empty store with default parameters.
func NewStore() *Store {
	s := &Store{}
	s.nextID.Store(1)
	s.snap.Store(&Snapshot{Params: DefaultParameters()})
	return s
}

// Snapshot returns the current immutable snapshot. The returned value and
// everything reachable from it must not be modified.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Len returns the current number of control points, including points beyond
// the active capacity.
func (s *Store) Len() int {
	return len(s.snap.Load().Points)
}

// Point returns a copy of the control point with the given id, and whether
// it exists.
func (s *Store) Point(id uint64) (ControlPoint, bool) {
	for _, c := range s.snap.Load().Points {
		if c.ID == id {
			return c, true
		}
	}
	return ControlPoint{}, false
}

// publish replaces the current snapshot with one derived from it by fn.
// fn receives fresh copies of the point slice and params and may modify
// them freely.
func (s *Store) publish(fn func(points []ControlPoint, params WarpParameters) ([]ControlPoint, WarpParameters)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.snap.Load()
	points := make([]ControlPoint, len(old.Points))
	copy(points, old.Points)

	points, params := fn(points, old.Params)
	s.snap.Store(&Snapshot{Points: points, Params: params})
}

// Add appends a new control point at the given position and returns its ID.
// The position is clamped into [0,1]²; strength and radius start at their
// defaults. IDs are assigned monotonically and never reused.
func (s *Store) Add(position Point, kind PointKind) uint64 {
	id := s.nextID.Add(1) - 1
	s.publish(func(points []ControlPoint, params WarpParameters) ([]ControlPoint, WarpParameters) {
		points = append(points, clampPoint(ControlPoint{
			ID:       id,
			Position: position,
			Kind:     kind,
			Strength: DefaultStrength,
			Radius:   DefaultRadius,
		}))
		return points, params
	})
	return id
}

// Remove deletes the point with the given ID, preserving insertion order of
// the remainder. Removing an unknown ID is a no-op. Returns true if a point
// was removed.
func (s *Store) Remove(id uint64) bool {
	removed := false
	s.publish(func(points []ControlPoint, params WarpParameters) ([]ControlPoint, WarpParameters) {
		for i := range points {
			if points[i].ID == id {
				points = append(points[:i], points[i+1:]...)
				removed = true
				break
			}
		}
		return points, params
	})
	return removed
}

// update applies fn to the point with the given ID, then re-clamps it.
// Returns false if the ID is unknown.
func (s *Store) update(id uint64, fn func(*ControlPoint)) bool {
	found := false
	s.publish(func(points []ControlPoint, params WarpParameters) ([]ControlPoint, WarpParameters) {
		for i := range points {
			if points[i].ID == id {
				fn(&points[i])
				points[i] = clampPoint(points[i])
				found = true
				break
			}
		}
		return points, params
	})
	return found
}

// Move sets a point's position. Locked points are not moved; the call
// returns false. The position is clamped into [0,1]².
func (s *Store) Move(id uint64, position Point) bool {
	moved := false
	s.update(id, func(c *ControlPoint) {
		if c.Locked {
			return
		}
		c.Position = position
		moved = true
	})
	return moved
}

// SetStrength sets a point's strength, clamped into [0,2].
func (s *Store) SetStrength(id uint64, strength float64) bool {
	return s.update(id, func(c *ControlPoint) { c.Strength = strength })
}

// SetRadius sets a point's influence radius, clamped into (0,1].
func (s *Store) SetRadius(id uint64, radius float64) bool {
	return s.update(id, func(c *ControlPoint) { c.Radius = radius })
}

// SetKind changes a point's displacement kind.
func (s *Store) SetKind(id uint64, kind PointKind) bool {
	return s.update(id, func(c *ControlPoint) { c.Kind = kind })
}

// SetLocked locks or unlocks a point. Locked points keep contributing to
// the field; only interactive position edits are refused.
func (s *Store) SetLocked(id uint64, locked bool) bool {
	return s.update(id, func(c *ControlPoint) { c.Locked = locked })
}

// Clear removes all control points. Parameters are unchanged.
func (s *Store) Clear() {
	s.publish(func(points []ControlPoint, params WarpParameters) ([]ControlPoint, WarpParameters) {
		return nil, params
	})
}

// SetParameters replaces the global warp parameters, clamped into their
// valid ranges.
func (s *Store) SetParameters(p WarpParameters) {
	s.publish(func(points []ControlPoint, params WarpParameters) ([]ControlPoint, WarpParameters) {
		return points, clampParameters(p)
	})
}

// SetGlobalStrength sets only the global strength multiplier, clamped into
// [0,2]. Used by parameter glides that ease strength over time.
func (s *Store) SetGlobalStrength(v float64) {
	s.publish(func(points []ControlPoint, params WarpParameters) ([]ControlPoint, WarpParameters) {
		params.GlobalStrength = clamp(v, MinStrength, MaxStrength)
		return points, params
	})
}

// Params returns the current global warp parameters.
func (s *Store) Params() WarpParameters {
	return s.snap.Load().Params
}
