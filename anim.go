// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Animator advances a time-based parameter change. Update moves the
// animation forward by dt seconds and reports whether it has finished.
//
// There is no global animation manager — callers drive Update themselves,
// typically once per tick or per exported frame.
type Animator interface {
	Update(dt float32) bool
}

// StrengthGlide eases the store's global strength toward a target value.
// It is used for smooth warp ramp-in/ramp-out instead of snapping the
// parameter, which would pop visibly between frames.
type StrengthGlide struct {
	store *Store
	tween *gween.Tween
	done  bool
}

// GlideStrength creates a glide from the store's current global strength to
// the given target over duration seconds. A nil fn defaults to
// ease.InOutQuad.
func GlideStrength(store *Store, to float64, duration float32, fn ease.TweenFunc) *StrengthGlide {
	if fn == nil {
		fn = ease.InOutQuad
	}
	from := float32(store.Params().GlobalStrength)
	return &StrengthGlide{
		store: store,
		tween: gween.New(from, float32(clamp(to, MinStrength, MaxStrength)), duration, fn),
	}
}

// Update advances the glide by dt seconds, writing the eased value into the
// store. Returns true once the target is reached; further calls are no-ops.
func (g *StrengthGlide) Update(dt float32) bool {
	if g.done {
		return true
	}
	val, finished := g.tween.Update(dt)
	g.store.SetGlobalStrength(float64(val))
	g.done = finished
	return finished
}

// PointGlide eases a control point toward a target position. The glide
// refuses to start on a locked point and stops if the point is removed.
type PointGlide struct {
	store  *Store
	id     uint64
	tweenX *gween.Tween
	tweenY *gween.Tween
	done   bool
}

// GlidePoint creates a glide moving the point with the given id to target
// over duration seconds. Returns nil if the point does not exist or is
// locked. A nil fn defaults to ease.InOutQuad.
func GlidePoint(store *Store, id uint64, to Point, duration float32, fn ease.TweenFunc) *PointGlide {
	if fn == nil {
		fn = ease.InOutQuad
	}
	cur, ok := store.Point(id)
	if !ok || cur.Locked {
		return nil
	}
	to = to.Clamp(0, 1)
	return &PointGlide{
		store:  store,
		id:     id,
		tweenX: gween.New(float32(cur.Position.X), float32(to.X), duration, fn),
		tweenY: gween.New(float32(cur.Position.Y), float32(to.Y), duration, fn),
	}
}

// Update advances the glide by dt seconds. Returns true once the target is
// reached, or once the point has been removed or locked mid-glide.
func (g *PointGlide) Update(dt float32) bool {
	if g.done {
		return true
	}
	x, fx := g.tweenX.Update(dt)
	y, fy := g.tweenY.Update(dt)
	if !g.store.Move(g.id, Pt(float64(x), float64(y))) {
		g.done = true
		return true
	}
	g.done = fx && fy
	return g.done
}

var (
	_ Animator = (*StrengthGlide)(nil)
	_ Animator = (*PointGlide)(nil)
)
