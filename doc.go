// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package meshwarp implements a control-point-driven mesh warp engine for
// video frames.
//
// # Overview
//
// meshwarp turns a sparse, mutable set of 2-D control points into a
// per-vertex displacement field, bakes that field into a deformed
// triangulated mesh, and resamples a decoded video frame through the
// deformed mesh. It is designed to sit between a decoder/playback surface
// and a presentation layer in an interactive editor, and to reproduce the
// same deformation synchronously at export resolution.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/meshwarp"
//	    _ "github.com/gogpu/meshwarp/gpu" // optional GPU acceleration
//	)
//
//	store := meshwarp.NewStore()
//	store.Add(meshwarp.Pt(0.5, 0.5), meshwarp.PointStretch)
//
//	engine, err := meshwarp.NewEngine(store, surface, nil)
//	if err != nil {
//	    // invalid configuration
//	}
//	if err := engine.Init(); err != nil {
//	    // fatal: no usable engine instance
//	}
//	defer engine.Close()
//
//	// Host timing callback (display refresh or decoded-frame arrival):
//	engine.SubmitFrame(frame)
//	engine.Tick()
//
// # Architecture
//
// The engine is organized leaf-first:
//   - Store: single source of truth for control points and warp parameters,
//     mutated by the editing actor, read by the render timeline as an
//     immutable snapshot.
//   - GenerateMesh / MeshCache: fixed-topology triangulated grid in
//     normalized UV space, rebuilt only when the resolution changes.
//   - Displace: pure displacement field evaluator applied per mesh vertex.
//   - Compositor: resamples the source frame through the deformed mesh.
//     A software compositor is always available; importing meshwarp/gpu
//     registers a wgpu compute compositor with transparent CPU fallback.
//   - Engine: externally driven render scheduler. One tick per host
//     callback, one tick in flight at a time.
//   - Exporter: bypasses the scheduler and renders frame by frame at a
//     caller-specified resolution for an external encoder.
//
// # Coordinate System
//
// Control points and mesh vertices live in normalized UV space:
// (0,0) top-left, (1,1) bottom-right, independent of frame pixel
// dimensions. Frames use standard top-left-origin pixel coordinates.
//
// # Concurrency
//
// The Store accepts writes from exactly one editing goroutine and is read
// by the render timeline via atomic snapshot replacement; a tick never
// observes a half-applied mutation. Tick and Close may be called from the
// host's render goroutine; Close blocks until any in-flight tick drains.
package meshwarp
