// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import "errors"

// Engine lifecycle and compositing errors.
var (
	// ErrNotInitialized is returned when a tick or export is requested
	// before Init has completed successfully.
	ErrNotInitialized = errors.New("meshwarp: engine not initialized")

	// ErrDestroyed is returned when operating on an engine after Close.
	ErrDestroyed = errors.New("meshwarp: engine destroyed")

	// ErrNilFrame is returned when a nil frame is passed where a frame is
	// required.
	ErrNilFrame = errors.New("meshwarp: frame is nil")

	// ErrNilSurface is returned when an engine is created without a
	// presentation surface.
	ErrNilSurface = errors.New("meshwarp: surface is nil")

	// ErrFrameSizeMismatch is returned when a frame's dimensions do not
	// match the target it is composited into.
	ErrFrameSizeMismatch = errors.New("meshwarp: frame size mismatch")

	// ErrInvalidDimensions is returned for zero or negative frame sizes.
	ErrInvalidDimensions = errors.New("meshwarp: invalid dimensions")

	// ErrInvalidResolution is returned for a non-positive mesh resolution.
	ErrInvalidResolution = errors.New("meshwarp: invalid mesh resolution")
)

// ErrFallbackToCPU indicates the registered compositor cannot handle this
// frame. The engine transparently falls back to the software compositor.
var ErrFallbackToCPU = errors.New("meshwarp: falling back to CPU compositing")
