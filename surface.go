// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import (
	"fmt"
	"image"
	"sync"
)

// Surface is the presentation target for warped frames.
//
// The engine composites into an internal frame and hands the result to the
// surface once per tick. Implementations may copy the frame to a window,
// a video encoder, or an in-memory image.
//
// Present is called from whichever goroutine invoked Engine.Tick; the frame
// passed to it is only valid for the duration of the call.
type Surface interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Present delivers a composited frame. The frame's dimensions always
	// match the surface's.
	Present(frame *Frame) error
}

// FrameSurface is an in-memory Surface that retains a copy of the most
// recently presented frame. It is the surface used by the offline exporter
// and by headless tests.
//
// FrameSurface is safe for concurrent use.
type FrameSurface struct {
	mu     sync.Mutex
	width  int
	height int
	last   *Frame
}

// NewFrameSurface creates an in-memory surface with the given dimensions.
func NewFrameSurface(width, height int) (*FrameSurface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &FrameSurface{width: width, height: height}, nil
}

// Width returns the surface width in pixels.
func (s *FrameSurface) Width() int { return s.width }

// Height returns the surface height in pixels.
func (s *FrameSurface) Height() int { return s.height }

// Present stores a copy of the frame.
func (s *FrameSurface) Present(frame *Frame) error {
	if frame == nil {
		return ErrNilFrame
	}
	if frame.Width() != s.width || frame.Height() != s.height {
		return fmt.Errorf("%w: frame %dx%d, surface %dx%d",
			ErrFrameSizeMismatch, frame.Width(), frame.Height(), s.width, s.height)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || s.last.Format() != frame.Format() {
		s.last = frame.Clone()
		return nil
	}
	return s.last.CopyFrom(frame)
}

// Last returns a copy of the most recently presented frame, or nil if
// nothing has been presented yet.
func (s *FrameSurface) Last() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	return s.last.Clone()
}

// Image returns the most recently presented frame as an RGBA image, or nil
// if nothing has been presented yet.
func (s *FrameSurface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	return s.last.ToImage()
}

var _ Surface = (*FrameSurface)(nil)
