// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import "fmt"

// Kernel selects the falloff function converting the normalized
// distance-to-radius ratio into an influence weight.
type Kernel uint8

const (
	// KernelLinear uses the raw linear influence t = 1 - d/radius.
	KernelLinear Kernel = iota

	// KernelSmooth applies smoothstep(0, 1, t).
	KernelSmooth

	// KernelElastic currently evaluates t²·(3−2t), the same curve as
	// KernelSmooth. The two values are kept distinct pending product
	// clarification of the intended elastic response; do not merge them.
	KernelElastic
)

// String returns a human-readable name for the kernel.
func (k Kernel) String() string {
	switch k {
	case KernelLinear:
		return "linear"
	case KernelSmooth:
		return "smooth"
	case KernelElastic:
		return "elastic"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// QualityTier is a named preset selecting mesh resolution and output color
// precision. It never affects the displacement math.
type QualityTier uint8

const (
	// TierDraft favors responsiveness: coarse mesh, reduced color depth.
	TierDraft QualityTier = iota

	// TierPreview balances fidelity and cost.
	TierPreview

	// TierFinal is full mesh resolution and full color depth.
	TierFinal
)

// String returns a human-readable name for the tier.
func (t QualityTier) String() string {
	switch t {
	case TierDraft:
		return "draft"
	case TierPreview:
		return "preview"
	case TierFinal:
		return "final"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Resolution returns the mesh grid subdivision count R for the tier.
// Higher R trades warp fidelity for GPU cost.
func (t QualityTier) Resolution() int {
	switch t {
	case TierDraft:
		return 8
	case TierPreview:
		return 16
	default:
		return 32
	}
}

// ColorBits returns the output bits per color channel for the tier.
// Draft and preview quantize output color as a performance/visual-feedback
// trade-off; final is full depth.
func (t QualityTier) ColorBits() int {
	switch t {
	case TierDraft:
		return 5
	case TierPreview:
		return 6
	default:
		return 8
	}
}

// WarpParameters are the global parameters applied uniformly to the whole
// displacement field.
type WarpParameters struct {
	// GlobalStrength multiplies every point's contribution, in [0,2].
	GlobalStrength float64

	// Kernel selects the falloff function.
	Kernel Kernel

	// PreserveAspectRatio is an informational flag consumed by the mesh
	// coordinate mapping, not by the evaluator.
	PreserveAspectRatio bool

	// QualityTier selects mesh resolution and output color depth.
	QualityTier QualityTier
}

// DefaultParameters returns the parameters applied to a fresh store.
func DefaultParameters() WarpParameters {
	return WarpParameters{
		GlobalStrength: 1.0,
		Kernel:         KernelSmooth,
		QualityTier:    TierPreview,
	}
}

// clampParameters normalizes parameter ranges. Called by the store on
// every write path.
func clampParameters(p WarpParameters) WarpParameters {
	p.GlobalStrength = clamp(p.GlobalStrength, MinStrength, MaxStrength)
	return p
}
