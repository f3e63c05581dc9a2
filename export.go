// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// ExportOptions configures offline rendering. Pass nil to NewExporter for
// DefaultExportOptions; a non-nil value is taken as given, so the zero
// value renders at the source frame's dimensions at the draft tier.
type ExportOptions struct {
	// Width and Height are the output dimensions. Zero means use the
	// source frame's dimensions.
	Width  int
	Height int

	// QualityTier selects mesh resolution and color depth for export,
	// independent of the interactive tier.
	QualityTier QualityTier

	// MeshResolution overrides the tier-derived mesh resolution when
	// positive.
	MeshResolution int

	// Scaler resamples the source when the output dimensions differ from
	// the source's. Defaults to xdraw.CatmullRom, the slow high-quality
	// kernel appropriate for offline work.
	Scaler xdraw.Scaler
}

// Exporter renders warped frames offline, one at a time, for an external
// encoder. It bypasses the engine's scheduler entirely: every Render call
// runs the full generate/displace/composite path synchronously on the CPU
// at export quality, so it never competes with an interactive engine for
// GPU resources.
//
// The exporter reads the store by snapshot like the engine does. Attached
// animators are advanced by the timestamps passed to Render, so a glide
// plays back identically regardless of export frame rate.
//
// Exporter is not safe for concurrent use.
type Exporter struct {
	store *Store
	opts  ExportOptions

	comp   *SoftwareCompositor
	meshes *MeshCache

	anims    []Animator
	lastTime float64
	started  bool

	scaled *Frame // scratch for prescaled sources
}

// DefaultExportOptions returns the options used when NewExporter receives
// nil: source dimensions, final tier, CatmullRom scaling.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		QualityTier: TierFinal,
		Scaler:      xdraw.CatmullRom,
	}
}

// NewExporter creates an exporter reading from store. opts may be nil for
// DefaultExportOptions.
func NewExporter(store *Store, opts *ExportOptions) (*Exporter, error) {
	if store == nil {
		return nil, fmt.Errorf("meshwarp: store is nil")
	}
	ex := &Exporter{
		store:  store,
		comp:   NewSoftwareCompositor(),
		meshes: NewMeshCache(),
		opts:   DefaultExportOptions(),
	}
	if opts != nil {
		ex.opts = *opts
	}
	if ex.opts.Width < 0 || ex.opts.Height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, ex.opts.Width, ex.opts.Height)
	}
	if ex.opts.MeshResolution < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, ex.opts.MeshResolution)
	}
	if ex.opts.Scaler == nil {
		ex.opts.Scaler = xdraw.CatmullRom
	}
	return ex, nil
}

// Attach registers an animator to be advanced by Render timestamps.
func (ex *Exporter) Attach(a Animator) {
	if a != nil {
		ex.anims = append(ex.anims, a)
	}
}

// Render composites one output frame from source at the given timestamp in
// seconds. Timestamps must be non-decreasing across calls; attached
// animators are advanced by the elapsed time since the previous call.
//
// The returned frame is freshly allocated and owned by the caller.
func (ex *Exporter) Render(source *Frame, timestamp float64) (*Frame, error) {
	if source == nil {
		return nil, ErrNilFrame
	}

	ex.advance(timestamp)

	snap := ex.store.Snapshot()

	// Export forces its own tier so interactive draft settings never leak
	// into final output.
	params := snap.Params
	params.QualityTier = ex.opts.QualityTier
	snap = &Snapshot{Points: snap.Points, Params: params}

	res := ex.opts.MeshResolution
	if res == 0 {
		res = ex.opts.QualityTier.Resolution()
	}
	mesh, err := ex.meshes.Get(res)
	if err != nil {
		return nil, err
	}

	w, h := ex.opts.Width, ex.opts.Height
	if w == 0 {
		w = source.Width()
	}
	if h == 0 {
		h = source.Height()
	}

	src := ex.prescale(source, w, h)
	out := NewFrameWithFormat(w, h, src.Format())
	if err := ex.comp.Composite(out, src, mesh, snap); err != nil {
		return nil, err
	}
	return out, nil
}

// advance moves attached animators forward to the given timestamp.
func (ex *Exporter) advance(timestamp float64) {
	if !ex.started {
		ex.started = true
		ex.lastTime = timestamp
		return
	}
	dt := timestamp - ex.lastTime
	ex.lastTime = timestamp
	if dt <= 0 || len(ex.anims) == 0 {
		return
	}
	live := ex.anims[:0]
	for _, a := range ex.anims {
		if !a.Update(float32(dt)) {
			live = append(live, a)
		}
	}
	ex.anims = live
}

// prescale resamples source to w x h with the configured scaler, reusing a
// scratch frame across calls. Returns source unchanged when the dimensions
// already match.
func (ex *Exporter) prescale(source *Frame, w, h int) *Frame {
	if source.Width() == w && source.Height() == h {
		return source
	}
	if ex.scaled == nil || ex.scaled.Width() != w || ex.scaled.Height() != h {
		ex.scaled = NewFrameWithFormat(w, h, source.Format())
	}
	srcImg := source.ToImage()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	ex.opts.Scaler.Scale(dst, dst.Bounds(), srcImg, srcImg.Bounds(), xdraw.Src, nil)
	if source.Format() == FormatRGBA8 {
		copy(ex.scaled.Data(), dst.Pix)
		return ex.scaled
	}
	// Convert the scaler's RGBA output back to the source's channel order.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := dst.RGBAAt(x, y)
			ex.scaled.SetPixel(x, y, c.R, c.G, c.B, c.A)
		}
	}
	return ex.scaled
}
