// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// EngineState tracks the engine lifecycle.
type EngineState int32

const (
	// StateUninitialized is the state before Init.
	StateUninitialized EngineState = iota

	// StateReady means the engine is initialized and idle between ticks.
	StateReady

	// StateRendering means a tick is in flight.
	StateRendering

	// StateDestroyed is the terminal state after Close.
	StateDestroyed
)

// String returns a human-readable state name.
func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("EngineState(%d)", int32(s))
	}
}

// EngineOptions configures engine construction. The zero value is valid.
type EngineOptions struct {
	// Device is an optional GPU device handle from the host application.
	// When set, a registered GPU compositor that supports device sharing
	// reuses it instead of opening its own adapter.
	Device DeviceHandle

	// MeshResolution overrides the quality-tier-derived mesh resolution.
	// Zero means derive from the snapshot's quality tier each tick.
	MeshResolution int

	// DisableGPU forces the software compositor even when a GPU
	// compositor is registered.
	DisableGPU bool
}

// Engine drives one compositor pass per presentation tick, sourcing the
// latest submitted frame and the latest store snapshot.
//
// The engine is driven externally: the host calls Tick once per display
// refresh or per decoded-frame arrival. Exactly one tick executes at a time;
// a Tick arriving while another is in flight is dropped (coalesced) rather
// than queued.
//
// SubmitFrame and Tick may be called from different goroutines. A submitted
// frame must not be mutated by the caller until a newer frame replaces it.
type Engine struct {
	store   *Store
	surface Surface
	opts    EngineOptions

	state atomic.Int32

	// tickMu serializes ticks. Close acquires it to drain an in-flight
	// tick before releasing compositor resources.
	tickMu sync.Mutex

	pending atomic.Pointer[Frame]

	comp     Compositor
	software *SoftwareCompositor
	meshes   *MeshCache
	out      *Frame

	ticksRun     atomic.Uint64
	ticksDropped atomic.Uint64
}

// NewEngine creates an engine reading from store and presenting to surface.
// opts may be nil for defaults. The engine is unusable until Init succeeds.
func NewEngine(store *Store, surface Surface, opts *EngineOptions) (*Engine, error) {
	if store == nil {
		return nil, errors.New("meshwarp: store is nil")
	}
	if surface == nil {
		return nil, ErrNilSurface
	}
	e := &Engine{
		store:   store,
		surface: surface,
	}
	if opts != nil {
		e.opts = *opts
	}
	if e.opts.MeshResolution < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, e.opts.MeshResolution)
	}
	return e, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() EngineState {
	return EngineState(e.state.Load())
}

// Init acquires compositor resources and transitions the engine to ready.
//
// A registered GPU compositor is initialized first; if it reports
// ErrFallbackToCPU (or any other error) the engine logs the reason and
// falls back to the software compositor, which cannot fail. Init errors are
// therefore limited to lifecycle misuse and invalid options, and an engine
// that fails Init stays uninitialized.
func (e *Engine) Init() error {
	if !e.state.CompareAndSwap(int32(StateUninitialized), int32(StateReady)) {
		if e.State() == StateDestroyed {
			return ErrDestroyed
		}
		return nil // already initialized
	}

	e.software = NewSoftwareCompositor()
	e.meshes = NewMeshCache()
	e.comp = e.software

	if !e.opts.DisableGPU {
		if comp := registeredCompositor(); comp != nil {
			if err := e.initGPU(comp); err != nil {
				Logger().Warn("gpu compositor unavailable, using software path",
					"compositor", comp.Name(), "error", err)
			} else {
				e.comp = comp
			}
		}
	}

	// Prewarm the mesh at the startup tier so the first tick pays no
	// generation cost.
	res := e.resolution(e.store.Snapshot())
	if _, err := e.meshes.Get(res); err != nil {
		e.state.Store(int32(StateUninitialized))
		return err
	}

	Logger().Info("engine initialized",
		"compositor", e.comp.Name(),
		"surface", fmt.Sprintf("%dx%d", e.surface.Width(), e.surface.Height()),
		"resolution", res)
	return nil
}

func (e *Engine) initGPU(comp Compositor) error {
	if e.opts.Device != nil {
		if aware, ok := comp.(DeviceProviderAware); ok {
			if err := aware.SetDeviceProvider(e.opts.Device); err != nil {
				return err
			}
		}
	}
	return comp.Init()
}

// SubmitFrame hands a decoded source frame to the engine. Only the most
// recent frame is retained; older unrendered frames are dropped. The engine
// reads the frame without copying, so the caller must treat it as immutable
// until it submits a replacement.
func (e *Engine) SubmitFrame(frame *Frame) error {
	if frame == nil {
		return ErrNilFrame
	}
	if e.State() == StateDestroyed {
		return ErrDestroyed
	}
	e.pending.Store(frame)
	return nil
}

// Tick runs one render pass: snapshot the store, displace the mesh,
// composite the latest frame, present.
//
// Tick never blocks behind another tick: if one is already in flight the
// call is coalesced and returns nil immediately. With no frame submitted the
// tick is a no-op. Per-frame compositor failures are absorbed (the prior
// output persists on the surface); only lifecycle misuse surfaces as an
// error.
func (e *Engine) Tick() error {
	switch e.State() {
	case StateUninitialized:
		return ErrNotInitialized
	case StateDestroyed:
		return ErrDestroyed
	}

	if !e.tickMu.TryLock() {
		e.ticksDropped.Add(1)
		return nil
	}
	defer e.tickMu.Unlock()

	// Close may have won the race while we acquired the lock.
	if !e.state.CompareAndSwap(int32(StateReady), int32(StateRendering)) {
		return ErrDestroyed
	}
	defer e.state.CompareAndSwap(int32(StateRendering), int32(StateReady))

	frame := e.pending.Load()
	if frame == nil {
		return nil
	}

	e.ticksRun.Add(1)
	snap := e.store.Snapshot()

	mesh, err := e.meshes.Get(e.resolution(snap))
	if err != nil {
		Logger().Error("mesh generation failed, tick skipped", "error", err)
		return nil
	}

	if e.out == nil || e.out.Width() != e.surface.Width() ||
		e.out.Height() != e.surface.Height() || e.out.Format() != frame.Format() {
		e.out = NewFrameWithFormat(e.surface.Width(), e.surface.Height(), frame.Format())
	}

	if err := e.compose(e.out, frame, mesh, snap); err != nil {
		Logger().Warn("compose failed, tick skipped", "error", err)
		return nil
	}

	if err := e.surface.Present(e.out); err != nil {
		Logger().Warn("present failed, tick skipped", "error", err)
	}
	return nil
}

// compose runs the active compositor, demoting to the software path for the
// rest of the engine's life if the GPU compositor declines the frame.
func (e *Engine) compose(target, source *Frame, mesh *Mesh, snap *Snapshot) error {
	err := e.comp.Composite(target, source, mesh, snap)
	if err == nil || !errors.Is(err, ErrFallbackToCPU) {
		return err
	}
	if e.comp == Compositor(e.software) {
		return err
	}
	Logger().Warn("gpu compositor declined frame, switching to software path",
		"compositor", e.comp.Name(), "error", err)
	e.comp.Close()
	e.comp = e.software
	return e.comp.Composite(target, source, mesh, snap)
}

// resolution returns the mesh resolution for a tick: the explicit override
// when set, otherwise the snapshot's quality tier.
func (e *Engine) resolution(snap *Snapshot) int {
	if e.opts.MeshResolution > 0 {
		return e.opts.MeshResolution
	}
	return snap.Params.QualityTier.Resolution()
}

// CompositorName returns the name of the active compositor, or "" before
// Init.
func (e *Engine) CompositorName() string {
	if e.comp == nil {
		return ""
	}
	return e.comp.Name()
}

// TickStats reports how many ticks have run and how many were coalesced
// away because another tick was in flight.
func (e *Engine) TickStats() (run, dropped uint64) {
	return e.ticksRun.Load(), e.ticksDropped.Load()
}

// Close transitions the engine to destroyed and releases compositor
// resources. It blocks until any in-flight tick completes, so no GPU handle
// is released while in use. Close is idempotent; no tick runs after it
// returns.
func (e *Engine) Close() {
	prev := EngineState(e.state.Swap(int32(StateDestroyed)))
	if prev == StateDestroyed || prev == StateUninitialized {
		return
	}

	// Drain the in-flight tick before tearing resources down.
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if e.comp != nil {
		e.comp.Close()
		e.comp = nil
	}
	e.software = nil
	e.out = nil
	e.pending.Store(nil)
	Logger().Info("engine destroyed")
}
