// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import "sync"

// Compositor resamples a source frame through the deformed mesh and writes
// the result into a target frame. Side effects are confined to the
// compositor's own resources; target pixel data is the only CPU-visible
// output.
//
// Implementations are provided by backend packages (meshwarp/gpu). Users
// opt in to GPU compositing via blank import:
//
//	import _ "github.com/gogpu/meshwarp/gpu" // enables GPU compositing
type Compositor interface {
	// Name returns the compositor name (e.g. "software", "wgpu").
	Name() string

	// Init acquires compositing resources. Called once during engine
	// initialization. A failed Init is fatal for the engine instance.
	Init() error

	// Close releases compositing resources. No Composite call may be in
	// flight when Close runs; the engine guarantees this.
	Close()

	// Composite resamples source through the mesh deformed by the
	// snapshot's field, writing into target. Each vertex's original UV
	// maps to texture-sample coordinates and its displaced UV to output
	// position; sampling is bilinear with edge-clamped addressing, and
	// draft/preview tiers quantize output color depth.
	//
	// Returns ErrFallbackToCPU if this compositor cannot handle the
	// frame; the engine then retries with the software compositor. Any
	// other error marks the tick skipped: prior output persists and no
	// error surfaces past the engine.
	Composite(target, source *Frame, mesh *Mesh, snap *Snapshot) error
}

// DeviceProviderAware is an optional interface for compositors that can
// share a GPU device with an external provider (e.g. a gogpu window).
// When SetDeviceProvider is called, the compositor reuses the provided
// device instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	compositorMu sync.RWMutex
	compositor   Compositor
)

// RegisterCompositor registers a compositor for the engine to prefer over
// the built-in software path.
//
// Only one compositor can be registered; subsequent calls replace the
// previous one. The compositor's Init is deferred to Engine.Init so that
// initialization failure is reported to the engine's caller. Pass nil to
// clear the registration.
func RegisterCompositor(c Compositor) {
	compositorMu.Lock()
	prev := compositor
	compositor = c
	compositorMu.Unlock()

	if prev != nil && prev != c {
		prev.Close()
	}
	if c != nil {
		propagateLogger(c, Logger())
	}
}

// registeredCompositor returns the currently registered compositor, or nil.
func registeredCompositor() Compositor {
	compositorMu.RLock()
	defer compositorMu.RUnlock()
	return compositor
}

// SetCompositorDeviceProvider passes a shared GPU device provider to the
// registered compositor. Returns ErrFallbackToCPU when no compositor is
// registered or the registered one cannot share devices.
func SetCompositorDeviceProvider(provider any) error {
	c := registeredCompositor()
	if c == nil {
		return ErrFallbackToCPU
	}
	aware, ok := c.(DeviceProviderAware)
	if !ok {
		return ErrFallbackToCPU
	}
	return aware.SetDeviceProvider(provider)
}
