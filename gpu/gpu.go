// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu registers the GPU frame compositor for hardware-accelerated
// mesh warping.
//
// Import this package to route compositing through wgpu/hal compute shaders.
// The device is acquired lazily on Engine.Init; if no GPU is available
// (no Vulkan/Metal/DX12), the engine falls back to the software compositor
// and rendering continues on the CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/meshwarp/gpu" // enable GPU compositing
package gpu

import (
	"github.com/gogpu/meshwarp"
	gpuimpl "github.com/gogpu/meshwarp/internal/gpu"
)

func init() {
	meshwarp.RegisterCompositor(&gpuimpl.WarpCompositor{})
}

// SetDeviceProvider configures the registered compositor to use a shared
// GPU device from an external provider (e.g., gogpu). This avoids creating
// a separate GPU instance and enables efficient device sharing.
//
// The provider should be a gpucontext.DeviceProvider that also implements
// gpucontext.HalProvider for direct HAL access.
//
// Prefer EngineOptions.Device when constructing the engine; this function
// exists for hosts that register first and obtain their device later.
func SetDeviceProvider(provider any) error {
	return meshwarp.SetCompositorDeviceProvider(provider)
}
