// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu provides a Pure Go GPU-accelerated frame compositor.
//
// This is an internal package used by the meshwarp library for GPU
// compositing. It leverages WebGPU via the gogpu/wgpu Pure Go implementation
// (zero CGO), which supports Vulkan, Metal, and DX12 backends depending on
// the platform.
//
// # Architecture Overview
//
// Each composited frame runs a two-pass compute pipeline:
//
//	Snapshot + Mesh -> cs_displace (per vertex) -> cs_resample (per pixel) -> readback
//
// Key components:
//
//   - WarpCompositor: meshwarp.Compositor backed by hal compute pipelines
//   - warp.wgsl: WGSL shader with both entry points sharing one bind group
//   - WarpUniforms/WarpPoint: Go mirrors of the shader's uniform layout
//
// The displace pass applies the control-point displacement field to every
// mesh vertex; the resample pass gathers each output pixel from the
// displaced mesh with a bounded neighborhood search, bilinear sampling, and
// quality-tier color quantization. Both passes are recorded in one command
// encoder, so a frame costs one submit and one fence wait.
//
// The shader math mirrors the CPU evaluator in the root package; the two
// paths must produce visually identical output so the engine can demote to
// software mid-session without a visible jump.
//
// Applications do not import this package directly. Importing
// github.com/gogpu/meshwarp/gpu registers the compositor with the engine.
package gpu
