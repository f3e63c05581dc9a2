// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"errors"
	"unsafe"

	"github.com/gogpu/naga"
)

// Embedded WGSL shader source, compiled at build time via go:embed.

//go:embed shaders/warp.wgsl
var warpShaderSource string

// maxPoints mirrors the fixed uniform array size in warp.wgsl. The host
// never uploads more than this many control points per dispatch.
const maxPoints = 16

// WarpPoint mirrors the WGSL WarpPoint struct: 32 bytes, vec2 aligned.
type WarpPoint struct {
	PosX     float32
	PosY     float32
	Kind     uint32
	Strength float32
	Radius   float32
	_        uint32
	_        uint32
	_        uint32
}

// WarpUniforms mirrors the WGSL Params struct. The 48-byte header is
// followed by the fixed control point array; total size must stay a
// multiple of 16 for uniform buffer rules.
type WarpUniforms struct {
	GlobalStrength float32
	Kernel         uint32
	PointCount     uint32
	MeshResolution uint32

	OutWidth  uint32
	OutHeight uint32
	SrcWidth  uint32
	SrcHeight uint32

	ColorLevels  float32
	SearchWindow uint32
	_            uint32
	_            uint32

	Points [maxPoints]WarpPoint
}

// ErrShaderNotEmbedded indicates the WGSL source failed to embed, which
// only happens on a broken build.
var ErrShaderNotEmbedded = errors.New("gpu: warp shader source not embedded")

// ValidateShaders checks that the embedded shader source is present.
func ValidateShaders() error {
	if warpShaderSource == "" {
		return ErrShaderNotEmbedded
	}
	return nil
}

// CompileWarpShader compiles the embedded WGSL to SPIR-V words. Backends
// that accept WGSL directly do not need this; the Vulkan path uses it when
// driver-side WGSL ingestion is unavailable.
func CompileWarpShader() ([]uint32, error) {
	spirvBytes, err := naga.Compile(warpShaderSource)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}

// packUniforms serializes uniforms for GPU upload.
func packUniforms(u *WarpUniforms) []byte {
	return structToBytes(unsafe.Pointer(u), unsafe.Sizeof(*u)) //nolint:gosec // safe struct access
}
