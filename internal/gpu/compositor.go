// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshwarp"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// WarpCompositor composites warped frames on the GPU using wgpu/hal compute
// shaders. It implements the meshwarp.Compositor interface.
//
// Each Composite call encodes two compute passes in a single command
// encoder: cs_displace evaluates the displacement field over the mesh
// vertices, cs_resample gathers output pixels from the displaced mesh. One
// submit, one fence wait, one readback per frame.
type WarpCompositor struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader       hal.ShaderModule
	bindLayout   hal.BindGroupLayout
	pipeLayout   hal.PipelineLayout
	displacePipe hal.ComputePipeline
	resamplePipe hal.ComputePipeline

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

var _ meshwarp.Compositor = (*WarpCompositor)(nil)
var _ meshwarp.DeviceProviderAware = (*WarpCompositor)(nil)

func (w *WarpCompositor) Name() string { return "warp-gpu" }

// SetLogger receives the logger propagated from meshwarp.SetLogger.
func (w *WarpCompositor) SetLogger(l *slog.Logger) { setLogger(l) }

// Init acquires a GPU device and builds the compute pipelines. On any
// failure the compositor stays unusable and every Composite call returns
// ErrFallbackToCPU, so the engine demotes to the software path.
func (w *WarpCompositor) Init() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gpuReady {
		return nil
	}
	if err := ValidateShaders(); err != nil {
		return err
	}
	if w.device == nil {
		if err := w.openDevice(); err != nil {
			return fmt.Errorf("warp-gpu: %w", err)
		}
	}
	if err := w.createPipelines(); err != nil {
		w.releaseDeviceLocked()
		return fmt.Errorf("warp-gpu: %w", err)
	}
	w.gpuReady = true
	return nil
}

func (w *WarpCompositor) openDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	w.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	w.device = openDev.Device
	w.queue = openDev.Queue
	slogger().Info("warp-gpu: device opened", "adapter", selected.Info.Name)
	return nil
}

func (w *WarpCompositor) createPipelines() error {
	shader, err := w.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "warp",
		Source: hal.ShaderSource{WGSL: warpShaderSource},
	})
	if err != nil {
		// Backend rejected driver-side WGSL ingestion; compile to
		// SPIR-V host-side and retry.
		spirv, cerr := CompileWarpShader()
		if cerr != nil {
			return fmt.Errorf("compile warp shader: %w", cerr)
		}
		shader, err = w.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  "warp",
			Source: hal.ShaderSource{SPIRV: spirv},
		})
		if err != nil {
			return fmt.Errorf("create warp shader module: %w", err)
		}
		slogger().Info("warp-gpu: using host-compiled SPIR-V shader")
	}
	w.shader = shader

	bindLayout, err := w.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "warp_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 4, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	w.bindLayout = bindLayout

	pipeLayout, err := w.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "warp_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{w.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	w.pipeLayout = pipeLayout

	displacePipe, err := w.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "warp_displace", Layout: w.pipeLayout,
		Compute: hal.ComputeState{Module: w.shader, EntryPoint: "cs_displace"},
	})
	if err != nil {
		return fmt.Errorf("create displace pipeline: %w", err)
	}
	w.displacePipe = displacePipe

	resamplePipe, err := w.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "warp_resample", Layout: w.pipeLayout,
		Compute: hal.ComputeState{Module: w.shader, EntryPoint: "cs_resample"},
	})
	if err != nil {
		return fmt.Errorf("create resample pipeline: %w", err)
	}
	w.resamplePipe = resamplePipe
	return nil
}

func (w *WarpCompositor) destroyPipelines() {
	if w.device == nil {
		return
	}
	if w.resamplePipe != nil {
		w.device.DestroyComputePipeline(w.resamplePipe)
		w.resamplePipe = nil
	}
	if w.displacePipe != nil {
		w.device.DestroyComputePipeline(w.displacePipe)
		w.displacePipe = nil
	}
	if w.pipeLayout != nil {
		w.device.DestroyPipelineLayout(w.pipeLayout)
		w.pipeLayout = nil
	}
	if w.bindLayout != nil {
		w.device.DestroyBindGroupLayout(w.bindLayout)
		w.bindLayout = nil
	}
	if w.shader != nil {
		w.device.DestroyShaderModule(w.shader)
		w.shader = nil
	}
}

func (w *WarpCompositor) releaseDeviceLocked() {
	if !w.externalDevice {
		if w.device != nil {
			w.device.Destroy()
		}
		if w.instance != nil {
			w.instance.Destroy()
		}
	}
	w.device = nil
	w.queue = nil
	w.instance = nil
	w.externalDevice = false
}

// Close releases all GPU resources. Shared devices from SetDeviceProvider
// are not destroyed; only resources this compositor created are.
func (w *WarpCompositor) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyPipelines()
	w.releaseDeviceLocked()
	w.gpuReady = false
}

// SetDeviceProvider switches the compositor to a shared GPU device from an
// external provider (e.g., gogpu). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func (w *WarpCompositor) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("warp-gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("warp-gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("warp-gpu: provider HalQueue is not hal.Queue")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.destroyPipelines()
	w.releaseDeviceLocked()

	w.device = device
	w.queue = queue
	w.externalDevice = true
	w.gpuReady = false
	slogger().Info("warp-gpu: using shared GPU device")
	return nil
}

// Composite uploads the mesh and source frame, runs the displace and
// resample passes, and reads the result back into target. Returns
// ErrFallbackToCPU when the GPU is unavailable so the engine can demote to
// the software path.
func (w *WarpCompositor) Composite(target, source *meshwarp.Frame, mesh *meshwarp.Mesh, snap *meshwarp.Snapshot) error {
	if target == nil || source == nil {
		return meshwarp.ErrNilFrame
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.gpuReady {
		return meshwarp.ErrFallbackToCPU
	}
	if err := w.dispatch(target, source, mesh, snap); err != nil {
		slogger().Warn("warp-gpu: dispatch failed", "error", err)
		return fmt.Errorf("%w: %v", meshwarp.ErrFallbackToCPU, err)
	}
	return nil
}

// buildUniforms fills the uniform block from the snapshot. Only the first
// maxPoints control points contribute, matching the CPU evaluator's cap.
func buildUniforms(target, source *meshwarp.Frame, mesh *meshwarp.Mesh, snap *meshwarp.Snapshot) WarpUniforms {
	u := WarpUniforms{
		GlobalStrength: float32(snap.Params.GlobalStrength),
		Kernel:         uint32(snap.Params.Kernel),
		MeshResolution: uint32(mesh.Resolution),
		OutWidth:       uint32(target.Width()),
		OutHeight:      uint32(target.Height()),
		SrcWidth:       uint32(source.Width()),
		SrcHeight:      uint32(source.Height()),
		ColorLevels:    float32(int(1)<<snap.Params.QualityTier.ColorBits() - 1),
	}
	n := len(snap.Points)
	if n > maxPoints {
		n = maxPoints
	}
	u.PointCount = uint32(n)
	for i := 0; i < n; i++ {
		c := snap.Points[i]
		u.Points[i] = WarpPoint{
			PosX:     float32(c.Position.X),
			PosY:     float32(c.Position.Y),
			Kind:     uint32(c.Kind),
			Strength: float32(c.Strength),
			Radius:   float32(c.Radius),
		}
	}
	// The displaced grid moves at most MaxDisplacement in uv, so the
	// per-pixel gather only needs to scan this many cells around home.
	u.SearchWindow = uint32(math.Ceil(meshwarp.MaxDisplacement(snap)*float64(mesh.Resolution))) + 1
	return u
}

// packVertices serializes mesh vertices as vec2<f32> for GPU upload.
func packVertices(vertices []meshwarp.Point) []byte {
	out := make([]byte, len(vertices)*8)
	for i, v := range vertices {
		binary.LittleEndian.PutUint32(out[i*8:], math.Float32bits(float32(v.X)))
		binary.LittleEndian.PutUint32(out[i*8+4:], math.Float32bits(float32(v.Y)))
	}
	return out
}

func (w *WarpCompositor) dispatch(target, source *meshwarp.Frame, mesh *meshwarp.Mesh, snap *meshwarp.Snapshot) error {
	uniforms := buildUniforms(target, source, mesh, snap)
	uniformBytes := packUniforms(&uniforms)
	vertexBytes := packVertices(mesh.Vertices)
	vertexBufSize := uint64(len(vertexBytes))
	srcBufSize := uint64(len(source.Data()))
	dstBufSize := uint64(len(target.Data()))

	uniformBuf, err := w.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "warp_uniforms", Size: uint64(len(uniformBytes)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	defer w.device.DestroyBuffer(uniformBuf)

	vertexBuf, err := w.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "warp_vertices", Size: vertexBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	defer w.device.DestroyBuffer(vertexBuf)

	displacedBuf, err := w.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "warp_displaced", Size: vertexBufSize,
		Usage: gputypes.BufferUsageStorage,
	})
	if err != nil {
		return fmt.Errorf("create displaced buffer: %w", err)
	}
	defer w.device.DestroyBuffer(displacedBuf)

	srcBuf, err := w.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "warp_src", Size: srcBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create source buffer: %w", err)
	}
	defer w.device.DestroyBuffer(srcBuf)

	dstBuf, err := w.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "warp_dst", Size: dstBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create output buffer: %w", err)
	}
	defer w.device.DestroyBuffer(dstBuf)

	stagingBuf, err := w.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "warp_staging", Size: dstBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer w.device.DestroyBuffer(stagingBuf)

	w.queue.WriteBuffer(uniformBuf, 0, uniformBytes)
	w.queue.WriteBuffer(vertexBuf, 0, vertexBytes)
	w.queue.WriteBuffer(srcBuf, 0, source.Data())

	bindGroup, err := w.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "warp_bind", Layout: w.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uint64(len(uniformBytes))}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: vertexBuf.NativeHandle(), Offset: 0, Size: vertexBufSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: displacedBuf.NativeHandle(), Offset: 0, Size: vertexBufSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: srcBuf.NativeHandle(), Offset: 0, Size: srcBufSize}},
			{Binding: 4, Resource: gputypes.BufferBinding{Buffer: dstBuf.NativeHandle(), Offset: 0, Size: dstBufSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer w.device.DestroyBindGroup(bindGroup)

	return w.encodePasses(bindGroup, dstBuf, stagingBuf, dstBufSize, mesh, target)
}

// encodePasses records both compute passes in one encoder. The implicit
// storage barrier between passes publishes the displaced vertices to the
// resample pass.
func (w *WarpCompositor) encodePasses(
	bindGroup hal.BindGroup, dstBuf, stagingBuf hal.Buffer,
	dstBufSize uint64, mesh *meshwarp.Mesh, target *meshwarp.Frame,
) error {
	encoder, err := w.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "warp_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("warp"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	vertexCount := uint32(mesh.VertexCount())
	outW := uint32(target.Width())
	outH := uint32(target.Height())

	displacePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "warp_displace"})
	displacePass.SetPipeline(w.displacePipe)
	displacePass.SetBindGroup(0, bindGroup, nil)
	displacePass.Dispatch((vertexCount+63)/64, 1, 1)
	displacePass.End()

	resamplePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "warp_resample"})
	resamplePass.SetPipeline(w.resamplePipe)
	resamplePass.SetBindGroup(0, bindGroup, nil)
	resamplePass.Dispatch((outW+7)/8, (outH+7)/8, 1)
	resamplePass.End()

	encoder.CopyBufferToBuffer(dstBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: dstBufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer w.device.FreeCommandBuffer(cmdBuf)

	fence, err := w.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer w.device.DestroyFence(fence)
	if err := w.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := w.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	if err := w.queue.ReadBuffer(stagingBuf, 0, target.Data()); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	return nil
}
