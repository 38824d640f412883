// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package halgpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// fakeBackend is a HAL backend on the noop device that records what the
// driver asks of it.
type fakeBackend struct {
	device *fakeDevice
	queue  *fakeQueue
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		device: &fakeDevice{live: make(map[string]int)},
		queue:  &fakeQueue{},
	}
}

// driver returns a Driver whose display runs on b.
func (b *fakeBackend) driver(opts ...Option) *Driver {
	return New(append(opts, func(o *options) { o.halBackend = b })...)
}

func (b *fakeBackend) Variant() gputypes.Backend { return gputypes.BackendEmpty }

func (b *fakeBackend) CreateInstance(*hal.InstanceDescriptor) (hal.Instance, error) {
	return &fakeInstance{backend: b}, nil
}

type fakeInstance struct {
	noop.Instance
	backend *fakeBackend
}

func (i *fakeInstance) EnumerateAdapters(hal.Surface) []hal.ExposedAdapter {
	return []hal.ExposedAdapter{{
		Adapter: &fakeAdapter{backend: i.backend},
		Info: gputypes.AdapterInfo{
			Name:       "fake",
			DeviceType: gputypes.DeviceTypeDiscreteGPU,
			Backend:    gputypes.BackendEmpty,
		},
	}}
}

type fakeAdapter struct {
	noop.Adapter
	backend *fakeBackend
}

func (a *fakeAdapter) Open(gputypes.Features, gputypes.Limits) (hal.OpenDevice, error) {
	return hal.OpenDevice{Device: a.backend.device, Queue: a.backend.queue}, nil
}

// fakeResource stands in for every HAL object. Unlike noop resources each
// one has its own address and handle.
type fakeResource struct {
	noop.Resource
	id int
}

func (r *fakeResource) NativeHandle() uintptr               { return uintptr(r.id) }
func (r *fakeResource) CurrentUsage() gputypes.TextureUsage { return 0 }
func (r *fakeResource) AddPendingRef()                      {}
func (r *fakeResource) DecPendingRef()                      {}

// fakeDevice counts live objects per kind and records render passes.
type fakeDevice struct {
	noop.Device

	nextID   int
	live     map[string]int
	shaders  []string
	formats  []gputypes.TextureFormat
	groups   []*hal.BindGroupDescriptor
	passes   []*fakePass
	waitIdle int
	closed   bool
}

func (d *fakeDevice) create(kind string) *fakeResource {
	d.nextID++
	d.live[kind]++
	return &fakeResource{id: d.nextID}
}

func (d *fakeDevice) destroy(kind string) { d.live[kind]-- }

// lastPass returns the most recent render pass, or nil.
func (d *fakeDevice) lastPass() *fakePass {
	if len(d.passes) == 0 {
		return nil
	}
	return d.passes[len(d.passes)-1]
}

// leaked returns the kinds with objects still alive.
func (d *fakeDevice) leaked() []string {
	var out []string
	for kind, n := range d.live {
		if n != 0 {
			out = append(out, kind)
		}
	}
	return out
}

func (d *fakeDevice) CreateBuffer(*hal.BufferDescriptor) (hal.Buffer, error) {
	return d.create("buffer"), nil
}
func (d *fakeDevice) DestroyBuffer(hal.Buffer) { d.destroy("buffer") }

func (d *fakeDevice) CreateTexture(*hal.TextureDescriptor) (hal.Texture, error) {
	return d.create("texture"), nil
}
func (d *fakeDevice) DestroyTexture(hal.Texture) { d.destroy("texture") }

func (d *fakeDevice) CreateTextureView(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error) {
	return d.create("view"), nil
}
func (d *fakeDevice) DestroyTextureView(hal.TextureView) { d.destroy("view") }

func (d *fakeDevice) CreateSampler(*hal.SamplerDescriptor) (hal.Sampler, error) {
	return d.create("sampler"), nil
}
func (d *fakeDevice) DestroySampler(hal.Sampler) { d.destroy("sampler") }

func (d *fakeDevice) CreateBindGroupLayout(*hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return d.create("bind group layout"), nil
}
func (d *fakeDevice) DestroyBindGroupLayout(hal.BindGroupLayout) { d.destroy("bind group layout") }

func (d *fakeDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.groups = append(d.groups, desc)
	return d.create("bind group"), nil
}
func (d *fakeDevice) DestroyBindGroup(hal.BindGroup) { d.destroy("bind group") }

func (d *fakeDevice) CreatePipelineLayout(*hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return d.create("pipeline layout"), nil
}
func (d *fakeDevice) DestroyPipelineLayout(hal.PipelineLayout) { d.destroy("pipeline layout") }

func (d *fakeDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	d.shaders = append(d.shaders, desc.Source.WGSL)
	return d.create("shader"), nil
}
func (d *fakeDevice) DestroyShaderModule(hal.ShaderModule) { d.destroy("shader") }

func (d *fakeDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.formats = append(d.formats, desc.Fragment.Targets[0].Format)
	return d.create("render pipeline"), nil
}
func (d *fakeDevice) DestroyRenderPipeline(hal.RenderPipeline) { d.destroy("render pipeline") }

func (d *fakeDevice) CreateCommandEncoder(*hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return &fakeEncoder{device: d}, nil
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdle++
	return nil
}

func (d *fakeDevice) Destroy() { d.closed = true }

type fakeEncoder struct {
	noop.CommandEncoder
	device *fakeDevice
}

func (e *fakeEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	p := &fakePass{clear: desc.ColorAttachments[0].ClearValue}
	e.device.passes = append(e.device.passes, p)
	return p
}

// fakePass records the commands of one render pass.
type fakePass struct {
	noop.RenderPassEncoder

	clear    gputypes.Color
	viewport [4]float32
	pipeline hal.RenderPipeline
	group    hal.BindGroup
	vertices uint32
	ended    bool
}

func (p *fakePass) SetViewport(x, y, w, h, _, _ float32) { p.viewport = [4]float32{x, y, w, h} }
func (p *fakePass) SetPipeline(rp hal.RenderPipeline)    { p.pipeline = rp }

func (p *fakePass) SetBindGroup(_ uint32, g hal.BindGroup, _ []uint32) { p.group = g }

func (p *fakePass) Draw(vertexCount, instanceCount, _, _ uint32) {
	p.vertices += vertexCount * instanceCount
}

func (p *fakePass) End() { p.ended = true }

// fakeQueue completes submissions immediately unless stalled.
type fakeQueue struct {
	noop.Queue

	writeTextureErr error
	textureWrites   int
	uniform         []byte
	stalled         bool
}

func (q *fakeQueue) WriteTexture(*hal.ImageCopyTexture, []byte, *hal.ImageDataLayout, *hal.Extent3D) error {
	if q.writeTextureErr != nil {
		return q.writeTextureErr
	}
	q.textureWrites++
	return nil
}

func (q *fakeQueue) WriteBuffer(_ hal.Buffer, _ uint64, data []byte) error {
	q.uniform = append(q.uniform[:0], data...)
	return nil
}

func (q *fakeQueue) PollCompleted() uint64 {
	if q.stalled {
		return 0
	}
	return q.Queue.PollCompleted()
}

// fakeProvider shares a device the way a gogpu window does: its Device is
// a *wgpu.Device look-alike exposing the HAL objects.
type fakeProvider struct {
	device gpucontext.Device
}

func (p *fakeProvider) Device() gpucontext.Device { return p.device }
func (p *fakeProvider) Queue() gpucontext.Queue   { return nil }
func (p *fakeProvider) Adapter() gpucontext.Adapter { return nil }
func (p *fakeProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}
func (p *fakeProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "fake"}
}

type fakeWGPUDevice struct {
	device hal.Device
	queue  hal.Queue
}

func (d *fakeWGPUDevice) HalDevice() hal.Device { return d.device }
func (d *fakeWGPUDevice) HalQueue() hal.Queue   { return d.queue }
