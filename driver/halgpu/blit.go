// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package halgpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framepipe/driver"
)

//go:embed shaders/blit.wgsl
var blitShaderSource string

// blitUniformSize is the byte size of the blit uniform buffer:
// transform (mat4x4<f32>) = 64 bytes.
const blitUniformSize = 64

// blitPipeline draws a capture texture through a stream transform.
//
// The shader, layouts, sampler and uniform buffer are created once per
// device. The render pipeline is rebuilt when the target format changes and
// the bind group when the capture view changes.
type blitPipeline struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler
	uniform    hal.Buffer

	format   gputypes.TextureFormat
	pipeline hal.RenderPipeline

	group     hal.BindGroup
	groupView hal.TextureView
}

func newBlitPipeline(device hal.Device, queue hal.Queue) *blitPipeline {
	return &blitPipeline{device: device, queue: queue}
}

// createBase compiles the shader and creates the layouts, sampler and
// uniform buffer.
func (p *blitPipeline) createBase() error {
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "framepipe_blit_shader",
		Source: hal.ShaderSource{WGSL: blitShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile blit shader: %w", err)
	}
	p.shader = shader

	// Binding 0: transform uniform (fragment)
	// Binding 1: capture texture (texture_2d, fragment)
	// Binding 2: sampler (fragment)
	layout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "framepipe_blit_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create blit layout: %w", err)
	}
	p.layout = layout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "framepipe_blit_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("create blit pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "framepipe_blit_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create blit sampler: %w", err)
	}
	p.sampler = sampler

	uniform, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "framepipe_blit_uniform",
		Size:  blitUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create blit uniform buffer: %w", err)
	}
	p.uniform = uniform
	return nil
}

// ensure makes the pipeline ready to render into a format target.
func (p *blitPipeline) ensure(format gputypes.TextureFormat) error {
	if p.shader == nil {
		if err := p.createBase(); err != nil {
			return err
		}
	}
	if p.pipeline != nil && p.format == format {
		return nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "framepipe_blit_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create blit pipeline: %w", err)
	}
	p.pipeline = pipeline
	p.format = format
	return nil
}

// bind points the bind group at view.
func (p *blitPipeline) bind(view hal.TextureView) error {
	if p.group != nil && p.groupView == view {
		return nil
	}
	p.releaseGroup()
	group, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "framepipe_blit_bind",
		Layout: p.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.uniform.NativeHandle(), Offset: 0, Size: blitUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create blit bind group: %w", err)
	}
	p.group = group
	p.groupView = view
	return nil
}

// setTransform uploads m to the uniform buffer.
func (p *blitPipeline) setTransform(m driver.Mat4) error {
	if err := p.queue.WriteBuffer(p.uniform, 0, transformBytes(m)); err != nil {
		return fmt.Errorf("write blit uniform: %w", err)
	}
	return nil
}

// record draws the viewport-covering triangle into rp.
func (p *blitPipeline) record(rp hal.RenderPassEncoder, vp viewportRect) {
	rp.SetViewport(float32(vp.x), float32(vp.y), float32(vp.w), float32(vp.h), 0, 1)
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.group, nil)
	rp.Draw(3, 1, 0, 0)
}

func (p *blitPipeline) releaseGroup() {
	if p.group != nil {
		p.device.DestroyBindGroup(p.group)
		p.group = nil
	}
	p.groupView = nil
}

// destroy releases all GPU objects in reverse creation order. Calling it
// again is a no-op.
func (p *blitPipeline) destroy() {
	p.releaseGroup()
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.uniform != nil {
		p.device.DestroyBuffer(p.uniform)
		p.uniform = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.layout != nil {
		p.device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// transformBytes serializes m for a WGSL mat4x4<f32>, which is column-major
// like Mat4.
func transformBytes(m driver.Mat4) []byte {
	buf := make([]byte, blitUniformSize)
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// viewportRect is a viewport in target pixels, origin top-left.
type viewportRect struct {
	x, y, w, h int
}

// clampViewport returns the part of the requested viewport inside a
// width x height target. A zero request selects the whole target.
func clampViewport(req [4]int, width, height int) (viewportRect, bool) {
	x, y, w, h := req[0], req[1], req[2], req[3]
	if w == 0 && h == 0 {
		x, y, w, h = 0, 0, width, height
	}
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, width), min(y+h, height)
	if x1 <= x0 || y1 <= y0 {
		return viewportRect{}, false
	}
	return viewportRect{x: x0, y: y0, w: x1 - x0, h: y1 - y0}, true
}
