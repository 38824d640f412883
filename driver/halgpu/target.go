// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package halgpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framepipe/driver"
)

// Target is the output surface of the HAL driver: a presentable image
// owned by the caller, such as a swapchain or an off-screen texture.
//
// CurrentView is called once per frame, before the render pass. Present is
// called after the frame's commands completed on the GPU.
type Target interface {
	driver.OutputSurface

	// Format is the texture format of the views CurrentView returns.
	Format() gputypes.TextureFormat

	// CurrentView returns the view to render the next frame into.
	CurrentView() (hal.TextureView, error)

	// Present shows the frame rendered into the last view.
	Present() error
}

// viewAllocator is implemented by targets whose view lives on the
// context's own device.
type viewAllocator interface {
	viewFor(c *context) (hal.TextureView, error)
}

// ErrNoView is returned by OffscreenTarget.CurrentView before the first frame.
var ErrNoView = errors.New("halgpu: offscreen target has no view yet")

// OffscreenTarget is a Target backed by a texture on the driver's device.
// The texture is allocated on the first frame and freed with the context.
type OffscreenTarget struct {
	width, height int

	// Guarded by the driver lock.
	ctx  *context
	tex  hal.Texture
	view hal.TextureView

	presents atomic.Int64
}

// NewOffscreenTarget creates a width x height off-screen target.
func NewOffscreenTarget(width, height int) *OffscreenTarget {
	return &OffscreenTarget{width: width, height: height}
}

// Size returns the target size.
func (t *OffscreenTarget) Size() (int, int) { return t.width, t.height }

// Format returns RGBA8Unorm.
func (t *OffscreenTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }

// CurrentView returns the view of the last rendered frame.
func (t *OffscreenTarget) CurrentView() (hal.TextureView, error) {
	if t.view == nil {
		return nil, ErrNoView
	}
	return t.view, nil
}

// Present counts the frame.
func (t *OffscreenTarget) Present() error {
	t.presents.Add(1)
	return nil
}

// Presents returns how many frames were presented.
func (t *OffscreenTarget) Presents() int64 { return t.presents.Load() }

func (t *OffscreenTarget) viewFor(c *context) (hal.TextureView, error) {
	if t.ctx == c && t.view != nil {
		return t.view, nil
	}
	if t.ctx != nil && t.ctx != c && !t.ctx.destroyed {
		return nil, fmt.Errorf("%w: offscreen target belongs to another context", driver.ErrBadSurface)
	}
	w, h := uint32(max(t.width, 0)), uint32(max(t.height, 0)) //nolint:gosec // clamped to non-negative
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "framepipe_offscreen",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create offscreen texture: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "framepipe_offscreen_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create offscreen view: %w", err)
	}
	t.ctx, t.tex, t.view = c, tex, view
	c.offscreen = append(c.offscreen, t)
	return view, nil
}

// free releases the texture. Called by the owning context on destroy.
func (t *OffscreenTarget) free() {
	if t.view != nil {
		t.ctx.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.ctx.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}
