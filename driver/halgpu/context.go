// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package halgpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/framepipe/driver"
)

// texture is a capture texture. The HAL texture is allocated at the first
// latch and reallocated when the frame size changes.
type texture struct {
	tex           hal.Texture
	view          hal.TextureView
	width, height uint32
	// ready is set once a frame was uploaded without error.
	ready  bool
	stream *stream
}

type context struct {
	display   *display
	device    hal.Device
	queue     hal.Queue
	shared    bool
	version   int
	destroyed bool

	nextTex  driver.TextureID
	textures map[driver.TextureID]*texture

	clear    gputypes.Color
	viewport [4]int
	bound    driver.TextureID
	draw     *pendingDraw

	blit      *blitPipeline
	offscreen []*OffscreenTarget
}

// pendingDraw is a DrawTexture recorded for the next SwapBuffers.
type pendingDraw struct {
	tex       *texture
	transform driver.Mat4
}

// check validates that c may execute commands. Callers hold the driver lock.
func (c *context) check() error {
	if c.destroyed {
		return driver.ErrContextLost
	}
	if c.display.current != c {
		return driver.ErrNotCurrent
	}
	return nil
}

func (c *context) lock()   { c.display.drv.mu.Lock() }
func (c *context) unlock() { c.display.drv.mu.Unlock() }

func (c *context) GenTexture() (driver.TextureID, error) {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return driver.InvalidTexture, err
	}
	c.nextTex++
	c.textures[c.nextTex] = &texture{}
	return c.nextTex, nil
}

func (c *context) DeleteTexture(id driver.TextureID) {
	c.lock()
	defer c.unlock()
	if c.destroyed {
		return
	}
	t, ok := c.textures[id]
	if !ok {
		return
	}
	c.freeTexture(t)
	delete(c.textures, id)
	if c.draw != nil && c.draw.tex == t {
		c.draw = nil
	}
	if c.bound == id {
		c.bound = driver.InvalidTexture
	}
}

func (c *context) freeTexture(t *texture) {
	if t.view != nil {
		c.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		c.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

func (c *context) NewStream(id driver.TextureID) (driver.Stream, error) {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return nil, err
	}
	t, ok := c.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", driver.ErrContextLost, id)
	}
	s := &stream{ctx: c, tex: id, transform: driver.Identity4()}
	t.stream = s
	return s, nil
}

func (c *context) BindTexture(target driver.TextureTarget, id driver.TextureID) error {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return err
	}
	if id != driver.InvalidTexture {
		t, ok := c.textures[id]
		if !ok {
			return fmt.Errorf("%w: texture %d", driver.ErrContextLost, id)
		}
		if !target.Accepts(t.stream != nil) {
			return fmt.Errorf("%w: texture %d as %v", driver.ErrBadTarget, id, target)
		}
	}
	c.bound = id
	return nil
}

func (c *context) ClearColor(col gputypes.Color) {
	c.lock()
	c.clear = col
	c.unlock()
}

// Clear is recorded; the clear runs as the load op of the frame's render
// pass in SwapBuffers and discards draws recorded before it.
func (c *context) Clear() error {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return err
	}
	c.draw = nil
	return nil
}

func (c *context) Viewport(x, y, width, height int) error {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return err
	}
	if width < 0 || height < 0 {
		return fmt.Errorf("halgpu: invalid viewport %dx%d", width, height)
	}
	c.viewport = [4]int{x, y, width, height}
	return nil
}

// DrawTexture records a draw of the bound texture for the next SwapBuffers.
// A texture with no uploaded frame draws nothing.
func (c *context) DrawTexture(id driver.TextureID, transform driver.Mat4) error {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return err
	}
	t, ok := c.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", driver.ErrContextLost, id)
	}
	if c.bound != id {
		return fmt.Errorf("halgpu: texture %d is not bound", id)
	}
	if !t.ready {
		return nil
	}
	c.draw = &pendingDraw{tex: t, transform: transform}
	return nil
}

// ensureTexture (re)allocates t for a w x h frame.
func (c *context) ensureTexture(id driver.TextureID, t *texture, w, h uint32) error {
	if t.tex != nil && t.width == w && t.height == h {
		return nil
	}
	c.freeTexture(t)
	label := fmt.Sprintf("framepipe_capture_%d", id)
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create capture texture: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return fmt.Errorf("create capture texture view: %w", err)
	}
	t.tex, t.view, t.width, t.height = tex, view, w, h
	t.ready = false
	return nil
}

// prepareDraw readies the blit pipeline for a pending draw into a target of
// the given format and size. It reports false when the viewport misses the
// target.
func (c *context) prepareDraw(format gputypes.TextureFormat, width, height int) (viewportRect, bool, error) {
	d := c.draw
	if d == nil || d.tex.view == nil {
		return viewportRect{}, false, nil
	}
	vp, ok := clampViewport(c.viewport, width, height)
	if !ok {
		return viewportRect{}, false, nil
	}
	if c.blit == nil {
		c.blit = newBlitPipeline(c.device, c.queue)
	}
	if err := c.blit.ensure(format); err != nil {
		return viewportRect{}, false, err
	}
	if err := c.blit.bind(d.tex.view); err != nil {
		return viewportRect{}, false, err
	}
	if err := c.blit.setTransform(d.transform); err != nil {
		return viewportRect{}, false, err
	}
	return vp, true, nil
}

// submitFrame records the frame's render pass into target's current view,
// submits it and waits for completion. Callers hold the driver lock.
func (c *context) submitFrame(target Target) error {
	if err := c.check(); err != nil {
		return err
	}
	defer func() { c.draw = nil }()

	var view hal.TextureView
	var err error
	if a, ok := target.(viewAllocator); ok {
		view, err = a.viewFor(c)
	} else {
		view, err = target.CurrentView()
	}
	if err != nil {
		return fmt.Errorf("%w: current view: %w", driver.ErrBadSurface, err)
	}

	w, h := target.Size()
	vp, drawing, err := c.prepareDraw(target.Format(), w, h)
	if err != nil {
		return err
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "framepipe_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("framepipe_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "framepipe_composite",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: c.clear,
		}},
	})
	if drawing {
		c.blit.record(rp, vp)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	index, err := c.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return c.waitSubmission(index)
}

// waitSubmission blocks until the queue completed submission index.
func (c *context) waitSubmission(index uint64) error {
	if c.queue.PollCompleted() >= index {
		return nil
	}
	if err := c.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait idle: %w", err)
	}
	if done := c.queue.PollCompleted(); done < index {
		return fmt.Errorf("%w: completed %d, submitted %d", ErrSubmitPending, done, index)
	}
	return nil
}

// destroy frees all textures and, unless shared, the device.
// Callers hold the driver lock.
func (c *context) destroy() {
	for _, t := range c.textures {
		c.freeTexture(t)
		if t.stream != nil {
			t.stream.Close()
		}
	}
	c.textures = nil
	for _, t := range c.offscreen {
		t.free()
	}
	c.offscreen = nil
	c.draw = nil
	if c.blit != nil {
		c.blit.destroy()
		c.blit = nil
	}
	if !c.shared && c.device != nil {
		c.device.Destroy()
	}
	c.device = nil
	c.queue = nil
	c.destroyed = true
}

type stream struct {
	driver.BufferQueue

	ctx       *context
	tex       driver.TextureID
	transform driver.Mat4
	released  bool
}

func (s *stream) Input() driver.InputSurface { return &s.BufferQueue }

// UpdateTexImage uploads the newest posted frame to the capture texture.
func (s *stream) UpdateTexImage() error {
	c := s.ctx
	c.lock()
	defer c.unlock()
	if s.released {
		return driver.ErrSurfaceReleased
	}
	if err := c.check(); err != nil {
		return err
	}
	t, ok := c.textures[s.tex]
	if !ok {
		return fmt.Errorf("%w: texture %d", driver.ErrContextLost, s.tex)
	}
	f, ok := s.Acquire()
	if !ok {
		return nil
	}
	rgba := toRGBA(f.Image)
	w, h := uint32(rgba.Rect.Dx()), uint32(rgba.Rect.Dy()) //nolint:gosec // image bounds are non-negative
	if w == 0 || h == 0 {
		return nil
	}
	if err := c.ensureTexture(s.tex, t, w, h); err != nil {
		return err
	}
	err := c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		rgba.Pix,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(rgba.Stride), RowsPerImage: h}, //nolint:gosec // stride is non-negative
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		t.ready = false
		return fmt.Errorf("upload capture frame: %w", err)
	}
	t.ready = true
	s.transform = f.Transform
	return nil
}

func (s *stream) TransformMatrix() driver.Mat4 {
	s.ctx.lock()
	defer s.ctx.unlock()
	return s.transform
}

func (s *stream) Release() {
	s.ctx.lock()
	defer s.ctx.unlock()
	if s.released {
		return
	}
	s.released = true
	s.BufferQueue.Close()
}

// toRGBA returns img as a tightly packed *image.RGBA with origin (0, 0).
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}
