// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/framepipe/driver"
)

type texture struct {
	img    *image.RGBA // nil until the first latch
	stream *stream
}

type context struct {
	id        uint64
	display   *display
	destroyed bool

	nextTex  driver.TextureID
	textures map[driver.TextureID]*texture

	clear    color.RGBA
	viewport image.Rectangle
	bound    driver.TextureID
}

// check validates that c may execute commands. Callers hold the driver lock.
func (c *context) check() error {
	if c.destroyed {
		c.display.drv.violation()
		return driver.ErrContextLost
	}
	if c.display.current != c || c.display.currentSurf == nil {
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
	if c.display.drv.opts.faults.TextureFail {
		return driver.InvalidTexture, fmt.Errorf("gen texture: %w", ErrInjected)
	}
	c.nextTex++
	c.textures[c.nextTex] = &texture{}
	c.display.drv.live.Textures++
	return c.nextTex, nil
}

func (c *context) DeleteTexture(id driver.TextureID) {
	c.lock()
	defer c.unlock()
	if c.destroyed {
		c.display.drv.violation()
		return
	}
	if _, ok := c.textures[id]; !ok {
		return
	}
	delete(c.textures, id)
	if c.bound == id {
		c.bound = driver.InvalidTexture
	}
	c.display.drv.live.Textures--
}

func (c *context) NewStream(id driver.TextureID) (driver.Stream, error) {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return nil, err
	}
	tex, ok := c.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", driver.ErrContextLost, id)
	}
	if tex.stream != nil && !tex.stream.released {
		return nil, fmt.Errorf("soft: texture %d already has a stream", id)
	}
	s := &stream{ctx: c, tex: id, transform: driver.Identity4()}
	tex.stream = s
	c.display.drv.live.Streams++
	return s, nil
}

func (c *context) BindTexture(target driver.TextureTarget, id driver.TextureID) error {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return err
	}
	if id != driver.InvalidTexture {
		tex, ok := c.textures[id]
		if !ok {
			return fmt.Errorf("%w: texture %d", driver.ErrContextLost, id)
		}
		if !target.Accepts(tex.stream != nil) {
			return fmt.Errorf("%w: texture %d as %v", driver.ErrBadTarget, id, target)
		}
	}
	c.bound = id
	return nil
}

func (c *context) ClearColor(col gputypes.Color) {
	c.lock()
	defer c.unlock()
	c.clear = color.RGBA{
		R: unorm8(float64(col.R)),
		G: unorm8(float64(col.G)),
		B: unorm8(float64(col.B)),
		A: unorm8(float64(col.A)),
	}
}

func (c *context) Clear() error {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return err
	}
	back := c.display.currentSurf.backBuffer()
	if back == nil {
		return fmt.Errorf("%w: window destroyed", driver.ErrBadSurface)
	}
	xdraw.Draw(back, back.Bounds(), image.NewUniform(c.clear), image.Point{}, xdraw.Src)
	return nil
}

// Viewport uses window coordinates with the origin at the top-left.
func (c *context) Viewport(x, y, width, height int) error {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return err
	}
	if width < 0 || height < 0 {
		return fmt.Errorf("soft: invalid viewport %dx%d", width, height)
	}
	c.viewport = image.Rect(x, y, x+width, y+height)
	return nil
}

func (c *context) DrawTexture(id driver.TextureID, transform driver.Mat4) error {
	c.lock()
	defer c.unlock()
	if err := c.check(); err != nil {
		return err
	}
	tex, ok := c.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", driver.ErrContextLost, id)
	}
	if c.bound != id {
		return fmt.Errorf("soft: texture %d is not bound", id)
	}
	if c.display.drv.opts.clearOnly {
		return driver.ErrUnsupported
	}
	if tex.img == nil {
		// Nothing latched yet; the clear is the whole frame.
		return nil
	}
	back := c.display.currentSurf.backBuffer()
	if back == nil {
		return fmt.Errorf("%w: window destroyed", driver.ErrBadSurface)
	}
	vp := c.viewport.Intersect(back.Bounds())
	if vp.Empty() {
		return nil
	}
	s2d, err := sourceToViewport(transform, tex.img.Bounds(), c.viewport)
	if err != nil {
		return err
	}
	dst := back.SubImage(vp).(*image.RGBA)
	c.display.drv.opts.interpolator.Transform(dst, s2d, tex.img, tex.img.Bounds(), xdraw.Src, nil)
	return nil
}

func unorm8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

type stream struct {
	driver.BufferQueue

	ctx       *context
	tex       driver.TextureID
	transform driver.Mat4
	released  bool
}

func (s *stream) Input() driver.InputSurface { return &s.BufferQueue }

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
	tex, ok := c.textures[s.tex]
	if !ok {
		return fmt.Errorf("%w: texture %d", driver.ErrContextLost, s.tex)
	}
	f, ok := s.Acquire()
	if !ok {
		return nil
	}
	b := f.Image.Bounds()
	if tex.img == nil || tex.img.Bounds().Size() != b.Size() {
		tex.img = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	xdraw.Draw(tex.img, tex.img.Bounds(), f.Image, b.Min, xdraw.Src)
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
	if s.ctx.destroyed {
		// The texture went away with its context first.
		s.ctx.display.drv.violation()
	}
	s.released = true
	s.BufferQueue.Close()
	s.ctx.display.drv.live.Streams--
}
