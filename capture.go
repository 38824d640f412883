// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framepipe

import (
	"fmt"

	"github.com/gogpu/framepipe/driver"
)

// captureSurface is the texture a producer renders into, plus the stream
// that exposes it as a drawable. It is allocated on, and must be released
// before, its graphics context.
type captureSurface struct {
	gc     *graphicsContext
	tex    driver.TextureID
	stream driver.Stream
}

func newCaptureSurface(gc *graphicsContext) (*captureSurface, error) {
	tex, err := gc.ctx.GenTexture()
	if err != nil {
		return nil, fmt.Errorf("%w: capture texture: %w", ErrSurfaceCreationFailed, err)
	}
	stream, err := gc.ctx.NewStream(tex)
	if err != nil {
		gc.ctx.DeleteTexture(tex)
		return nil, fmt.Errorf("%w: capture stream: %w", ErrSurfaceCreationFailed, err)
	}
	gc.log.Debug("framepipe: capture surface created", "texture", uint64(tex))
	return &captureSurface{gc: gc, tex: tex, stream: stream}, nil
}

// input returns the drawable handed to the producer.
func (c *captureSurface) input() driver.InputSurface {
	return c.stream.Input()
}

// latch makes the newest posted frame the texture content.
func (c *captureSurface) latch() error {
	return c.stream.UpdateTexImage()
}

// transform is the transform of the latched frame. It is read again every
// frame.
func (c *captureSurface) transform() driver.Mat4 {
	return c.stream.TransformMatrix()
}

// release invalidates the drawable, then deletes the texture.
func (c *captureSurface) release() {
	if c == nil || c.stream == nil {
		return
	}
	c.stream.Release()
	c.gc.ctx.DeleteTexture(c.tex)
	c.stream = nil
	c.tex = driver.InvalidTexture
}
