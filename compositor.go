// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framepipe

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framepipe/driver"
)

// compositor draws the capture texture onto the presentation drawable.
type compositor struct {
	gc          *graphicsContext
	capture     *captureSurface
	clearColor  gputypes.Color
	pinW, pinH  int
	log         *slog.Logger
	drawSkipped bool // the driver only clears
}

func renderFailed(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRenderFailed, step, err)
}

// viewport returns the pinned viewport, or the drawable's current size.
func (c *compositor) viewport() (int, int) {
	if c.pinW > 0 && c.pinH > 0 {
		return c.pinW, c.pinH
	}
	return c.gc.surface.Size()
}

// render runs one composite pass. It must run on the render thread while the
// context is live.
func (c *compositor) render() error {
	if err := c.capture.latch(); err != nil {
		return renderFailed("latch", err)
	}
	transform := c.capture.transform()

	ctx := c.gc.ctx
	if err := ctx.BindTexture(driver.TextureExternal, c.capture.tex); err != nil {
		return renderFailed("bind texture", err)
	}

	w, h := c.viewport()
	if w <= 0 || h <= 0 {
		return renderFailed("viewport", fmt.Errorf("%w: output is %dx%d", driver.ErrBadSurface, w, h))
	}
	if err := ctx.Viewport(0, 0, w, h); err != nil {
		return renderFailed("viewport", err)
	}

	ctx.ClearColor(c.clearColor)
	if err := ctx.Clear(); err != nil {
		return renderFailed("clear", err)
	}

	if err := ctx.DrawTexture(c.capture.tex, transform); err != nil {
		if !errors.Is(err, driver.ErrUnsupported) {
			return renderFailed("draw", err)
		}
		if !c.drawSkipped {
			c.drawSkipped = true
			c.log.Info("framepipe: driver cannot sample the capture texture, presenting clear only",
				"driver", c.gc.drv.Name())
		}
	}

	if err := c.gc.display.SwapBuffers(c.gc.surface); err != nil {
		return renderFailed("swap", err)
	}
	c.log.Debug("framepipe: frame composited", "width", w, "height", h)
	return nil
}
