// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framepipe

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/framepipe/driver"
)

// clientVersion is the rendering context tier requested from the driver.
const clientVersion = 2

// graphicsContext owns the display connection, the selected config, the
// rendering context and the presentation drawable. All four are live or all
// are released.
//
// Every method must run on the render thread.
type graphicsContext struct {
	drv     driver.Driver
	display driver.Display
	config  driver.Config
	ctx     driver.Context
	surface driver.WindowSurface
	version driver.Version
	log     *slog.Logger
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrContextUnavailable}, args...)...)
}

// newGraphicsContext connects to drv's display, creates a context and a
// drawable for out, and makes them current on the calling thread.
// On failure everything created so far is released before returning.
func newGraphicsContext(drv driver.Driver, out driver.OutputSurface, log *slog.Logger) (_ *graphicsContext, err error) {
	if out == nil {
		return nil, fmt.Errorf("%w: nil output surface", ErrSurfaceCreationFailed)
	}

	gc := &graphicsContext{drv: drv, log: log}

	// undo holds the teardown of each completed step, newest last.
	var undo []func()
	defer func() {
		if err == nil {
			return
		}
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		log.Debug("framepipe: construction rolled back", "driver", drv.Name(), "steps", len(undo), "err", err)
	}()

	gc.display, err = drv.OpenDisplay()
	if err != nil {
		return nil, fmt.Errorf("%w: open display: %w", ErrContextUnavailable, err)
	}
	gc.version, err = gc.display.Initialize()
	if err != nil {
		return nil, fmt.Errorf("%w: initialize: %w", ErrContextUnavailable, err)
	}
	undo = append(undo, gc.display.Terminate)

	configs, err := gc.display.ChooseConfigs(driver.RGBA8Accelerated())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoMatchingConfig, err)
	}
	if len(configs) == 0 {
		return nil, ErrNoMatchingConfig
	}
	// Platform order decides ties.
	gc.config = configs[0]

	gc.ctx, err = gc.display.CreateContext(gc.config, driver.ContextRequest{ClientVersion: clientVersion})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContextCreationFailed, err)
	}
	undo = append(undo, func() { gc.display.DestroyContext(gc.ctx) })

	gc.surface, err = gc.display.CreateWindowSurface(gc.config, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSurfaceCreationFailed, err)
	}
	undo = append(undo, func() { gc.display.DestroySurface(gc.surface) })

	if err = gc.display.MakeCurrent(gc.surface, gc.ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMakeCurrentFailed, err)
	}

	attrs := gc.config.Attribs()
	w, h := gc.surface.Size()
	log.Info("framepipe: graphics context created",
		"driver", drv.Name(),
		"version", gc.version.String(),
		"config", attrs.Label,
		"format", attrs.Format,
		"configs", len(configs),
		"width", w, "height", h)
	return gc, nil
}

// live reports whether the handles are valid.
func (gc *graphicsContext) live() bool {
	return gc != nil && gc.display != nil
}

// release destroys the drawable, then the context, then terminates the
// display. A second call is a no-op.
func (gc *graphicsContext) release() {
	if !gc.live() {
		return
	}
	if err := gc.display.ReleaseCurrent(); err != nil && !errors.Is(err, driver.ErrNotCurrent) {
		gc.log.Warn("framepipe: release current", "err", err)
	}
	gc.display.DestroySurface(gc.surface)
	gc.display.DestroyContext(gc.ctx)
	gc.display.Terminate()

	gc.surface = nil
	gc.ctx = nil
	gc.config = nil
	gc.display = nil
	gc.log.Info("framepipe: graphics context released", "driver", gc.drv.Name())
}
