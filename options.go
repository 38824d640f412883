// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framepipe

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framepipe/driver"
)

// Option configures a Pipeline during creation.
//
// Example:
//
//	p, err := framepipe.New(win,
//	    framepipe.WithDriverName("soft"),
//	    framepipe.WithClearColor(gputypes.Color{A: 1}),
//	)
type Option func(*options)

type options struct {
	driver     driver.Driver
	driverName string
	viewportW  int
	viewportH  int
	clearColor gputypes.Color
	logger     *slog.Logger
	autoRender bool
}

// DefaultClearColor is the color the output is cleared to before the capture
// texture is drawn.
var DefaultClearColor = gputypes.Color{R: 0, G: 0.5, B: 0.5, A: 1}

func defaultOptions() options {
	return options{
		clearColor: DefaultClearColor,
		autoRender: true,
	}
}

// WithDriver sets the graphics platform. It takes precedence over
// WithDriverName.
func WithDriver(d driver.Driver) Option {
	return func(o *options) {
		o.driver = d
	}
}

// WithDriverName selects a registered driver by name, e.g. "soft" or "wgpu".
func WithDriverName(name string) Option {
	return func(o *options) {
		o.driverName = name
	}
}

// WithViewport pins the composite viewport to width x height.
// By default the viewport follows the presentation drawable's size,
// re-queried every frame.
func WithViewport(width, height int) Option {
	return func(o *options) {
		o.viewportW = width
		o.viewportH = height
	}
}

// WithClearColor sets the clear color. The default is [DefaultClearColor].
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithLogger sets the logger for this pipeline. Without it the package
// logger from [SetLogger] is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithAutoRender controls whether producer notifications trigger composites.
// It is on by default. When off, frames are presented only by
// [Pipeline.Render].
func WithAutoRender(enabled bool) Option {
	return func(o *options) {
		o.autoRender = enabled
	}
}

func (o *options) resolveDriver() (driver.Driver, error) {
	switch {
	case o.driver != nil:
		return o.driver, nil
	case o.driverName != "":
		if d := driver.Get(o.driverName); d != nil {
			return d, nil
		}
		return nil, unavailable("driver %q is not registered (available: %v)", o.driverName, driver.Available())
	default:
		if d := driver.Default(); d != nil {
			return d, nil
		}
		return nil, unavailable("no driver registered")
	}
}

func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return Logger()
}
