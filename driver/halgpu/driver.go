// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

// Package halgpu implements the framepipe graphics platform on the
// gogpu/wgpu hardware abstraction layer.
//
// Mapping onto HAL:
//   - Display: a HAL backend (Vulkan by default); Initialize creates the instance
//   - Config: an adapter, in the order the instance enumerates them
//   - Context: a device and queue opened on the adapter, or a device shared
//     through a gpucontext.DeviceProvider
//   - Window surface: a caller-owned [Target]
//   - Capture texture: an RGBA8 texture uploaded with Queue.WriteTexture when
//     a frame is latched
//
// SwapBuffers records one render pass into the target view: it clears, then
// draws the latched capture texture as a viewport-covering triangle sampled
// through the stream transform. It then submits the pass, waits for the
// submission to complete and calls [Target.Present].
//
// Importing the package registers the driver under the name "wgpu".
// Build with -tags nogpu to leave it out.
package halgpu

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the Vulkan HAL backend.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/framepipe/driver"
)

func init() {
	driver.Register(driver.NameWGPU, func() driver.Driver { return New() })
}

// Errors returned by the HAL driver.
var (
	ErrNoAdapter      = errors.New("halgpu: no GPU adapter")
	ErrProviderNotHAL = errors.New("halgpu: device provider does not expose HAL types")
	ErrNotTarget      = errors.New("halgpu: output surface is not a halgpu.Target")
	ErrSubmitPending  = errors.New("halgpu: frame submission did not complete")
)

// Option configures a Driver.
type Option func(*options)

type options struct {
	backend  gputypes.Backend
	provider gpucontext.DeviceProvider
	logger   *slog.Logger

	// halBackend replaces the registry lookup of backend.
	halBackend hal.Backend
}

// WithBackend selects the HAL backend. The default is Vulkan.
func WithBackend(b gputypes.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithDeviceProvider shares the device of an existing GPU context instead of
// opening a new one. The provider's Device must expose HalDevice and
// HalQueue, as *wgpu.Device does. A shared device is never destroyed by the
// driver.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithLogger sets the logger for driver diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Driver is the HAL platform. Create one with New.
type Driver struct {
	mu      sync.Mutex
	opts    options
	display *display
}

// New creates a HAL driver.
func New(opts ...Option) *Driver {
	o := options{backend: gputypes.BackendVulkan}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{opts: o}
}

var _ driver.Driver = (*Driver)(nil)

// Name returns "wgpu".
func (d *Driver) Name() string { return driver.NameWGPU }

// OpenDisplay returns the display for the configured backend, or
// driver.ErrNoDisplay when the backend is not compiled in.
func (d *Driver) OpenDisplay() (driver.Display, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.display != nil {
		return d.display, nil
	}
	backend := d.opts.halBackend
	if backend == nil {
		var ok bool
		if backend, ok = hal.GetBackend(d.opts.backend); !ok {
			return nil, driver.ErrNoDisplay
		}
	}
	d.display = &display{drv: d, backend: backend, log: d.opts.logger}
	return d.display, nil
}

// halDevice is the HAL view of a wgpu device.
type halDevice interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
}

// sharedDevice extracts HAL types from a device provider.
func sharedDevice(p gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	if p == nil {
		return nil, nil, ErrProviderNotHAL
	}
	hd, ok := p.Device().(halDevice)
	if !ok || hd == nil {
		return nil, nil, ErrProviderNotHAL
	}
	device, queue := hd.HalDevice(), hd.HalQueue()
	if device == nil || queue == nil {
		return nil, nil, ErrProviderNotHAL
	}
	return device, queue, nil
}
