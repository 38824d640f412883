// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package soft implements a software graphics platform for framepipe.
//
// The platform keeps every object in memory: textures are *image.RGBA values,
// window surfaces own a back buffer that SwapBuffers copies to the caller's
// [Window]. Draws sample the capture texture through its transform using
// golang.org/x/image/draw.
//
// soft is deterministic and fully observable, which makes it the platform the
// framepipe tests run on: [Faults] fails any construction step on demand,
// [Driver.Live] reports objects that are still allocated, and
// [Driver.Violations] counts commands issued against destroyed objects.
//
// Importing the package registers the driver under the name "soft".
package soft

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/framepipe/driver"
)

func init() {
	driver.Register(driver.NameSoft, func() driver.Driver { return New() })
}

// Faults selects construction and presentation steps that fail.
type Faults struct {
	NoDisplay       bool // OpenDisplay reports no display
	InitFail        bool // Initialize fails
	ContextFail     bool // CreateContext fails
	SurfaceFail     bool // CreateWindowSurface fails
	MakeCurrentFail bool // MakeCurrent fails
	TextureFail     bool // GenTexture fails
	SwapFail        bool // SwapBuffers fails
}

// Resources counts objects that are currently allocated.
type Resources struct {
	Displays int // initialized, not yet terminated
	Contexts int
	Surfaces int
	Textures int
	Streams  int
}

// Zero reports whether nothing is allocated.
func (r Resources) Zero() bool {
	return r == Resources{}
}

// Option configures a Driver.
type Option func(*options)

type options struct {
	configs      []driver.ConfigAttribs
	faults       Faults
	interpolator xdraw.Interpolator
	version      driver.Version
	clearOnly    bool
}

func defaultOptions() options {
	return options{
		configs: []driver.ConfigAttribs{
			{
				Format:  gputypes.TextureFormatRGBA8Unorm,
				RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8,
				Accelerated: true,
				Label:       "soft-rgba8",
			},
			{
				Format:  gputypes.TextureFormatBGRA8Unorm,
				RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8,
				Accelerated: true,
				Label:       "soft-bgra8",
			},
		},
		interpolator: xdraw.ApproxBiLinear,
		version:      driver.Version{Major: 1, Minor: 5},
	}
}

// WithConfigs replaces the configs the display reports, in platform order.
func WithConfigs(configs ...driver.ConfigAttribs) Option {
	return func(o *options) {
		o.configs = configs
	}
}

// WithFaults sets the initial fault set.
func WithFaults(f Faults) Option {
	return func(o *options) {
		o.faults = f
	}
}

// WithInterpolator sets the sampler used by DrawTexture.
// The default is xdraw.ApproxBiLinear.
func WithInterpolator(i xdraw.Interpolator) Option {
	return func(o *options) {
		if i != nil {
			o.interpolator = i
		}
	}
}

// WithClearOnly makes DrawTexture return driver.ErrUnsupported, modelling a
// platform that can only clear and present.
func WithClearOnly() Option {
	return func(o *options) {
		o.clearOnly = true
	}
}

// Driver is the software platform. Create one with New.
//
// All display, context and surface operations serialize on one driver lock,
// the way a platform driver serializes access to its device.
type Driver struct {
	mu      sync.Mutex
	opts    options
	display *display
	live    Resources

	violations atomic.Int64
	nextObject atomic.Uint64
}

// New creates a software driver.
func New(opts ...Option) *Driver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Driver{opts: o}
}

var _ driver.Driver = (*Driver)(nil)

// Name returns "soft".
func (d *Driver) Name() string { return driver.NameSoft }

// OpenDisplay returns the driver's default display.
func (d *Driver) OpenDisplay() (driver.Display, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.faults.NoDisplay {
		return nil, driver.ErrNoDisplay
	}
	if d.display == nil {
		d.display = &display{drv: d}
	}
	return d.display, nil
}

// SetFaults replaces the fault set. It affects subsequent calls only.
func (d *Driver) SetFaults(f Faults) {
	d.mu.Lock()
	d.opts.faults = f
	d.mu.Unlock()
}

// Live returns the objects currently allocated.
func (d *Driver) Live() Resources {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

// Violations returns how many commands targeted destroyed objects.
func (d *Driver) Violations() int64 {
	return d.violations.Load()
}

func (d *Driver) violation() {
	d.violations.Add(1)
}

func (d *Driver) newID() uint64 {
	return d.nextObject.Add(1)
}
