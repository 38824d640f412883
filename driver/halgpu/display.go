// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package halgpu

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framepipe/driver"
)

// halVersion is reported by Initialize.
var halVersion = driver.Version{Major: 0, Minor: 27}

type display struct {
	drv      *Driver
	backend  hal.Backend
	instance hal.Instance
	adapters []hal.ExposedAdapter
	log      *slog.Logger

	current     *context
	currentSurf *windowSurface
}

// config is one adapter, or the provider's shared device when adapter is nil.
type config struct {
	adapter *hal.ExposedAdapter
	attrs   driver.ConfigAttribs
}

func (c *config) Attribs() driver.ConfigAttribs { return c.attrs }

func accelerated(t gputypes.DeviceType) bool {
	return t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU
}

// adapterConfigs describes adapters in enumeration order. All adapters
// render RGBA8; only discrete and integrated GPUs count as accelerated.
func adapterConfigs(adapters []hal.ExposedAdapter) []*config {
	out := make([]*config, 0, len(adapters))
	for i := range adapters {
		out = append(out, &config{
			adapter: &adapters[i],
			attrs:   rgba8Attribs(adapters[i].Info.Name, accelerated(adapters[i].Info.DeviceType)),
		})
	}
	return out
}

func rgba8Attribs(label string, accel bool) driver.ConfigAttribs {
	return driver.ConfigAttribs{
		Format:  gputypes.TextureFormatRGBA8Unorm,
		RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8,
		Accelerated: accel,
		Label:       label,
	}
}

func (p *display) Initialize() (driver.Version, error) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if p.instance != nil {
		return halVersion, nil
	}
	instance, err := p.backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return driver.Version{}, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 && p.drv.opts.provider == nil {
		instance.Destroy()
		return driver.Version{}, ErrNoAdapter
	}
	p.instance = instance
	p.adapters = adapters
	p.log.Debug("halgpu: instance created", "adapters", len(adapters))
	return halVersion, nil
}

func (p *display) ChooseConfigs(req driver.ConfigRequest) ([]driver.Config, error) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if p.instance == nil {
		return nil, driver.ErrNotInitialized
	}
	if p.drv.opts.provider != nil {
		// The shared device is already on a GPU.
		c := &config{attrs: rgba8Attribs("shared", true)}
		if req.Matches(c.attrs) {
			return []driver.Config{c}, nil
		}
		return nil, nil
	}
	var out []driver.Config
	for _, c := range adapterConfigs(p.adapters) {
		if req.Matches(c.attrs) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *display) CreateContext(cfg driver.Config, req driver.ContextRequest) (driver.Context, error) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if p.instance == nil {
		return nil, driver.ErrNotInitialized
	}
	c, ok := cfg.(*config)
	if !ok || c == nil {
		return nil, fmt.Errorf("halgpu: foreign config %T", cfg)
	}
	ctx := &context{
		display:  p,
		textures: make(map[driver.TextureID]*texture),
		version:  req.ClientVersion,
	}
	if c.adapter == nil {
		device, queue, err := sharedDevice(p.drv.opts.provider)
		if err != nil {
			return nil, err
		}
		ctx.device, ctx.queue, ctx.shared = device, queue, true
		p.log.Info("halgpu: using shared device")
		return ctx, nil
	}
	openDev, err := c.adapter.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	ctx.device = openDev.Device
	ctx.queue = openDev.Queue
	p.log.Info("halgpu: device opened", "adapter", c.attrs.Label)
	return ctx, nil
}

func (p *display) CreateWindowSurface(cfg driver.Config, out driver.OutputSurface) (driver.WindowSurface, error) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if p.instance == nil {
		return nil, driver.ErrNotInitialized
	}
	if _, ok := cfg.(*config); !ok {
		return nil, fmt.Errorf("halgpu: foreign config %T", cfg)
	}
	t, ok := out.(Target)
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: %w (%T)", driver.ErrBadSurface, ErrNotTarget, out)
	}
	if w, h := t.Size(); w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: target is %dx%d", driver.ErrBadSurface, w, h)
	}
	return &windowSurface{target: t}, nil
}

// MakeCurrent binds ctx and surf for subsequent commands. HAL devices are
// not thread-bound; the binding only selects what commands act on.
func (p *display) MakeCurrent(surf driver.WindowSurface, ctx driver.Context) error {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	c, ok := ctx.(*context)
	if !ok || c == nil {
		return fmt.Errorf("halgpu: foreign context %T", ctx)
	}
	s, ok := surf.(*windowSurface)
	if !ok || s == nil {
		return fmt.Errorf("halgpu: foreign surface %T", surf)
	}
	if c.destroyed || s.destroyed {
		return driver.ErrContextLost
	}
	p.current = c
	p.currentSurf = s
	return nil
}

func (p *display) ReleaseCurrent() error {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	p.current = nil
	p.currentSurf = nil
	return nil
}

func (p *display) SwapBuffers(surf driver.WindowSurface) error {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	s, ok := surf.(*windowSurface)
	if !ok || s == nil {
		return fmt.Errorf("halgpu: foreign surface %T", surf)
	}
	if s.destroyed {
		return driver.ErrContextLost
	}
	if p.currentSurf != s || p.current == nil {
		return driver.ErrNotCurrent
	}
	if err := p.current.submitFrame(s.target); err != nil {
		return err
	}
	return s.target.Present()
}

func (p *display) DestroySurface(surf driver.WindowSurface) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	s, ok := surf.(*windowSurface)
	if !ok || s == nil || s.destroyed {
		return
	}
	s.destroyed = true
	if p.currentSurf == s {
		p.currentSurf = nil
	}
}

func (p *display) DestroyContext(ctx driver.Context) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	c, ok := ctx.(*context)
	if !ok || c == nil || c.destroyed {
		return
	}
	c.destroy()
	if p.current == c {
		p.current = nil
	}
}

func (p *display) Terminate() {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if p.instance == nil {
		return
	}
	p.instance.Destroy()
	p.instance = nil
	p.adapters = nil
	p.current = nil
	p.currentSurf = nil
}

type windowSurface struct {
	target    Target
	destroyed bool
}

func (s *windowSurface) Size() (int, int) { return s.target.Size() }
