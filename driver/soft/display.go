// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/framepipe/driver"
)

// Errors returned by injected faults.
var (
	ErrInjected = errors.New("soft: injected fault")
)

type display struct {
	drv         *Driver
	initialized bool

	current     *context
	currentSurf *windowSurface
}

type config struct {
	attrs driver.ConfigAttribs
}

func (c *config) Attribs() driver.ConfigAttribs { return c.attrs }

func (p *display) Initialize() (driver.Version, error) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if p.drv.opts.faults.InitFail {
		return driver.Version{}, fmt.Errorf("initialize: %w", ErrInjected)
	}
	if !p.initialized {
		p.initialized = true
		p.drv.live.Displays++
	}
	return p.drv.opts.version, nil
}

func (p *display) ChooseConfigs(req driver.ConfigRequest) ([]driver.Config, error) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if !p.initialized {
		return nil, driver.ErrNotInitialized
	}
	var out []driver.Config
	for _, attrs := range p.drv.opts.configs {
		if req.Matches(attrs) {
			out = append(out, &config{attrs: attrs})
		}
	}
	return out, nil
}

func (p *display) CreateContext(cfg driver.Config, req driver.ContextRequest) (driver.Context, error) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if !p.initialized {
		return nil, driver.ErrNotInitialized
	}
	if p.drv.opts.faults.ContextFail {
		return nil, fmt.Errorf("create context: %w", ErrInjected)
	}
	if _, ok := cfg.(*config); !ok {
		return nil, fmt.Errorf("soft: foreign config %T", cfg)
	}
	if req.ClientVersion < 1 || req.ClientVersion > 3 {
		return nil, fmt.Errorf("soft: unsupported client version %d", req.ClientVersion)
	}
	c := &context{
		id:       p.drv.newID(),
		display:  p,
		textures: make(map[driver.TextureID]*texture),
	}
	p.drv.live.Contexts++
	return c, nil
}

func (p *display) CreateWindowSurface(cfg driver.Config, out driver.OutputSurface) (driver.WindowSurface, error) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if !p.initialized {
		return nil, driver.ErrNotInitialized
	}
	if p.drv.opts.faults.SurfaceFail {
		return nil, fmt.Errorf("create window surface: %w", ErrInjected)
	}
	win, ok := out.(*Window)
	if !ok || win == nil {
		return nil, fmt.Errorf("%w: %T is not a *soft.Window", driver.ErrBadSurface, out)
	}
	if !win.Valid() {
		return nil, fmt.Errorf("%w: window destroyed", driver.ErrBadSurface)
	}
	if _, ok := cfg.(*config); !ok {
		return nil, fmt.Errorf("soft: foreign config %T", cfg)
	}
	s := &windowSurface{win: win}
	p.drv.live.Surfaces++
	return s, nil
}

func (p *display) MakeCurrent(surf driver.WindowSurface, ctx driver.Context) error {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if p.drv.opts.faults.MakeCurrentFail {
		return fmt.Errorf("make current: %w", ErrInjected)
	}
	c, ok := ctx.(*context)
	if !ok || c == nil {
		return fmt.Errorf("soft: foreign context %T", ctx)
	}
	s, ok := surf.(*windowSurface)
	if !ok || s == nil {
		return fmt.Errorf("soft: foreign surface %T", surf)
	}
	if c.destroyed || s.destroyed {
		p.drv.violation()
		return driver.ErrContextLost
	}
	if !s.win.Valid() {
		return fmt.Errorf("%w: window destroyed", driver.ErrBadSurface)
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
		return fmt.Errorf("soft: foreign surface %T", surf)
	}
	if s.destroyed {
		p.drv.violation()
		return driver.ErrContextLost
	}
	if p.currentSurf != s {
		return driver.ErrNotCurrent
	}
	if p.drv.opts.faults.SwapFail {
		return fmt.Errorf("swap buffers: %w", ErrInjected)
	}
	back := s.backBuffer()
	if back == nil {
		return fmt.Errorf("%w: window destroyed", driver.ErrBadSurface)
	}
	return s.win.present(back)
}

func (p *display) DestroySurface(surf driver.WindowSurface) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	s, ok := surf.(*windowSurface)
	if !ok || s == nil {
		return
	}
	if s.destroyed {
		p.drv.violation()
		return
	}
	s.destroyed = true
	s.back = nil
	if p.currentSurf == s {
		p.currentSurf = nil
	}
	p.drv.live.Surfaces--
}

func (p *display) DestroyContext(ctx driver.Context) {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	c, ok := ctx.(*context)
	if !ok || c == nil {
		return
	}
	if c.destroyed {
		p.drv.violation()
		return
	}
	c.destroyed = true
	p.drv.live.Textures -= len(c.textures)
	c.textures = nil
	if p.current == c {
		p.current = nil
	}
	p.drv.live.Contexts--
}

func (p *display) Terminate() {
	p.drv.mu.Lock()
	defer p.drv.mu.Unlock()
	if !p.initialized {
		return
	}
	p.initialized = false
	p.current = nil
	p.currentSurf = nil
	p.drv.live.Displays--
}

type windowSurface struct {
	win       *Window
	back      *image.RGBA
	destroyed bool
}

// Size re-queries the window, so a resized window reports its new size.
func (s *windowSurface) Size() (int, int) {
	return s.win.Size()
}

// backBuffer returns the back buffer sized to the window, reallocating it
// after a resize. Returns nil when the window is gone.
func (s *windowSurface) backBuffer() *image.RGBA {
	w, h := s.win.Size()
	if w <= 0 || h <= 0 {
		return nil
	}
	if s.back == nil || s.back.Bounds().Dx() != w || s.back.Bounds().Dy() != h {
		s.back = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return s.back
}
