// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package halgpu

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framepipe"
	"github.com/gogpu/framepipe/driver"
)

func TestRegistered(t *testing.T) {
	if !driver.IsRegistered(driver.NameWGPU) {
		t.Fatal("wgpu driver not registered")
	}
	if got := driver.Get(driver.NameWGPU); got == nil || got.Name() != driver.NameWGPU {
		t.Errorf("Get(%q) = %v", driver.NameWGPU, got)
	}
}

func TestAdapterConfigs(t *testing.T) {
	adapters := make([]hal.ExposedAdapter, 3)
	adapters[0].Info.Name = "llvmpipe"
	adapters[0].Info.DeviceType = gputypes.DeviceTypeOther
	adapters[1].Info.Name = "discrete"
	adapters[1].Info.DeviceType = gputypes.DeviceTypeDiscreteGPU
	adapters[2].Info.Name = "integrated"
	adapters[2].Info.DeviceType = gputypes.DeviceTypeIntegratedGPU

	cfgs := adapterConfigs(adapters)
	if len(cfgs) != 3 {
		t.Fatalf("adapterConfigs() returned %d configs, want 3", len(cfgs))
	}
	req := driver.RGBA8Accelerated()
	tests := []struct {
		label string
		accel bool
	}{
		{"llvmpipe", false},
		{"discrete", true},
		{"integrated", true},
	}
	for i, tt := range tests {
		a := cfgs[i].Attribs()
		if a.Label != tt.label {
			t.Errorf("config %d label = %q, want %q (enumeration order)", i, a.Label, tt.label)
		}
		if a.Accelerated != tt.accel {
			t.Errorf("%s: Accelerated = %v, want %v", tt.label, a.Accelerated, tt.accel)
		}
		if got := req.Matches(a); got != tt.accel {
			t.Errorf("%s: RGBA8Accelerated().Matches = %v, want %v", tt.label, got, tt.accel)
		}
		if cfgs[i].adapter != &adapters[i] {
			t.Errorf("%s: config does not point at its adapter", tt.label)
		}
	}
}

func TestToRGBA(t *testing.T) {
	t.Run("packed", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 4, 3))
		if toRGBA(img) != img {
			t.Error("toRGBA copied a tightly packed image")
		}
	})
	t.Run("offset origin", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(10, 20, 14, 22))
		img.SetRGBA(10, 20, color.RGBA{R: 255, A: 255})
		img.SetRGBA(13, 21, color.RGBA{B: 255, A: 255})

		got := toRGBA(img)
		if got.Rect != image.Rect(0, 0, 4, 2) {
			t.Fatalf("bounds = %v, want (0,0)-(4,2)", got.Rect)
		}
		if c := got.RGBAAt(0, 0); c != (color.RGBA{R: 255, A: 255}) {
			t.Errorf("(0,0) = %v, want red", c)
		}
		if c := got.RGBAAt(3, 1); c != (color.RGBA{B: 255, A: 255}) {
			t.Errorf("(3,1) = %v, want blue", c)
		}
	})
	t.Run("sub image", func(t *testing.T) {
		parent := image.NewRGBA(image.Rect(0, 0, 8, 8))
		parent.SetRGBA(2, 2, color.RGBA{G: 255, A: 255})
		sub := parent.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)

		got := toRGBA(sub)
		if got.Stride != 4*2 {
			t.Errorf("stride = %d, want %d", got.Stride, 4*2)
		}
		if c := got.RGBAAt(0, 0); c != (color.RGBA{G: 255, A: 255}) {
			t.Errorf("(0,0) = %v, want green", c)
		}
	})
	t.Run("non RGBA", func(t *testing.T) {
		img := image.NewGray(image.Rect(0, 0, 2, 2))
		img.SetGray(1, 1, color.Gray{Y: 200})
		if c := toRGBA(img).RGBAAt(1, 1); c != (color.RGBA{R: 200, G: 200, B: 200, A: 255}) {
			t.Errorf("(1,1) = %v, want gray 200", c)
		}
	})
}

func TestSharedDeviceRejectsForeignProvider(t *testing.T) {
	if _, _, err := sharedDevice(nil); !errors.Is(err, ErrProviderNotHAL) {
		t.Errorf("sharedDevice(nil) error = %v, want ErrProviderNotHAL", err)
	}
}

func TestOffscreenTargetBeforeFirstFrame(t *testing.T) {
	target := NewOffscreenTarget(32, 16)
	if w, h := target.Size(); w != 32 || h != 16 {
		t.Errorf("Size() = %dx%d, want 32x16", w, h)
	}
	if _, err := target.CurrentView(); !errors.Is(err, ErrNoView) {
		t.Errorf("CurrentView() error = %v, want ErrNoView", err)
	}
	if target.Presents() != 0 {
		t.Errorf("Presents() = %d, want 0", target.Presents())
	}
}

// openGPU returns an initialized display or skips the test.
func openGPU(t *testing.T) (*Driver, driver.Display) {
	t.Helper()
	drv := New()
	dpy, err := drv.OpenDisplay()
	if err != nil {
		t.Skipf("no HAL backend: %v", err)
	}
	if _, err := dpy.Initialize(); err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	return drv, dpy
}

func TestCreateWindowSurfaceRejectsForeignOutput(t *testing.T) {
	_, dpy := openGPU(t)
	defer dpy.Terminate()

	cfgs, err := dpy.ChooseConfigs(driver.ConfigRequest{RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8})
	if err != nil || len(cfgs) == 0 {
		t.Skipf("no configs: %v", err)
	}
	tests := []struct {
		name string
		out  driver.OutputSurface
	}{
		{"not a target", sized{64, 64}},
		{"empty target", NewOffscreenTarget(0, 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dpy.CreateWindowSurface(cfgs[0], tt.out); !errors.Is(err, driver.ErrBadSurface) {
				t.Errorf("CreateWindowSurface() error = %v, want ErrBadSurface", err)
			}
		})
	}
}

type sized struct{ w, h int }

func (s sized) Size() (int, int) { return s.w, s.h }

func TestPipelineOnGPU(t *testing.T) {
	drv, dpy := openGPU(t)
	dpy.Terminate()

	target := NewOffscreenTarget(64, 64)
	p, err := framepipe.New(target, framepipe.WithDriver(drv), framepipe.WithAutoRender(false))
	if errors.Is(err, framepipe.ErrNoMatchingConfig) {
		t.Skip("no accelerated adapter")
	}
	if err != nil {
		t.Fatalf("framepipe.New() error = %v", err)
	}
	defer p.Release()

	frame := image.NewRGBA(image.Rect(0, 0, 16, 16))
	if err := p.InputDrawable().Post(frame, driver.Identity4()); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	for range 2 {
		if err := p.Render(); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}
	if got := target.Presents(); got != 2 {
		t.Errorf("Presents() = %d, want 2", got)
	}
	p.Release()
	if _, err := target.CurrentView(); !errors.Is(err, ErrNoView) {
		t.Errorf("CurrentView() after release error = %v, want ErrNoView", err)
	}
}
