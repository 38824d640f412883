// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framepipe

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framepipe/driver"
	"github.com/gogpu/framepipe/driver/soft"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.clearColor != DefaultClearColor {
		t.Errorf("clearColor = %v, want %v", o.clearColor, DefaultClearColor)
	}
	if !o.autoRender {
		t.Error("autoRender should default to true")
	}
	if o.viewportW != 0 || o.viewportH != 0 {
		t.Errorf("viewport = %dx%d, want unpinned", o.viewportW, o.viewportH)
	}
	if o.log() != Logger() {
		t.Error("log() should fall back to the package logger")
	}
}

func TestOptionsApply(t *testing.T) {
	drv := soft.New()
	l := slog.Default()
	c := gputypes.Color{R: 1, A: 1}

	o := defaultOptions()
	for _, opt := range []Option{
		WithDriver(drv),
		WithDriverName("ignored"),
		WithViewport(640, 480),
		WithClearColor(c),
		WithLogger(l),
		WithAutoRender(false),
	} {
		opt(&o)
	}

	if o.viewportW != 640 || o.viewportH != 480 {
		t.Errorf("viewport = %dx%d", o.viewportW, o.viewportH)
	}
	if o.clearColor != c || o.autoRender || o.log() != l {
		t.Errorf("options not applied: %+v", o)
	}
	got, err := o.resolveDriver()
	if err != nil || got != drv {
		t.Errorf("resolveDriver() = %v, %v; WithDriver should take precedence", got, err)
	}
}

func TestResolveDriver(t *testing.T) {
	tests := []struct {
		name     string
		opt      Option
		wantName string
		wantErr  error
	}{
		{"by name", WithDriverName(driver.NameSoft), driver.NameSoft, nil},
		{"unknown name", WithDriverName("nope"), "", ErrContextUnavailable},
		{"default", func(*options) {}, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.opt(&o)
			d, err := o.resolveDriver()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("resolveDriver() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveDriver() error = %v", err)
			}
			if tt.wantName != "" && d.Name() != tt.wantName {
				t.Errorf("resolveDriver() = %q, want %q", d.Name(), tt.wantName)
			}
		})
	}
}
