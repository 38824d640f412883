// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package framepipe composites frames from an external producer onto an
// output surface.
//
// # Overview
//
// A producer (a virtual display or an off-screen renderer) draws frames into a
// GPU-backed capture texture. framepipe latches the newest frame, draws it
// onto a caller-supplied output surface and presents it. It owns the graphics
// context, the capture texture and the presentation drawable, and releases
// them in reverse creation order.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/framepipe"
//	    "github.com/gogpu/framepipe/driver"
//	    "github.com/gogpu/framepipe/driver/soft"
//	)
//
//	win := soft.NewWindow(1920, 1080)
//	p, err := framepipe.New(win, framepipe.WithDriverName("soft"))
//	if err != nil {
//	    return err
//	}
//	defer p.Release()
//
//	// Hand the drawable to the producer. Every Post triggers a composite.
//	input := p.InputDrawable()
//	_ = input.Post(frame, driver.Identity4())
//
// # Drivers
//
// The graphics platform is selected through package driver. Two drivers are
// included:
//   - driver/halgpu ("wgpu"): GPU platform on gogpu/wgpu HAL
//   - driver/soft ("soft"): in-memory software platform
//
// Importing a driver package registers it. Without [WithDriver] or
// [WithDriverName], [driver.Default] picks the highest-priority registered
// driver.
//
// # Threading
//
// A context is current on one OS thread at a time. Each Pipeline runs a
// dedicated render thread that creates the context, performs every composite
// and destroys the context. Producer notifications are coalesced: many frames
// posted while a composite is in progress result in exactly one further
// composite showing the newest frame.
//
// [Pipeline.Render] and [Pipeline.Release] may be called from any goroutine.
// Release waits for an in-flight composite and is idempotent.
package framepipe
