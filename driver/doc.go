// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package driver defines the platform graphics contract used by framepipe.
//
// The contract is shaped after EGL and GLES: a [Display] is the connection to
// the platform, a [Config] describes a pixel format the platform can render,
// a [Context] owns GPU objects and executes commands while it is current, and
// a [WindowSurface] presents into a caller-owned [OutputSurface].
//
// # Capture
//
// A [Stream] wraps a texture allocated on a [Context] and exposes an
// [InputSurface] that an external producer posts frames into from its own
// goroutine. The stream keeps only the newest frame; [Stream.UpdateTexImage]
// latches it into the texture on the thread where the context is current.
//
//	producer goroutine            render thread
//	------------------            -------------
//	input.Post(frame) ---+
//	                     +--> listener() --> UpdateTexImage()
//	input.Post(frame) ---+                   DrawTexture(id, TransformMatrix())
//	                                         SwapBuffers()
//
// # Implementations
//
// Two implementations ship with the module:
//   - driver/soft: a software platform built on image/draw and
//     golang.org/x/image/draw, with fault injection for tests
//   - driver/halgpu: a GPU platform built on gogpu/wgpu HAL
//
// Implementations register themselves with [Register] from init, and
// [Default] picks the preferred available one.
//
// # Threading
//
// Display, Context and WindowSurface methods must be called from one thread
// at a time. Context commands require the context to be current. Only
// [InputSurface] and [Stream.SetFrameListener] are safe for concurrent use.
package driver
