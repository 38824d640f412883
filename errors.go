// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framepipe

import "errors"

// Construction errors. All are fatal: New releases everything it created
// before returning one. The driver's own error is wrapped alongside, so both
// match errors.Is.
var (
	// ErrContextUnavailable means no display exists or it failed to initialize.
	ErrContextUnavailable = errors.New("framepipe: graphics context unavailable")

	// ErrNoMatchingConfig means no config offers accelerated 8-bit RGBA.
	ErrNoMatchingConfig = errors.New("framepipe: no matching config")

	// ErrContextCreationFailed means the rendering context could not be created.
	ErrContextCreationFailed = errors.New("framepipe: context creation failed")

	// ErrSurfaceCreationFailed means the presentation drawable or the capture
	// surface could not be created.
	ErrSurfaceCreationFailed = errors.New("framepipe: surface creation failed")

	// ErrMakeCurrentFailed means the context could not be made current.
	ErrMakeCurrentFailed = errors.New("framepipe: make current failed")
)

// Per-frame errors.
var (
	// ErrRenderFailed wraps any failure of a composite pass.
	ErrRenderFailed = errors.New("framepipe: render failed")

	// ErrReleased is joined with ErrRenderFailed for renders after Release.
	ErrReleased = errors.New("framepipe: pipeline released")
)
