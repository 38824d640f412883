// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package driver

import (
	"errors"
	"image"

	"github.com/gogpu/gputypes"
)

// Common driver errors. Implementations wrap these so callers can match them
// with errors.Is regardless of the platform.
var (
	// ErrNoDisplay is returned by OpenDisplay when the platform has no default display.
	ErrNoDisplay = errors.New("driver: no default display")

	// ErrNotInitialized is returned when a display is used before Initialize.
	ErrNotInitialized = errors.New("driver: display not initialized")

	// ErrNotCurrent is returned when a context command is issued while the
	// context is not current.
	ErrNotCurrent = errors.New("driver: context is not current")

	// ErrContextLost is returned when a command targets a destroyed context
	// or a texture that no longer exists.
	ErrContextLost = errors.New("driver: context lost")

	// ErrBadSurface is returned when an output surface cannot back a window surface.
	ErrBadSurface = errors.New("driver: bad output surface")

	// ErrSurfaceReleased is returned by InputSurface.Post after the stream
	// that owns the surface was released.
	ErrSurfaceReleased = errors.New("driver: input surface released")

	// ErrBadTarget is returned when a texture is bound to a target that
	// cannot sample it.
	ErrBadTarget = errors.New("driver: wrong texture target")

	// ErrUnsupported is returned by optional commands the platform cannot perform.
	ErrUnsupported = errors.New("driver: operation not supported")
)

// Driver is a platform graphics implementation.
type Driver interface {
	// Name returns the driver identifier (e.g., "soft", "wgpu").
	Name() string

	// OpenDisplay returns the platform's default display connection.
	// Returns an error wrapping ErrNoDisplay if none exists.
	OpenDisplay() (Display, error)
}

// Display is a connection to the platform's graphics system.
type Display interface {
	// Initialize negotiates the display version. It must be called once
	// before any other method.
	Initialize() (Version, error)

	// ChooseConfigs returns every config matching req in platform order.
	// An empty result with a nil error means no config matched.
	ChooseConfigs(req ConfigRequest) ([]Config, error)

	// CreateContext creates a rendering context compatible with cfg.
	CreateContext(cfg Config, req ContextRequest) (Context, error)

	// CreateWindowSurface creates a presentation drawable bound to out.
	// The display never takes ownership of out.
	CreateWindowSurface(cfg Config, out OutputSurface) (WindowSurface, error)

	// MakeCurrent binds ctx and surf to the calling thread.
	MakeCurrent(surf WindowSurface, ctx Context) error

	// ReleaseCurrent unbinds whatever context is current.
	ReleaseCurrent() error

	// SwapBuffers presents the back buffer of surf.
	SwapBuffers(surf WindowSurface) error

	// DestroySurface destroys a window surface. Destroying nil is a no-op.
	DestroySurface(surf WindowSurface)

	// DestroyContext destroys a context and every object it owns.
	// Destroying nil is a no-op.
	DestroyContext(ctx Context)

	// Terminate shuts the display connection down.
	Terminate()
}

// Config is an opaque pixel format configuration chosen by the platform.
type Config interface {
	// Attribs describes the config.
	Attribs() ConfigAttribs
}

// Context is a rendering context. All methods require the context to be
// current on the calling thread and return ErrNotCurrent otherwise.
type Context interface {
	// GenTexture allocates a texture name. Storage is allocated lazily by
	// whoever writes into the texture.
	GenTexture() (TextureID, error)

	// DeleteTexture frees a texture. Deleting an unknown name is a no-op.
	DeleteTexture(id TextureID)

	// NewStream wraps the texture in a capture stream.
	NewStream(id TextureID) (Stream, error)

	// BindTexture makes id the active sampling source for target.
	BindTexture(target TextureTarget, id TextureID) error

	// ClearColor sets the color used by Clear.
	ClearColor(c gputypes.Color)

	// Clear clears the color buffer of the current drawable.
	Clear() error

	// Viewport sets the rectangle subsequent draws map onto.
	Viewport(x, y, width, height int) error

	// DrawTexture draws the texture over the viewport, sampling it through
	// transform. Platforms that cannot sample return ErrUnsupported.
	DrawTexture(id TextureID, transform Mat4) error
}

// WindowSurface is a presentation drawable bound to an OutputSurface.
type WindowSurface interface {
	// Size returns the current drawable size in pixels.
	Size() (width, height int)
}

// OutputSurface is the caller-owned native surface frames are presented to.
// Each driver documents the concrete types it accepts.
type OutputSurface interface {
	// Size returns the surface size in pixels.
	Size() (width, height int)
}

// Stream is a capture primitive: a texture plus the producer-facing
// InputSurface that feeds it.
type Stream interface {
	// Input returns the surface a producer posts frames into.
	Input() InputSurface

	// SetFrameListener registers fn to be called, on the producer's
	// goroutine, each time a frame is posted. A nil fn removes the listener.
	SetFrameListener(fn func())

	// UpdateTexImage latches the newest posted frame into the texture.
	// It is a no-op when no new frame arrived since the last call.
	// Requires the owning context to be current.
	UpdateTexImage() error

	// TransformMatrix returns the texture-coordinate transform of the frame
	// most recently latched by UpdateTexImage.
	TransformMatrix() Mat4

	// Release invalidates the input surface and detaches the listener.
	// The texture itself stays owned by the context. Release is idempotent.
	Release()
}

// InputSurface is the drawable an external producer renders into.
// It is safe for concurrent use.
type InputSurface interface {
	// Post submits a frame. transform maps output texture coordinates onto
	// img. A newer Post replaces a frame that was not latched yet.
	Post(img image.Image, transform Mat4) error

	// Valid reports whether the surface still accepts frames.
	Valid() bool
}
