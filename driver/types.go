// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package driver

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// TextureID is an opaque handle to a texture owned by a Context.
type TextureID uint64

// InvalidTexture is the zero value, representing no texture.
const InvalidTexture TextureID = 0

// TextureTarget selects how a bound texture is sampled.
type TextureTarget uint8

const (
	// Texture2D is a regular texture written by the consumer's own commands.
	Texture2D TextureTarget = iota

	// TextureExternal is a texture whose content is written outside the
	// consumer's draw calls, e.g. by a Stream.
	TextureExternal
)

// String returns the target name.
func (t TextureTarget) String() string {
	switch t {
	case Texture2D:
		return "2D"
	case TextureExternal:
		return "External"
	default:
		return fmt.Sprintf("TextureTarget(%d)", t)
	}
}

// Accepts reports whether a texture may be bound to t. Stream textures are
// External; every other texture is 2D.
func (t TextureTarget) Accepts(stream bool) bool {
	switch t {
	case Texture2D:
		return !stream
	case TextureExternal:
		return stream
	default:
		return false
	}
}

// Version is a display version reported by Initialize.
type Version struct {
	Major int
	Minor int
}

// String returns "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ConfigAttribs describes a config.
type ConfigAttribs struct {
	// Format is the color buffer format.
	Format gputypes.TextureFormat

	// RedBits, GreenBits, BlueBits, AlphaBits are the channel depths.
	RedBits   int
	GreenBits int
	BlueBits  int
	AlphaBits int

	// Accelerated reports a GPU-accelerated, rendering-capable profile.
	Accelerated bool

	// Label is a platform description (adapter name, etc.).
	Label string
}

// ConfigRequest is the capability set a config must satisfy.
type ConfigRequest struct {
	RedBits     int
	GreenBits   int
	BlueBits    int
	AlphaBits   int
	Accelerated bool
}

// RGBA8Accelerated returns the request for 8-bit RGBA on an accelerated profile.
func RGBA8Accelerated() ConfigRequest {
	return ConfigRequest{
		RedBits:     8,
		GreenBits:   8,
		BlueBits:    8,
		AlphaBits:   8,
		Accelerated: true,
	}
}

// Matches reports whether a satisfies r. Channel depths must match exactly;
// Accelerated is only required when requested.
func (r ConfigRequest) Matches(a ConfigAttribs) bool {
	if a.RedBits != r.RedBits || a.GreenBits != r.GreenBits ||
		a.BlueBits != r.BlueBits || a.AlphaBits != r.AlphaBits {
		return false
	}
	return !r.Accelerated || a.Accelerated
}

// ContextRequest configures context creation.
type ContextRequest struct {
	// ClientVersion is the requested API tier. 2 is the accelerated tier
	// framepipe needs.
	ClientVersion int
}
