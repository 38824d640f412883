// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"fmt"
	"image"

	"golang.org/x/image/math/f64"

	"github.com/gogpu/framepipe/driver"
)

// sourceToViewport builds the source-to-destination affine used by
// xdraw.Transform for a texture drawn through m into viewport.
//
// Normalized viewport coordinates (u, v) run from the top-left corner of the
// viewport; m maps them to texture coordinates (s, t), where t = 0 is the
// first row of src. Composing with the pixel scales gives the
// destination-to-source map, which is inverted here.
func sourceToViewport(m driver.Mat4, src, viewport image.Rectangle) (f64.Aff3, error) {
	vw, vh := float64(viewport.Dx()), float64(viewport.Dy())
	sw, sh := float64(src.Dx()), float64(src.Dy())
	if vw <= 0 || vh <= 0 || sw <= 0 || sh <= 0 {
		return f64.Aff3{}, fmt.Errorf("soft: empty draw (viewport %v, source %v)", viewport, src)
	}
	vx, vy := float64(viewport.Min.X), float64(viewport.Min.Y)
	sx0, sy0 := float64(src.Min.X), float64(src.Min.Y)

	a, b, c, d, e, f := m.Affine2D()

	// Destination pixel (x, y) to source pixel.
	A := sw * a / vw
	B := sw * b / vh
	C := sw*(c-a*vx/vw-b*vy/vh) + sx0
	D := sh * d / vw
	E := sh * e / vh
	F := sh*(f-d*vx/vw-e*vy/vh) + sy0

	det := A*E - B*D
	if det == 0 {
		return f64.Aff3{}, fmt.Errorf("soft: singular texture transform %v", m)
	}
	return f64.Aff3{
		E / det, -B / det, (B*F - C*E) / det,
		-D / det, A / det, (C*D - A*F) / det,
	}, nil
}
