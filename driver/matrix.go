// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package driver

// Mat4 is a 4x4 texture-coordinate transform stored in column-major order,
// the layout producers report their buffer transforms in:
//
//	| m[0]  m[4]  m[8]   m[12] |
//	| m[1]  m[5]  m[9]   m[13] |
//	| m[2]  m[6]  m[10]  m[14] |
//	| m[3]  m[7]  m[11]  m[15] |
//
// Applied to the column vector (s, t, 0, 1) it maps an output texture
// coordinate onto the producer's buffer.
type Mat4 [16]float32

// Identity4 returns the identity transform.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate4 creates a translation in the s,t plane.
func Translate4(s, t float32) Mat4 {
	m := Identity4()
	m[12] = s
	m[13] = t
	return m
}

// Scale4 creates a scale in the s,t plane.
func Scale4(s, t float32) Mat4 {
	m := Identity4()
	m[0] = s
	m[5] = t
	return m
}

// FlipVertical returns the transform t' = 1 - t.
func FlipVertical() Mat4 {
	return Translate4(0, 1).Multiply(Scale4(1, -1))
}

// Crop returns the transform that samples the normalized sub-rectangle
// starting at (s, t) with size (w, h).
func Crop(s, t, w, h float32) Mat4 {
	return Translate4(s, t).Multiply(Scale4(w, h))
}

// Multiply returns m * o, the transform that applies o first.
func (m Mat4) Multiply(o Mat4) Mat4 {
	var r Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * o[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// Affine2D returns the s,t part of the transform as a 2x3 row-major affine:
//
//	s' = a*s + b*t + c
//	t' = d*s + e*t + f
func (m Mat4) Affine2D() (a, b, c, d, e, f float64) {
	return float64(m[0]), float64(m[4]), float64(m[12]),
		float64(m[1]), float64(m[5]), float64(m[13])
}

// IsIdentity reports whether m is exactly the identity.
func (m Mat4) IsIdentity() bool {
	return m == Identity4()
}
