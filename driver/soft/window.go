// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package soft

import (
	"image"
	"sync"

	"github.com/gogpu/framepipe/driver"
)

// Window is a caller-owned output surface for the soft driver.
// Presented frames are copied into its front buffer.
//
// Window is safe for concurrent use.
type Window struct {
	mu        sync.Mutex
	width     int
	height    int
	front     *image.RGBA
	swaps     int
	destroyed bool
}

// NewWindow creates a window of the given size.
func NewWindow(width, height int) *Window {
	return &Window{
		width:  width,
		height: height,
		front:  image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
	}
}

var _ driver.OutputSurface = (*Window)(nil)

// Size returns the window size, or 0, 0 after Destroy.
func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return 0, 0
	}
	return w.width, w.height
}

// Resize changes the window size. The next presented frame uses it.
func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width = width
	w.height = height
}

// Valid reports whether the window can still be presented to.
func (w *Window) Valid() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.destroyed && w.width > 0 && w.height > 0
}

// Destroy marks the window as gone. Surfaces bound to it fail afterwards.
func (w *Window) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
	w.front = nil
}

// Swaps returns how many frames were presented.
func (w *Window) Swaps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.swaps
}

// Snapshot returns a copy of the last presented frame, or nil after Destroy.
func (w *Window) Snapshot() *image.RGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.front == nil {
		return nil
	}
	img := image.NewRGBA(w.front.Bounds())
	copy(img.Pix, w.front.Pix)
	return img
}

func (w *Window) present(back *image.RGBA) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return driver.ErrBadSurface
	}
	if w.front == nil || w.front.Bounds() != back.Bounds() {
		w.front = image.NewRGBA(back.Bounds())
	}
	copy(w.front.Pix, back.Pix)
	w.swaps++
	return nil
}
