// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package driver

import (
	"image"
	"sync"
)

// Frame is a posted producer frame.
type Frame struct {
	Image     image.Image
	Transform Mat4

	// Seq is the 1-based post sequence number of the frame.
	Seq uint64
}

// BufferQueue is a single-slot frame queue implementing the producer side
// of a Stream. A post replaces any frame that was not acquired yet, so the
// consumer only ever sees the newest content.
//
// Drivers embed BufferQueue in their Stream implementation and call Acquire
// from UpdateTexImage.
//
// BufferQueue is safe for concurrent use.
type BufferQueue struct {
	mu       sync.Mutex
	pending  *Frame
	seq      uint64
	listener func()
	released bool
}

// Post implements InputSurface. The listener, if any, runs on the calling
// goroutine after the frame is stored.
func (q *BufferQueue) Post(img image.Image, transform Mat4) error {
	if img == nil {
		return ErrBadSurface
	}
	q.mu.Lock()
	if q.released {
		q.mu.Unlock()
		return ErrSurfaceReleased
	}
	q.seq++
	q.pending = &Frame{Image: img, Transform: transform, Seq: q.seq}
	fn := q.listener
	q.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Valid implements InputSurface.
func (q *BufferQueue) Valid() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.released
}

// SetFrameListener sets the function called after each Post.
func (q *BufferQueue) SetFrameListener(fn func()) {
	q.mu.Lock()
	q.listener = fn
	q.mu.Unlock()
}

// Acquire takes the pending frame. It returns false when no frame was posted
// since the previous Acquire.
func (q *BufferQueue) Acquire() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		return Frame{}, false
	}
	f := *q.pending
	q.pending = nil
	return f, true
}

// Close rejects further posts, drops the pending frame and detaches the
// listener. Close is idempotent.
func (q *BufferQueue) Close() {
	q.mu.Lock()
	q.released = true
	q.pending = nil
	q.listener = nil
	q.mu.Unlock()
}
