// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framepipe

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/framepipe/driver"
	"github.com/gogpu/framepipe/internal/renderthread"
)

// Stats reports pipeline counters.
type Stats struct {
	// Notified counts producer frame notifications.
	Notified uint64
	// Coalesced counts notifications folded into an already pending event.
	Coalesced uint64
	// Rendered counts successful composite passes.
	Rendered uint64
	// Failed counts composite passes that returned an error.
	Failed uint64
}

// Pipeline receives frames from a producer and presents them on an output
// surface. Create one with New.
//
// Pipeline is safe for concurrent use.
type Pipeline struct {
	log    *slog.Logger
	thread *renderthread.Thread
	disp   *dispatcher
	input  driver.InputSurface

	// Owned by the render thread. nil after release.
	gc      *graphicsContext
	capture *captureSurface
	comp    *compositor

	released    atomic.Bool
	releaseOnce sync.Once

	rendered atomic.Uint64
	failed   atomic.Uint64
}

// New creates a pipeline presenting to output.
//
// It opens the driver's display, selects the first accelerated 8-bit RGBA
// config, creates a context and a drawable for output, makes them current on
// a dedicated render thread and allocates the capture surface. Errors match
// one of ErrContextUnavailable, ErrNoMatchingConfig,
// ErrContextCreationFailed, ErrSurfaceCreationFailed or
// ErrMakeCurrentFailed; on error nothing stays allocated.
func New(output driver.OutputSurface, opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log()

	drv, err := o.resolveDriver()
	if err != nil {
		return nil, err
	}
	log.Info("framepipe: driver selected", "driver", drv.Name())

	p := &Pipeline{log: log, disp: newDispatcher(log)}
	p.thread = renderthread.New(p.disp.events, p.onFrame)

	err = p.thread.Do(func() error {
		gc, err := newGraphicsContext(drv, output, log)
		if err != nil {
			return err
		}
		capture, err := newCaptureSurface(gc)
		if err != nil {
			gc.release()
			return err
		}
		p.gc = gc
		p.capture = capture
		p.comp = &compositor{
			gc:         gc,
			capture:    capture,
			clearColor: o.clearColor,
			pinW:       o.viewportW,
			pinH:       o.viewportH,
			log:        log,
		}
		p.input = capture.input()
		return nil
	})
	if err != nil {
		p.thread.Stop()
		return nil, err
	}

	if o.autoRender {
		p.disp.attach(p.capture.stream)
	}
	return p, nil
}

// InputDrawable returns the drawable the producer posts frames to, or nil
// after Release.
func (p *Pipeline) InputDrawable() driver.InputSurface {
	if p.released.Load() {
		return nil
	}
	return p.input
}

// Render runs one composite pass on the render thread and waits for it.
// Every failure wraps ErrRenderFailed; after Release the error also matches
// ErrReleased.
func (p *Pipeline) Render() error {
	err := p.thread.Do(p.renderFrame)
	if errors.Is(err, renderthread.ErrClosed) {
		return releasedErr()
	}
	return err
}

func releasedErr() error {
	return fmt.Errorf("%w: %w", ErrRenderFailed, ErrReleased)
}

// renderFrame runs on the render thread.
func (p *Pipeline) renderFrame() error {
	if !p.gc.live() {
		return releasedErr()
	}
	if err := p.comp.render(); err != nil {
		p.failed.Add(1)
		return err
	}
	p.rendered.Add(1)
	return nil
}

// onFrame handles a dispatcher event on the render thread. Failures skip the
// frame; the dispatcher keeps listening.
func (p *Pipeline) onFrame() {
	if err := p.renderFrame(); err != nil {
		if errors.Is(err, ErrReleased) {
			return
		}
		p.log.Warn("framepipe: frame skipped", "err", err)
	}
}

// Release stops frame delivery, releases the capture surface and the
// graphics context, and stops the render thread. It waits for an in-flight
// composite. Release is idempotent and safe to call from any goroutine.
func (p *Pipeline) Release() {
	p.releaseOnce.Do(func() {
		p.released.Store(true)
		p.disp.close()
		err := p.thread.Do(func() error {
			p.capture.release()
			p.gc.release()
			p.capture = nil
			return nil
		})
		if err != nil {
			p.log.Warn("framepipe: release", "err", err)
		}
		p.thread.Stop()
		p.log.Info("framepipe: released",
			"rendered", p.rendered.Load(),
			"failed", p.failed.Load(),
			"events", p.thread.Events(),
			"jobs", p.thread.Jobs())
	})
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Notified:  p.disp.notified.Load(),
		Coalesced: p.disp.coalesced.Load(),
		Rendered:  p.rendered.Load(),
		Failed:    p.failed.Load(),
	}
}
