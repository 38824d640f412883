// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package framepipe

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/framepipe/driver"
)

// dispatcher turns producer notifications into frame events.
//
// events has capacity one and every send is non-blocking: notifications that
// arrive while an event is pending collapse into it.
type dispatcher struct {
	events chan struct{}
	stream driver.Stream
	log    *slog.Logger

	closed    atomic.Bool
	notified  atomic.Uint64
	coalesced atomic.Uint64
}

func newDispatcher(log *slog.Logger) *dispatcher {
	return &dispatcher{
		events: make(chan struct{}, 1),
		log:    log,
	}
}

// attach registers the dispatcher as the stream's only listener.
func (d *dispatcher) attach(s driver.Stream) {
	d.stream = s
	s.SetFrameListener(d.notify)
}

// notify runs on the producer's goroutine.
func (d *dispatcher) notify() {
	if d.closed.Load() {
		return
	}
	n := d.notified.Add(1)
	select {
	case d.events <- struct{}{}:
		d.log.Debug("framepipe: frame available", "frame", n)
	default:
		d.coalesced.Add(1)
		d.log.Debug("framepipe: frame coalesced", "frame", n)
	}
}

// close stops delivery. Later notifications are ignored.
func (d *dispatcher) close() {
	if d.closed.Swap(true) {
		return
	}
	if d.stream != nil {
		d.stream.SetFrameListener(nil)
	}
	// Drop a pending event.
	select {
	case <-d.events:
	default:
	}
}
