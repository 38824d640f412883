// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package renderthread runs work on a single goroutine locked to its OS
// thread.
//
// Graphics contexts are current on one OS thread at a time, so everything
// that touches a context (creation, rendering, destruction) is funneled
// through one Thread. The thread consumes two inputs: jobs submitted with
// [Thread.Do] and signals arriving on an event channel, which it handles by
// calling the event handler.
package renderthread

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Do after Stop.
var ErrClosed = errors.New("renderthread: closed")

type job struct {
	fn    func() error
	reply chan error
}

// Thread is a goroutine pinned to an OS thread.
//
// Thread safety: Do and Stop are safe for concurrent use. Calling either from
// inside a job or the event handler deadlocks.
type Thread struct {
	jobs    chan job
	events  <-chan struct{}
	onEvent func()

	// done signals the loop to stop.
	done chan struct{}

	// exited is closed when the loop has returned.
	exited chan struct{}

	// running indicates whether the thread accepts jobs.
	running atomic.Bool

	stopOnce sync.Once
	handled  atomic.Uint64
	jobsRun  atomic.Uint64
}

// New starts a thread. onEvent runs on the thread for every value received
// from events; a nil events channel disables event handling.
func New(events <-chan struct{}, onEvent func()) *Thread {
	t := &Thread{
		jobs:    make(chan job),
		events:  events,
		onEvent: onEvent,
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	t.running.Store(true)
	go t.loop()
	return t
}

func (t *Thread) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.exited)

	for {
		select {
		case <-t.done:
			return
		case j := <-t.jobs:
			t.jobsRun.Add(1)
			j.reply <- j.fn()
		case <-t.events:
			t.handled.Add(1)
			if t.onEvent != nil {
				t.onEvent()
			}
		}
	}
}

// Do runs fn on the thread and returns its error. Jobs run one at a time in
// the order the thread receives them. After Stop, Do returns ErrClosed
// without running fn.
func (t *Thread) Do(fn func() error) error {
	if fn == nil {
		return nil
	}
	if !t.running.Load() {
		return ErrClosed
	}
	j := job{fn: fn, reply: make(chan error, 1)}
	select {
	case t.jobs <- j:
		return <-j.reply
	case <-t.done:
		return ErrClosed
	}
}

// Stop shuts the thread down and waits for the running job or event
// handler to return. Stop is safe to call multiple times.
func (t *Thread) Stop() {
	t.stopOnce.Do(func() {
		t.running.Store(false)
		close(t.done)
	})
	<-t.exited
}

// Events returns how many events the thread has handled.
func (t *Thread) Events() uint64 {
	return t.handled.Load()
}

// Jobs returns how many jobs the thread has run.
func (t *Thread) Jobs() uint64 {
	return t.jobsRun.Load()
}
