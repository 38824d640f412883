// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package driver

import (
	"slices"
	"sort"
	"sync"
)

// Registered driver names.
const (
	NameWGPU = "wgpu"
	NameSoft = "soft"
)

// Factory creates a new driver instance.
type Factory func() Driver

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for Default (first registered wins).
	priority = []string{NameWGPU, NameSoft}
)

// Register registers a driver factory with the given name.
// This is typically called from init() functions in driver packages.
// If a driver with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a driver from the registry.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered driver names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a driver with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns a new driver instance by name.
// Returns nil if the driver is not registered.
func Get(name string) Driver {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// candidates lists the registered names in preference order: wgpu, then
// soft, then the rest by name.
func candidates() []string {
	names := make([]string, 0, len(priority))
	for _, name := range priority {
		if IsRegistered(name) {
			names = append(names, name)
		}
	}
	for _, name := range Available() {
		if !slices.Contains(priority, name) {
			names = append(names, name)
		}
	}
	return names
}

// Default returns the first registered driver, in preference order, whose
// OpenDisplay succeeds: wgpu, then soft, then any other driver in name
// order. A build with the wgpu driver but no usable GPU backend therefore
// falls back to soft.
//
// If no driver opens a display, Default returns the most preferred one so
// the caller gets its error. Returns nil if no drivers are registered.
func Default() Driver {
	var first Driver
	for _, name := range candidates() {
		d := Get(name)
		if d == nil {
			continue
		}
		if first == nil {
			first = d
		}
		if _, err := d.OpenDisplay(); err == nil {
			return d
		}
	}
	return first
}
