// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"slices"

	"cogentcore.org/core/base/errors"
)

// Registry is a store of live managed buffers of one element type,
// addressable by name, for diagnostics and cross-structure lookup.
// Structures register their buffers at construction and remove them at
// destruction; the registry never owns anything.
//
// A slice is a poor choice asymptotically, but lookups are rare and
// names can be briefly non-unique while a structure with a duplicate
// name is being replaced, which rules out a map keyed by name.
type Registry[T any] struct {
	buffers []*ManagedBuffer[T]
}

// Add registers a buffer. Duplicate names are allowed; Get returns the
// earliest registered match.
func (r *Registry[T]) Add(mb *ManagedBuffer[T]) {
	r.buffers = append(r.buffers, mb)
}

// Remove unregisters a buffer, matched by identity. Removing a buffer
// that was never added is a no-op.
func (r *Registry[T]) Remove(mb *ManagedBuffer[T]) {
	r.buffers = slices.DeleteFunc(r.buffers, func(b *ManagedBuffer[T]) bool {
		return b.id == mb.id
	})
}

// Get returns the earliest registered buffer with the given name.
func (r *Registry[T]) Get(name string) (*ManagedBuffer[T], error) {
	for _, b := range r.buffers {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, errors.Log(fmt.Errorf("render.Registry: no managed buffer named %q", name))
}

// Len returns the number of registered buffers.
func (r *Registry[T]) Len() int { return len(r.buffers) }
