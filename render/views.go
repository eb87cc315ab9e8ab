// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"slices"

	"cogentcore.org/core/base/errors"
)

// viewEntry records one derived gathered buffer. The view buffer is
// owned by the requesting consumer; the entry only observes it through
// Valid. It also records which index buffer produced the view (the cache
// key, by identity) and the lazily built device gather program.
type viewEntry[T any] struct {
	indices *ManagedBuffer[uint32]
	view    DeviceBuffer
	program GatherProgram
}

// IndexedView returns a device buffer holding view[i] = data[indices[i]],
// creating it on first request. Views are cached by the identity of the
// index buffer: it is safe to call this many times, the same view comes
// back at no additional cost, and consumers sharing an index buffer share
// one view. The view is kept current through every Mark*Updated call on
// this buffer. The caller owns the returned buffer and must Release it
// when done, which lets the cache entry be pruned on a later operation.
//
// Two caveats, kept deliberately from the original design:
//
//   - Once a device-side gather program has been built for a view (this
//     happens lazily, the first time a refresh runs while the canonical
//     data is device resident), the program retains the destination
//     buffer's device resources until the entry is pruned, even after the
//     consumer releases the view. Correctness depends on that retention:
//     the program must never copy into freed memory.
//   - Entries hold the index buffer strongly and do not detect its death.
//     Do not release an index buffer's device resources while views keyed
//     on it are still being refreshed.
func (mb *ManagedBuffer[T]) IndexedView(indices *ManagedBuffer[uint32]) (DeviceBuffer, error) {
	mb.pruneViews()

	for i := range mb.views {
		if mb.views[i].indices.id == indices.id {
			return mb.views[i].view, nil
		}
	}

	// not cached; materialize a new view
	if err := mb.EnsureHostPopulated(); err != nil {
		return nil, err
	}
	if err := indices.EnsureHostPopulated(); err != nil {
		return nil, err
	}
	if mb.backend == nil {
		return nil, errors.Log(fmt.Errorf("render.ManagedBuffer %s: indexed view requested with no backend: %w", mb.Name, ErrInvalidState))
	}
	gathered, err := gather(mb.data, indices.data)
	if err != nil {
		return nil, errors.Log(fmt.Errorf("render.ManagedBuffer %s: %w", mb.Name, err))
	}
	buf, err := mb.backend.AllocateBuffer(mb.Name+"-view-"+indices.Name, elemBytes[T]())
	if err != nil {
		return nil, err
	}
	if err := buf.Upload(ToBytes(gathered)); err != nil {
		buf.Release()
		return nil, err
	}
	mb.views = append(mb.views, viewEntry[T]{indices: indices, view: buf})
	return buf, nil
}

// RefreshAllViews re-synchronizes every live indexed view with the
// current canonical data. It is called internally from every
// Mark*Updated path, so consumers normally never need it directly.
// While the host is canonical each view is re-gathered on the host and
// re-uploaded; while the device is canonical the gather runs entirely on
// the device through a cached gather program. A refresh while the buffer
// has never been computed is a usage-order bug: there is no canonical
// data to gather from, and ErrInvalidState is returned rather than
// silently producing garbage.
func (mb *ManagedBuffer[T]) RefreshAllViews() error {
	return mb.refreshViews()
}

func (mb *ManagedBuffer[T]) refreshViews() error {
	mb.pruneViews()
	if len(mb.views) == 0 {
		return nil
	}
	src, err := mb.CurrentSource()
	if err != nil {
		return err
	}
	var errs []error
	for i := range mb.views {
		ent := &mb.views[i]
		switch src {
		case HostData:
			if err := ent.indices.EnsureHostPopulated(); err != nil {
				errs = append(errs, err)
				continue
			}
			gathered, err := gather(mb.data, ent.indices.data)
			if err != nil {
				errs = append(errs, fmt.Errorf("render.ManagedBuffer %s: %w", mb.Name, err))
				continue
			}
			if err := ent.view.Upload(ToBytes(gathered)); err != nil {
				errs = append(errs, err)
			}
		case NeedsCompute:
			errs = append(errs, fmt.Errorf("render.ManagedBuffer %s: indexed view refresh while buffer needs compute: %w", mb.Name, ErrInvalidState))
		case DeviceResident:
			if err := mb.ensureGatherProgram(ent); err != nil {
				errs = append(errs, err)
				continue
			}
			if err := ent.program.Run(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Log(errors.Join(errs...))
}

// pruneViews drops cache entries whose view buffer has been released by
// its consumer. Pruning is opportunistic, never eager: nothing externally
// observes a stale entry until the next cache operation.
func (mb *ManagedBuffer[T]) pruneViews() {
	mb.views = slices.DeleteFunc(mb.views, func(ent viewEntry[T]) bool {
		if ent.view.Valid() {
			return false
		}
		if ent.program != nil {
			ent.program.Release()
		}
		return true
	})
}

// ensureGatherProgram lazily builds the device gather program for a view,
// used for device-side refresh while the data is device resident.
func (mb *ManagedBuffer[T]) ensureGatherProgram(ent *viewEntry[T]) error {
	if ent.program != nil {
		return nil
	}
	if mb.device == nil {
		return fmt.Errorf("render.ManagedBuffer %s: device gather requested but no device mirror: %w", mb.Name, ErrInvalidState)
	}
	prog, err := mb.backend.BuildGatherProgram(mb.device, ent.view)
	if err != nil {
		return err
	}
	// TODO: when the indices are device resident this does a device-host
	// round trip on them that a device-to-device copy could avoid.
	if err := ent.indices.EnsureHostPopulated(); err != nil {
		prog.Release()
		return err
	}
	if err := prog.SetIndices(ent.indices.data); err != nil {
		prog.Release()
		return err
	}
	ent.program = prog
	return nil
}

// gather produces out[i] = data[idx[i]] for all i.
func gather[T any](data []T, idx []uint32) ([]T, error) {
	out := make([]T, len(idx))
	for i, ix := range idx {
		if int(ix) >= len(data) {
			return nil, fmt.Errorf("gather index %d beyond source size %d: %w", ix, len(data), ErrOutOfRange)
		}
		out[i] = data[ix]
	}
	return out, nil
}
