// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"sync/atomic"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/slicesx"
)

// nextID is the process-wide source of managed buffer identities.
// Atomic only so that independent single-threaded scenes can coexist;
// everything else in this package assumes one thread of control.
var nextID atomic.Uint64

// bufferKind distinguishes flat attribute data from data addressed as a
// 1/2/3 dimensional grid. It is set by SetTextureSize and only gates the
// grid accessors; storage is a flat element sequence either way.
type bufferKind int32

const (
	attributeKind bufferKind = iota
	grid1dKind
	grid2dKind
	grid3dKind
)

// ManagedBuffer wraps one logical named array of values and manages its
// identity across host and device copies. External users may write the
// host data directly (via [ManagedBuffer.SetHostData] or by mutating the
// slice returned from [ManagedBuffer.HostValues]) but must then call
// [ManagedBuffer.MarkHostUpdated]; symmetrically, after writing the
// device mirror from a GPU pass, [ManagedBuffer.MarkDeviceUpdated].
// Both mark calls propagate the change to the other mirror and to every
// live indexed view, so staleness never persists across a frame.
type ManagedBuffer[T any] struct {
	// Name is a meaningful name for the buffer, used in diagnostics.
	Name string

	// id is process-unique; indexed views use it as the identity key of
	// their index source.
	id uint64

	// backend allocates device buffers and gather programs on demand.
	backend Backend

	// data is the host mirror. len(data) == 0 while the data is lazily
	// computed and has not been computed yet, or while the host copy is
	// invalidated because the device mirror was updated externally.
	data []T

	// hostPopulated is true while data holds currently-valid values.
	hostPopulated bool

	// computeFn populates the buffer lazily, present iff the values are
	// derived rather than supplied. It must store its result through
	// SetHostData (or write data and call MarkHostUpdated).
	computeFn func()

	// device is the device mirror, nil until first requested. Once it
	// exists it is kept immediately updated to reflect host changes.
	device DeviceBuffer

	// grid dimensions, for data addressed as a 1/2/3-d grid
	kind                bufferKind
	sizeX, sizeY, sizeZ int

	// views are the derived gathered buffers keyed on an index source.
	views []viewEntry[T]

	// redraw, when set, is called whenever a change becomes visible on
	// the device side.
	redraw func()
}

// NewBuffer manages a buffer of data which is explicitly set externally.
// The buffer takes ownership of data, which is immediately valid.
func NewBuffer[T any](be Backend, name string, data []T) *ManagedBuffer[T] {
	return &ManagedBuffer[T]{
		Name:          name,
		id:            nextID.Add(1),
		backend:       be,
		data:          data,
		hostPopulated: true,
	}
}

// NewComputedBuffer manages a buffer of data which gets computed lazily.
// compute must populate the buffer through [ManagedBuffer.SetHostData];
// it runs on the first access and again after RecomputeIfPopulated.
func NewComputedBuffer[T any](be Backend, name string, compute func()) *ManagedBuffer[T] {
	return &ManagedBuffer[T]{
		Name:      name,
		id:        nextID.Add(1),
		backend:   be,
		computeFn: compute,
	}
}

// ID returns the process-unique identity of this buffer.
func (mb *ManagedBuffer[T]) ID() uint64 { return mb.id }

// SetRedrawFunc installs the callback invoked whenever a change becomes
// visible on the device side, typically to request a redraw from the
// frame loop. A nil callback disables notification.
func (mb *ManagedBuffer[T]) SetRedrawFunc(fn func()) { mb.redraw = fn }

// CurrentSource resolves which copy currently holds the authoritative
// values, by fixed priority: populated host data, else a device mirror,
// else an uncomputed compute function. If none applies the buffer is
// unusable and ErrInvalidState is returned.
func (mb *ManagedBuffer[T]) CurrentSource() (DataSource, error) {
	if mb.hostPopulated {
		return HostData, nil
	}
	if mb.device != nil {
		return DeviceResident, nil
	}
	if mb.computeFn != nil {
		return NeedsCompute, nil
	}
	return HostData, errors.Log(fmt.Errorf("render.ManagedBuffer %s: no host data, device mirror, or compute function: %w", mb.Name, ErrInvalidState))
}

// EnsureHostPopulated makes the host mirror hold the current values.
// In the common case where the user set data and it never changed, this
// does nothing. If the data is lazily computed, the compute function is
// run; if the canonical copy lives on the device, it is downloaded. The
// device mirror is not cleared by a download: both copies are then
// consistent, with the host canonical until the next invalidation.
func (mb *ManagedBuffer[T]) EnsureHostPopulated() error {
	src, err := mb.CurrentSource()
	if err != nil {
		return err
	}
	switch src {
	case HostData:
		// good to go
	case NeedsCompute:
		mb.computeFn()
		if !mb.hostPopulated {
			return errors.Log(fmt.Errorf("render.ManagedBuffer %s: compute function did not populate host data: %w", mb.Name, ErrInvalidState))
		}
	case DeviceResident:
		n := mb.device.Len()
		b, err := mb.device.ReadRange(0, n)
		if err != nil {
			return err
		}
		mb.data = slicesx.SetLength(mb.data, n)
		copy(ToBytes(mb.data), b)
		mb.hostPopulated = true
	}
	return nil
}

// HostValues ensures the host mirror is populated and returns it.
// The returned slice is the live host mirror: callers who write through
// it must call MarkHostUpdated afterward.
func (mb *ManagedBuffer[T]) HostValues() ([]T, error) {
	if err := mb.EnsureHostPopulated(); err != nil {
		return nil, err
	}
	return mb.data, nil
}

// Value returns the element at index i, fetched from wherever the data
// currently lives; the canonical source selection is not changed. When
// the data is device resident this is a per-element readback, so do not
// call it in a loop; use ValueRange or EnsureHostPopulated instead.
func (mb *ManagedBuffer[T]) Value(i int) (T, error) {
	var zero T
	src, err := mb.CurrentSource()
	if err != nil {
		return zero, err
	}
	if src == NeedsCompute {
		if err := mb.EnsureHostPopulated(); err != nil {
			return zero, err
		}
		src = HostData
	}
	switch src {
	case HostData:
		if i < 0 || i >= len(mb.data) {
			return zero, errors.Log(fmt.Errorf("render.ManagedBuffer %s: Value(%d) with size %d: %w", mb.Name, i, len(mb.data), ErrOutOfRange))
		}
		return mb.data[i], nil
	case DeviceResident:
		if i < 0 || i >= mb.device.Len() {
			return zero, errors.Log(fmt.Errorf("render.ManagedBuffer %s: Value(%d) with device size %d: %w", mb.Name, i, mb.device.Len(), ErrOutOfRange))
		}
		b, err := mb.device.ReadRange(i, 1)
		if err != nil {
			return zero, err
		}
		return FromBytes[T](b)[0], nil
	}
	return zero, nil
}

// ValueRange returns count elements starting at start, fetched from
// wherever the data currently lives. The host path returns a view of the
// host mirror; the device path returns a fresh copy.
func (mb *ManagedBuffer[T]) ValueRange(start, count int) ([]T, error) {
	src, err := mb.CurrentSource()
	if err != nil {
		return nil, err
	}
	if src == NeedsCompute {
		if err := mb.EnsureHostPopulated(); err != nil {
			return nil, err
		}
		src = HostData
	}
	switch src {
	case HostData:
		if start < 0 || count < 0 || start+count > len(mb.data) {
			return nil, errors.Log(fmt.Errorf("render.ManagedBuffer %s: ValueRange(%d, %d) with size %d: %w", mb.Name, start, count, len(mb.data), ErrOutOfRange))
		}
		return mb.data[start : start+count], nil
	case DeviceResident:
		if start < 0 || count < 0 || start+count > mb.device.Len() {
			return nil, errors.Log(fmt.Errorf("render.ManagedBuffer %s: ValueRange(%d, %d) with device size %d: %w", mb.Name, start, count, mb.device.Len(), ErrOutOfRange))
		}
		b, err := mb.device.ReadRange(start, count)
		if err != nil {
			return nil, err
		}
		return FromBytes[T](b), nil
	}
	return nil, nil
}

// Len returns the number of elements. On an uncomputed lazy buffer it
// returns 0 rather than triggering the compute: the size is not yet
// knowable, and Len must have no side effects.
func (mb *ManagedBuffer[T]) Len() int {
	src, err := mb.CurrentSource()
	if err != nil {
		return 0
	}
	switch src {
	case HostData:
		return len(mb.data)
	case NeedsCompute:
		return 0
	case DeviceResident:
		return mb.device.Len()
	}
	return 0
}

// HasData reports whether there is valid data on either the host or the
// device.
func (mb *ManagedBuffer[T]) HasData() bool {
	return mb.hostPopulated || mb.device != nil
}

// SetHostData replaces the host mirror contents and marks them valid,
// propagating to the device mirror and all live indexed views.
func (mb *ManagedBuffer[T]) SetHostData(data []T) error {
	mb.data = data
	return mb.MarkHostUpdated()
}

// MarkHostUpdated must be called after the host data has been written
// externally. The host becomes (or stays) canonical; an existing device
// mirror is re-uploaded in full so it remains a synchronized copy, and
// every live indexed view is refreshed.
func (mb *ManagedBuffer[T]) MarkHostUpdated() error {
	mb.hostPopulated = true
	if mb.device != nil {
		if err := mb.device.Upload(ToBytes(mb.data)); err != nil {
			return err
		}
		mb.requestRedraw()
	}
	return mb.refreshViews()
}

// DeviceMirror returns the device buffer mirroring this data, allocating
// and uploading it on first request. Once the mirror exists it is kept
// immediately updated to reflect any external changes to the data. If
// you write to it externally you must call MarkDeviceUpdated.
func (mb *ManagedBuffer[T]) DeviceMirror() (DeviceBuffer, error) {
	if mb.device != nil {
		return mb.device, nil
	}
	// the order matters: the upload below must never see stale or empty
	// host data
	if err := mb.EnsureHostPopulated(); err != nil {
		return nil, err
	}
	if mb.backend == nil {
		return nil, errors.Log(fmt.Errorf("render.ManagedBuffer %s: device mirror requested with no backend: %w", mb.Name, ErrInvalidState))
	}
	buf, err := mb.backend.AllocateBuffer(mb.Name, elemBytes[T]())
	if err != nil {
		return nil, err
	}
	if err := buf.Upload(ToBytes(mb.data)); err != nil {
		buf.Release()
		return nil, err
	}
	mb.device = buf
	return buf, nil
}

// MarkDeviceUpdated must be called after the device mirror has been
// written externally, e.g. by a GPU pass. The host copy is invalidated
// so the device becomes canonical, all live indexed views are refreshed
// (on the device where possible), and a redraw is requested.
func (mb *ManagedBuffer[T]) MarkDeviceUpdated() error {
	if mb.device == nil {
		return errors.Log(fmt.Errorf("render.ManagedBuffer %s: MarkDeviceUpdated without a device mirror: %w", mb.Name, ErrLogic))
	}
	mb.invalidateHost()
	err := mb.refreshViews()
	mb.requestRedraw()
	return err
}

// RecomputeIfPopulated re-runs the compute function if it has already
// run, then propagates as MarkHostUpdated. On a lazy buffer that was
// never computed it is a no-op: recompute only forces freshness of
// something already materialized. Calling it on a buffer which does not
// get computed is a contract violation.
func (mb *ManagedBuffer[T]) RecomputeIfPopulated() error {
	if mb.computeFn == nil {
		return errors.Log(fmt.Errorf("render.ManagedBuffer %s: RecomputeIfPopulated on a buffer which does not get computed: %w", mb.Name, ErrLogic))
	}
	src, err := mb.CurrentSource()
	if err != nil {
		return err
	}
	if src == NeedsCompute {
		return nil
	}
	mb.invalidateHost()
	mb.computeFn()
	return mb.MarkHostUpdated()
}

// Release frees the device-side resources held by this buffer: the
// device mirror and any cached view gather programs. The view buffers
// themselves belong to their consumers and are not released. Host data
// is unaffected, so the buffer remains usable if it still has host data
// or a compute function.
func (mb *ManagedBuffer[T]) Release() {
	for i := range mb.views {
		if mb.views[i].program != nil {
			mb.views[i].program.Release()
		}
	}
	mb.views = nil
	if mb.device != nil {
		mb.device.Release()
		mb.device = nil
	}
}

// invalidateHost drops the host copy; whatever remains (device mirror or
// compute function) becomes canonical.
func (mb *ManagedBuffer[T]) invalidateHost() {
	mb.hostPopulated = false
	mb.data = nil
}

func (mb *ManagedBuffer[T]) requestRedraw() {
	if mb.redraw != nil {
		mb.redraw()
	}
}
