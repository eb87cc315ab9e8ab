// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

// Backend is the boundary contract with the rendering engine. It is
// implemented by the webgpu package for real GPUs and by the rendertest
// package on the CPU. The managed-buffer core only allocates buffers and
// builds gather programs through it; everything else is opaque.
type Backend interface {
	// AllocateBuffer allocates an empty device buffer holding a
	// homogeneous sequence of elements of the given byte size.
	// The label is for diagnostics only.
	AllocateBuffer(label string, elemBytes int) (DeviceBuffer, error)

	// BuildGatherProgram builds a device-executed program that fills
	// dst with elements gathered from src: dst[i] = src[indices[i]],
	// entirely on the device, with no host round trip. Both buffers
	// must come from this backend and share an element size.
	BuildGatherProgram(src, dst DeviceBuffer) (GatherProgram, error)
}

// DeviceBuffer is an opaque, type-erased, resizable block of
// device-resident memory holding a homogeneous element sequence.
// It is mutated only by its owning managed buffer (full re-upload) or by
// gather programs acting on its behalf.
type DeviceBuffer interface {
	// Label is the diagnostic name given at allocation.
	Label() string

	// ElemBytes is the byte size of one element.
	ElemBytes() int

	// Len is the current number of elements.
	Len() int

	// Upload replaces the entire contents with the given bytes, which
	// must be a multiple of the element size. The buffer may be
	// reallocated when the size changes; the handle stays valid.
	Upload(data []byte) error

	// ReadRange reads count elements starting at element start back to
	// the host. This stalls on device completion, so avoid calling it
	// per element in a loop.
	ReadRange(start, count int) ([]byte, error)

	// Valid reports whether the buffer still holds device resources.
	// It is false after Release.
	Valid() bool

	// Release frees the device resources. The consumer owning the
	// buffer must call this exactly once when done with it.
	Release()
}

// GatherProgram is a device-executed gather routine bound to a fixed
// source and destination buffer pair.
type GatherProgram interface {
	// SetIndices supplies the index list. Must be called before Run.
	SetIndices(indices []uint32) error

	// Run performs the gather on the device against the current source
	// contents, resizing the destination to the index count.
	Run() error

	// Release frees the program resources. It does not release the
	// source or destination buffers.
	Release()
}
