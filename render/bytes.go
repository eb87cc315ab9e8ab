// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import "unsafe"

// Managed buffer elements are fixed-size value types (scalars, math32
// vectors, small arrays thereof), so their device representation is
// exactly their in-memory bytes. These helpers provide the byte views
// used to talk to the type-erased [Backend]; consumers writing a device
// mirror externally through [DeviceBuffer.Upload] need them too. They
// live here rather than reusing a backend package's equivalents so the
// core stays independent of any one backend.

// elemBytes returns the in-memory byte size of the element type.
func elemBytes[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// ToBytes returns a byte view of the slice contents without copying.
func ToBytes[T any](vals []T) []byte {
	if len(vals) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(vals)*elemBytes[T]())
}

// FromBytes copies raw element bytes into a freshly allocated slice.
func FromBytes[T any](b []byte) []T {
	vals := make([]T, len(b)/elemBytes[T]())
	copy(ToBytes(vals), b)
	return vals
}
