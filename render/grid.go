// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"

	"cogentcore.org/core/base/errors"
)

// Grid addressing: some buffers (images, volume grids) are logically a
// 1/2/3 dimensional grid of values stored flat in x-fastest order. The
// dimensions are declared once with SetTextureSize, after which the
// Value2D / Value3D accessors resolve grid coordinates against whichever
// source is canonical, with the same semantics as Value.

// SetTextureSize declares this buffer as 1, 2, or 3 dimensional grid
// data with the given extents. The flat element count must equal the
// product of the extents whenever the data is populated.
func (mb *ManagedBuffer[T]) SetTextureSize(sizes ...int) error {
	for _, s := range sizes {
		if s <= 0 {
			return errors.Log(fmt.Errorf("render.ManagedBuffer %s: SetTextureSize with non-positive extent %d: %w", mb.Name, s, ErrLogic))
		}
	}
	switch len(sizes) {
	case 1:
		mb.kind = grid1dKind
		mb.sizeX, mb.sizeY, mb.sizeZ = sizes[0], 1, 1
	case 2:
		mb.kind = grid2dKind
		mb.sizeX, mb.sizeY, mb.sizeZ = sizes[0], sizes[1], 1
	case 3:
		mb.kind = grid3dKind
		mb.sizeX, mb.sizeY, mb.sizeZ = sizes[0], sizes[1], sizes[2]
	default:
		return errors.Log(fmt.Errorf("render.ManagedBuffer %s: SetTextureSize takes 1-3 extents, got %d: %w", mb.Name, len(sizes), ErrLogic))
	}
	return nil
}

// TextureSize returns the declared grid extents. All three are 1-filled
// beyond the declared dimensionality; (0, 0, 0) if never declared.
func (mb *ManagedBuffer[T]) TextureSize() (x, y, z int) {
	if mb.kind == attributeKind {
		return 0, 0, 0
	}
	return mb.sizeX, mb.sizeY, mb.sizeZ
}

// Value2D returns the element at grid coordinate (x, y). Only valid on
// buffers declared 2-dimensional with SetTextureSize.
func (mb *ManagedBuffer[T]) Value2D(x, y int) (T, error) {
	var zero T
	if mb.kind != grid2dKind {
		return zero, errors.Log(fmt.Errorf("render.ManagedBuffer %s: Value2D on non-2d buffer: %w", mb.Name, ErrLogic))
	}
	if x < 0 || x >= mb.sizeX || y < 0 || y >= mb.sizeY {
		return zero, errors.Log(fmt.Errorf("render.ManagedBuffer %s: Value2D(%d, %d) with extents (%d, %d): %w", mb.Name, x, y, mb.sizeX, mb.sizeY, ErrOutOfRange))
	}
	return mb.Value(y*mb.sizeX + x)
}

// Value3D returns the element at grid coordinate (x, y, z). Only valid
// on buffers declared 3-dimensional with SetTextureSize.
func (mb *ManagedBuffer[T]) Value3D(x, y, z int) (T, error) {
	var zero T
	if mb.kind != grid3dKind {
		return zero, errors.Log(fmt.Errorf("render.ManagedBuffer %s: Value3D on non-3d buffer: %w", mb.Name, ErrLogic))
	}
	if x < 0 || x >= mb.sizeX || y < 0 || y >= mb.sizeY || z < 0 || z >= mb.sizeZ {
		return zero, errors.Log(fmt.Errorf("render.ManagedBuffer %s: Value3D(%d, %d, %d) with extents (%d, %d, %d): %w", mb.Name, x, y, z, mb.sizeX, mb.sizeY, mb.sizeZ, ErrOutOfRange))
	}
	return mb.Value((z*mb.sizeY+y)*mb.sizeX + x)
}
