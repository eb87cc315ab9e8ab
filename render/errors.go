// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import "errors"

// Sentinel errors returned by managed buffer operations. All of them are
// raised at the point of detection and never retried or recovered
// internally: a wrong buffer read is worse than a visible failure, so the
// caller should abort the current operation and report, not degrade.
var (
	// ErrOutOfRange is returned when an element index is at or beyond the
	// current size of a buffer, for whichever source is canonical.
	// Indices are never clamped.
	ErrOutOfRange = errors.New("render: index out of range")

	// ErrInvalidState is returned when no canonical data source resolves
	// (the buffer has no host data, no device mirror, and no compute
	// function), or when an indexed view refresh runs while the buffer
	// has never been computed. Either way it signals a usage-order bug
	// in the caller.
	ErrInvalidState = errors.New("render: invalid buffer state")

	// ErrLogic is returned on caller contract violations, such as calling
	// RecomputeIfPopulated on a buffer which does not get computed, or a
	// grid accessor on a buffer of the wrong dimensionality.
	ErrLogic = errors.New("render: logic error")

	// ErrReleased is returned when operating on a device buffer whose
	// resources have already been released.
	ErrReleased = errors.New("render: device buffer released")
)
