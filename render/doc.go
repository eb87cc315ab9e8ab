// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render provides the managed-buffer engine that sits underneath
// the visualization structures and quantities.
//
// A [ManagedBuffer] wraps one logical named array of values and handles
// the common data-management concerns of:
//
//   - mirroring the array to a device buffer on the rendering backend;
//   - letting external users update the data on either the host side or
//     the device side, keeping the mirrored copies coherent;
//   - managing indexed views: derived device buffers whose contents are
//     the source data gathered through an index list, expanded for access
//     at rendering time.
//
// At any moment exactly one location is canonical for a buffer, selected
// by fixed priority: valid host data, else a device mirror, else a lazy
// compute function (see [DataSource]). Every mutation path ends by
// propagating to the device mirror and all live indexed views, so a read
// issued after a Mark*Updated call always observes the updated data.
//
// The engine is single threaded: all operations are expected to run on
// the thread driving the frame loop, and nothing here locks or blocks.
//
// Device access goes through the narrow [Backend] contract. Package
// webgpu implements it on a real GPU; package rendertest implements it
// on the CPU for tests and headless use.
package render
