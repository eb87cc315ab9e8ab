// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phosphor-viz/phosphor/render"
)

func TestWarps(t *testing.T) {
	assert.Equal(t, 0, warps(0, 64))
	assert.Equal(t, 1, warps(1, 64))
	assert.Equal(t, 1, warps(64, 64))
	assert.Equal(t, 2, warps(65, 64))
	assert.Equal(t, 3, warps(129, 64))
}

func TestBufferRoundTrip(t *testing.T) {
	t.Skip("Need software GPU on CI")
	be, err := New()
	require.NoError(t, err)
	defer be.Release()

	buf, err := be.AllocateBuffer("test", 4)
	require.NoError(t, err)
	defer buf.Release()

	vals := []float32{1.5, -2.25, 3.125, 0}
	require.NoError(t, buf.Upload(render.ToBytes(vals)))
	assert.Equal(t, 4, buf.Len())

	b, err := buf.ReadRange(0, 4)
	require.NoError(t, err)
	assert.Equal(t, vals, render.FromBytes[float32](b))

	b, err = buf.ReadRange(1, 2)
	require.NoError(t, err)
	assert.Equal(t, vals[1:3], render.FromBytes[float32](b))

	// size change reallocates under the same handle
	require.NoError(t, buf.Upload(render.ToBytes([]float32{7})))
	assert.Equal(t, 1, buf.Len())
}

func TestGatherProgram(t *testing.T) {
	t.Skip("Need software GPU on CI")
	be, err := New()
	require.NoError(t, err)
	defer be.Release()

	src, err := be.AllocateBuffer("src", 4)
	require.NoError(t, err)
	defer src.Release()
	dst, err := be.AllocateBuffer("dst", 4)
	require.NoError(t, err)
	defer dst.Release()

	require.NoError(t, src.Upload(render.ToBytes([]float32{10, 20, 30})))

	prog, err := be.BuildGatherProgram(src, dst)
	require.NoError(t, err)
	defer prog.Release()
	require.NoError(t, prog.SetIndices([]uint32{2, 0, 0, 1}))
	require.NoError(t, prog.Run())

	b, err := dst.ReadRange(0, dst.Len())
	require.NoError(t, err)
	assert.Equal(t, []float32{30, 10, 10, 20}, render.FromBytes[float32](b))
}

func TestManagedBufferOnGPU(t *testing.T) {
	t.Skip("Need software GPU on CI")
	be, err := New()
	require.NoError(t, err)
	defer be.Release()

	src := render.NewBuffer(be, "values", []float32{10, 20, 30})
	idx := render.NewBuffer(be, "corners", []uint32{2, 0, 0, 1})

	view, err := src.IndexedView(idx)
	require.NoError(t, err)
	b, err := view.ReadRange(0, view.Len())
	require.NoError(t, err)
	assert.Equal(t, []float32{30, 10, 10, 20}, render.FromBytes[float32](b))

	dev, err := src.DeviceMirror()
	require.NoError(t, err)
	require.NoError(t, dev.Upload(render.ToBytes([]float32{11, 21, 31})))
	require.NoError(t, src.MarkDeviceUpdated())

	b, err = view.ReadRange(0, view.Len())
	require.NoError(t, err)
	assert.Equal(t, []float32{31, 11, 11, 21}, render.FromBytes[float32](b))
}
