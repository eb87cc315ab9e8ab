// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendertest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phosphor-viz/phosphor/render"
)

func TestBufferRoundTrip(t *testing.T) {
	be := New()
	buf, err := be.AllocateBuffer("test", 4)
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Len())

	data := render.ToBytes([]uint32{1, 2, 3, 4})
	require.NoError(t, buf.Upload(data))
	assert.Equal(t, 4, buf.Len())

	b, err := buf.ReadRange(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3}, render.FromBytes[uint32](b))

	_, err = buf.ReadRange(2, 3)
	assert.ErrorIs(t, err, render.ErrOutOfRange)

	assert.Equal(t, 1, be.Allocs)
	assert.Equal(t, 1, be.Uploads)
	assert.Equal(t, 1, be.Reads)
}

func TestBufferRelease(t *testing.T) {
	be := New()
	buf, err := be.AllocateBuffer("test", 4)
	require.NoError(t, err)
	require.NoError(t, buf.Upload(render.ToBytes([]uint32{1})))

	buf.Release()
	assert.False(t, buf.Valid())
	assert.ErrorIs(t, buf.Upload(render.ToBytes([]uint32{1})), render.ErrReleased)
	_, err = buf.ReadRange(0, 0)
	assert.ErrorIs(t, err, render.ErrReleased)
}

func TestBadElementSize(t *testing.T) {
	be := New()
	_, err := be.AllocateBuffer("test", 0)
	assert.Error(t, err)

	buf, err := be.AllocateBuffer("test", 8)
	require.NoError(t, err)
	assert.Error(t, buf.Upload(make([]byte, 12))) // not a multiple of 8
}

func TestGatherProgram(t *testing.T) {
	be := New()
	src, err := be.AllocateBuffer("src", 4)
	require.NoError(t, err)
	dst, err := be.AllocateBuffer("dst", 4)
	require.NoError(t, err)
	require.NoError(t, src.Upload(render.ToBytes([]float32{10, 20, 30})))

	prog, err := be.BuildGatherProgram(src, dst)
	require.NoError(t, err)
	defer prog.Release()
	require.NoError(t, prog.SetIndices([]uint32{2, 0, 0, 1}))
	require.NoError(t, prog.Run())
	assert.Equal(t, 1, be.Gathers)

	b, err := dst.ReadRange(0, 4)
	require.NoError(t, err)
	assert.Equal(t, []float32{30, 10, 10, 20}, render.FromBytes[float32](b))

	// re-running picks up new source contents
	require.NoError(t, src.Upload(render.ToBytes([]float32{1, 2, 3})))
	require.NoError(t, prog.Run())
	b, err = dst.ReadRange(0, 4)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1, 1, 2}, render.FromBytes[float32](b))
}

func TestGatherIndexOutOfRange(t *testing.T) {
	be := New()
	src, err := be.AllocateBuffer("src", 4)
	require.NoError(t, err)
	dst, err := be.AllocateBuffer("dst", 4)
	require.NoError(t, err)
	require.NoError(t, src.Upload(render.ToBytes([]float32{1})))

	prog, err := be.BuildGatherProgram(src, dst)
	require.NoError(t, err)
	require.NoError(t, prog.SetIndices([]uint32{3}))
	assert.ErrorIs(t, prog.Run(), render.ErrOutOfRange)
}
