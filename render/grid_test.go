// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phosphor-viz/phosphor/render"
	"github.com/phosphor-viz/phosphor/render/rendertest"
)

func TestGrid2D(t *testing.T) {
	be := rendertest.New()
	// 3 wide, 2 tall, x fastest
	mb := render.NewBuffer(be, "image", []float32{
		0, 1, 2,
		10, 11, 12,
	})
	require.NoError(t, mb.SetTextureSize(3, 2))

	x, y, z := mb.TextureSize()
	assert.Equal(t, [3]int{3, 2, 1}, [3]int{x, y, z})

	v, err := mb.Value2D(2, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(12), v)

	_, err = mb.Value2D(3, 0)
	assert.ErrorIs(t, err, render.ErrOutOfRange)
	_, err = mb.Value3D(0, 0, 0)
	assert.ErrorIs(t, err, render.ErrLogic)
}

func TestGrid3D(t *testing.T) {
	be := rendertest.New()
	vals := make([]float32, 2*2*2)
	for i := range vals {
		vals[i] = float32(i)
	}
	mb := render.NewBuffer(be, "volume", vals)
	require.NoError(t, mb.SetTextureSize(2, 2, 2))

	v, err := mb.Value3D(1, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(5), v)

	_, err = mb.Value3D(0, 0, 2)
	assert.ErrorIs(t, err, render.ErrOutOfRange)
}

func TestGridDeclarationErrors(t *testing.T) {
	be := rendertest.New()
	mb := render.NewBuffer(be, "image", []float32{1})

	assert.ErrorIs(t, mb.SetTextureSize(), render.ErrLogic)
	assert.ErrorIs(t, mb.SetTextureSize(1, 2, 3, 4), render.ErrLogic)
	assert.ErrorIs(t, mb.SetTextureSize(0), render.ErrLogic)

	// flat buffers reject grid accessors
	_, err := mb.Value2D(0, 0)
	assert.ErrorIs(t, err, render.ErrLogic)
}
