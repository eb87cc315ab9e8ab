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

func TestRegistry(t *testing.T) {
	be := rendertest.New()
	var reg render.Registry[float32]

	a := render.NewBuffer(be, "mesh/vertexValues", []float32{1})
	b := render.NewBuffer(be, "cloud/pointValues", []float32{2})
	reg.Add(a)
	reg.Add(b)
	assert.Equal(t, 2, reg.Len())

	got, err := reg.Get("cloud/pointValues")
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = reg.Get("missing")
	assert.Error(t, err)

	reg.Remove(a)
	assert.Equal(t, 1, reg.Len())
	_, err = reg.Get("mesh/vertexValues")
	assert.Error(t, err)
}

func TestRegistryDuplicateNames(t *testing.T) {
	be := rendertest.New()
	var reg render.Registry[float32]

	// names are briefly non-unique while a structure is being replaced;
	// the earliest registration wins until it is removed
	old := render.NewBuffer(be, "mesh/vertexValues", []float32{1})
	repl := render.NewBuffer(be, "mesh/vertexValues", []float32{2})
	reg.Add(old)
	reg.Add(repl)

	got, err := reg.Get("mesh/vertexValues")
	require.NoError(t, err)
	assert.Same(t, old, got)

	reg.Remove(old)
	got, err = reg.Get("mesh/vertexValues")
	require.NoError(t, err)
	assert.Same(t, repl, got)
}
