// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rendertest provides a CPU-backed [render.Backend] for tests
// and headless development. Buffers live in host memory and gather
// programs run synchronously, so the full managed-buffer machinery can
// be exercised with no GPU present. The backend counts its operations so
// tests can assert which data path was taken.
package rendertest

import (
	"fmt"
	"slices"

	"github.com/phosphor-viz/phosphor/render"
)

// Backend is a CPU-backed render.Backend.
type Backend struct {
	// Allocs counts AllocateBuffer calls.
	Allocs int

	// Uploads counts Upload calls across all buffers.
	Uploads int

	// Reads counts ReadRange calls across all buffers.
	Reads int

	// Gathers counts gather program runs. Gather output is written
	// directly, so it does not count as an Upload.
	Gathers int
}

// New returns a new CPU backend.
func New() *Backend {
	return &Backend{}
}

func (be *Backend) AllocateBuffer(label string, elemBytes int) (render.DeviceBuffer, error) {
	if elemBytes <= 0 {
		return nil, fmt.Errorf("rendertest: buffer %q: invalid element size %d", label, elemBytes)
	}
	be.Allocs++
	return &buffer{be: be, label: label, elemBytes: elemBytes, valid: true}, nil
}

func (be *Backend) BuildGatherProgram(src, dst render.DeviceBuffer) (render.GatherProgram, error) {
	sb, ok := src.(*buffer)
	if !ok {
		return nil, fmt.Errorf("rendertest: gather source %q is not a rendertest buffer", src.Label())
	}
	db, ok := dst.(*buffer)
	if !ok {
		return nil, fmt.Errorf("rendertest: gather destination %q is not a rendertest buffer", dst.Label())
	}
	if sb.elemBytes != db.elemBytes {
		return nil, fmt.Errorf("rendertest: gather element size mismatch: %d vs %d", sb.elemBytes, db.elemBytes)
	}
	return &gatherProgram{be: be, src: sb, dst: db}, nil
}

type buffer struct {
	be        *Backend
	label     string
	elemBytes int
	data      []byte
	valid     bool
}

func (b *buffer) Label() string  { return b.label }
func (b *buffer) ElemBytes() int { return b.elemBytes }
func (b *buffer) Len() int       { return len(b.data) / b.elemBytes }
func (b *buffer) Valid() bool    { return b.valid }

func (b *buffer) Upload(data []byte) error {
	if !b.valid {
		return fmt.Errorf("rendertest: upload to buffer %q: %w", b.label, render.ErrReleased)
	}
	if len(data)%b.elemBytes != 0 {
		return fmt.Errorf("rendertest: upload of %d bytes to buffer %q is not a multiple of element size %d", len(data), b.label, b.elemBytes)
	}
	b.data = append(b.data[:0], data...)
	b.be.Uploads++
	return nil
}

func (b *buffer) ReadRange(start, count int) ([]byte, error) {
	if !b.valid {
		return nil, fmt.Errorf("rendertest: read from buffer %q: %w", b.label, render.ErrReleased)
	}
	if start < 0 || count < 0 || start+count > b.Len() {
		return nil, fmt.Errorf("rendertest: read range [%d, %d) from buffer %q with %d elements: %w", start, start+count, b.label, b.Len(), render.ErrOutOfRange)
	}
	b.be.Reads++
	out := make([]byte, count*b.elemBytes)
	copy(out, b.data[start*b.elemBytes:])
	return out, nil
}

func (b *buffer) Release() {
	b.valid = false
	b.data = nil
}

type gatherProgram struct {
	be       *Backend
	src, dst *buffer
	idx      []uint32
}

func (p *gatherProgram) SetIndices(indices []uint32) error {
	p.idx = slices.Clone(indices)
	return nil
}

func (p *gatherProgram) Run() error {
	if !p.src.valid {
		return fmt.Errorf("rendertest: gather from buffer %q: %w", p.src.label, render.ErrReleased)
	}
	if !p.dst.valid {
		return fmt.Errorf("rendertest: gather into buffer %q: %w", p.dst.label, render.ErrReleased)
	}
	eb := p.src.elemBytes
	out := make([]byte, len(p.idx)*eb)
	for i, ix := range p.idx {
		if int(ix) >= p.src.Len() {
			return fmt.Errorf("rendertest: gather index %d beyond source %q with %d elements: %w", ix, p.src.label, p.src.Len(), render.ErrOutOfRange)
		}
		copy(out[i*eb:(i+1)*eb], p.src.data[int(ix)*eb:])
	}
	p.dst.data = out
	p.be.Gathers++
	return nil
}

func (p *gatherProgram) Release() {}
