// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webgpu

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/phosphor-viz/phosphor/render"
)

// gatherThreads is the compute workgroup size of the gather shader.
const gatherThreads = 64

// gatherShader gathers word-wise so it stays element-type erased:
// element sizes are constrained to multiples of 4 bytes, and each
// invocation copies the words of one gathered element. This matches the
// byte-level view the core uses for uploads.
const gatherShader = `
struct Params {
	elem_words: u32,
	n: u32,
	pad0: u32,
	pad1: u32,
}

@group(0) @binding(0) var<storage, read> src: array<u32>;
@group(0) @binding(1) var<storage, read> indices: array<u32>;
@group(0) @binding(2) var<storage, read_write> dst: array<u32>;
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
	let i = gid.x;
	if (i >= params.n) {
		return;
	}
	let w = params.elem_words;
	let s = indices[i] * w;
	let d = i * w;
	for (var k: u32 = 0u; k < w; k++) {
		dst[d + k] = src[s + k];
	}
}
`

// gatherParams must match the Params struct in gatherShader.
type gatherParams struct {
	elemWords  uint32
	n          uint32
	pad0, pad1 uint32
}

func (be *Backend) BuildGatherProgram(src, dst render.DeviceBuffer) (render.GatherProgram, error) {
	sb, ok := src.(*deviceBuffer)
	if !ok {
		return nil, errors.Log(fmt.Errorf("webgpu: gather source %q is not a webgpu buffer", src.Label()))
	}
	db, ok := dst.(*deviceBuffer)
	if !ok {
		return nil, errors.Log(fmt.Errorf("webgpu: gather destination %q is not a webgpu buffer", dst.Label()))
	}
	if sb.elemBytes != db.elemBytes {
		return nil, errors.Log(fmt.Errorf("webgpu: gather element size mismatch: %q has %d, %q has %d", sb.label, sb.elemBytes, db.label, db.elemBytes))
	}
	module, err := be.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "gather",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: gatherShader},
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	pipeline, err := be.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "gather",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if errors.Log(err) != nil {
		module.Release()
		return nil, err
	}
	return &gatherProgram{be: be, src: sb, dst: db, module: module, pipeline: pipeline}, nil
}

// gatherProgram runs the gather shader against a fixed source and
// destination buffer pair. The bind group is rebuilt on every run, so
// reallocation of either buffer between runs is safe.
type gatherProgram struct {
	be       *Backend
	src, dst *deviceBuffer
	module   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
	idxBuf   *wgpu.Buffer
	parBuf   *wgpu.Buffer
	n        int
}

func (p *gatherProgram) SetIndices(indices []uint32) error {
	p.releaseData()
	p.n = len(indices)
	if p.n == 0 {
		return nil
	}
	idxBuf, err := p.be.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    p.dst.label + "-gather-indices",
		Contents: wgpu.ToBytes(indices),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if errors.Log(err) != nil {
		return err
	}
	params := []gatherParams{{
		elemWords: uint32(p.src.elemBytes / 4),
		n:         uint32(p.n),
	}}
	parBuf, err := p.be.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    p.dst.label + "-gather-params",
		Contents: wgpu.ToBytes(params),
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if errors.Log(err) != nil {
		idxBuf.Release()
		return err
	}
	p.idxBuf = idxBuf
	p.parBuf = parBuf
	return nil
}

func (p *gatherProgram) Run() error {
	if p.n == 0 {
		return nil
	}
	if p.idxBuf == nil {
		return errors.Log(fmt.Errorf("webgpu: gather into %q run before SetIndices: %w", p.dst.label, render.ErrInvalidState))
	}
	if !p.src.valid || p.src.buf == nil {
		return errors.Log(fmt.Errorf("webgpu: gather from buffer %q: %w", p.src.label, render.ErrReleased))
	}
	if !p.dst.valid {
		return errors.Log(fmt.Errorf("webgpu: gather into buffer %q: %w", p.dst.label, render.ErrReleased))
	}
	// size the destination to the gathered element count
	nb := p.n * p.src.elemBytes
	if p.dst.buf == nil || p.dst.size != nb {
		p.dst.releaseBuf()
		buf, err := p.be.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: p.dst.label,
			Size:  uint64(nb),
			Usage: bufferUsage,
		})
		if errors.Log(err) != nil {
			return err
		}
		p.dst.buf = buf
		p.dst.size = nb
	}

	layout := p.pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	bg, err := p.be.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  p.dst.label + "-gather",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.src.buf, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: p.idxBuf, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: p.dst.buf, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: p.parBuf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if errors.Log(err) != nil {
		return err
	}
	defer bg.Release()

	enc, err := p.be.device.CreateCommandEncoder(nil)
	if errors.Log(err) != nil {
		return err
	}
	cp := enc.BeginComputePass(nil)
	cp.SetPipeline(p.pipeline)
	cp.SetBindGroup(0, bg, nil)
	cp.DispatchWorkgroups(uint32(warps(p.n, gatherThreads)), 1, 1)
	cp.End()
	cmd, err := enc.Finish(nil)
	if errors.Log(err) != nil {
		cp.Release()
		enc.Release()
		return err
	}
	p.be.queue.Submit(cmd)
	cmd.Release()
	cp.Release()
	enc.Release()
	p.be.waitDone()
	return nil
}

func (p *gatherProgram) Release() {
	p.releaseData()
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}

func (p *gatherProgram) releaseData() {
	if p.idxBuf != nil {
		p.idxBuf.Release()
		p.idxBuf = nil
	}
	if p.parBuf != nil {
		p.parBuf.Release()
		p.parBuf = nil
	}
	p.n = 0
}

// warps returns the number of workgroups sufficient to cover n elements
// at the given threads per workgroup.
func warps(n, threads int) int {
	return (n + threads - 1) / threads
}
