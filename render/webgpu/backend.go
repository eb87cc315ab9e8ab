// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package webgpu implements [render.Backend] on a WebGPU device, using
// the same wgpu bindings as the rest of the rendering stack. The device
// is acquired headless: no surface or window is involved, so the backend
// also works for offscreen and compute-only use.
package webgpu

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/phosphor-viz/phosphor/render"
)

// bufferUsage covers everything a managed buffer is used for: vertex
// attribute input, storage access by gather programs, and both copy
// directions for upload and readback.
const bufferUsage = wgpu.BufferUsageVertex | wgpu.BufferUsageStorage |
	wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// Backend implements render.Backend on a WebGPU device.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// New acquires a headless WebGPU adapter and device and returns a
// backend on it. Call Release when done.
func New() (*Backend, error) {
	inst := wgpu.CreateInstance(nil)
	adapter, err := inst.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if errors.Log(err) != nil {
		inst.Release()
		return nil, err
	}
	device, err := adapter.RequestDevice(nil)
	if errors.Log(err) != nil {
		adapter.Release()
		inst.Release()
		return nil, err
	}
	return &Backend{
		instance: inst,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
	}, nil
}

// Release frees the device, adapter and instance.
func (be *Backend) Release() {
	if be.device != nil {
		be.device.Release()
		be.device = nil
	}
	if be.adapter != nil {
		be.adapter.Release()
		be.adapter = nil
	}
	if be.instance != nil {
		be.instance.Release()
		be.instance = nil
	}
}

// waitDone blocks until the device has finished all submitted work.
func (be *Backend) waitDone() {
	be.device.Poll(true, nil)
}

func (be *Backend) AllocateBuffer(label string, elemBytes int) (render.DeviceBuffer, error) {
	if elemBytes <= 0 || elemBytes%4 != 0 {
		return nil, errors.Log(fmt.Errorf("webgpu: buffer %q: element size %d must be a positive multiple of 4", label, elemBytes))
	}
	return &deviceBuffer{be: be, label: label, elemBytes: elemBytes, valid: true}, nil
}

// deviceBuffer wraps a wgpu buffer. The underlying wgpu.Buffer is
// reallocated when the upload size changes; the deviceBuffer handle held
// by consumers stays stable across reallocation.
type deviceBuffer struct {
	be        *Backend
	label     string
	elemBytes int
	buf       *wgpu.Buffer
	size      int // allocated bytes
	valid     bool
}

func (b *deviceBuffer) Label() string  { return b.label }
func (b *deviceBuffer) ElemBytes() int { return b.elemBytes }
func (b *deviceBuffer) Len() int       { return b.size / b.elemBytes }
func (b *deviceBuffer) Valid() bool    { return b.valid }

func (b *deviceBuffer) Upload(data []byte) error {
	if !b.valid {
		return errors.Log(fmt.Errorf("webgpu: upload to buffer %q: %w", b.label, render.ErrReleased))
	}
	if len(data)%b.elemBytes != 0 {
		return errors.Log(fmt.Errorf("webgpu: upload of %d bytes to buffer %q is not a multiple of element size %d", len(data), b.label, b.elemBytes))
	}
	if len(data) == 0 {
		b.releaseBuf()
		return nil
	}
	if b.buf == nil || b.size != len(data) {
		b.releaseBuf()
		buf, err := b.be.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    b.label,
			Contents: data,
			Usage:    bufferUsage,
		})
		if errors.Log(err) != nil {
			return err
		}
		b.buf = buf
		b.size = len(data)
		return nil
	}
	return errors.Log(b.be.queue.WriteBuffer(b.buf, 0, data))
}

func (b *deviceBuffer) ReadRange(start, count int) ([]byte, error) {
	if !b.valid {
		return nil, errors.Log(fmt.Errorf("webgpu: read from buffer %q: %w", b.label, render.ErrReleased))
	}
	if start < 0 || count < 0 || start+count > b.Len() {
		return nil, errors.Log(fmt.Errorf("webgpu: read range [%d, %d) from buffer %q with %d elements: %w", start, start+count, b.label, b.Len(), render.ErrOutOfRange))
	}
	if count == 0 {
		return nil, nil
	}
	nb := count * b.elemBytes
	read, err := b.be.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.label + "-read",
		Size:  uint64(nb),
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	defer read.Release()

	enc, err := b.be.device.CreateCommandEncoder(nil)
	if errors.Log(err) != nil {
		return nil, err
	}
	enc.CopyBufferToBuffer(b.buf, uint64(start*b.elemBytes), read, 0, uint64(nb))
	cmd, err := enc.Finish(nil)
	if errors.Log(err) != nil {
		enc.Release()
		return nil, err
	}
	b.be.queue.Submit(cmd)
	cmd.Release()
	enc.Release()

	var status wgpu.BufferMapAsyncStatus
	err = read.MapAsync(wgpu.MapModeRead, 0, uint64(nb), func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	b.be.waitDone()
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, errors.Log(fmt.Errorf("webgpu: map of buffer %q for reading failed: %s", b.label, status.String()))
	}
	out := make([]byte, nb)
	copy(out, read.GetMappedRange(0, uint(nb)))
	read.Unmap()
	return out, nil
}

func (b *deviceBuffer) Release() {
	b.releaseBuf()
	b.valid = false
}

func (b *deviceBuffer) releaseBuf() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
	b.size = 0
}
