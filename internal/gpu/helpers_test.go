// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop HAL device for tests that need a device
// without real GPU hardware.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

type textureWrite struct {
	origin hal.Origin3D
	layout hal.ImageDataLayout
	size   hal.Extent3D
	data   []byte
}

type bufferWrite struct {
	buffer hal.Buffer
	offset uint64
	data   []byte
}

// recordingQueue wraps a queue and records every write.
type recordingQueue struct {
	hal.Queue
	textureWrites []textureWrite
	bufferWrites  []bufferWrite
}

func (q *recordingQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	q.textureWrites = append(q.textureWrites, textureWrite{
		origin: dst.Origin,
		layout: *layout,
		size:   *size,
		data:   append([]byte(nil), data...),
	})
	return q.Queue.WriteTexture(dst, data, layout, size)
}

func (q *recordingQueue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error {
	q.bufferWrites = append(q.bufferWrites, bufferWrite{
		buffer: buffer,
		offset: offset,
		data:   append([]byte(nil), data...),
	})
	return q.Queue.WriteBuffer(buffer, offset, data)
}

func (q *recordingQueue) writesTo(buf hal.Buffer) int {
	n := 0
	for _, w := range q.bufferWrites {
		if w.buffer == buf {
			n++
		}
	}
	return n
}

type drawCall struct {
	vertexCount, instanceCount, firstVertex, firstInstance uint32
}

// recordingPass records the render pass calls made by Pipeline.Draw. Other
// methods panic through the nil embedded interface.
type recordingPass struct {
	hal.RenderPassEncoder
	pipelines     []hal.RenderPipeline
	bindGroups    []hal.BindGroup
	vertexBuffers []hal.Buffer
	scissors      [][4]uint32
	draws         []drawCall
}

func (r *recordingPass) SetPipeline(p hal.RenderPipeline) { r.pipelines = append(r.pipelines, p) }

func (r *recordingPass) SetBindGroup(_ uint32, g hal.BindGroup, _ []uint32) {
	r.bindGroups = append(r.bindGroups, g)
}

func (r *recordingPass) SetVertexBuffer(_ uint32, b hal.Buffer, _ uint64) {
	r.vertexBuffers = append(r.vertexBuffers, b)
}

func (r *recordingPass) SetScissorRect(x, y, w, h uint32) {
	r.scissors = append(r.scissors, [4]uint32{x, y, w, h})
}

func (r *recordingPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.draws = append(r.draws, drawCall{vertexCount, instanceCount, firstVertex, firstInstance})
}
