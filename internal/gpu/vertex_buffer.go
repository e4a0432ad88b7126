// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// InstanceStride is the byte size of one Instance in the vertex buffer.
// Layout per instance:
//
//	left_top         (vec3<f32>) = 12 bytes (location 0)
//	right_bottom     (vec2<f32>) =  8 bytes (location 1)
//	tex_left_top     (vec2<f32>) =  8 bytes (location 2)
//	tex_right_bottom (vec2<f32>) =  8 bytes (location 3)
//	color            (vec4<f32>) = 16 bytes (location 4)
//
// Total = 52 bytes per instance.
const InstanceStride = 52

// DefaultInstanceCapacity is the number of instances the vertex buffer can
// hold before its first reallocation.
const DefaultInstanceCapacity = 1024

// Instance is one glyph quad. The vertex shader expands it into four
// triangle-strip corners. Matches the Instance struct in glyph.wgsl.
type Instance struct {
	LeftTop        [3]float32
	RightBottom    [2]float32
	TexLeftTop     [2]float32
	TexRightBottom [2]float32
	Color          [4]float32
}

// appendBytes appends the little-endian encoding of in to dst.
func (in *Instance) appendBytes(dst []byte) []byte {
	for _, f := range in.LeftTop {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	for _, f := range in.RightBottom {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	for _, f := range in.TexLeftTop {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	for _, f := range in.TexRightBottom {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	for _, f := range in.Color {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

// instanceLayout returns the vertex buffer layout for glyph instances.
func instanceLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: InstanceStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // left_top
				{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1}, // right_bottom
				{Format: gputypes.VertexFormatFloat32x2, Offset: 20, ShaderLocation: 2}, // tex_left_top
				{Format: gputypes.VertexFormatFloat32x2, Offset: 28, ShaderLocation: 3}, // tex_right_bottom
				{Format: gputypes.VertexFormatFloat32x4, Offset: 36, ShaderLocation: 4}, // color
			},
		},
	}
}

// VertexBuffer holds the instance records of the current frame.
//
// Capacity is sticky: the buffer is only ever replaced by a bigger one, sized
// to exactly the record count that did not fit. The logical length is kept
// separately so a frame with fewer glyphs reuses the buffer as is.
type VertexBuffer struct {
	device hal.Device
	queue  hal.Queue

	buffer   hal.Buffer
	capacity int
	length   int

	// staging is reused between uploads to avoid per-frame allocations.
	staging []byte
}

// NewVertexBuffer creates a vertex buffer able to hold capacity instances.
// A capacity <= 0 selects DefaultInstanceCapacity.
func NewVertexBuffer(device hal.Device, queue hal.Queue, capacity int) (*VertexBuffer, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if capacity <= 0 {
		capacity = DefaultInstanceCapacity
	}
	vb := &VertexBuffer{device: device, queue: queue}
	if err := vb.allocate(capacity); err != nil {
		return nil, err
	}
	return vb, nil
}

func (vb *VertexBuffer) allocate(capacity int) error {
	buf, err := vb.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glyph_instances",
		Size:  uint64(capacity) * InstanceStride, //nolint:gosec // capacity is positive
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create glyph instance buffer (%d instances): %w", capacity, err)
	}
	vb.buffer = buf
	vb.capacity = capacity
	return nil
}

// Upload replaces the buffer contents with records.
//
// An empty slice only resets the length. When records does not fit, the
// buffer is reallocated with capacity len(records) before writing.
func (vb *VertexBuffer) Upload(records []Instance) error {
	if len(records) == 0 {
		vb.length = 0
		return nil
	}

	if len(records) > vb.capacity {
		old := vb.buffer
		oldCap := vb.capacity
		if err := vb.allocate(len(records)); err != nil {
			return err
		}
		if old != nil {
			vb.device.DestroyBuffer(old)
		}
		slogger().Debug("glyph instance buffer grown", "from", oldCap, "to", vb.capacity)
	}

	vb.staging = vb.staging[:0]
	for i := range records {
		vb.staging = records[i].appendBytes(vb.staging)
	}
	if err := vb.queue.WriteBuffer(vb.buffer, 0, vb.staging); err != nil {
		vb.length = 0
		return fmt.Errorf("write glyph instances: %w", err)
	}
	vb.length = len(records)
	return nil
}

// Len returns the number of valid instances.
func (vb *VertexBuffer) Len() int { return vb.length }

// Capacity returns the number of instances the buffer can hold.
func (vb *VertexBuffer) Capacity() int { return vb.capacity }

// Buffer returns the underlying GPU buffer.
func (vb *VertexBuffer) Buffer() hal.Buffer { return vb.buffer }

// Destroy releases the GPU buffer. Safe to call more than once.
func (vb *VertexBuffer) Destroy() {
	if vb.buffer != nil {
		vb.device.DestroyBuffer(vb.buffer)
		vb.buffer = nil
	}
	vb.capacity = 0
	vb.length = 0
}
