// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glyphbrush

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/glyphbrush/layout"
)

// createNoopDevice creates a noop HAL device for tests that need a device
// without real GPU hardware.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
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
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

type bufferWrite struct {
	buffer hal.Buffer
	data   []byte
}

// recordingQueue counts texture writes and records buffer writes. The
// next failTextureWrites texture writes and failBufferWrites buffer writes
// fail with errDeviceLost.
type recordingQueue struct {
	hal.Queue
	textureWrites     int
	bufferWrites      []bufferWrite
	failTextureWrites int
	failBufferWrites  int
}

var errDeviceLost = errors.New("device lost")

func (q *recordingQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	if q.failTextureWrites > 0 {
		q.failTextureWrites--
		return errDeviceLost
	}
	q.textureWrites++
	return q.Queue.WriteTexture(dst, data, layout, size)
}

func (q *recordingQueue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error {
	if q.failBufferWrites > 0 {
		q.failBufferWrites--
		return errDeviceLost
	}
	q.bufferWrites = append(q.bufferWrites, bufferWrite{buffer: buffer, data: append([]byte(nil), data...)})
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

// lastWrite returns the data of the last write to buf.
func (q *recordingQueue) lastWrite(buf hal.Buffer) []byte {
	for i := len(q.bufferWrites) - 1; i >= 0; i-- {
		if q.bufferWrites[i].buffer == buf {
			return q.bufferWrites[i].data
		}
	}
	return nil
}

// recordingPass records scissors and draws. Other methods panic through
// the nil embedded interface.
type recordingPass struct {
	hal.RenderPassEncoder
	scissors [][4]uint32
	draws    [][2]uint32
}

func (r *recordingPass) SetPipeline(hal.RenderPipeline)               {}
func (r *recordingPass) SetBindGroup(uint32, hal.BindGroup, []uint32) {}
func (r *recordingPass) SetVertexBuffer(uint32, hal.Buffer, uint64)   {}

func (r *recordingPass) SetScissorRect(x, y, w, h uint32) {
	r.scissors = append(r.scissors, [4]uint32{x, y, w, h})
}

func (r *recordingPass) Draw(vertexCount, instanceCount, _, _ uint32) {
	r.draws = append(r.draws, [2]uint32{vertexCount, instanceCount})
}

func loadFont(t *testing.T) *layout.Font {
	t.Helper()
	f, err := layout.ParseFont(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseFont failed: %v", err)
	}
	return f
}

// newTestBrush builds a brush on a noop device with a recording queue.
func newTestBrush(t *testing.T, opts ...Option) (*Brush, *recordingQueue) {
	t.Helper()
	device, queue := createNoopDevice(t)
	rq := &recordingQueue{Queue: queue}
	b, err := NewBuilder([]*layout.Font{loadFont(t)}, opts...).Build(device, rq)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b, rq
}

// uploadedInstances decodes the last instance upload of b.
func uploadedInstances(b *Brush, q *recordingQueue) []Instance {
	vb := b.pipeline.Vertices()
	data := q.lastWrite(vb.Buffer())
	n := vb.Len()
	out := make([]Instance, n)
	f := func(i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])) }
	for k := range out {
		base := k * 13
		in := &out[k]
		in.LeftTop = [3]float32{f(base), f(base + 1), f(base + 2)}
		in.RightBottom = [2]float32{f(base + 3), f(base + 4)}
		in.TexLeftTop = [2]float32{f(base + 5), f(base + 6)}
		in.TexRightBottom = [2]float32{f(base + 7), f(base + 8)}
		in.Color = [4]float32{f(base + 9), f(base + 10), f(base + 11), f(base + 12)}
	}
	return out
}

func section(text string, scale float32) layout.Section {
	return layout.Section{Text: []layout.Text{layout.NewText(text).WithScale(scale)}}
}
