// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Cache errors.
var (
	// ErrCacheTooLarge is returned when a requested atlas size is zero or
	// exceeds the device's maximum 2D texture dimension.
	ErrCacheTooLarge = errors.New("wgpu: glyph cache size exceeds device limits")

	// ErrNilDevice is returned when a GPU object is created without a device or queue.
	ErrNilDevice = errors.New("wgpu: device or queue is nil")
)

// Cache is the GPU copy of the glyph atlas: a single-channel R8 texture and
// a view over it. The texture is only ever written through the queue, one
// dirty sub-rectangle at a time. A Cache never changes size; a larger atlas
// is a new Cache.
type Cache struct {
	device hal.Device
	queue  hal.Queue

	texture hal.Texture
	view    hal.TextureView

	width  uint32
	height uint32
}

// NewCache allocates a width x height R8 atlas texture and its view.
// maxDim is the device's maximum 2D texture dimension; 0 disables the check.
func NewCache(device hal.Device, queue hal.Queue, width, height, maxDim uint32) (*Cache, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if width == 0 || height == 0 || (maxDim > 0 && (width > maxDim || height > maxDim)) {
		return nil, fmt.Errorf("%w: %dx%d (max %d)", ErrCacheTooLarge, width, height, maxDim)
	}

	texture, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glyph_cache",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create glyph cache texture %dx%d: %w", width, height, err)
	}

	view, err := device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label:         "glyph_cache_view",
		Format:        gputypes.TextureFormatR8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(texture)
		return nil, fmt.Errorf("create glyph cache view: %w", err)
	}

	slogger().Debug("glyph cache created", "width", width, "height", height)

	return &Cache{
		device:  device,
		queue:   queue,
		texture: texture,
		view:    view,
		width:   width,
		height:  height,
	}, nil
}

// Update writes tightly packed R8 rows into rect. The layout engine never
// emits rectangles outside the atlas, so rect is not validated here.
func (c *Cache) Update(rect image.Rectangle, data []byte) error {
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	//nolint:gosec // atlas coordinates are bounded by the texture size
	err := c.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  c.texture,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(rect.Min.X), Y: uint32(rect.Min.Y)},
			Aspect:   gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(w),
			RowsPerImage: uint32(h),
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("write glyph cache region %v: %w", rect, err)
	}
	return nil
}

// View returns the shader-visible view of the atlas.
func (c *Cache) View() hal.TextureView { return c.view }

// Width returns the atlas width in texels.
func (c *Cache) Width() uint32 { return c.width }

// Height returns the atlas height in texels.
func (c *Cache) Height() uint32 { return c.height }

// Destroy releases the view and the texture. Safe to call more than once.
func (c *Cache) Destroy() {
	if c.view != nil {
		c.device.DestroyTextureView(c.view)
		c.view = nil
	}
	if c.texture != nil {
		c.device.DestroyTexture(c.texture)
		c.texture = nil
	}
}
