// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glyphbrush

import (
	"hash"
	"hash/fnv"
	"testing"

	"github.com/gogpu/gputypes"
)

// TestDefaultConfig tests the values used when no option is given.
func TestDefaultConfig(t *testing.T) {
	c := defaultConfig()

	if c.cacheWidth != 256 || c.cacheHeight != 256 {
		t.Errorf("cache = %dx%d, want 256x256", c.cacheWidth, c.cacheHeight)
	}
	if c.filter != FilterTrilinear {
		t.Errorf("filter = %+v, want trilinear", c.filter)
	}
	if c.depthStencil != nil {
		t.Error("depth test enabled by default")
	}
	if c.targetFormat != gputypes.TextureFormatUndefined {
		t.Errorf("targetFormat = %v, want undefined until Build", c.targetFormat)
	}
	if c.maxDimension != 0 {
		t.Errorf("maxDimension = %d, want 0 until Build reads the device", c.maxDimension)
	}
	if c.maxResizes != DefaultMaxResizeAttempts {
		t.Errorf("maxResizes = %d", c.maxResizes)
	}
	if c.hasher == nil || c.hasher() == nil {
		t.Error("no default hasher")
	}
}

// TestOptions tests that every option reaches the config.
func TestOptions(t *testing.T) {
	newFNV := func() hash.Hash64 { return fnv.New64a() }
	c := defaultConfig()
	for _, opt := range []Option{
		WithTextureFilter(FilterNearest),
		WithDepthStencil(DepthStencil{Format: gputypes.TextureFormatDepth32Float}),
		WithInitialCacheSize(1024, 512),
		WithSectionHasher(newFNV),
		WithTargetFormat(gputypes.TextureFormatRGBA8Unorm),
		WithDeviceLimits(gputypes.Limits{MaxTextureDimension2D: 4096}),
		WithSPIRV(true),
		WithMaxResizeAttempts(3),
		WithDrawCacheTolerance(0.5, 0.25),
		WithMultisample(4),
		WithInstanceCapacity(64),
	} {
		opt(&c)
	}

	if c.filter != FilterNearest {
		t.Errorf("filter = %+v", c.filter)
	}
	if c.depthStencil == nil || c.depthStencil.Format != gputypes.TextureFormatDepth32Float {
		t.Errorf("depthStencil = %+v", c.depthStencil)
	}
	if c.cacheWidth != 1024 || c.cacheHeight != 512 {
		t.Errorf("cache = %dx%d", c.cacheWidth, c.cacheHeight)
	}
	if _, ok := c.hasher().(hash.Hash64); !ok {
		t.Error("hasher not set")
	}
	if c.targetFormat != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("targetFormat = %v", c.targetFormat)
	}
	if c.maxDimension != 4096 || !c.spirv || c.maxResizes != 3 {
		t.Errorf("maxDimension/spirv/maxResizes = %d/%v/%d", c.maxDimension, c.spirv, c.maxResizes)
	}
	if c.scaleTol != 0.5 || c.positionTol != 0.25 {
		t.Errorf("tolerances = %v/%v", c.scaleTol, c.positionTol)
	}
	if c.sampleCount != 4 || c.instanceCount != 64 {
		t.Errorf("sampleCount/instanceCount = %d/%d", c.sampleCount, c.instanceCount)
	}
}

// TestOptionsIgnoreInvalid tests that out of range values keep the default.
func TestOptionsIgnoreInvalid(t *testing.T) {
	c := defaultConfig()
	for _, opt := range []Option{
		WithInitialCacheSize(0, 100),
		WithSectionHasher(nil),
		WithMaxTextureDimension(0),
		WithMaxResizeAttempts(-1),
		WithDrawCacheTolerance(0, -1),
		WithMultisample(0),
		WithInstanceCapacity(0),
	} {
		opt(&c)
	}
	d := defaultConfig()
	if c.cacheWidth != d.cacheWidth || c.cacheHeight != d.cacheHeight || c.hasher == nil ||
		c.maxDimension != d.maxDimension || c.maxResizes != d.maxResizes ||
		c.scaleTol != d.scaleTol || c.positionTol != d.positionTol ||
		c.sampleCount != d.sampleCount || c.instanceCount != d.instanceCount {
		t.Errorf("config changed by invalid options: %+v", c)
	}
}

func TestResolveMaxDimension(t *testing.T) {
	small := gputypes.DefaultLimits()
	small.MaxTextureDimension2D = 1024
	def := gputypes.DefaultLimits().MaxTextureDimension2D

	tests := []struct {
		name       string
		configured uint32
		sources    []any
		want       uint32
	}{
		{"configured wins", 512, []any{limitedAdapter{small}}, 512},
		{"reported", 0, []any{"not a device", limitedAdapter{small}}, 1024},
		{"zero report skipped", 0, []any{limitedAdapter{}, limitedAdapter{small}}, 1024},
		{"default", 0, []any{nil}, def},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveMaxDimension(tt.configured, tt.sources...); got != tt.want {
				t.Errorf("resolveMaxDimension = %d, want %d", got, tt.want)
			}
		})
	}
}
