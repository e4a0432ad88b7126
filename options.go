// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glyphbrush

import (
	"hash"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/glyphbrush/internal/gpu"
	"github.com/gogpu/glyphbrush/layout"
)

// Option configures a Builder.
//
// Example:
//
//	brush, err := glyphbrush.NewBuilder(fonts,
//	    glyphbrush.WithInitialCacheSize(1024, 1024),
//	    glyphbrush.WithTextureFilter(glyphbrush.FilterNearest),
//	).Build(device, queue)
type Option func(*config)

// TextureFilter selects how the glyph cache texture is sampled.
type TextureFilter = gpu.Filter

// DepthStencil enables depth testing of glyphs against their Z value.
type DepthStencil = gpu.DepthStencilConfig

// Predefined texture filters.
var (
	// FilterTrilinear filters linearly between texels and mip levels.
	FilterTrilinear = gpu.FilterTrilinear

	// FilterNearest samples the nearest texel. Useful for pixel-aligned text.
	FilterNearest = TextureFilter{
		Mag:    gputypes.FilterModeNearest,
		Min:    gputypes.FilterModeNearest,
		Mipmap: gputypes.FilterModeNearest,
	}
)

// DefaultMaxResizeAttempts bounds how often one ProcessQueued may grow the
// glyph cache.
const DefaultMaxResizeAttempts = 32

type config struct {
	filter        TextureFilter
	depthStencil  *DepthStencil
	cacheWidth    uint32
	cacheHeight   uint32
	hasher        func() hash.Hash64
	targetFormat  gputypes.TextureFormat
	maxDimension  uint32
	spirv         bool
	maxResizes    int
	scaleTol      float32
	positionTol   float32
	sampleCount   uint32
	instanceCount int
}

func defaultConfig() config {
	return config{
		filter:       FilterTrilinear,
		cacheWidth:   256,
		cacheHeight:  256,
		hasher:       func() hash.Hash64 { return xxhash.New() },
		maxResizes:   DefaultMaxResizeAttempts,
		scaleTol:     layout.DefaultScaleTolerance,
		positionTol:  layout.DefaultPositionTolerance,
		sampleCount:  1,
	}
}

// WithTextureFilter sets the glyph cache sampler filter.
// Default: FilterTrilinear.
func WithTextureFilter(f TextureFilter) Option {
	return func(c *config) { c.filter = f }
}

// WithDepthStencil enables depth testing. The render pass must have a depth
// attachment of ds.Format. A zero DepthCompare means Greater.
func WithDepthStencil(ds DepthStencil) Option {
	return func(c *config) { c.depthStencil = &ds }
}

// WithInitialCacheSize sets the initial glyph cache texture size.
// Default: 256x256. Text heavy applications should start larger to avoid
// resizes during the first frames.
func WithInitialCacheSize(width, height uint32) Option {
	return func(c *config) {
		if width > 0 && height > 0 {
			c.cacheWidth, c.cacheHeight = width, height
		}
	}
}

// WithSectionHasher sets the hash used to detect unchanged sections.
// Default: xxHash64.
func WithSectionHasher(newHash func() hash.Hash64) Option {
	return func(c *config) {
		if newHash != nil {
			c.hasher = newHash
		}
	}
}

// WithTargetFormat sets the color attachment format the brush draws into.
// Default: BGRA8Unorm, or the surface format for BuildFromProvider.
func WithTargetFormat(f gputypes.TextureFormat) Option {
	return func(c *config) { c.targetFormat = f }
}

// WithMaxTextureDimension bounds the glyph cache texture size. Default: the
// device's 2D texture limit when the device reports one, otherwise the
// WebGPU default limit.
func WithMaxTextureDimension(n uint32) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDimension = n
		}
	}
}

// WithDeviceLimits bounds the glyph cache texture by the limits the device
// was opened with. hal devices do not report their limits, so hosts opening
// one directly should pass the limits given to Adapter.Open.
func WithDeviceLimits(l gputypes.Limits) Option {
	return WithMaxTextureDimension(l.MaxTextureDimension2D)
}

// limitsReporter is implemented by devices and adapters that know their
// limits, like wgpu.Device and wgpu.Adapter.
type limitsReporter interface {
	Limits() gputypes.Limits
}

// resolveMaxDimension returns the configured texture limit, or the first
// limit reported by sources, or the WebGPU default.
func resolveMaxDimension(configured uint32, sources ...any) uint32 {
	if configured > 0 {
		return configured
	}
	for _, src := range sources {
		if lr, ok := src.(limitsReporter); ok {
			if n := lr.Limits().MaxTextureDimension2D; n > 0 {
				return n
			}
		}
	}
	return gputypes.DefaultLimits().MaxTextureDimension2D
}

// WithSPIRV builds the shader module from SPIR-V compiled by naga instead of
// WGSL source, for backends that want bytecode.
func WithSPIRV(enabled bool) Option {
	return func(c *config) { c.spirv = enabled }
}

// WithMaxResizeAttempts bounds the cache resizes of one ProcessQueued.
// Default: DefaultMaxResizeAttempts.
func WithMaxResizeAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxResizes = n
		}
	}
}

// WithDrawCacheTolerance sets how much the scale and subpixel position of a
// glyph may differ from a cached rasterization before it is redrawn.
// Default: 0.1 for both.
func WithDrawCacheTolerance(scale, position float32) Option {
	return func(c *config) {
		if scale > 0 {
			c.scaleTol = scale
		}
		if position > 0 {
			c.positionTol = position
		}
	}
}

// WithMultisample sets the sample count of the render target. Default: 1.
func WithMultisample(samples uint32) Option {
	return func(c *config) {
		if samples > 0 {
			c.sampleCount = samples
		}
	}
}

// WithInstanceCapacity sets the initial vertex buffer capacity in glyphs.
func WithInstanceCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.instanceCount = n
		}
	}
}
