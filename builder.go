// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glyphbrush

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphbrush/internal/gpu"
	"github.com/gogpu/glyphbrush/layout"
)

// Builder creates a Brush.
type Builder struct {
	fonts []*layout.Font
	cfg   config
}

// NewBuilder returns a builder for a Brush drawing with fonts. The first
// font is layout.FontID(0). fonts may be empty when they are added later
// with Brush.AddFont.
func NewBuilder(fonts []*layout.Font, opts ...Option) *Builder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{fonts: slices.Clone(fonts), cfg: cfg}
}

// Build creates the GPU objects of the brush on device. The device and
// queue stay owned by the caller and must outlive the brush.
func (bd *Builder) Build(device hal.Device, queue hal.Queue) (*Brush, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	cfg := bd.cfg
	cfg.maxDimension = resolveMaxDimension(cfg.maxDimension, device)

	pipeline, err := gpu.NewPipeline(device, queue, gpu.PipelineConfig{
		TargetFormat:        cfg.targetFormat,
		Filter:              cfg.filter,
		DepthStencil:        cfg.depthStencil,
		CacheWidth:          cfg.cacheWidth,
		CacheHeight:         cfg.cacheHeight,
		MaxTextureDimension: cfg.maxDimension,
		InstanceCapacity:    cfg.instanceCount,
		SampleCount:         cfg.sampleCount,
		SPIRV:               cfg.spirv,
	})
	if err != nil {
		return nil, fmt.Errorf("glyphbrush: create pipeline: %w", err)
	}

	glyphs := layout.NewBrush[Instance](bd.fonts,
		layout.WithCacheSize(int(cfg.cacheWidth), int(cfg.cacheHeight)),
		layout.WithSectionHasher(cfg.hasher),
		layout.WithTolerance(cfg.scaleTol, cfg.positionTol),
	)

	slogger().Info("glyphbrush: brush created",
		slog.Int("fonts", len(bd.fonts)),
		slog.Int("cache_width", int(cfg.cacheWidth)),
		slog.Int("cache_height", int(cfg.cacheHeight)),
		slog.Int("max_texture_dimension", int(cfg.maxDimension)),
		slog.Bool("depth", cfg.depthStencil != nil),
		slog.Bool("spirv", cfg.spirv))

	return &Brush{
		pipeline:   pipeline,
		glyphs:     glyphs,
		maxDim:     cfg.maxDimension,
		maxResizes: cfg.maxResizes,
	}, nil
}

// halProvider is implemented by hosts that expose their hal objects
// directly, like gogpu.App.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// BuildFromProvider builds a brush on the device of a host application.
// The provider must expose hal objects, either through HalDevice/HalQueue
// methods or by returning them from Device and Queue. Unless
// WithTargetFormat was given, the provider's surface format is used.
func (bd *Builder) BuildFromProvider(provider gpucontext.DeviceProvider) (*Brush, error) {
	if provider == nil {
		return nil, ErrNilDevice
	}

	var device, queue any
	if hp, ok := provider.(halProvider); ok {
		device, queue = hp.HalDevice(), hp.HalQueue()
	} else {
		device, queue = provider.Device(), provider.Queue()
	}
	halDevice, ok := device.(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: device is %T", ErrProviderNotHAL, device)
	}
	halQueue, ok := queue.(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: queue is %T", ErrProviderNotHAL, queue)
	}

	info := provider.AdapterInfo()
	slogger().Debug("glyphbrush: building from device provider",
		slog.String("adapter", info.Name),
		slog.String("adapter_type", info.Type.String()))

	resolved := *bd
	resolved.cfg.maxDimension = resolveMaxDimension(bd.cfg.maxDimension,
		provider.Device(), provider.Adapter(), halDevice)
	if resolved.cfg.targetFormat == gputypes.TextureFormatUndefined {
		resolved.cfg.targetFormat = provider.SurfaceFormat()
	}
	return resolved.Build(halDevice, halQueue)
}
