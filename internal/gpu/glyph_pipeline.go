// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrPipelineDestroyed is returned when drawing with a destroyed pipeline.
var ErrPipelineDestroyed = errors.New("wgpu: glyph pipeline is destroyed")

// transformUniformSize is the byte size of the Globals uniform:
// transform (mat4x4<f32>) = 64 bytes.
const transformUniformSize = 64

// verticesPerGlyph is the number of triangle-strip vertices per instance.
const verticesPerGlyph = 4

// IdentityTransform is the 4x4 identity matrix.
var IdentityTransform = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Filter selects the atlas sampler filtering.
type Filter struct {
	Mag    gputypes.FilterMode
	Min    gputypes.FilterMode
	Mipmap gputypes.FilterMode
}

// FilterTrilinear filters linearly in all three stages.
var FilterTrilinear = Filter{
	Mag:    gputypes.FilterModeLinear,
	Min:    gputypes.FilterModeLinear,
	Mipmap: gputypes.FilterModeLinear,
}

// DepthStencilConfig enables depth testing for z-layered glyphs.
type DepthStencilConfig struct {
	// Format is the render pass depth attachment format.
	Format gputypes.TextureFormat
	// DepthWriteEnabled controls depth writes.
	DepthWriteEnabled bool
	// DepthCompare is the depth test; undefined selects Greater.
	DepthCompare gputypes.CompareFunction
}

// PipelineConfig configures NewPipeline.
type PipelineConfig struct {
	// TargetFormat is the color attachment format. Default: BGRA8Unorm.
	TargetFormat gputypes.TextureFormat

	// Filter is the atlas sampler filter. Default: FilterTrilinear.
	Filter Filter

	// DepthStencil is nil for no depth test.
	DepthStencil *DepthStencilConfig

	// CacheWidth and CacheHeight size the initial atlas.
	CacheWidth  uint32
	CacheHeight uint32

	// MaxTextureDimension bounds the atlas size. 0 means no check.
	MaxTextureDimension uint32

	// InstanceCapacity is the initial vertex buffer capacity in glyphs.
	// Default: DefaultInstanceCapacity.
	InstanceCapacity int

	// SampleCount is the render target MSAA sample count. Default: 1.
	SampleCount uint32

	// SPIRV selects a naga-compiled SPIR-V shader module instead of WGSL.
	SPIRV bool
}

func (c *PipelineConfig) setDefaults() {
	if c.TargetFormat == gputypes.TextureFormatUndefined {
		c.TargetFormat = gputypes.TextureFormatBGRA8Unorm
	}
	if c.Filter == (Filter{}) {
		c.Filter = FilterTrilinear
	}
	if c.SampleCount == 0 {
		c.SampleCount = 1
	}
	if c.CacheWidth == 0 {
		c.CacheWidth = 256
	}
	if c.CacheHeight == 0 {
		c.CacheHeight = 256
	}
}

// Pipeline owns all GPU state used to draw glyphs: the render pipeline and
// its layouts, the sampler, the transform uniform, the atlas cache and the
// instance buffer.
//
// Everything except the transform and the atlas is fixed at construction.
// The transform is uploaded only when a draw asks for a matrix that differs
// bit for bit from the last one written.
type Pipeline struct {
	device hal.Device
	queue  hal.Queue
	cfg    PipelineConfig

	shader      hal.ShaderModule
	groupLayout hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	pipeline    hal.RenderPipeline
	sampler     hal.Sampler
	uniformBuf  hal.Buffer
	bindGroup   hal.BindGroup

	cache    *Cache
	vertices *VertexBuffer

	transform        [16]float32
	transformUploads uint64
}

// NewPipeline creates every GPU object needed to draw glyphs. On error all
// objects created so far are released.
func NewPipeline(device hal.Device, queue hal.Queue, cfg PipelineConfig) (*Pipeline, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	cfg.setDefaults()

	p := &Pipeline{device: device, queue: queue, cfg: cfg}
	if err := p.create(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) create() error {
	source, err := shaderSource(p.cfg.SPIRV)
	if err != nil {
		return err
	}
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "glyph_shader",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("compile glyph shader: %w", err)
	}
	p.shader = shader

	// Bind group layout:
	//   Binding 0: Globals (uniform buffer, vertex)
	//   Binding 1: glyph atlas (texture_2d, fragment)
	//   Binding 2: sampler (fragment)
	groupLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "glyph_bind_group_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: transformUniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create glyph bind group layout: %w", err)
	}
	p.groupLayout = groupLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "glyph_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.groupLayout},
	})
	if err != nil {
		return fmt.Errorf("create glyph pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "glyph_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    p.cfg.Filter.Mag,
		MinFilter:    p.cfg.Filter.Min,
		MipmapFilter: p.cfg.Filter.Mipmap,
		LodMinClamp:  0,
		LodMaxClamp:  32,
	})
	if err != nil {
		return fmt.Errorf("create glyph sampler: %w", err)
	}
	p.sampler = sampler

	alphaBlend := gputypes.BlendStateAlpha()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "glyph_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    instanceLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.cfg.TargetFormat,
					Blend:     &alphaBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleStrip,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		DepthStencil: depthStencilState(p.cfg.DepthStencil),
		Multisample: gputypes.MultisampleState{
			Count: p.cfg.SampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create glyph pipeline: %w", err)
	}
	p.pipeline = pipeline

	uniformBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glyph_transform",
		Size:  transformUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create glyph transform buffer: %w", err)
	}
	p.uniformBuf = uniformBuf
	if err := p.writeTransform(IdentityTransform); err != nil {
		return err
	}

	cache, err := NewCache(p.device, p.queue, p.cfg.CacheWidth, p.cfg.CacheHeight, p.cfg.MaxTextureDimension)
	if err != nil {
		return err
	}
	p.cache = cache

	vertices, err := NewVertexBuffer(p.device, p.queue, p.cfg.InstanceCapacity)
	if err != nil {
		return err
	}
	p.vertices = vertices

	return p.rebuildBindGroup()
}

// depthStencilState converts the optional depth configuration. Stencil is
// Always/Keep on both faces: glyphs never touch the stencil buffer.
func depthStencilState(cfg *DepthStencilConfig) *hal.DepthStencilState {
	if cfg == nil {
		return nil
	}
	compare := cfg.DepthCompare
	if compare == gputypes.CompareFunctionUndefined {
		compare = gputypes.CompareFunctionGreater
	}
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	return &hal.DepthStencilState{
		Format:            cfg.Format,
		DepthWriteEnabled: cfg.DepthWriteEnabled,
		DepthCompare:      compare,
		StencilFront:      keep,
		StencilBack:       keep,
		StencilReadMask:   0x00,
		StencilWriteMask:  0x00,
	}
}

// rebuildBindGroup binds the transform, the current atlas view and the
// sampler. Called at construction and after every atlas reallocation.
func (p *Pipeline) rebuildBindGroup() error {
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "glyph_bind_group",
		Layout: p.groupLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.uniformBuf.NativeHandle(), Offset: 0, Size: transformUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: p.cache.View().NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: p.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create glyph bind group: %w", err)
	}
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
	}
	p.bindGroup = bg
	return nil
}

func (p *Pipeline) writeTransform(t [16]float32) error {
	var data [transformUniformSize]byte
	for i, f := range t {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	if err := p.queue.WriteBuffer(p.uniformBuf, 0, data[:]); err != nil {
		return fmt.Errorf("write glyph transform: %w", err)
	}
	p.transform = t
	p.transformUploads++
	return nil
}

// sameTransform reports whether a and b are bit-for-bit identical.
func sameTransform(a, b *[16]float32) bool {
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}

// UpdateCache writes an atlas region. See Cache.Update.
func (p *Pipeline) UpdateCache(rect image.Rectangle, data []byte) error {
	if p.cache == nil {
		return ErrPipelineDestroyed
	}
	return p.cache.Update(rect, data)
}

// IncreaseCacheSize replaces the atlas with a width x height one. The old
// atlas is released only once the new one and its bind group exist.
func (p *Pipeline) IncreaseCacheSize(width, height uint32) error {
	if p.cache == nil {
		return ErrPipelineDestroyed
	}
	cache, err := NewCache(p.device, p.queue, width, height, p.cfg.MaxTextureDimension)
	if err != nil {
		return err
	}
	old := p.cache
	p.cache = cache
	if err := p.rebuildBindGroup(); err != nil {
		p.cache = old
		cache.Destroy()
		return err
	}
	old.Destroy()
	return nil
}

// UploadVertices replaces the instance records drawn by the next Draw.
func (p *Pipeline) UploadVertices(records []Instance) error {
	if p.vertices == nil {
		return ErrPipelineDestroyed
	}
	return p.vertices.Upload(records)
}

// Draw records the glyph draw into rp.
//
// The transform uniform is rewritten only if transform differs from the last
// uploaded matrix. A nil scissor leaves the pass scissor untouched. Nothing is
// recorded when there are no instances.
func (p *Pipeline) Draw(rp hal.RenderPassEncoder, transform [16]float32, scissor *image.Rectangle) error {
	if p.pipeline == nil {
		return ErrPipelineDestroyed
	}
	if !sameTransform(&transform, &p.transform) {
		if err := p.writeTransform(transform); err != nil {
			return err
		}
	}

	n := p.vertices.Len()
	if n == 0 {
		return nil
	}

	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
	rp.SetVertexBuffer(0, p.vertices.Buffer(), 0)
	if scissor != nil {
		r := scissor.Canon()
		//nolint:gosec // scissor rectangles are clamped to non-negative values
		rp.SetScissorRect(uint32(max(r.Min.X, 0)), uint32(max(r.Min.Y, 0)), uint32(max(r.Dx(), 0)), uint32(max(r.Dy(), 0)))
	}
	rp.Draw(verticesPerGlyph, uint32(n), 0, 0) //nolint:gosec // instance count fits uint32
	return nil
}

// Cache returns the current atlas.
func (p *Pipeline) Cache() *Cache { return p.cache }

// Vertices returns the instance buffer.
func (p *Pipeline) Vertices() *VertexBuffer { return p.vertices }

// TransformUploads returns how many times the transform uniform was written,
// including the initial identity upload.
func (p *Pipeline) TransformUploads() uint64 { return p.transformUploads }

// Destroy releases all GPU resources in reverse creation order. Safe to call
// multiple times or on a partially constructed pipeline.
func (p *Pipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.vertices != nil {
		p.vertices.Destroy()
		p.vertices = nil
	}
	if p.cache != nil {
		p.cache.Destroy()
		p.cache = nil
	}
	if p.uniformBuf != nil {
		p.device.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.groupLayout != nil {
		p.device.DestroyBindGroupLayout(p.groupLayout)
		p.groupLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
