// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu owns the GPU side of the glyph brush: the R8 atlas texture
// that mirrors the layout engine's CPU atlas, the instance buffer holding
// one quad record per visible glyph, and the render pipeline that draws
// them with a single instanced call.
//
// All objects are created on a [hal.Device] supplied by the host and write
// through its [hal.Queue]. Nothing in this package creates a device, a
// surface or a render pass: Pipeline.Draw records into a render pass the
// host has already begun.
//
// Architecture:
//
//	Pipeline owns Cache (atlas texture + view) and VertexBuffer
//	Pipeline owns shader, layouts, sampler, uniform buffer, bind group
//	bind group is rebuilt whenever the Cache is reallocated
package gpu
