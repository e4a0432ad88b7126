// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glyphbrush

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphbrush/internal/gpu"
	"github.com/gogpu/glyphbrush/layout"
)

// Brush draws queued text sections with a GPU render pipeline.
//
// Sections are queued during a frame and drawn by one of the DrawQueued
// methods, which lays them out, updates the glyph cache texture, uploads
// the glyph instances and records a single instanced draw.
//
// Brush is safe for concurrent use, but the render pass given to a draw
// call must not be used by another goroutine during the call.
type Brush struct {
	mu sync.Mutex

	pipeline *gpu.Pipeline
	glyphs   *layout.Brush[Instance]

	maxDim     uint32
	maxResizes int
	closed     bool
}

// Queue queues sections for the next draw.
func (b *Brush) Queue(sections ...layout.Section) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.glyphs.Queue(sections...)
}

// QueueCustomLayout queues a section laid out by p instead of its Layout.
func (b *Brush) QueueCustomLayout(s layout.Section, p layout.GlyphPositioner) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.glyphs.QueueCustomLayout(s, p)
}

// QueuePrePositioned queues already positioned glyphs, clipped to bounds.
// The extra of a glyph is extras[glyph.TextIndex].
func (b *Brush) QueuePrePositioned(glyphs []layout.SectionGlyph, extras []layout.Extra, bounds layout.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.glyphs.QueuePrePositioned(glyphs, extras, bounds)
}

// KeepCached keeps the layout of s for the next frame without drawing it.
func (b *Brush) KeepCached(s layout.Section) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.glyphs.KeepCached(s)
}

// KeepCachedCustomLayout is KeepCached for a section laid out by p.
func (b *Brush) KeepCachedCustomLayout(s layout.Section, p layout.GlyphPositioner) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.glyphs.KeepCachedCustomLayout(s, p)
}

// Fonts returns the fonts of the brush, indexed by layout.FontID.
func (b *Brush) Fonts() []*layout.Font {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.glyphs.Fonts()
}

// AddFont adds a font and returns its id.
func (b *Brush) AddFont(f *layout.Font) layout.FontID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.glyphs.AddFont(f)
}

// Glyphs returns the positioned glyphs of s.
func (b *Brush) Glyphs(s layout.Section) []layout.SectionGlyph {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.glyphs.Glyphs(s)
}

// GlyphsCustomLayout returns the glyphs of s laid out by p.
func (b *Brush) GlyphsCustomLayout(s layout.Section, p layout.GlyphPositioner) []layout.SectionGlyph {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.glyphs.GlyphsCustomLayout(s, p)
}

// GlyphBounds returns the pixel area covered by s. ok is false when s
// draws nothing.
func (b *Brush) GlyphBounds(s layout.Section) (layout.Rect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.glyphs.GlyphBounds(s)
}

// GlyphBoundsCustomLayout is GlyphBounds for a section laid out by p.
func (b *Brush) GlyphBoundsCustomLayout(s layout.Section, p layout.GlyphPositioner) (layout.Rect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.glyphs.GlyphBoundsCustomLayout(s, p)
}

// TextureDimensions returns the size of the glyph cache texture.
func (b *Brush) TextureDimensions() (width, height uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c := b.pipeline.Cache(); c != nil {
		return c.Width(), c.Height()
	}
	return 0, 0
}

// ProcessQueued lays out the queued sections and uploads the results
// without recording a draw. The DrawQueued methods call it themselves;
// calling it first moves the uploads out of the render pass. On error the
// queued sections are discarded.
func (b *Brush) ProcessQueued() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	return b.processQueued()
}

// processQueued runs the layout and uploads its results, growing the glyph
// cache while the frame does not fit. A frame that fails is dropped so the
// caller can queue it again without duplicating glyphs.
func (b *Brush) processQueued() error {
	for attempt := 0; ; attempt++ {
		action, err := b.glyphs.ProcessQueued(b.pipeline.UpdateCache, ToInstance)
		if err == nil {
			if action.Kind != layout.ActionDraw {
				return nil
			}
			if err := b.pipeline.UploadVertices(action.Vertices); err != nil {
				b.glyphs.Invalidate()
				return fmt.Errorf("glyphbrush: upload instances: %w", err)
			}
			return nil
		}

		var tooSmall *layout.TextureTooSmallError
		if !errors.As(err, &tooSmall) {
			b.glyphs.ClearQueue()
			return fmt.Errorf("glyphbrush: process queued: %w", err)
		}
		if attempt >= b.maxResizes {
			b.glyphs.ClearQueue()
			return fmt.Errorf("%w after %d resizes", ErrCacheResizeLimit, attempt)
		}

		cache := b.pipeline.Cache()
		curW, curH := cache.Width(), cache.Height()
		w, h := nextCacheSize(curW, curH, tooSmall.Width, tooSmall.Height, b.maxDim)

		slogger().Warn("glyphbrush: glyph cache too small, resizing; consider WithInitialCacheSize",
			slog.Int("old_width", int(curW)),
			slog.Int("old_height", int(curH)),
			slog.Int("new_width", int(w)),
			slog.Int("new_height", int(h)))

		if err := b.pipeline.IncreaseCacheSize(w, h); err != nil {
			b.glyphs.ClearQueue()
			return fmt.Errorf("glyphbrush: resize glyph cache to %dx%d: %w", w, h, err)
		}
		b.glyphs.ResizeTexture(int(w), int(h))
	}
}

// nextCacheSize picks the cache size after a too small error. A suggestion
// past maxDim is clamped to maxDim x maxDim unless the cache is already at
// the limit in both axes, in which case the suggestion stands and creating
// the texture fails.
func nextCacheSize(curW, curH uint32, suggestedW, suggestedH int, maxDim uint32) (uint32, uint32) {
	w, h := uint32(max(suggestedW, 0)), uint32(max(suggestedH, 0)) //nolint:gosec // clamped
	if maxDim == 0 {
		return w, h
	}
	if (w > maxDim || h > maxDim) && (curW < maxDim || curH < maxDim) {
		return maxDim, maxDim
	}
	return w, h
}

// DrawQueued draws the queued sections into rp with an orthographic
// projection of a width x height target.
func (b *Brush) DrawQueued(rp hal.RenderPassEncoder, width, height float32) error {
	return b.draw(rp, OrthographicProjection(width, height), nil)
}

// DrawQueuedWithTransform draws the queued sections with a custom transform,
// a column-major 4x4 matrix from pixel coordinates to clip space.
func (b *Brush) DrawQueuedWithTransform(rp hal.RenderPassEncoder, transform [16]float32) error {
	return b.draw(rp, transform, nil)
}

// DrawQueuedWithTransformAndScissoring is DrawQueuedWithTransform restricted
// to the region of the target.
func (b *Brush) DrawQueuedWithTransformAndScissoring(rp hal.RenderPassEncoder, transform [16]float32, region image.Rectangle) error {
	return b.draw(rp, transform, &region)
}

func (b *Brush) draw(rp hal.RenderPassEncoder, transform [16]float32, scissor *image.Rectangle) error {
	if rp == nil {
		return errors.New("glyphbrush: nil render pass")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if err := b.processQueued(); err != nil {
		return err
	}
	return b.pipeline.Draw(rp, transform, scissor)
}

// Close releases the GPU resources of the brush. Further draws return
// ErrClosed. Close is idempotent.
func (b *Brush) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.pipeline.Destroy()
	slogger().Debug("glyphbrush: brush closed")
	return nil
}
