// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glyphbrush

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/glyphbrush/layout"
)

func TestDrawSingleGlyph(t *testing.T) {
	b, q := newTestBrush(t)
	s := section("A", 40)
	s.Bounds = [2]float32{100, 100}
	b.Queue(s)

	pass := &recordingPass{}
	if err := b.DrawQueued(pass, 100, 100); err != nil {
		t.Fatalf("DrawQueued: %v", err)
	}

	if len(pass.draws) != 1 || pass.draws[0] != [2]uint32{4, 1} {
		t.Fatalf("draws = %v, want one Draw(4, 1)", pass.draws)
	}
	got := uploadedInstances(b, q)
	if len(got) != 1 {
		t.Fatalf("instances = %d, want 1", len(got))
	}
	in := got[0]
	for _, v := range []float32{in.TexLeftTop[0], in.TexLeftTop[1], in.TexRightBottom[0], in.TexRightBottom[1]} {
		if v < 0 || v > 1 {
			t.Errorf("tex coord %v outside [0, 1]", v)
		}
	}
	if in.LeftTop[0] < 0 || in.LeftTop[1] < 0 || in.RightBottom[0] > 100 || in.RightBottom[1] > 100 {
		t.Errorf("instance %v..%v outside the section bounds", in.LeftTop, in.RightBottom)
	}
	if in.LeftTop[0] >= in.RightBottom[0] || in.LeftTop[1] >= in.RightBottom[1] {
		t.Errorf("empty instance rect %v..%v", in.LeftTop, in.RightBottom)
	}
	if in.Color != layout.Black {
		t.Errorf("color = %v, want black", in.Color)
	}
	if len(pass.scissors) != 0 {
		t.Errorf("scissor set without a region: %v", pass.scissors)
	}
}

func TestDrawUnchangedFrameSkipsUpload(t *testing.T) {
	b, q := newTestBrush(t)
	pass := &recordingPass{}

	for range 2 {
		b.Queue(section("hello", 20))
		if err := b.DrawQueued(pass, 200, 100); err != nil {
			t.Fatalf("DrawQueued: %v", err)
		}
	}

	if n := q.writesTo(b.pipeline.Vertices().Buffer()); n != 1 {
		t.Errorf("instance uploads = %d, want 1", n)
	}
	if len(pass.draws) != 2 || pass.draws[0] != pass.draws[1] {
		t.Errorf("draws = %v, want two identical draws", pass.draws)
	}
}

func TestDrawTransformUploadedOnce(t *testing.T) {
	b, _ := newTestBrush(t)
	before := b.pipeline.TransformUploads()
	pass := &recordingPass{}

	for range 2 {
		b.Queue(section("x", 20))
		if err := b.DrawQueued(pass, 320, 240); err != nil {
			t.Fatalf("DrawQueued: %v", err)
		}
	}
	if got := b.pipeline.TransformUploads() - before; got != 1 {
		t.Errorf("transform uploads = %d, want 1", got)
	}

	b.Queue(section("x", 20))
	if err := b.DrawQueued(pass, 640, 480); err != nil {
		t.Fatalf("DrawQueued: %v", err)
	}
	if got := b.pipeline.TransformUploads() - before; got != 2 {
		t.Errorf("transform uploads after resize = %d, want 2", got)
	}
}

func TestDrawEmptyQueue(t *testing.T) {
	b, _ := newTestBrush(t)
	pass := &recordingPass{}
	if err := b.DrawQueued(pass, 100, 100); err != nil {
		t.Fatalf("DrawQueued: %v", err)
	}
	if len(pass.draws) != 0 {
		t.Errorf("draws = %v, want none", pass.draws)
	}
}

func TestDrawWithScissoring(t *testing.T) {
	b, _ := newTestBrush(t)
	b.Queue(section("clip", 20))

	pass := &recordingPass{}
	err := b.DrawQueuedWithTransformAndScissoring(pass, OrthographicProjection(100, 100), image.Rect(10, 20, 60, 50))
	if err != nil {
		t.Fatalf("DrawQueuedWithTransformAndScissoring: %v", err)
	}
	if len(pass.scissors) != 1 || pass.scissors[0] != [4]uint32{10, 20, 50, 30} {
		t.Errorf("scissors = %v, want [[10 20 50 30]]", pass.scissors)
	}
}

func TestInstanceCapacityIsSticky(t *testing.T) {
	b, _ := newTestBrush(t, WithInstanceCapacity(1))
	pass := &recordingPass{}

	b.Queue(section("abcde", 20))
	if err := b.DrawQueued(pass, 400, 100); err != nil {
		t.Fatalf("DrawQueued: %v", err)
	}
	vb := b.pipeline.Vertices()
	if vb.Len() != 5 || vb.Capacity() != 5 {
		t.Fatalf("len/cap = %d/%d, want 5/5", vb.Len(), vb.Capacity())
	}

	b.Queue(section("ab", 20))
	if err := b.DrawQueued(pass, 400, 100); err != nil {
		t.Fatalf("DrawQueued: %v", err)
	}
	if vb.Len() != 2 || vb.Capacity() != 5 {
		t.Errorf("len/cap = %d/%d, want 2/5", vb.Len(), vb.Capacity())
	}
}

func TestDrawGrowsGlyphCache(t *testing.T) {
	b, _ := newTestBrush(t, WithInitialCacheSize(16, 16))
	b.Queue(section("The quick brown fox", 48))

	pass := &recordingPass{}
	if err := b.DrawQueued(pass, 800, 100); err != nil {
		t.Fatalf("DrawQueued: %v", err)
	}
	w, h := b.TextureDimensions()
	if w <= 16 || h <= 16 {
		t.Errorf("cache = %dx%d, want grown", w, h)
	}
	if len(pass.draws) != 1 {
		t.Errorf("draws = %v, want one", pass.draws)
	}
}

func TestDrawCacheResizeLimit(t *testing.T) {
	b, _ := newTestBrush(t, WithInitialCacheSize(16, 16), WithMaxResizeAttempts(1))
	b.Queue(section("W", 100))

	err := b.DrawQueued(&recordingPass{}, 200, 200)
	if !errors.Is(err, ErrCacheResizeLimit) {
		t.Fatalf("err = %v, want ErrCacheResizeLimit", err)
	}

	b.mu.Lock()
	b.maxResizes = DefaultMaxResizeAttempts
	b.mu.Unlock()
	b.Queue(section("W", 100))
	pass := &recordingPass{}
	if err := b.DrawQueued(pass, 200, 200); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(pass.draws) != 1 || pass.draws[0] != [2]uint32{4, 1} {
		t.Errorf("draws = %v, want one Draw(4, 1): the failed frame is dropped", pass.draws)
	}
}

func TestDrawAfterUploadErrorDoesNotDuplicate(t *testing.T) {
	b, q := newTestBrush(t)
	q.failTextureWrites = 1
	b.Queue(section("A", 40))
	if err := b.DrawQueued(&recordingPass{}, 100, 100); !errors.Is(err, errDeviceLost) {
		t.Fatalf("err = %v, want errDeviceLost", err)
	}

	b.Queue(section("A", 40))
	pass := &recordingPass{}
	if err := b.DrawQueued(pass, 100, 100); err != nil {
		t.Fatalf("DrawQueued: %v", err)
	}
	if len(pass.draws) != 1 || pass.draws[0] != [2]uint32{4, 1} {
		t.Errorf("draws = %v, want one Draw(4, 1)", pass.draws)
	}
	if got := len(uploadedInstances(b, q)); got != 1 {
		t.Errorf("instances = %d, want 1", got)
	}
}

func TestDrawUnknownFontFailsOnce(t *testing.T) {
	b, _ := newTestBrush(t)
	b.QueuePrePositioned(
		[]layout.SectionGlyph{{FontID: 7, Glyph: 1, Scale: layout.Uniform(10)}},
		nil, layout.R(0, 0, 10, 10))
	if err := b.DrawQueued(&recordingPass{}, 100, 100); !errors.Is(err, layout.ErrUnknownFont) {
		t.Fatalf("err = %v, want ErrUnknownFont", err)
	}

	b.Queue(section("A", 40))
	pass := &recordingPass{}
	if err := b.DrawQueued(pass, 100, 100); err != nil {
		t.Fatalf("next frame: %v", err)
	}
	if len(pass.draws) != 1 || pass.draws[0] != [2]uint32{4, 1} {
		t.Errorf("draws = %v, want one Draw(4, 1)", pass.draws)
	}
}

func TestDrawAfterInstanceUploadError(t *testing.T) {
	b, q := newTestBrush(t)
	b.Queue(section("hello", 20))
	if err := b.DrawQueued(&recordingPass{}, 200, 100); err != nil {
		t.Fatalf("DrawQueued: %v", err)
	}

	q.failBufferWrites = 1
	b.Queue(section("goodbye world", 20))
	if err := b.DrawQueued(&recordingPass{}, 200, 100); !errors.Is(err, errDeviceLost) {
		t.Fatalf("err = %v, want errDeviceLost", err)
	}

	b.Queue(section("goodbye world", 20))
	pass := &recordingPass{}
	if err := b.DrawQueued(pass, 200, 100); err != nil {
		t.Fatalf("DrawQueued: %v", err)
	}
	want := [2]uint32{4, 12}
	if len(pass.draws) != 1 || pass.draws[0] != want {
		t.Fatalf("draws = %v, want one Draw%v", pass.draws, want)
	}
	if got := len(uploadedInstances(b, q)); got != 12 {
		t.Errorf("instances = %d, want 12", got)
	}
}

func TestDrawCacheClampedToMaxDimension(t *testing.T) {
	b, _ := newTestBrush(t, WithInitialCacheSize(16, 16), WithMaxTextureDimension(48))
	b.Queue(section("W", 40))

	if err := b.DrawQueued(&recordingPass{}, 200, 200); err != nil {
		t.Fatalf("DrawQueued: %v", err)
	}
	if w, h := b.TextureDimensions(); w > 48 || h > 48 {
		t.Errorf("cache = %dx%d, want at most 48x48", w, h)
	}

	b.Queue(section("W", 300))
	err := b.DrawQueued(&recordingPass{}, 400, 400)
	if !errors.Is(err, ErrCacheTooLarge) {
		t.Fatalf("err = %v, want ErrCacheTooLarge", err)
	}
}

func TestNextCacheSize(t *testing.T) {
	tests := []struct {
		name                 string
		curW, curH           uint32
		suggestedW, suggestH int
		maxDim               uint32
		wantW, wantH         uint32
	}{
		{"within limit", 256, 256, 512, 512, 8192, 512, 512},
		{"clamped", 4096, 4096, 8192 * 2, 8192 * 2, 8192, 8192, 8192},
		{"one axis below max", 8192, 4096, 16384, 8192, 8192, 8192, 8192},
		{"already at max", 8192, 8192, 16384, 16384, 8192, 16384, 16384},
		{"no limit", 16, 16, 32, 32, 0, 32, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := nextCacheSize(tt.curW, tt.curH, tt.suggestedW, tt.suggestH, tt.maxDim)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("nextCacheSize = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestProcessQueuedWithoutPass(t *testing.T) {
	b, q := newTestBrush(t)
	b.Queue(section("hi", 20))
	if err := b.ProcessQueued(); err != nil {
		t.Fatalf("ProcessQueued: %v", err)
	}
	if n := q.writesTo(b.pipeline.Vertices().Buffer()); n != 1 {
		t.Errorf("instance uploads = %d, want 1", n)
	}
	if q.textureWrites == 0 {
		t.Error("no glyph uploaded to the cache texture")
	}
}

func TestBrushGlyphQueries(t *testing.T) {
	b, _ := newTestBrush(t)
	s := section("ab", 20)
	s.ScreenPosition = [2]float32{5, 5}

	if got := len(b.Glyphs(s)); got != 2 {
		t.Errorf("Glyphs = %d, want 2", got)
	}
	r, ok := b.GlyphBounds(s)
	if !ok || r.Min.X < 5 || r.Min.Y < 5 || r.Empty() {
		t.Errorf("GlyphBounds = %v, %v", r, ok)
	}

	id := b.AddFont(loadFont(t))
	if id != 1 || len(b.Fonts()) != 2 {
		t.Errorf("AddFont = %d with %d fonts", id, len(b.Fonts()))
	}
}

func TestBrushClose(t *testing.T) {
	b, _ := newTestBrush(t)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	b.Queue(section("x", 20))
	if err := b.DrawQueued(&recordingPass{}, 10, 10); !errors.Is(err, ErrClosed) {
		t.Errorf("DrawQueued after Close = %v, want ErrClosed", err)
	}
	if err := b.ProcessQueued(); !errors.Is(err, ErrClosed) {
		t.Errorf("ProcessQueued after Close = %v, want ErrClosed", err)
	}
	if w, h := b.TextureDimensions(); w != 0 || h != 0 {
		t.Errorf("TextureDimensions after Close = %dx%d", w, h)
	}
}
