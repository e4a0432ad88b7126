// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glyphbrush

import (
	"github.com/gogpu/glyphbrush/internal/gpu"
	"github.com/gogpu/glyphbrush/layout"
)

// Instance is the per-glyph record uploaded to the vertex buffer.
type Instance = gpu.Instance

// ToInstance converts a glyph vertex into an instance record, clipping the
// pixel rectangle to the section bounds. Each clipped side moves the
// matching texture coordinate by the same fraction, so the visible part of
// the glyph keeps its texel-to-pixel mapping.
func ToInstance(v layout.GlyphVertex) Instance {
	px, tex, b := v.PixelCoords, v.TexCoords, v.Bounds

	if px.Max.X > b.Max.X {
		old := px.Width()
		px.Max.X = b.Max.X
		tex.Max.X = tex.Min.X + tex.Width()*px.Width()/old
	}
	if px.Min.X < b.Min.X {
		old := px.Width()
		px.Min.X = b.Min.X
		tex.Min.X = tex.Max.X - tex.Width()*px.Width()/old
	}
	if px.Max.Y > b.Max.Y {
		old := px.Height()
		px.Max.Y = b.Max.Y
		tex.Max.Y = tex.Min.Y + tex.Height()*px.Height()/old
	}
	if px.Min.Y < b.Min.Y {
		old := px.Height()
		px.Min.Y = b.Min.Y
		tex.Min.Y = tex.Max.Y - tex.Height()*px.Height()/old
	}

	return Instance{
		LeftTop:        [3]float32{px.Min.X, px.Min.Y, v.Extra.Z},
		RightBottom:    [2]float32{px.Max.X, px.Max.Y},
		TexLeftTop:     [2]float32{tex.Min.X, tex.Min.Y},
		TexRightBottom: [2]float32{tex.Max.X, tex.Max.Y},
		Color:          v.Extra.Color,
	}
}
