// Package layout turns queued text sections into positioned glyphs and keeps
// a CPU-side R8 glyph atlas in sync with them.
//
// A [Brush] collects sections for a frame. [Brush.ProcessQueued] lays them
// out (shaping with HarfBuzz, line breaking per UAX #14, alignment), makes
// sure every glyph of the frame has a rasterized bitmap in the atlas and
// reports each newly written atlas region through a callback, so a GPU
// texture can mirror the atlas exactly. It then converts every visible glyph
// into a caller-defined vertex type.
//
// When the frame's glyphs cannot fit in the atlas, ProcessQueued returns a
// [*TextureTooSmallError] carrying a suggested larger size. The caller grows
// its texture, calls [Brush.ResizeTexture] and processes again; queued
// sections are kept until a frame succeeds.
//
// Example:
//
//	font, _ := layout.ParseFont(goregular.TTF)
//	brush := layout.NewBrush[MyVertex]([]*layout.Font{font})
//	brush.Queue(layout.Section{
//	    ScreenPosition: [2]float32{10, 10},
//	    Bounds:         [2]float32{300, 100},
//	    Text:           []layout.Text{layout.NewText("Hello").WithScale(24)},
//	})
//	action, err := brush.ProcessQueued(uploadRegion, toVertex)
package layout
