// Package glyphbrush draws text with a GPU using a glyph cache texture.
//
// # Overview
//
// glyphbrush lays out text sections on the CPU, rasterizes the glyphs they
// use into a single-channel cache texture and draws every visible glyph as
// one instanced quad. Unchanged frames skip layout and upload entirely, so
// the steady-state cost of static text is a single draw call.
//
// # Quick Start
//
//	font, err := layout.ParseFont(ttfBytes)
//	if err != nil {
//	    return err
//	}
//	brush, err := glyphbrush.NewBuilder([]*layout.Font{font}).Build(device, queue)
//	if err != nil {
//	    return err
//	}
//	defer brush.Close()
//
//	// Every frame:
//	brush.Queue(layout.Section{
//	    ScreenPosition: [2]float32{10, 10},
//	    Text: []layout.Text{layout.NewText("Hello").WithScale(40)},
//	})
//	err = brush.DrawQueued(renderPass, width, height)
//
// # Architecture
//
// The library is organized into:
//   - glyphbrush: Builder, Brush and the instance format
//   - layout: fonts, sections, line breaking, layout and the CPU glyph cache
//   - internal/gpu: cache texture, instance buffer and render pipeline
//
// # Glyph cache
//
// The cache texture starts at 256x256 (see WithInitialCacheSize). When the
// glyphs of a frame do not fit it, the brush grows the texture and retries,
// up to the maximum 2D texture dimension of the device.
//
// # Logging
//
// glyphbrush logs through log/slog and is silent by default. Use SetLogger
// to enable output.
//
// # Coordinate System
//
// Positions are in pixels with the origin at the top-left corner of the
// target and Y pointing down. Z is passed through to the depth test when
// WithDepthStencil is used.
package glyphbrush
