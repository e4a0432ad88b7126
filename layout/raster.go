package layout

import (
	"image"
	"image/draw"

	"github.com/chewxy/math32"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// bitmap is a rasterized glyph coverage mask.
type bitmap struct {
	// Bounds of the mask in pixels relative to the integer pen origin.
	// Y grows downwards.
	Bounds image.Rectangle
	// Pix holds one coverage byte per pixel, row-major, stride Bounds.Dx().
	Pix []byte
}

// rasterize renders glyph id at scale with the pen offset by a subpixel
// amount. It returns ok=false for glyphs without an outline (spaces).
func (f *Font) rasterize(id GlyphID, scale PxScale, offset Point) (bitmap, bool) {
	var buf sfnt.Buffer
	ppem := f.ppem(scale)
	segs, err := f.sfnt.LoadGlyph(&buf, sfnt.GlyphIndex(id), floatToFixed(ppem), nil)
	if err != nil || len(segs) == 0 {
		return bitmap{}, false
	}
	sx := scale.X / scale.Y

	fb := segs.Bounds()
	bounds := image.Rect(
		int(math32.Floor(fixedToFloat(fb.Min.X)*sx+offset.X)),
		int(math32.Floor(fixedToFloat(fb.Min.Y)+offset.Y)),
		int(math32.Ceil(fixedToFloat(fb.Max.X)*sx+offset.X)),
		int(math32.Ceil(fixedToFloat(fb.Max.Y)+offset.Y)),
	)
	if bounds.Empty() {
		return bitmap{}, false
	}

	dx := offset.X - float32(bounds.Min.X)
	dy := offset.Y - float32(bounds.Min.Y)
	px := func(p fixed.Point26_6) (float32, float32) {
		return fixedToFloat(p.X)*sx + dx, fixedToFloat(p.Y) + dy
	}

	w, h := bounds.Dx(), bounds.Dy()
	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			r.MoveTo(px(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			r.LineTo(px(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := px(seg.Args[0])
			cx, cy := px(seg.Args[1])
			r.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := px(seg.Args[0])
			cx, cy := px(seg.Args[1])
			ex, ey := px(seg.Args[2])
			r.CubeTo(bx, by, cx, cy, ex, ey)
		}
	}

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return bitmap{Bounds: bounds, Pix: dst.Pix}, true
}
