package layout

import (
	"cmp"
	"fmt"
	"image"
	"log/slog"
	"slices"

	"github.com/chewxy/math32"
)

// Default quantization of glyph scale and subpixel position. Glyphs whose
// scale and offset round to the same step share a cache entry.
const (
	DefaultScaleTolerance    float32 = 0.1
	DefaultPositionTolerance float32 = 0.1
)

// glyphPadding is the empty border kept around every cached glyph so that
// linear filtering never samples a neighbour.
const glyphPadding = 1

type glyphKey struct {
	font           FontID
	glyph          GlyphID
	scaleX, scaleY int32
	offX, offY     int32
}

type cachedGlyph struct {
	// bounds is the coverage rectangle relative to the integer pen origin.
	bounds image.Rectangle
	// tex is the coverage rectangle in the cache texture.
	tex image.Rectangle
}

// pendingGlyph is a glyph requested this frame with its rasterized mask.
type pendingGlyph struct {
	key    glyphKey
	bitmap bitmap
}

// DrawCache is the CPU side of the glyph cache texture. It decides where
// each glyph lives in the texture and produces the pixel updates that keep
// the GPU copy in sync.
type DrawCache struct {
	width, height int
	pix           []byte
	packer        *shelfPacker
	glyphs        map[glyphKey]cachedGlyph
	// empty records glyphs that have no outline.
	empty map[glyphKey]struct{}

	scaleTol, posTol float32
}

// NewDrawCache returns an empty cache for a width x height texture.
func NewDrawCache(width, height int, scaleTol, posTol float32) *DrawCache {
	if scaleTol <= 0 {
		scaleTol = DefaultScaleTolerance
	}
	if posTol <= 0 {
		posTol = DefaultPositionTolerance
	}
	return &DrawCache{
		width:    width,
		height:   height,
		pix:      make([]byte, width*height),
		packer:   newShelfPacker(width, height),
		glyphs:   make(map[glyphKey]cachedGlyph),
		empty:    make(map[glyphKey]struct{}),
		scaleTol: scaleTol,
		posTol:   posTol,
	}
}

// Dimensions returns the texture size.
func (c *DrawCache) Dimensions() (width, height int) { return c.width, c.height }

// Len returns the number of glyphs stored in the texture.
func (c *DrawCache) Len() int { return len(c.glyphs) }

// Utilization returns the packed fraction of the texture.
func (c *DrawCache) Utilization() float64 { return c.packer.utilization() }

// key quantizes the scale and subpixel pen offset of a glyph.
func (c *DrawCache) key(g *SectionGlyph) glyphKey {
	fx := g.Position.X - math32.Floor(g.Position.X)
	fy := g.Position.Y - math32.Floor(g.Position.Y)
	return glyphKey{
		font:   g.FontID,
		glyph:  g.Glyph,
		scaleX: int32(math32.Round(g.Scale.X / c.scaleTol)),
		scaleY: int32(math32.Round(g.Scale.Y / c.scaleTol)),
		offX:   int32(math32.Round(fx / c.posTol)),
		offY:   int32(math32.Round(fy / c.posTol)),
	}
}

func (c *DrawCache) rasterize(fonts []*Font, k glyphKey) (bitmap, bool) {
	scale := PxScale{X: float32(k.scaleX) * c.scaleTol, Y: float32(k.scaleY) * c.scaleTol}
	if scale.X <= 0 || scale.Y <= 0 {
		return bitmap{}, false
	}
	off := Point{X: float32(k.offX) * c.posTol, Y: float32(k.offY) * c.posTol}
	return fonts[k.font].rasterize(k.glyph, scale, off)
}

// cacheQueued makes sure every glyph in keys is in the texture. New glyphs
// are rasterized and sent to update. When they do not fit, the texture is
// cleared and this frame's glyphs are repacked tallest first; repacked is
// true in that case. A *TextureTooSmallError is returned when even the
// repack fails.
func (c *DrawCache) cacheQueued(fonts []*Font, keys []glyphKey, update func(image.Rectangle, []byte) error) (repacked bool, err error) {
	var (
		missing []pendingGlyph
		unique  []glyphKey
	)
	seen := make(map[glyphKey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
		if _, ok := c.glyphs[k]; ok {
			continue
		}
		if _, ok := c.empty[k]; ok {
			continue
		}
		bm, ok := c.rasterize(fonts, k)
		if !ok {
			c.empty[k] = struct{}{}
			continue
		}
		missing = append(missing, pendingGlyph{key: k, bitmap: bm})
	}
	if len(missing) == 0 {
		return false, nil
	}

	sortTallestFirst(missing)
	placed, fits := c.packAll(missing)
	if !fits {
		slogger().Debug("layout: glyph cache full, repacking",
			slog.Int("width", c.width), slog.Int("height", c.height),
			slog.Int("cached", len(c.glyphs)), slog.Int("new", len(missing)))

		// Roll back and start over with only this frame's glyphs.
		c.clear()
		all := missing[:0:0]
		for _, k := range unique {
			if _, ok := c.empty[k]; ok {
				continue
			}
			bm, ok := c.rasterize(fonts, k)
			if !ok {
				continue
			}
			all = append(all, pendingGlyph{key: k, bitmap: bm})
		}
		sortTallestFirst(all)
		if placed, fits = c.packAll(all); !fits {
			c.clear()
			return true, &TextureTooSmallError{Width: c.width * 2, Height: c.height * 2}
		}
		repacked = true
	}

	for _, p := range placed {
		if err := c.upload(p, update); err != nil {
			c.clear()
			return repacked, err
		}
	}
	return repacked, nil
}

type placedGlyph struct {
	key    glyphKey
	bitmap bitmap
	// cell is the padded rectangle in the texture.
	cell image.Rectangle
}

// packAll places glyphs, recording them in the cache. On failure the
// glyphs of this call are forgotten but the packer is left dirty; callers
// clear the cache.
func (c *DrawCache) packAll(glyphs []pendingGlyph) ([]placedGlyph, bool) {
	placed := make([]placedGlyph, 0, len(glyphs))
	for _, g := range glyphs {
		w := g.bitmap.Bounds.Dx() + 2*glyphPadding
		h := g.bitmap.Bounds.Dy() + 2*glyphPadding
		x, y, ok := c.packer.pack(w, h)
		if !ok {
			for _, p := range placed {
				delete(c.glyphs, p.key)
			}
			return nil, false
		}
		cell := image.Rect(x, y, x+w, y+h)
		c.glyphs[g.key] = cachedGlyph{
			bounds: g.bitmap.Bounds,
			tex:    cell.Inset(glyphPadding),
		}
		placed = append(placed, placedGlyph{key: g.key, bitmap: g.bitmap, cell: cell})
	}
	return placed, true
}

// upload copies a glyph into the pixel store and reports its padded cell.
func (c *DrawCache) upload(p placedGlyph, update func(image.Rectangle, []byte) error) error {
	cw, ch := p.cell.Dx(), p.cell.Dy()
	data := make([]byte, cw*ch)
	bw := p.bitmap.Bounds.Dx()
	for row := 0; row < p.bitmap.Bounds.Dy(); row++ {
		src := p.bitmap.Pix[row*bw : (row+1)*bw]
		copy(data[(row+glyphPadding)*cw+glyphPadding:], src)
	}
	for row := 0; row < ch; row++ {
		off := (p.cell.Min.Y+row)*c.width + p.cell.Min.X
		copy(c.pix[off:off+cw], data[row*cw:(row+1)*cw])
	}
	if update == nil {
		return nil
	}
	if err := update(p.cell, data); err != nil {
		return fmt.Errorf("layout: upload glyph %d: %w", p.key.glyph, err)
	}
	return nil
}

func (c *DrawCache) clear() {
	c.packer.reset()
	clear(c.glyphs)
	clear(c.pix)
}

// vertex returns the GlyphVertex of g, or ok=false when the glyph has no
// outline, is not cached, or lies outside bounds.
func (c *DrawCache) vertex(g *SectionGlyph, bounds Rect, extra Extra) (GlyphVertex, bool) {
	cg, ok := c.glyphs[c.key(g)]
	if !ok {
		return GlyphVertex{}, false
	}
	px := Rect{
		Min: Point{float32(cg.bounds.Min.X), float32(cg.bounds.Min.Y)},
		Max: Point{float32(cg.bounds.Max.X), float32(cg.bounds.Max.Y)},
	}.Translate(Point{math32.Floor(g.Position.X), math32.Floor(g.Position.Y)})
	if !px.Intersects(bounds) {
		return GlyphVertex{}, false
	}
	w, h := float32(c.width), float32(c.height)
	return GlyphVertex{
		TexCoords: Rect{
			Min: Point{float32(cg.tex.Min.X) / w, float32(cg.tex.Min.Y) / h},
			Max: Point{float32(cg.tex.Max.X) / w, float32(cg.tex.Max.Y) / h},
		},
		PixelCoords: px,
		Bounds:      bounds,
		Extra:       extra,
	}, true
}

func sortTallestFirst(glyphs []pendingGlyph) {
	slices.SortStableFunc(glyphs, func(a, b pendingGlyph) int {
		return cmp.Compare(b.bitmap.Bounds.Dy(), a.bitmap.Bounds.Dy())
	})
}
