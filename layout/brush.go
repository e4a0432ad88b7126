package layout

import (
	"errors"
	"fmt"
	"hash"
	"image"
	"log/slog"
	"slices"

	"github.com/go-text/typesetting/segmenter"
)

// GlyphVertex is everything needed to draw one cached glyph.
type GlyphVertex struct {
	// TexCoords is the glyph's rectangle in the cache texture, normalized.
	TexCoords Rect
	// PixelCoords is where the glyph goes on screen.
	PixelCoords Rect
	// Bounds is the clipping rectangle of the glyph's section. PixelCoords
	// may extend past it.
	Bounds Rect
	Extra  Extra
}

// ActionKind tells the caller what to do with the result of ProcessQueued.
type ActionKind uint8

const (
	// ActionDraw means the vertices changed and must be uploaded.
	ActionDraw ActionKind = iota
	// ActionReDraw means the previous frame's vertices are still valid.
	ActionReDraw
)

func (k ActionKind) String() string {
	switch k {
	case ActionDraw:
		return "Draw"
	case ActionReDraw:
		return "ReDraw"
	default:
		return "Unknown"
	}
}

// Action is the result of a successful ProcessQueued.
type Action[V any] struct {
	Kind ActionKind
	// Vertices is set for ActionDraw.
	Vertices []V
}

type queued struct {
	hash uint64
	// Exactly one of section or glyphs is used.
	section    *Section
	positioner GlyphPositioner
	glyphs     []SectionGlyph
	extras     []Extra
	bounds     Rect
}

// calculated is a laid out section.
type calculated struct {
	glyphs []SectionGlyph
	extras []Extra
	bounds Rect
}

// Brush lays out queued sections and keeps a DrawCache in sync with them.
// V is the caller's vertex type. A Brush is not safe for concurrent use.
type Brush[V any] struct {
	fonts  []*Font
	opts   brushOptions
	hasher hash.Hash64
	shaper *shaper
	seg    segmenter.Segmenter
	cache  *DrawCache

	queue      []queued
	calculated map[uint64]*calculated
	keepCached map[uint64]struct{}

	lastFrame []uint64
	// lastValid is false until a frame succeeds and after the cache texture
	// was replaced; the next frame then always draws.
	lastValid bool
}

// NewBrush returns a Brush using fonts. FontID(i) refers to fonts[i].
func NewBrush[V any](fonts []*Font, opts ...Option) *Brush[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Brush[V]{
		fonts:      slices.Clone(fonts),
		opts:       o,
		hasher:     o.hasher(),
		shaper:     newShaper(o.shapeCacheSize),
		cache:      NewDrawCache(o.cacheWidth, o.cacheHeight, o.scaleTolerance, o.positionTolerance),
		calculated: make(map[uint64]*calculated),
		keepCached: make(map[uint64]struct{}),
	}
}

// Fonts returns the fonts of the brush, indexed by FontID.
func (b *Brush[V]) Fonts() []*Font { return b.fonts }

// AddFont adds a font and returns its id.
func (b *Brush[V]) AddFont(f *Font) FontID {
	b.fonts = append(b.fonts, f)
	return FontID(len(b.fonts) - 1)
}

// TextureDimensions returns the size of the cache texture.
func (b *Brush[V]) TextureDimensions() (width, height int) { return b.cache.Dimensions() }

// DrawCache returns the CPU side of the cache texture.
func (b *Brush[V]) DrawCache() *DrawCache { return b.cache }

// Queue queues sections for the next ProcessQueued, each laid out with its
// own Layout.
func (b *Brush[V]) Queue(sections ...Section) {
	for i := range sections {
		b.QueueCustomLayout(sections[i], sections[i].Layout)
	}
}

// QueueCustomLayout queues a section laid out by p.
func (b *Brush[V]) QueueCustomLayout(s Section, p GlyphPositioner) {
	s.Text = slices.Clone(s.Text)
	b.queue = append(b.queue, queued{
		hash:       hashSection(b.hasher, &s, p),
		section:    &s,
		positioner: p,
	})
}

// QueuePrePositioned queues glyphs that are already positioned. The extra of
// a glyph is extras[glyph.TextIndex]. Glyphs outside bounds are clipped.
func (b *Brush[V]) QueuePrePositioned(glyphs []SectionGlyph, extras []Extra, bounds Rect) {
	glyphs = slices.Clone(glyphs)
	extras = slices.Clone(extras)
	b.queue = append(b.queue, queued{
		hash:   hashPrePositioned(b.hasher, glyphs, extras, bounds),
		glyphs: glyphs,
		extras: extras,
		bounds: bounds,
	})
}

// KeepCached keeps the layout of s across the next frame even if it is not
// queued.
func (b *Brush[V]) KeepCached(s Section) {
	b.KeepCachedCustomLayout(s, s.Layout)
}

// KeepCachedCustomLayout is KeepCached for a section laid out by p.
func (b *Brush[V]) KeepCachedCustomLayout(s Section, p GlyphPositioner) {
	h := hashSection(b.hasher, &s, p)
	b.layoutOf(h, &s, p)
	b.keepCached[h] = struct{}{}
}

// Glyphs returns the positioned glyphs of s.
func (b *Brush[V]) Glyphs(s Section) []SectionGlyph {
	return b.GlyphsCustomLayout(s, s.Layout)
}

// GlyphsCustomLayout returns the glyphs of s laid out by p.
func (b *Brush[V]) GlyphsCustomLayout(s Section, p GlyphPositioner) []SectionGlyph {
	h := hashSection(b.hasher, &s, p)
	return slices.Clone(b.layoutOf(h, &s, p).glyphs)
}

// GlyphBounds returns the area covered by the glyphs of s, clipped to its
// bounds. ok is false when s has no glyphs.
func (b *Brush[V]) GlyphBounds(s Section) (r Rect, ok bool) {
	return b.GlyphBoundsCustomLayout(s, s.Layout)
}

// GlyphBoundsCustomLayout is GlyphBounds for a section laid out by p. Each
// glyph covers its shaped advance horizontally and the font's ascent to
// descent vertically.
func (b *Brush[V]) GlyphBoundsCustomLayout(s Section, p GlyphPositioner) (r Rect, ok bool) {
	h := hashSection(b.hasher, &s, p)
	c := b.layoutOf(h, &s, p)
	for i := range c.glyphs {
		g := &c.glyphs[i]
		if int(g.FontID) < 0 || int(g.FontID) >= len(b.fonts) {
			continue
		}
		f := b.fonts[g.FontID]
		m := f.Metrics(g.Scale)
		advance := g.Advance
		if advance == 0 {
			advance = f.HAdvance(g.Glyph, g.Scale)
		}
		box := Rect{
			Min: Point{g.Position.X, g.Position.Y - m.Ascent},
			Max: Point{g.Position.X + advance, g.Position.Y - m.Descent},
		}
		if !ok {
			r, ok = box, true
			continue
		}
		r = r.Union(box)
	}
	if !ok {
		return Rect{}, false
	}
	r = r.intersect(c.bounds)
	return r, !r.Empty()
}

// layoutOf returns the cached layout of a section, computing it if needed.
func (b *Brush[V]) layoutOf(h uint64, s *Section, p GlyphPositioner) *calculated {
	if c, ok := b.calculated[h]; ok {
		return c
	}
	var glyphs []SectionGlyph
	if l, ok := p.(Layout); ok {
		glyphs = l.calculate(b.shaper, &b.seg, b.fonts, s)
	} else {
		glyphs = p.Calculate(b.fonts, s)
	}
	extras := make([]Extra, len(glyphs))
	for i := range glyphs {
		if ti := glyphs[i].TextIndex; ti >= 0 && ti < len(s.Text) {
			extras[i] = s.Text[ti].Extra
		}
	}
	c := &calculated{glyphs: glyphs, extras: extras, bounds: p.BoundsRect(s)}
	b.calculated[h] = c
	return c
}

// ProcessQueued lays out the queued sections, caches their glyphs and
// returns the vertices to draw.
//
// update is called with every cache texture region that changed, as tightly
// packed R8 rows. toVertex converts each visible glyph.
//
// When the glyphs do not fit the cache texture a *TextureTooSmallError is
// returned and the queue is kept: call ResizeTexture, resize the GPU texture
// and call ProcessQueued again. Other errors keep the queue too; callers
// that give up on the frame must call ClearQueue. On success the queue is
// cleared.
func (b *Brush[V]) ProcessQueued(update func(image.Rectangle, []byte) error, toVertex func(GlyphVertex) V) (Action[V], error) {
	hashes := make([]uint64, len(b.queue))
	for i := range b.queue {
		hashes[i] = b.queue[i].hash
	}

	if b.lastValid && slices.Equal(hashes, b.lastFrame) {
		b.finishFrame(hashes)
		return Action[V]{Kind: ActionReDraw}, nil
	}

	frame := make([]*calculated, len(b.queue))
	var keys []glyphKey
	for i := range b.queue {
		q := &b.queue[i]
		if q.section != nil {
			frame[i] = b.layoutOf(q.hash, q.section, q.positioner)
		} else {
			frame[i] = b.prePositioned(q)
		}
		for j := range frame[i].glyphs {
			g := &frame[i].glyphs[j]
			if int(g.FontID) < 0 || int(g.FontID) >= len(b.fonts) {
				return Action[V]{}, fmt.Errorf("%w: %d", ErrUnknownFont, g.FontID)
			}
			keys = append(keys, b.cache.key(g))
		}
	}

	repacked, err := b.cache.cacheQueued(b.fonts, keys, update)
	if err != nil {
		b.lastValid = false
		var tooSmall *TextureTooSmallError
		if errors.As(err, &tooSmall) {
			return Action[V]{}, tooSmall
		}
		return Action[V]{}, err
	}

	vertices := make([]V, 0, len(keys))
	for i, c := range frame {
		for j := range c.glyphs {
			g := c.glyphs[j]
			g.SectionIndex = i
			if v, ok := b.cache.vertex(&g, c.bounds, c.extras[j]); ok {
				vertices = append(vertices, toVertex(v))
			}
		}
	}

	slogger().Debug("layout: frame processed",
		slog.Int("sections", len(frame)),
		slog.Int("glyphs", len(keys)),
		slog.Int("vertices", len(vertices)),
		slog.Bool("repacked", repacked),
		slog.Float64("cache_utilization", b.cache.Utilization()))

	b.finishFrame(hashes)
	return Action[V]{Kind: ActionDraw, Vertices: vertices}, nil
}

func (b *Brush[V]) prePositioned(q *queued) *calculated {
	if c, ok := b.calculated[q.hash]; ok {
		return c
	}
	extras := make([]Extra, len(q.glyphs))
	for i := range q.glyphs {
		if ti := q.glyphs[i].TextIndex; ti >= 0 && ti < len(q.extras) {
			extras[i] = q.extras[ti]
		}
	}
	c := &calculated{glyphs: q.glyphs, extras: extras, bounds: q.bounds}
	b.calculated[q.hash] = c
	return c
}

// finishFrame clears the queue and drops layouts that were neither used
// this frame nor kept.
func (b *Brush[V]) finishFrame(hashes []uint64) {
	used := make(map[uint64]struct{}, len(hashes)+len(b.keepCached))
	for _, h := range hashes {
		used[h] = struct{}{}
	}
	for h := range b.keepCached {
		used[h] = struct{}{}
	}
	for h := range b.calculated {
		if _, ok := used[h]; !ok {
			delete(b.calculated, h)
		}
	}
	clear(b.keepCached)

	b.lastFrame = hashes
	b.lastValid = true
	b.queue = b.queue[:0]
}

// ClearQueue drops the queued sections without processing them.
func (b *Brush[V]) ClearQueue() {
	b.queue = b.queue[:0]
}

// Invalidate makes the next ProcessQueued return ActionDraw even if the
// queue matches the last frame. Call it when the vertices of the last
// ActionDraw never reached the GPU.
func (b *Brush[V]) Invalidate() {
	b.lastValid = false
}

// ResizeTexture replaces the cache with an empty one of the given size. The
// next ProcessQueued always draws.
func (b *Brush[V]) ResizeTexture(width, height int) {
	b.cache = NewDrawCache(width, height, b.opts.scaleTolerance, b.opts.positionTolerance)
	b.lastValid = false
}
