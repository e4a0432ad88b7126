package layout

import (
	"encoding/binary"
	"hash"
	"io"
	"math"
)

// FontID indexes the fonts of a Brush, in the order they were added.
type FontID int

// GlyphID is a glyph index within a font.
type GlyphID uint16

// PxScale is the pixel size of text. Y is the height from the font's ascent
// to its descent; X stretches glyphs horizontally and is usually equal to Y.
type PxScale struct {
	X, Y float32
}

// Uniform returns a PxScale with X and Y set to s.
func Uniform(s float32) PxScale { return PxScale{X: s, Y: s} }

// Color is a linear RGBA color.
type Color [4]float32

// Black is opaque black.
var Black = Color{0, 0, 0, 1}

// Extra carries the per-glyph data that is not needed for layout.
type Extra struct {
	Color Color
	// Z is the depth written to the vertex, for depth-tested pipelines.
	Z float32
}

// Text is a run of text sharing a font, scale and Extra.
type Text struct {
	Text   string
	Scale  PxScale
	FontID FontID
	Extra  Extra
}

// NewText returns a black run at scale 16 with the first font.
func NewText(s string) Text {
	return Text{Text: s, Scale: Uniform(16), Extra: Extra{Color: Black}}
}

// WithScale returns t with a uniform scale.
func (t Text) WithScale(s float32) Text { t.Scale = Uniform(s); return t }

// WithPxScale returns t with scale s.
func (t Text) WithPxScale(s PxScale) Text { t.Scale = s; return t }

// WithColor returns t with color c.
func (t Text) WithColor(c Color) Text { t.Extra.Color = c; return t }

// WithFontID returns t using font id.
func (t Text) WithFontID(id FontID) Text { t.FontID = id; return t }

// WithZ returns t with depth z.
func (t Text) WithZ(z float32) Text { t.Extra.Z = z; return t }

// Section is a block of text laid out together.
type Section struct {
	// ScreenPosition is the anchor of the block. Which corner or edge it
	// designates depends on the alignment of Layout.
	ScreenPosition [2]float32

	// Bounds is the maximum width and height of the block. Glyphs outside
	// are clipped. A component <= 0 is unbounded.
	Bounds [2]float32

	Layout Layout

	Text []Text
}

// bounds returns Bounds with unbounded components replaced by +Inf.
func (s *Section) bounds() (w, h float32) {
	w, h = s.Bounds[0], s.Bounds[1]
	if w <= 0 {
		w = infinity
	}
	if h <= 0 {
		h = infinity
	}
	return w, h
}

// SectionGlyph is a positioned glyph of a laid out section.
type SectionGlyph struct {
	// SectionIndex is the index of the section in the frame queue, or 0
	// for single-section queries.
	SectionIndex int
	// TextIndex is the index of the Text run the glyph comes from.
	TextIndex int
	// ByteIndex is the byte offset of the glyph's cluster in its run.
	ByteIndex int

	FontID FontID
	Glyph  GlyphID
	// Position is the pen origin on the baseline.
	Position Point
	Scale    PxScale
	// Advance is the shaped horizontal advance in pixels. Zero means the
	// positioner did not report one and the font's advance is used.
	Advance float32
}

// sectionHasher writes the hashed fields of sections into a hash.Hash64.
type sectionHasher struct {
	h   hash.Hash64
	buf [8]byte
}

func (sh *sectionHasher) f32(f float32) {
	binary.LittleEndian.PutUint32(sh.buf[:4], math.Float32bits(f))
	_, _ = sh.h.Write(sh.buf[:4])
}

func (sh *sectionHasher) int(i int) {
	binary.LittleEndian.PutUint64(sh.buf[:], uint64(i)) //nolint:gosec // hashing only
	_, _ = sh.h.Write(sh.buf[:])
}

func (sh *sectionHasher) text(t *Text) {
	sh.int(len(t.Text))
	_, _ = io.WriteString(sh.h, t.Text)
	sh.f32(t.Scale.X)
	sh.f32(t.Scale.Y)
	sh.int(int(t.FontID))
	for _, c := range t.Extra.Color {
		sh.f32(c)
	}
	sh.f32(t.Extra.Z)
}

// hashSection hashes a section together with the positioner that lays it out.
func hashSection(h hash.Hash64, s *Section, p GlyphPositioner) uint64 {
	h.Reset()
	sh := sectionHasher{h: h}
	sh.f32(s.ScreenPosition[0])
	sh.f32(s.ScreenPosition[1])
	sh.f32(s.Bounds[0])
	sh.f32(s.Bounds[1])
	p.HashTo(h)
	sh.int(len(s.Text))
	for i := range s.Text {
		sh.text(&s.Text[i])
	}
	return h.Sum64()
}

// hashPrePositioned hashes already positioned glyphs with their extras and
// clipping bounds.
func hashPrePositioned(h hash.Hash64, glyphs []SectionGlyph, extras []Extra, bounds Rect) uint64 {
	h.Reset()
	sh := sectionHasher{h: h}
	sh.int(len(glyphs))
	for _, g := range glyphs {
		sh.int(g.SectionIndex)
		sh.int(g.TextIndex)
		sh.int(g.ByteIndex)
		sh.int(int(g.FontID))
		sh.int(int(g.Glyph))
		sh.f32(g.Position.X)
		sh.f32(g.Position.Y)
		sh.f32(g.Scale.X)
		sh.f32(g.Scale.Y)
	}
	sh.int(len(extras))
	for _, e := range extras {
		for _, c := range e.Color {
			sh.f32(c)
		}
		sh.f32(e.Z)
	}
	sh.f32(bounds.Min.X)
	sh.f32(bounds.Min.Y)
	sh.f32(bounds.Max.X)
	sh.f32(bounds.Max.Y)
	return h.Sum64()
}
