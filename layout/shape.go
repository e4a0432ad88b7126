package layout

import (
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/unicode/bidi"
)

// DefaultShapeCacheSize is the number of shaped words kept by a Brush.
const DefaultShapeCacheSize = 1024

// shapedGlyph is a glyph of a shaped word, in pixels at the shaping size
// before horizontal stretch. Y grows downwards.
type shapedGlyph struct {
	id GlyphID
	// cluster is the rune index within the word.
	cluster int
	x, y    float32
	advance float32
}

type shapedWord struct {
	glyphs  []shapedGlyph
	advance float32
	// trailing is the advance of the whitespace at the logical end of the
	// word. It does not count towards the width when wrapping.
	trailing float32
}

type shapeKey struct {
	font *Font
	ppem float32
	text string
}

// shaper shapes words with HarfBuzz and caches the results. Not safe for
// concurrent use.
type shaper struct {
	hb    shaping.HarfbuzzShaper
	faces map[*Font]*font.Face
	cache *lru.Cache[shapeKey, *shapedWord]
}

func newShaper(cacheSize int) *shaper {
	s := &shaper{faces: make(map[*Font]*font.Face)}
	if cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		s.cache, _ = lru.New[shapeKey, *shapedWord](cacheSize)
	}
	return s
}

// shape returns the shaped glyphs of text at ppem pixels per em.
func (s *shaper) shape(f *Font, ppem float32, text []rune) *shapedWord {
	key := shapeKey{font: f, ppem: ppem, text: string(text)}
	if s.cache != nil {
		if w, ok := s.cache.Get(key); ok {
			return w
		}
	}

	face, ok := s.faces[f]
	if !ok {
		face = font.NewFace(f.shaper)
		s.faces[f] = face
	}
	out := s.hb.Shape(shaping.Input{
		Text:      text,
		RunStart:  0,
		RunEnd:    len(text),
		Direction: direction(text),
		Face:      face,
		Size:      floatToFixed(ppem),
		Script:    detectScript(text),
		Language:  language.NewLanguage("en"),
	})

	w := &shapedWord{glyphs: make([]shapedGlyph, 0, len(out.Glyphs))}
	trailingFrom := len(text)
	for trailingFrom > 0 && unicode.IsSpace(text[trailingFrom-1]) {
		trailingFrom--
	}
	var pen float32
	for _, g := range out.Glyphs {
		adv := fixedToFloat(g.Advance)
		w.glyphs = append(w.glyphs, shapedGlyph{
			id:      GlyphID(g.GlyphID),
			cluster: g.TextIndex(),
			x:       pen + fixedToFloat(g.XOffset),
			y:       -fixedToFloat(g.YOffset),
			advance: adv,
		})
		if g.TextIndex() >= trailingFrom {
			w.trailing += adv
		}
		pen += adv
	}
	w.advance = pen

	if s.cache != nil {
		s.cache.Add(key, w)
	}
	return w
}

// direction returns the direction of the first strong character.
func direction(text []rune) di.Direction {
	for _, r := range text {
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.R, bidi.AL:
			return di.DirectionRTL
		case bidi.L:
			return di.DirectionLTR
		}
	}
	return di.DirectionLTR
}

// detectScript returns the script of the first non-space rune.
func detectScript(text []rune) language.Script {
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
