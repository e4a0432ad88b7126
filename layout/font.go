package layout

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ErrInvalidFont is returned by ParseFont for data that is not a usable
// TrueType or OpenType font.
var ErrInvalidFont = errors.New("layout: invalid font data")

// Font is a parsed TrueType/OpenType font.
//
// The same bytes are parsed twice: go-text for shaping, x/image sfnt for
// outlines and metrics. Both index glyphs identically. A Font is safe for
// concurrent use.
type Font struct {
	data   []byte
	sfnt   *sfnt.Font
	shaper *font.Font

	unitsPerEm float32
	// ascent, descent and lineGap are in font units, y up (descent < 0).
	ascent, descent, lineGap float32
}

// ParseFont parses font data. The slice is retained and must not be modified.
func ParseFont(data []byte) (*Font, error) {
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFont, err)
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFont, err)
	}

	upem := sf.UnitsPerEm()
	if upem == 0 {
		return nil, fmt.Errorf("%w: zero units per em", ErrInvalidFont)
	}

	var buf sfnt.Buffer
	m, err := sf.Metrics(&buf, fixed.I(int(upem)), xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("%w: metrics: %w", ErrInvalidFont, err)
	}
	ascent := fixedToFloat(m.Ascent)
	descent := -fixedToFloat(m.Descent)
	if ascent-descent <= 0 {
		return nil, fmt.Errorf("%w: zero line height", ErrInvalidFont)
	}

	return &Font{
		data:       data,
		sfnt:       sf,
		shaper:     face.Font,
		unitsPerEm: float32(upem),
		ascent:     ascent,
		descent:    descent,
		lineGap:    max(fixedToFloat(m.Height)-ascent+descent, 0),
	}, nil
}

// Data returns the raw font bytes.
func (f *Font) Data() []byte { return f.data }

// Name returns the family name, or "" when the font has none.
func (f *Font) Name() string {
	var buf sfnt.Buffer
	name, err := f.sfnt.Name(&buf, sfnt.NameIDFamily)
	if err != nil {
		return ""
	}
	return name
}

// GlyphIndex returns the glyph for r, or 0 (.notdef) when the font has none.
func (f *Font) GlyphIndex(r rune) GlyphID {
	var buf sfnt.Buffer
	gi, err := f.sfnt.GlyphIndex(&buf, r)
	if err != nil {
		return 0
	}
	return GlyphID(gi)
}

// Metrics are vertical font metrics in pixels for a given scale.
type Metrics struct {
	// Ascent is the distance from the baseline to the top, positive.
	Ascent float32
	// Descent is the distance from the baseline to the bottom, negative.
	Descent float32
	// LineGap is the extra space between lines.
	LineGap float32
}

// LineHeight returns Ascent - Descent + LineGap.
func (m Metrics) LineHeight() float32 { return m.Ascent - m.Descent + m.LineGap }

// Metrics returns the vertical metrics at scale.
func (f *Font) Metrics(scale PxScale) Metrics {
	k := scale.Y / (f.ascent - f.descent)
	return Metrics{
		Ascent:  f.ascent * k,
		Descent: f.descent * k,
		LineGap: f.lineGap * k,
	}
}

// ppem returns the pixels-per-em equivalent of scale.Y. PxScale measures
// ascent to descent, not the em square.
func (f *Font) ppem(scale PxScale) float32 {
	return scale.Y * f.unitsPerEm / (f.ascent - f.descent)
}

// HAdvance returns the unshaped horizontal advance of a glyph in pixels.
func (f *Font) HAdvance(id GlyphID, scale PxScale) float32 {
	var buf sfnt.Buffer
	ppem := f.ppem(scale)
	adv, err := f.sfnt.GlyphAdvance(&buf, sfnt.GlyphIndex(id), floatToFixed(ppem), xfont.HintingNone)
	if err != nil {
		return 0
	}
	return fixedToFloat(adv) * scale.X / scale.Y
}

func floatToFixed(v float32) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func fixedToFloat(v fixed.Int26_6) float32 { return float32(v) / 64 }
