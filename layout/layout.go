package layout

import (
	"io"

	"github.com/chewxy/math32"
	"github.com/go-text/typesetting/segmenter"
)

// HorizontalAlign positions lines relative to ScreenPosition.X.
type HorizontalAlign uint8

const (
	// AlignLeft puts the left edge of each line at ScreenPosition.X.
	AlignLeft HorizontalAlign = iota
	// AlignCenter centers each line on ScreenPosition.X.
	AlignCenter
	// AlignRight puts the right edge of each line at ScreenPosition.X.
	AlignRight
)

// VerticalAlign positions the text block relative to ScreenPosition.Y.
type VerticalAlign uint8

const (
	// AlignTop puts the top of the first line at ScreenPosition.Y.
	AlignTop VerticalAlign = iota
	// AlignMiddle centers the block on ScreenPosition.Y.
	AlignMiddle
	// AlignBottom puts the bottom of the last line at ScreenPosition.Y.
	AlignBottom
)

// GlyphPositioner lays out sections. Layout is the built-in implementation;
// custom positioners are passed to the CustomLayout methods of Brush.
type GlyphPositioner interface {
	// Calculate returns the positioned glyphs of s.
	Calculate(fonts []*Font, s *Section) []SectionGlyph
	// BoundsRect returns the clipping rectangle of s.
	BoundsRect(s *Section) Rect
	// HashTo writes everything that affects Calculate, other than the
	// section itself, to w.
	HashTo(w io.Writer)
}

// Layout is the built-in GlyphPositioner. The zero value wraps words at the
// section width, aligned left and top.
type Layout struct {
	// SingleLine stops the layout at the first mandatory break or at the
	// first word that overflows the width. Otherwise words wrap.
	SingleLine  bool
	LineBreaker LineBreaker
	HAlign      HorizontalAlign
	VAlign      VerticalAlign
}

// Wrap returns a wrapping layout with the given alignment.
func Wrap(h HorizontalAlign, v VerticalAlign) Layout {
	return Layout{HAlign: h, VAlign: v}
}

// SingleLine returns a single line layout with the given alignment.
func SingleLine(h HorizontalAlign, v VerticalAlign) Layout {
	return Layout{SingleLine: true, HAlign: h, VAlign: v}
}

// WithLineBreaker returns l using breaker b.
func (l Layout) WithLineBreaker(b LineBreaker) Layout {
	l.LineBreaker = b
	return l
}

// HashTo implements GlyphPositioner.
func (l Layout) HashTo(w io.Writer) {
	var single byte
	if l.SingleLine {
		single = 1
	}
	_, _ = w.Write([]byte{single, byte(l.LineBreaker), byte(l.HAlign), byte(l.VAlign)})
}

// BoundsRect implements GlyphPositioner.
func (l Layout) BoundsRect(s *Section) Rect {
	w, h := s.bounds()
	x, y := s.ScreenPosition[0], s.ScreenPosition[1]

	var r Rect
	switch l.HAlign {
	case AlignCenter:
		r.Min.X, r.Max.X = x-w/2, x+w/2
	case AlignRight:
		r.Min.X, r.Max.X = x-w, x
	default:
		r.Min.X, r.Max.X = x, x+w
	}
	switch l.VAlign {
	case AlignMiddle:
		r.Min.Y, r.Max.Y = y-h/2, y+h/2
	case AlignBottom:
		r.Min.Y, r.Max.Y = y-h, y
	default:
		r.Min.Y, r.Max.Y = y, y+h
	}
	return r
}

// Calculate implements GlyphPositioner. It shapes without a cache; a Brush
// uses its own shaping cache instead.
func (l Layout) Calculate(fonts []*Font, s *Section) []SectionGlyph {
	var seg segmenter.Segmenter
	return l.calculate(newShaper(0), &seg, fonts, s)
}

// piece is the part of an unbreakable segment that belongs to one Text.
type piece struct {
	textIndex int
	fontID    FontID
	scale     PxScale
	metrics   Metrics
	word      *shapedWord
	// byteIndex holds the byte offset within the Text of every shaped rune.
	byteIndex []int
	stretch   float32
}

type line struct {
	glyphs []SectionGlyph
	// width excludes the trailing whitespace of the last word.
	width   float32
	ascent  float32
	descent float32
	lineGap float32
	started bool
}

func (ln *line) height() float32 { return ln.ascent - ln.descent + ln.lineGap }

func (ln *line) addMetrics(m Metrics) {
	if !ln.started {
		ln.ascent, ln.descent, ln.lineGap = m.Ascent, m.Descent, m.LineGap
		ln.started = true
		return
	}
	ln.ascent = math32.Max(ln.ascent, m.Ascent)
	ln.descent = math32.Min(ln.descent, m.Descent)
	ln.lineGap = math32.Max(ln.lineGap, m.LineGap)
}

// calculate lays out s using sh for shaping and seg for break analysis.
func (l Layout) calculate(sh *shaper, seg *segmenter.Segmenter, fonts []*Font, s *Section) []SectionGlyph {
	var (
		runes     []rune
		runeText  []int
		runeBytes []int
	)
	for i := range s.Text {
		for b, r := range s.Text[i].Text {
			runes = append(runes, r)
			runeText = append(runeText, i)
			runeBytes = append(runeBytes, b)
		}
	}
	if len(runes) == 0 {
		return nil
	}

	maxWidth, _ := s.bounds()
	var (
		lines []line
		cur   line
		x     float32
	)
	finish := func() {
		lines = append(lines, cur)
		cur = line{}
		x = 0
	}

	for _, bs := range l.LineBreaker.segments(seg, runes) {
		pieces := l.shapeSegment(sh, fonts, s, runes[bs.start:bs.end], runeText[bs.start:bs.end], runeBytes[bs.start:bs.end])

		var width, trailing float32
		for i := range pieces {
			p := &pieces[i]
			width += p.word.advance * p.stretch
			if i == len(pieces)-1 {
				trailing = p.word.trailing * p.stretch
			}
		}

		if cur.started && x > 0 && x+width-trailing > maxWidth {
			if l.SingleLine {
				break
			}
			finish()
		}

		for i := range pieces {
			p := &pieces[i]
			cur.addMetrics(p.metrics)
			for _, g := range p.word.glyphs {
				cur.glyphs = append(cur.glyphs, SectionGlyph{
					TextIndex: p.textIndex,
					ByteIndex: p.byteIndex[g.cluster],
					FontID:    p.fontID,
					Glyph:     g.id,
					Position:  Point{X: x + g.x*p.stretch, Y: g.y},
					Scale:     p.scale,
					Advance:   g.advance * p.stretch,
				})
			}
			x += p.word.advance * p.stretch
		}
		if len(pieces) > 0 {
			cur.width = x - trailing
		}

		if bs.mandatory {
			if l.SingleLine {
				break
			}
			finish()
		}
	}
	if cur.started {
		lines = append(lines, cur)
	}

	return l.position(lines, s)
}

// shapeSegment shapes an unbreakable segment, split at Text boundaries.
// Hard line break characters are dropped but still contribute metrics.
func (l Layout) shapeSegment(sh *shaper, fonts []*Font, s *Section, runes []rune, textIdx, byteIdx []int) []piece {
	var out []piece
	for start := 0; start < len(runes); {
		end := start + 1
		for end < len(runes) && textIdx[end] == textIdx[start] {
			end++
		}
		t := &s.Text[textIdx[start]]
		visible := end
		for visible > start && isLineBreak(runes[visible-1]) {
			visible--
		}

		if int(t.FontID) >= 0 && int(t.FontID) < len(fonts) && t.Scale.X > 0 && t.Scale.Y > 0 {
			f := fonts[t.FontID]
			p := piece{
				textIndex: textIdx[start],
				fontID:    t.FontID,
				scale:     t.Scale,
				metrics:   f.Metrics(t.Scale),
				byteIndex: byteIdx[start:visible],
				stretch:   t.Scale.X / t.Scale.Y,
			}
			if visible > start {
				p.word = sh.shape(f, f.ppem(t.Scale), runes[start:visible])
			} else {
				p.word = &shapedWord{}
			}
			out = append(out, p)
		}
		start = end
	}
	return out
}

// position applies line heights and alignment.
func (l Layout) position(lines []line, s *Section) []SectionGlyph {
	var total float32
	for i := range lines {
		total += lines[i].height()
	}

	sx, sy := s.ScreenPosition[0], s.ScreenPosition[1]
	y := sy
	switch l.VAlign {
	case AlignMiddle:
		y = sy - total/2
	case AlignBottom:
		y = sy - total
	}

	var out []SectionGlyph
	for i := range lines {
		ln := &lines[i]
		x := sx
		switch l.HAlign {
		case AlignCenter:
			x = sx - ln.width/2
		case AlignRight:
			x = sx - ln.width
		}
		baseline := y + ln.ascent
		for _, g := range ln.glyphs {
			g.Position = Point{X: x + g.Position.X, Y: baseline + g.Position.Y}
			out = append(out, g)
		}
		y += ln.height()
	}
	return out
}
