package layout

import (
	"github.com/go-text/typesetting/segmenter"
)

// LineBreaker selects where lines may be broken when wrapping.
type LineBreaker uint8

const (
	// WordBreaker breaks at Unicode line break opportunities (UAX #14),
	// which for most scripts means between words.
	WordBreaker LineBreaker = iota

	// AnyCharBreaker breaks between any two grapheme clusters. Mandatory
	// breaks still follow UAX #14.
	AnyCharBreaker
)

// String returns the string representation of the line breaker.
func (b LineBreaker) String() string {
	switch b {
	case WordBreaker:
		return "Word"
	case AnyCharBreaker:
		return "AnyChar"
	default:
		return "Unknown"
	}
}

// breakSegment is a rune range of the concatenated section text that must
// not be split across lines.
type breakSegment struct {
	start, end int
	// mandatory is set when a line must end after the segment.
	mandatory bool
}

// segments splits text into unbreakable pieces.
func (b LineBreaker) segments(seg *segmenter.Segmenter, text []rune) []breakSegment {
	if len(text) == 0 {
		return nil
	}
	seg.Init(text)

	var out []breakSegment
	lines := seg.LineIterator()
	for lines.Next() {
		l := lines.Line()
		out = append(out, breakSegment{
			start:     l.Offset,
			end:       l.Offset + len(l.Text),
			mandatory: l.IsMandatoryBreak && l.Offset+len(l.Text) < len(text),
		})
	}
	if b != AnyCharBreaker {
		return out
	}

	// Split every line segment further at grapheme boundaries. Only the
	// last grapheme keeps the mandatory flag.
	mandatoryAt := make(map[int]bool, len(out))
	for _, s := range out {
		if s.mandatory {
			mandatoryAt[s.end] = true
		}
	}
	out = out[:0]
	graphemes := seg.GraphemeIterator()
	for graphemes.Next() {
		g := graphemes.Grapheme()
		end := g.Offset + len(g.Text)
		out = append(out, breakSegment{start: g.Offset, end: end, mandatory: mandatoryAt[end]})
	}
	return out
}

// isLineBreak reports whether r is a hard line break character. These are
// never drawn.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
