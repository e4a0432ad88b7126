package layout

import (
	"errors"
	"fmt"
)

// ErrUnknownFont is returned when a section refers to a FontID the Brush
// does not have.
var ErrUnknownFont = errors.New("layout: unknown font id")

// TextureTooSmallError is returned by ProcessQueued when the glyphs of a
// frame do not fit the cache texture even after repacking. Width and Height
// are the suggested new dimensions.
type TextureTooSmallError struct {
	Width, Height int
}

func (e *TextureTooSmallError) Error() string {
	return fmt.Sprintf("layout: glyph cache texture too small, suggested %dx%d", e.Width, e.Height)
}
