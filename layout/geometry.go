package layout

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Point is a position in pixels. Y grows downwards.
type Point struct {
	X, Y float32
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Rect is an axis-aligned rectangle. Min is inclusive, Max exclusive.
type Rect struct {
	Min, Max Point
}

// R is shorthand for Rect{Point{x0, y0}, Point{x1, y1}}.
func R(x0, y0, x1, y1 float32) Rect {
	return Rect{Min: Point{x0, y0}, Max: Point{x1, y1}}
}

// Width returns Max.X - Min.X.
func (r Rect) Width() float32 { return r.Max.X - r.Min.X }

// Height returns Max.Y - Min.Y.
func (r Rect) Height() float32 { return r.Max.Y - r.Min.Y }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y }

// Intersects reports whether r and s share any area.
func (r Rect) Intersects(s Rect) bool {
	return r.Min.X < s.Max.X && s.Min.X < r.Max.X &&
		r.Min.Y < s.Max.Y && s.Min.Y < r.Max.Y
}

// Union returns the smallest rectangle containing r and s.
func (r Rect) Union(s Rect) Rect {
	return Rect{
		Min: Point{math32.Min(r.Min.X, s.Min.X), math32.Min(r.Min.Y, s.Min.Y)},
		Max: Point{math32.Max(r.Max.X, s.Max.X), math32.Max(r.Max.Y, s.Max.Y)},
	}
}

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g)-(%g,%g)", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}

// infinity is used for unbounded section bounds.
var infinity = math32.Inf(1)

// intersect returns the largest rectangle inside both r and s. The result
// may be empty.
func (r Rect) intersect(s Rect) Rect {
	return Rect{
		Min: Point{math32.Max(r.Min.X, s.Min.X), math32.Max(r.Min.Y, s.Min.Y)},
		Max: Point{math32.Min(r.Max.X, s.Max.X), math32.Min(r.Max.Y, s.Max.Y)},
	}
}
