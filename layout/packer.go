package layout

// shelfPacker places rectangles in horizontal shelves. Each shelf is as tall
// as the tallest rectangle placed on it; rectangles go left to right until
// the shelf is full, then a new shelf starts below.
type shelfPacker struct {
	width, height int
	shelves       []shelf
	usedArea      int
}

type shelf struct {
	y      int // top of the shelf
	height int // tallest rectangle so far
	x      int // next free column
}

func newShelfPacker(width, height int) *shelfPacker {
	return &shelfPacker{width: width, height: height, shelves: make([]shelf, 0, 16)}
}

// pack finds space for a w x h rectangle.
func (p *shelfPacker) pack(w, h int) (x, y int, ok bool) {
	if w > p.width || h > p.height {
		return -1, -1, false
	}

	for i := range p.shelves {
		s := &p.shelves[i]
		if s.x+w > p.width {
			continue
		}
		if h > s.height {
			// Only the last shelf can grow downwards.
			if i != len(p.shelves)-1 || s.y+h > p.height {
				continue
			}
			s.height = h
		}
		x, y = s.x, s.y
		s.x += w
		p.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if n := len(p.shelves); n > 0 {
		newY = p.shelves[n-1].y + p.shelves[n-1].height
	}
	if newY+h > p.height {
		return -1, -1, false
	}
	p.shelves = append(p.shelves, shelf{y: newY, height: h, x: w})
	p.usedArea += w * h
	return 0, newY, true
}

func (p *shelfPacker) reset() {
	p.shelves = p.shelves[:0]
	p.usedArea = 0
}

// utilization returns the packed fraction of the area.
func (p *shelfPacker) utilization() float64 {
	if p.width <= 0 || p.height <= 0 {
		return 0
	}
	return float64(p.usedArea) / float64(p.width*p.height)
}
