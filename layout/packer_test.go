package layout

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShelfPacker(t *testing.T) {
	p := newShelfPacker(10, 10)

	x, y, ok := p.pack(4, 3)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 0}, [2]int{x, y})

	x, y, ok = p.pack(4, 5)
	require.True(t, ok, "last shelf grows to fit a taller item")
	assert.Equal(t, [2]int{4, 0}, [2]int{x, y})

	x, y, ok = p.pack(4, 2)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 5}, [2]int{x, y}, "new shelf below the grown one")

	_, _, ok = p.pack(11, 1)
	assert.False(t, ok)
	_, _, ok = p.pack(8, 6)
	assert.False(t, ok)

	assert.InDelta(t, float64(12+20+8)/100, p.utilization(), 1e-9)

	p.reset()
	assert.Zero(t, p.utilization())
	x, y, ok = p.pack(10, 10)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 0}, [2]int{x, y})
}

func TestShelfPackerNoOverlap(t *testing.T) {
	p := newShelfPacker(64, 64)
	var placed []image.Rectangle
	for i := 0; ; i++ {
		w, h := 3+i%7, 2+i%5
		x, y, ok := p.pack(w, h)
		if !ok {
			break
		}
		r := image.Rect(x, y, x+w, y+h)
		require.True(t, r.In(image.Rect(0, 0, 64, 64)), "rect %v out of bounds", r)
		for _, o := range placed {
			require.False(t, r.Overlaps(o), "%v overlaps %v", r, o)
		}
		placed = append(placed, r)
	}
	assert.Greater(t, len(placed), 50)
}
