// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glyphbrush

// OrthographicProjection returns a column-major matrix mapping pixel
// coordinates, origin top left and y down, to clip space.
func OrthographicProjection(width, height float32) [16]float32 {
	return [16]float32{
		2 / width, 0, 0, 0,
		0, -2 / height, 0, 0,
		0, 0, 1, 0,
		-1, 1, 0, 1,
	}
}
