package layout

import (
	"hash"
	"hash/fnv"
)

// Option configures a Brush during creation.
type Option func(*brushOptions)

type brushOptions struct {
	cacheWidth, cacheHeight int
	hasher                  func() hash.Hash64
	scaleTolerance          float32
	positionTolerance       float32
	shapeCacheSize          int
}

func defaultOptions() brushOptions {
	return brushOptions{
		cacheWidth:        256,
		cacheHeight:       256,
		hasher:            fnv.New64a,
		scaleTolerance:    DefaultScaleTolerance,
		positionTolerance: DefaultPositionTolerance,
		shapeCacheSize:    DefaultShapeCacheSize,
	}
}

// WithCacheSize sets the initial glyph cache texture size. The default is
// 256x256.
func WithCacheSize(width, height int) Option {
	return func(o *brushOptions) {
		if width > 0 && height > 0 {
			o.cacheWidth, o.cacheHeight = width, height
		}
	}
}

// WithSectionHasher sets the hash used to detect unchanged sections between
// frames. The default is FNV-1a.
func WithSectionHasher(newHash func() hash.Hash64) Option {
	return func(o *brushOptions) {
		if newHash != nil {
			o.hasher = newHash
		}
	}
}

// WithTolerance sets how far the scale and subpixel position of a glyph may
// differ from a cached one before it is rasterized again.
func WithTolerance(scale, position float32) Option {
	return func(o *brushOptions) {
		if scale > 0 {
			o.scaleTolerance = scale
		}
		if position > 0 {
			o.positionTolerance = position
		}
	}
}

// WithShapeCacheSize sets how many shaped words are kept between frames.
// Zero disables the cache.
func WithShapeCacheSize(n int) Option {
	return func(o *brushOptions) {
		if n >= 0 {
			o.shapeCacheSize = n
		}
	}
}
