// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glyphbrush

import (
	"errors"

	"github.com/gogpu/glyphbrush/internal/gpu"
)

var (
	// ErrNilDevice is returned by Build when the device or queue is nil.
	ErrNilDevice = errors.New("glyphbrush: nil device or queue")

	// ErrCacheTooLarge is returned when the glyph cache texture would exceed
	// the maximum texture dimension.
	ErrCacheTooLarge = gpu.ErrCacheTooLarge

	// ErrCacheResizeLimit is returned when a frame still does not fit the
	// glyph cache after the configured number of resizes.
	ErrCacheResizeLimit = errors.New("glyphbrush: glyph cache resize limit reached")

	// ErrProviderNotHAL is returned by BuildFromProvider when the provider
	// does not expose hal device and queue objects.
	ErrProviderNotHAL = errors.New("glyphbrush: device provider does not expose hal objects")

	// ErrClosed is returned when using a closed Brush.
	ErrClosed = errors.New("glyphbrush: brush is closed")
)
