// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded glyph shader source. Entry points: vs_main, fs_main.
//
//go:embed shaders/glyph.wgsl
var glyphShaderSource string

// glyphShaderSPIRV compiles the glyph shader once per process.
var glyphShaderSPIRV = sync.OnceValues(func() ([]uint32, error) {
	return compileSPIRV(glyphShaderSource)
})

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile glyph shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile glyph shader: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// shaderSource returns the shader module source, either the embedded
// WGSL or its SPIR-V translation.
func shaderSource(spirv bool) (hal.ShaderSource, error) {
	if !spirv {
		return hal.ShaderSource{WGSL: glyphShaderSource}, nil
	}
	words, err := glyphShaderSPIRV()
	if err != nil {
		return hal.ShaderSource{}, err
	}
	return hal.ShaderSource{SPIRV: words}, nil
}
