package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// demoConfig is the content of glyphdemo.toml.
type demoConfig struct {
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Backend string `toml:"backend"`
	Font    string `toml:"font"`

	CacheWidth  uint32 `toml:"cache_width"`
	CacheHeight uint32 `toml:"cache_height"`

	Lines []lineConfig `toml:"line"`
}

type lineConfig struct {
	Text  string     `toml:"text"`
	Scale float32    `toml:"scale"`
	Color [4]float32 `toml:"color"`
	X     float32    `toml:"x"`
	Y     float32    `toml:"y"`
	Wrap  float32    `toml:"wrap"`
}

func defaultConfig() demoConfig {
	return demoConfig{
		Width:       800,
		Height:      600,
		Backend:     "auto",
		CacheWidth:  256,
		CacheHeight: 256,
		Lines: []lineConfig{
			{Text: "Hello, glyphbrush!", Scale: 48, Color: [4]float32{1, 1, 1, 1}, X: 20, Y: 20},
			{
				Text:  "The quick brown fox jumps over the lazy dog. Every glyph is cached once and drawn as an instanced quad.",
				Scale: 24, Color: [4]float32{0.8, 0.9, 1, 1}, X: 20, Y: 100, Wrap: 500,
			},
		},
	}
}

// loadConfig reads path over the defaults. A missing file is not an error
// unless required is set.
func loadConfig(path string, required bool) (demoConfig, error) {
	cfg := defaultConfig()
	cfg.Lines = nil
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return defaultConfig(), nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("%s: unknown keys %v", path, undecoded)
	}
	if len(cfg.Lines) == 0 {
		cfg.Lines = defaultConfig().Lines
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, fmt.Errorf("%s: invalid size %dx%d", path, cfg.Width, cfg.Height)
	}
	return cfg, nil
}
