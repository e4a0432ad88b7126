// Command glyphdemo draws a few lines of text into an offscreen target
// with glyphbrush and reports the glyph cache state.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/allbackends"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/glyphbrush"
	"github.com/gogpu/glyphbrush/layout"
)

func main() {
	var (
		configPath = flag.String("config", "glyphdemo.toml", "TOML config file")
		width      = flag.Int("width", 0, "target width (overrides config)")
		height     = flag.Int("height", 0, "target height (overrides config)")
		backend    = flag.String("backend", "", "auto, vulkan, metal, dx12, gl or noop (overrides config)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	glyphbrush.SetLogger(logger)

	explicit := false
	flag.Visit(func(f *flag.Flag) { explicit = explicit || f.Name == "config" })
	cfg, err := loadConfig(*configPath, explicit)
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if *width > 0 {
		cfg.Width = *width
	}
	if *height > 0 {
		cfg.Height = *height
	}
	if *backend != "" {
		cfg.Backend = *backend
	}

	if err := run(logger, cfg); err != nil {
		logger.Error("glyphdemo failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, cfg demoConfig) error {
	fontData := goregular.TTF
	if cfg.Font != "" {
		data, err := os.ReadFile(cfg.Font)
		if err != nil {
			return fmt.Errorf("read font: %w", err)
		}
		fontData = data
	}
	font, err := layout.ParseFont(fontData)
	if err != nil {
		return err
	}

	dev, limits, cleanup, err := openDevice(logger, cfg.Backend)
	if err != nil {
		return err
	}
	defer cleanup()

	brush, err := glyphbrush.NewBuilder([]*layout.Font{font},
		glyphbrush.WithInitialCacheSize(cfg.CacheWidth, cfg.CacheHeight),
		glyphbrush.WithTargetFormat(gputypes.TextureFormatBGRA8Unorm),
		glyphbrush.WithDeviceLimits(limits),
	).Build(dev.Device, dev.Queue)
	if err != nil {
		return err
	}
	defer brush.Close()

	target, err := newTarget(dev.Device, uint32(cfg.Width), uint32(cfg.Height)) //nolint:gosec // validated positive
	if err != nil {
		return err
	}
	defer target.destroy()

	glyphs := 0
	for _, l := range cfg.Lines {
		s := layout.Section{
			ScreenPosition: [2]float32{l.X, l.Y},
			Bounds:         [2]float32{l.Wrap, 0},
			Text:           []layout.Text{layout.NewText(l.Text).WithScale(l.Scale).WithColor(layout.Color(l.Color))},
		}
		glyphs += len(brush.Glyphs(s))
		brush.Queue(s)
	}

	if err := drawFrame(dev, target, brush, float32(cfg.Width), float32(cfg.Height)); err != nil {
		return err
	}

	w, h := brush.TextureDimensions()
	logger.Info("frame drawn",
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"glyphs", glyphs,
		"cache", fmt.Sprintf("%dx%d", w, h))
	return nil
}

// openDevice opens the first adapter of the named backend with the limits
// the adapter supports.
func openDevice(logger *slog.Logger, name string) (hal.OpenDevice, gputypes.Limits, func(), error) {
	var (
		backend hal.Backend
		err     error
	)
	switch strings.ToLower(name) {
	case "noop":
		backend = noop.API{}
	case "", "auto":
		backend, err = hal.SelectBestBackend()
		if err != nil {
			logger.Warn("no GPU backend available, using noop", "error", err)
			backend = noop.API{}
		}
	default:
		variant, ok := backendVariants[strings.ToLower(name)]
		if !ok {
			return hal.OpenDevice{}, gputypes.Limits{}, nil, fmt.Errorf("unknown backend %q", name)
		}
		var found bool
		if backend, found = hal.GetBackend(variant); !found {
			return hal.OpenDevice{}, gputypes.Limits{}, nil, fmt.Errorf("backend %s not available", variant)
		}
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return hal.OpenDevice{}, gputypes.Limits{}, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return hal.OpenDevice{}, gputypes.Limits{}, nil, errors.New("no GPU adapters found")
	}
	selected := &adapters[0]
	limits := selected.Capabilities.Limits
	if limits.MaxTextureDimension2D == 0 {
		limits = gputypes.DefaultLimits()
	}
	openDev, err := selected.Adapter.Open(0, limits)
	if err != nil {
		instance.Destroy()
		return hal.OpenDevice{}, gputypes.Limits{}, nil, fmt.Errorf("open device: %w", err)
	}
	logger.Info("device opened",
		"backend", backend.Variant().String(),
		"adapter", selected.Info.Name,
		"max_texture_2d", limits.MaxTextureDimension2D)

	return openDev, limits, func() {
		_ = openDev.Device.WaitIdle()
		openDev.Device.Destroy()
		instance.Destroy()
	}, nil
}

var backendVariants = map[string]gputypes.Backend{
	"vulkan": gputypes.BackendVulkan,
	"metal":  gputypes.BackendMetal,
	"dx12":   gputypes.BackendDX12,
	"gl":     gputypes.BackendGL,
}

type target struct {
	device  hal.Device
	texture hal.Texture
	view    hal.TextureView
}

func newTarget(device hal.Device, width, height uint32) (*target, error) {
	texture, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glyphdemo_target",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	view, err := device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label:         "glyphdemo_target_view",
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(texture)
		return nil, fmt.Errorf("create target view: %w", err)
	}
	return &target{device: device, texture: texture, view: view}, nil
}

func (t *target) destroy() {
	t.device.DestroyTextureView(t.view)
	t.device.DestroyTexture(t.texture)
}

// drawFrame records one render pass that clears the target and draws the
// queued text, then waits for the GPU.
func drawFrame(dev hal.OpenDevice, t *target, brush *glyphbrush.Brush, width, height float32) error {
	encoder, err := dev.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "glyphdemo_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("glyphdemo_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "glyphdemo_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0.1, G: 0.1, B: 0.15, A: 1},
		}},
	})
	drawErr := brush.DrawQueued(rp, width, height)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer dev.Device.FreeCommandBuffer(cmdBuf)
	if drawErr != nil {
		return drawErr
	}

	if _, err := dev.Queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return dev.Device.WaitIdle()
}
