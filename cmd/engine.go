package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trellis/api/schemas"
	"github.com/xkilldash9x/trellis/internal/cascade"
	"github.com/xkilldash9x/trellis/internal/config"
	"github.com/xkilldash9x/trellis/internal/fonts"
	"github.com/xkilldash9x/trellis/internal/host"
	"github.com/xkilldash9x/trellis/internal/images"
	"github.com/xkilldash9x/trellis/internal/layout"
	"github.com/xkilldash9x/trellis/internal/layout/cache"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/text"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// session bundles everything one document needs to be laid out.
type session struct {
	cfg      *config.Config
	doc      *cascade.Document
	engine   *layout.Engine
	images   *images.FileProvider
	viewport layout.Viewport
	logger   *zap.Logger
	snapshot string
}

// newFontProvider picks the fixed-pitch provider or the OpenType one with
// any fonts found in the configured directory.
func newFontProvider(cfg config.EngineConfig, logger *zap.Logger) (text.FontProvider, error) {
	if cfg.FixedPitchFonts {
		return fonts.NewFixed(0.5, 0.25), nil
	}
	ot, err := fonts.NewOpenType()
	if err != nil {
		return nil, err
	}
	if cfg.FontDir != "" {
		dir, err := homedir.Expand(cfg.FontDir)
		if err != nil {
			return nil, fmt.Errorf("error expanding font directory %q: %w", cfg.FontDir, err)
		}
		n, err := ot.RegisterDir(dir)
		if err != nil {
			// Partial loads are usable; the rest of the directory still counts.
			logger.Warn("Some fonts could not be loaded.", zap.String("dir", dir), zap.Error(err))
		}
		logger.Debug("Registered fonts.", zap.String("dir", dir), zap.Int("count", n))
	}
	return ot, nil
}

// engineOptions maps configuration onto layout options.
func engineOptions(cfg *config.Config) layout.Options {
	brk := text.DefaultBreakParams()
	brk.Tolerance = cfg.Engine().BreakTolerance
	return layout.Options{
		Cache: cache.Config{
			Enabled:       cfg.Cache().Enabled,
			MaxIdlePasses: cfg.Cache().MaxIdlePasses,
		},
		DebugAssertions: cfg.Engine().DebugAssertions,
		Break:           brk,
		HyphenPenalty:   float32(cfg.Engine().HyphenPenalty),
	}
}

// configViewport is the viewport from configuration and flags.
func configViewport(cfg *config.Config) layout.Viewport {
	vc := cfg.Viewport()
	return host.ViewportFrom(schemas.Viewport{
		Width:      float32(vc.Width),
		Height:     float32(vc.Height),
		Scale:      float32(vc.Scale),
		Paged:      vc.Paged,
		PageHeight: float32(vc.PageHeight),
	})
}

// openSession loads path as HTML, or as a JSON document when it ends in
// .json, and prepares an engine for it. A viewport carried by a JSON
// document wins over configuration.
func openSession(cfg *config.Config, path string, logger *zap.Logger) (*session, error) {
	s := &session{cfg: cfg, images: images.NewFileProvider(logger), logger: logger, viewport: configViewport(cfg)}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	opts := cascade.Options{
		Viewport:         s.viewport.Size,
		DefaultFontSize:  float32(cfg.Engine().DefaultFontSize),
		LineHeightFactor: float32(cfg.Engine().LineHeightFactor),
		BaseDir:          filepath.Dir(path),
		Images:           s.images,
		Logger:           logger,
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var in schemas.Document
		if err := json.NewDecoder(f).Decode(&in); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if in.Viewport != nil {
			s.viewport = host.ViewportFrom(*in.Viewport)
			opts.Viewport = s.viewport.Size
		}
		s.doc, err = cascade.FromSchema(in, opts)
	} else {
		s.doc, err = cascade.ParseHTML(f, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to style %s: %w", path, err)
	}
	for _, skipped := range s.doc.Skipped {
		logger.Debug("Skipped CSS.", zap.String("document", path), zap.Error(skipped))
	}
	if s.viewport.Size.W <= 0 || s.viewport.Size.H <= 0 {
		return nil, fmt.Errorf("viewport %vx%v is not positive", s.viewport.Size.W, s.viewport.Size.H)
	}

	fp, err := newFontProvider(cfg.Engine(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fonts: %w", err)
	}
	s.engine = layout.NewEngine(fp, s.images, engineOptions(cfg), logger)

	if p := cfg.Cache().SnapshotPath; p != "" && cfg.Cache().Enabled {
		s.snapshot, err = homedir.Expand(p)
		if err != nil {
			return nil, fmt.Errorf("error expanding snapshot path %q: %w", p, err)
		}
		if err := s.engine.Cache().LoadFile(s.snapshot); err != nil {
			// A bad snapshot only costs warm-up time.
			logger.Warn("Ignoring cache snapshot.", zap.String("path", s.snapshot), zap.Error(err))
		}
	}
	return s, nil
}

// layout runs one pass and logs its diagnostics summary.
func (s *session) layout() *layout.Result {
	res := s.engine.Layout(s.doc.Tree, s.viewport)
	if len(res.Messages) > 0 {
		s.logger.Info("Layout produced diagnostics.", zap.String("pass_id", res.PassID), zap.Int("messages", len(res.Messages)))
	}
	return res
}

// close persists the cache snapshot when one is configured.
func (s *session) close() {
	if s.snapshot == "" {
		return
	}
	if err := s.engine.Cache().SaveFile(s.snapshot); err != nil {
		s.logger.Warn("Failed to save cache snapshot.", zap.String("path", s.snapshot), zap.Error(err))
	}
}

// pageSize is the size of one page, or of the document when not paged.
func pageSize(res *layout.Result, vp layout.Viewport) geom.Size {
	if vp.Paged && len(res.Pages) > 0 {
		r := res.Pages[0].Rect
		return geom.Size{W: r.W, H: r.H}
	}
	return res.DocumentSize
}
