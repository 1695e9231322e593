package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// entry is a registered image. Pixels are decoded on first RGBA call; the
// size comes from the header alone.
type entry struct {
	source string
	data   []byte
	size   geom.Size
	format string
	rgba   *image.RGBA
}

// FileProvider serves images registered from files or bytes. It satisfies
// layout.ImageProvider and is safe for concurrent use.
type FileProvider struct {
	mu      sync.RWMutex
	entries map[style.ImageHandle]*entry
	bySrc   map[string]style.ImageHandle
	next    style.ImageHandle
	logger  *zap.Logger
}

// NewFileProvider returns an empty provider. Handle 0 is never issued.
func NewFileProvider(logger *zap.Logger) *FileProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileProvider{
		entries: make(map[style.ImageHandle]*entry),
		bySrc:   make(map[string]style.ImageHandle),
		next:    1,
		logger:  logger.Named("images"),
	}
}

// RegisterFile reads path and registers it under its path. Registering the
// same path twice returns the first handle.
func (p *FileProvider) RegisterFile(path string) (style.ImageHandle, error) {
	p.mu.RLock()
	h, ok := p.bySrc[path]
	p.mu.RUnlock()
	if ok {
		return h, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return p.Register(path, data)
}

// Register decodes the header of data and stores it under source.
func (p *FileProvider) Register(source string, data []byte) (style.ImageHandle, error) {
	if h, ok := p.Lookup(source); ok {
		return h, nil
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image header for %s: %w", source, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.bySrc[source]; ok {
		return h, nil
	}
	h := p.next
	p.next++
	p.entries[h] = &entry{
		source: source,
		data:   data,
		size:   geom.Size{W: float32(cfg.Width), H: float32(cfg.Height)},
		format: format,
	}
	p.bySrc[source] = h
	p.logger.Debug("Registered image.",
		zap.String("source", source),
		zap.String("format", format),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Uint64("handle", uint64(h)),
	)
	return h, nil
}

// Lookup returns the handle registered for source.
func (p *FileProvider) Lookup(source string) (style.ImageHandle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.bySrc[source]
	return h, ok
}

// IntrinsicSize implements layout.ImageProvider.
func (p *FileProvider) IntrinsicSize(h style.ImageHandle) (geom.Size, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[h]
	if !ok {
		return geom.Size{}, false
	}
	return e.size, true
}

// RGBA implements layout.ImageProvider. A body that fails to decode is
// reported as missing and logged once.
func (p *FileProvider) RGBA(h style.ImageHandle) (*image.RGBA, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[h]
	if !ok {
		return nil, false
	}
	if e.rgba != nil {
		return e.rgba, true
	}
	if e.data == nil {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(e.data))
	if err != nil {
		p.logger.Warn("Failed to decode image body.", zap.String("source", e.source), zap.Error(err))
		e.data = nil
		return nil, false
	}
	e.rgba = toRGBA(img)
	e.data = nil
	return e.rgba, true
}

// Len reports the number of registered images.
func (p *FileProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(out, image.Point{}, img, b, xdraw.Src, nil)
	return out
}

// Scaled returns src resampled to w by h with Catmull-Rom filtering.
func Scaled(src *image.RGBA, w, h int) *image.RGBA {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
