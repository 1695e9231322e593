// File: internal/host/host.go
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/trellis/internal/cascade"
	"github.com/xkilldash9x/trellis/internal/layout"
)

var (
	// ErrInboxFull is returned by Submit when the inbox has no room left.
	ErrInboxFull = errors.New("mutation inbox is full")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("host is closed")
)

// Mutation edits the document or the viewport between passes. It runs on
// the frame loop goroutine, never concurrently with a pass.
type Mutation func(doc *cascade.Document, vp *layout.Viewport) error

// Config tunes the frame loop.
type Config struct {
	// FramesPerSecond caps how often passes run. Zero or less disables the cap.
	FramesPerSecond float64
	// PassBudget is the wall-clock time a pass is expected to fit in.
	// Overruns are logged; the pass is never interrupted.
	PassBudget time.Duration
	InboxSize  int
}

// Frame is what one iteration of the loop produced.
type Frame struct {
	ID      string
	Seq     uint64
	Result  *layout.Result
	Applied int
	Failed  []error
	Elapsed time.Duration
}

// Host drives an engine over a live document. Mutations may be submitted
// from any goroutine; passes run only inside Run.
type Host struct {
	engine   *layout.Engine
	doc      *cascade.Document
	viewport layout.Viewport
	cfg      Config
	limiter  *rate.Limiter
	inbox    chan Mutation
	logger   *zap.Logger

	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	latest *layout.Result
	seq    uint64
}

// New builds a host. The engine and document belong to the host from now
// on and must not be used elsewhere while Run is active.
func New(engine *layout.Engine, doc *cascade.Document, vp layout.Viewport, cfg Config, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 1
	}
	limit := rate.Inf
	if cfg.FramesPerSecond > 0 {
		limit = rate.Limit(cfg.FramesPerSecond)
	}
	return &Host{
		engine:   engine,
		doc:      doc,
		viewport: vp,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		inbox:    make(chan Mutation, cfg.InboxSize),
		logger:   logger.Named("host"),
		done:     make(chan struct{}),
	}
}

// Submit queues m for the next frame without blocking.
func (h *Host) Submit(m Mutation) error {
	select {
	case <-h.done:
		return ErrClosed
	default:
	}
	select {
	case h.inbox <- m:
		return nil
	default:
		return ErrInboxFull
	}
}

// Close stops Run after its current frame. Pending mutations are dropped.
func (h *Host) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Latest returns the result of the most recent pass, or nil before the first.
func (h *Host) Latest() *layout.Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Run lays out the document once, then again each time mutations arrive,
// no faster than the configured frame rate. Every frame is handed to
// onFrame. Run returns nil after Close and the context error on
// cancellation.
func (h *Host) Run(ctx context.Context, onFrame func(Frame)) error {
	h.logger.Info("Starting frame loop.",
		zap.Float64("fps", h.cfg.FramesPerSecond),
		zap.Duration("pass_budget", h.cfg.PassBudget))
	h.emit(h.frame(nil), onFrame)

	for {
		var pending []Mutation
		select {
		case <-ctx.Done():
			h.logger.Info("Frame loop cancelled.")
			return ctx.Err()
		case <-h.done:
			h.logger.Info("Frame loop closed.")
			return nil
		case m := <-h.inbox:
			pending = append(pending, m)
		}

		if err := h.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("frame limiter failed: %w", err)
		}
		// Everything that arrived while waiting goes into the same frame.
	drain:
		for {
			select {
			case m := <-h.inbox:
				pending = append(pending, m)
			default:
				break drain
			}
		}
		h.emit(h.frame(pending), onFrame)
	}
}

func (h *Host) emit(f Frame, onFrame func(Frame)) {
	if onFrame != nil {
		onFrame(f)
	}
}

// frame applies pending in order and runs one pass. A failing mutation is
// reported in the frame and does not stop the others.
func (h *Host) frame(pending []Mutation) Frame {
	f := Frame{ID: uuid.NewString()}
	for _, m := range pending {
		if err := m(h.doc, &h.viewport); err != nil {
			f.Failed = append(f.Failed, err)
			h.logger.Warn("Mutation rejected.", zap.String("frame_id", f.ID), zap.Error(err))
			continue
		}
		f.Applied++
	}

	start := time.Now()
	res := h.engine.Layout(h.doc.Tree, h.viewport)
	f.Elapsed = time.Since(start)
	f.Result = res

	h.mu.Lock()
	h.seq++
	f.Seq = h.seq
	h.latest = res
	h.mu.Unlock()

	fields := []zap.Field{
		zap.String("frame_id", f.ID),
		zap.String("pass_id", res.PassID),
		zap.Uint64("seq", f.Seq),
		zap.Int("applied", f.Applied),
		zap.Duration("elapsed", f.Elapsed),
	}
	if h.cfg.PassBudget > 0 && f.Elapsed > h.cfg.PassBudget {
		h.logger.Warn("Layout pass exceeded its budget.", append(fields, zap.Duration("budget", h.cfg.PassBudget))...)
	} else {
		h.logger.Debug("Frame complete.", fields...)
	}
	return f
}
