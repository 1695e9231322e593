package cache

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/text"
)

// DefaultMaxIdlePasses is used when Config.MaxIdlePasses is zero.
const DefaultMaxIdlePasses = 8

// Config controls retention.
type Config struct {
	Enabled       bool
	MaxIdlePasses int
}

// Intrinsic holds the inline-axis min-content and max-content contributions
// of a box's border box.
type Intrinsic struct {
	Min float32 `json:"min"`
	Max float32 `json:"max"`
}

// IntrinsicKey identifies an intrinsic size measurement.
type IntrinsicKey struct {
	Fingerprint uint64           `json:"fingerprint"`
	WritingMode geom.WritingMode `json:"writing_mode"`
}

// SubtreeKey identifies a laid-out formatting context root together with
// the containing-block parameters it was laid out under.
type SubtreeKey struct {
	Fingerprint   uint64           `json:"fingerprint"`
	Available     float32          `json:"available"`
	BlockSize     float32          `json:"block_size"`
	DefiniteBlock bool             `json:"definite_block"`
	WritingMode   geom.WritingMode `json:"writing_mode"`
	Viewport      geom.Size        `json:"viewport"`
}

// Counters are hit and miss tallies for one kind of entry.
type Counters struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Evicted uint64 `json:"evicted"`
	Entries int    `json:"entries"`
}

// Stats reports cache effectiveness for the most recent pass.
type Stats struct {
	Pass      uint64   `json:"pass"`
	Intrinsic Counters `json:"intrinsic"`
	Runs      Counters `json:"shaped_runs"`
	Breaks    Counters `json:"line_breaks"`
	Subtrees  Counters `json:"subtrees"`
}

// LayoutCache memoizes the pure and containing-block dependent results of
// layout across passes. It is owned by one engine and is not safe for
// concurrent use.
type LayoutCache struct {
	cfg    Config
	logger *zap.Logger
	pass   uint64

	intrinsic *store[IntrinsicKey, Intrinsic]
	runs      *store[text.RunKey, *text.ShapedRun]
	breaks    *store[text.BreakKey, []int]
	subtrees  *store[SubtreeKey, any]
}

// New returns an empty cache. A nil logger is replaced by zap.NewNop.
func New(cfg Config, logger *zap.Logger) *LayoutCache {
	if cfg.MaxIdlePasses <= 0 {
		cfg.MaxIdlePasses = DefaultMaxIdlePasses
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayoutCache{
		cfg:       cfg,
		logger:    logger.Named("cache"),
		intrinsic: newStore[IntrinsicKey, Intrinsic](),
		runs:      newStore[text.RunKey, *text.ShapedRun](),
		breaks:    newStore[text.BreakKey, []int](),
		subtrees:  newStore[SubtreeKey, any](),
	}
}

// Enabled reports whether lookups can hit.
func (c *LayoutCache) Enabled() bool { return c != nil && c.cfg.Enabled }

// BeginPass starts a new layout pass and resets per-pass counters.
func (c *LayoutCache) BeginPass() uint64 {
	c.pass++
	c.intrinsic.resetCounters()
	c.runs.resetCounters()
	c.breaks.resetCounters()
	c.subtrees.resetCounters()
	return c.pass
}

// EndPass sweeps entries that have not been used for MaxIdlePasses passes
// and returns the counters of the finished pass.
func (c *LayoutCache) EndPass() Stats {
	idle := uint64(c.cfg.MaxIdlePasses)
	c.intrinsic.sweep(c.pass, idle)
	c.runs.sweep(c.pass, idle)
	c.breaks.sweep(c.pass, idle)
	c.subtrees.sweep(c.pass, idle)
	st := c.Stats()
	if ce := c.logger.Check(zap.DebugLevel, "Layout cache pass finished."); ce != nil {
		ce.Write(
			zap.Uint64("pass", st.Pass),
			zap.Uint64("run_hits", st.Runs.Hits),
			zap.Uint64("run_misses", st.Runs.Misses),
			zap.Uint64("subtree_hits", st.Subtrees.Hits),
			zap.Uint64("evicted", st.Runs.Evicted+st.Intrinsic.Evicted+st.Breaks.Evicted+st.Subtrees.Evicted),
		)
	}
	return st
}

// Stats returns the counters of the current or last pass.
func (c *LayoutCache) Stats() Stats {
	return Stats{
		Pass:      c.pass,
		Intrinsic: c.intrinsic.counters(),
		Runs:      c.runs.counters(),
		Breaks:    c.breaks.counters(),
		Subtrees:  c.subtrees.counters(),
	}
}

// Clear drops every entry.
func (c *LayoutCache) Clear() {
	c.intrinsic.clear()
	c.runs.clear()
	c.breaks.clear()
	c.subtrees.clear()
}

// Intrinsic looks up a memoized intrinsic size.
func (c *LayoutCache) Intrinsic(key IntrinsicKey) (Intrinsic, bool) {
	if !c.Enabled() {
		return Intrinsic{}, false
	}
	return c.intrinsic.get(key, c.pass)
}

// StoreIntrinsic memoizes an intrinsic size.
func (c *LayoutCache) StoreIntrinsic(key IntrinsicKey, v Intrinsic) {
	if c.Enabled() {
		c.intrinsic.put(key, v, c.pass)
	}
}

// ShapedRun implements text.ShapeCache.
func (c *LayoutCache) ShapedRun(key text.RunKey) (*text.ShapedRun, bool) {
	if !c.Enabled() {
		return nil, false
	}
	return c.runs.get(key, c.pass)
}

// StoreShapedRun implements text.ShapeCache.
func (c *LayoutCache) StoreShapedRun(key text.RunKey, run *text.ShapedRun) {
	if c.Enabled() {
		c.runs.put(key, run, c.pass)
	}
}

// LineBreaks implements text.BreakCache.
func (c *LayoutCache) LineBreaks(key text.BreakKey) ([]int, bool) {
	if !c.Enabled() {
		return nil, false
	}
	return c.breaks.get(key, c.pass)
}

// StoreLineBreaks implements text.BreakCache. The slice is copied.
func (c *LayoutCache) StoreLineBreaks(key text.BreakKey, breaks []int) {
	if c.Enabled() {
		c.breaks.put(key, append([]int(nil), breaks...), c.pass)
	}
}

// Subtree returns a positioned subtree stored by the engine. The payload
// type belongs to the caller.
func (c *LayoutCache) Subtree(key SubtreeKey) (any, bool) {
	if !c.Enabled() {
		return nil, false
	}
	return c.subtrees.get(key, c.pass)
}

// StoreSubtree records a positioned subtree.
func (c *LayoutCache) StoreSubtree(key SubtreeKey, v any) {
	if c.Enabled() {
		c.subtrees.put(key, v, c.pass)
	}
}

var (
	_ text.ShapeCache = (*LayoutCache)(nil)
	_ text.BreakCache = (*LayoutCache)(nil)
)
