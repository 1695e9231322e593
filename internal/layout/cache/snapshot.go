package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/andybalholm/brotli"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trellis/internal/layout/text"
)

// SnapshotVersion is bumped whenever a key or value layout changes. Older
// snapshots are rejected as a whole.
const SnapshotVersion = 1

// ErrSnapshotVersion reports a snapshot written by an incompatible build.
var ErrSnapshotVersion = errors.New("cache snapshot version mismatch")

type intrinsicRecord struct {
	Key   IntrinsicKey `json:"key"`
	Value Intrinsic    `json:"value"`
}

type runRecord struct {
	Key text.RunKey     `json:"key"`
	Run *text.ShapedRun `json:"run"`
}

type breakRecord struct {
	Key    text.BreakKey `json:"key"`
	Breaks []int         `json:"breaks"`
}

// snapshot holds only the pure caches. Positioned subtrees reference the
// engine's in-memory types and are never persisted.
type snapshot struct {
	Version   int               `json:"version"`
	Intrinsic []intrinsicRecord `json:"intrinsic"`
	Runs      []runRecord       `json:"runs"`
	Breaks    []breakRecord     `json:"breaks"`
}

// Save writes the pure caches as brotli-compressed JSON.
func (c *LayoutCache) Save(w io.Writer) error {
	snap := snapshot{Version: SnapshotVersion}
	c.intrinsic.each(func(k IntrinsicKey, v Intrinsic) {
		snap.Intrinsic = append(snap.Intrinsic, intrinsicRecord{Key: k, Value: v})
	})
	c.runs.each(func(k text.RunKey, v *text.ShapedRun) {
		snap.Runs = append(snap.Runs, runRecord{Key: k, Run: v})
	})
	c.breaks.each(func(k text.BreakKey, v []int) {
		snap.Breaks = append(snap.Breaks, breakRecord{Key: k, Breaks: v})
	})
	// Stable order keeps snapshots of equal caches byte-identical.
	sort.Slice(snap.Intrinsic, func(i, j int) bool {
		a, b := snap.Intrinsic[i].Key, snap.Intrinsic[j].Key
		if a.Fingerprint != b.Fingerprint {
			return a.Fingerprint < b.Fingerprint
		}
		return a.WritingMode < b.WritingMode
	})
	sort.Slice(snap.Runs, func(i, j int) bool { return runLess(snap.Runs[i].Key, snap.Runs[j].Key) })
	sort.Slice(snap.Breaks, func(i, j int) bool { return breakLess(snap.Breaks[i].Key, snap.Breaks[j].Key) })

	bw := brotli.NewWriterLevel(w, brotli.DefaultCompression)
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		_ = bw.Close()
		return fmt.Errorf("failed to encode cache snapshot: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("failed to flush cache snapshot: %w", err)
	}
	return nil
}

// Load merges a snapshot written by Save. Loaded entries count as used in
// the current pass. Entries whose keys no longer match anything simply age
// out.
func (c *LayoutCache) Load(r io.Reader) error {
	var snap snapshot
	if err := json.NewDecoder(brotli.NewReader(r)).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode cache snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSnapshotVersion, snap.Version, SnapshotVersion)
	}
	for _, rec := range snap.Intrinsic {
		c.intrinsic.put(rec.Key, rec.Value, c.pass)
	}
	for _, rec := range snap.Runs {
		if rec.Run == nil {
			continue
		}
		c.runs.put(rec.Key, rec.Run, c.pass)
	}
	for _, rec := range snap.Breaks {
		c.breaks.put(rec.Key, rec.Breaks, c.pass)
	}
	c.logger.Debug("Loaded layout cache snapshot.",
		zap.Int("intrinsic", len(snap.Intrinsic)),
		zap.Int("runs", len(snap.Runs)),
		zap.Int("breaks", len(snap.Breaks)),
	)
	return nil
}

// SaveFile writes a snapshot atomically by renaming a temporary file.
func (c *LayoutCache) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := c.Save(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to install snapshot: %w", err)
	}
	return nil
}

// LoadFile reads a snapshot from path. A missing file is not an error.
func (c *LayoutCache) LoadFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}

func runLess(a, b text.RunKey) bool {
	switch {
	case a.Style != b.Style:
		return a.Style < b.Style
	case a.Text != b.Text:
		return a.Text < b.Text
	case a.Script != b.Script:
		return a.Script < b.Script
	case a.Level != b.Level:
		return a.Level < b.Level
	}
	return a.Language < b.Language
}

func breakLess(a, b text.BreakKey) bool {
	switch {
	case a.Content != b.Content:
		return a.Content < b.Content
	case a.Style != b.Style:
		return a.Style < b.Style
	case a.Width != b.Width:
		return a.Width < b.Width
	}
	return a.Indent < b.Indent
}
