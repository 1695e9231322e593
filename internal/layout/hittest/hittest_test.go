package hittest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trellis/internal/layout/geom"
)

func TestTopmostEntryWins(t *testing.T) {
	ix := New()
	ix.Add(Entry{Node: 1, Rect: geom.Rect{W: 100, H: 100}, Inverse: geom.Identity()})
	ix.Add(Entry{Node: 2, Rect: geom.Rect{X: 40, Y: 40, W: 100, H: 100}, Inverse: geom.Identity()})

	id, ok := ix.Hit(geom.Point{X: 50, Y: 50})
	require.True(t, ok)
	assert.EqualValues(t, 2, id)

	id, ok = ix.Hit(geom.Point{X: 10, Y: 10})
	require.True(t, ok)
	assert.EqualValues(t, 1, id)

	_, ok = ix.Hit(geom.Point{X: 500, Y: 500})
	assert.False(t, ok)

	assert.Len(t, ix.HitAll(geom.Point{X: 50, Y: 50}), 2)
}

func TestClipLimitsHits(t *testing.T) {
	ix := New()
	clip := []Clip{{Rect: geom.Rect{W: 50, H: 50}, Inverse: geom.Identity()}}
	ix.Add(Entry{Node: 3, Rect: geom.Rect{W: 200, H: 200}, Inverse: geom.Identity(), Clips: clip})

	_, ok := ix.Hit(geom.Point{X: 20, Y: 20})
	assert.True(t, ok)
	_, ok = ix.Hit(geom.Point{X: 120, Y: 20})
	assert.False(t, ok, "outside the clip")
}

func TestInverseTransformIsApplied(t *testing.T) {
	m := geom.Rotate(math.Pi / 2).About(geom.Point{X: 50, Y: 10})
	inv, err := m.Inverse()
	require.NoError(t, err)

	ix := New()
	ix.Add(Entry{Node: 4, Rect: geom.Rect{W: 100, H: 20}, Inverse: inv})

	// A 100x20 bar rotated a quarter turn around its center becomes 20x100.
	_, ok := ix.Hit(geom.Point{X: 50, Y: 50})
	assert.True(t, ok)
	_, ok = ix.Hit(geom.Point{X: 90, Y: 10})
	assert.False(t, ok)
}

func TestNilIndex(t *testing.T) {
	var ix *Index
	_, ok := ix.Hit(geom.Point{})
	assert.False(t, ok)
	assert.Nil(t, ix.HitAll(geom.Point{}))
}
