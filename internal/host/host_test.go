package host

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/trellis/api/schemas"
	"github.com/xkilldash9x/trellis/internal/cascade"
	"github.com/xkilldash9x/trellis/internal/fonts"
	"github.com/xkilldash9x/trellis/internal/layout"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
)

const page = `<html><head><style>body { margin: 0 } #a { width: 100px; height: 20px }</style></head>
<body><div id="a">first</div><p class="note">one</p></body></html>`

func newTestHost(t *testing.T, cfg Config) (*Host, *cascade.Document) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	doc, err := cascade.ParseHTML(strings.NewReader(page), cascade.Options{Viewport: geom.Size{W: 400, H: 300}, Logger: logger})
	require.NoError(t, err)
	engine := layout.NewEngine(fonts.NewFixed(0.5, 0.25), nil, layout.Options{}, logger)
	vp := layout.Viewport{Size: geom.Size{W: 400, H: 300}, Scale: 1}
	return New(engine, doc, vp, cfg, logger), doc
}

func mustEdit(t *testing.T, e schemas.Edit) Mutation {
	t.Helper()
	m, err := ApplyEdit(e)
	require.NoError(t, err)
	return m
}

func widthOf(t *testing.T, res *layout.Result, doc *cascade.Document, elementID string) float32 {
	t.Helper()
	id, ok := doc.ElementByID(elementID)
	require.True(t, ok)
	r, ok := res.Rect(id)
	require.True(t, ok)
	return r.BorderBox().W
}

// runHost starts Run and returns the frame channel and a wait function
// yielding Run's error.
func runHost(ctx context.Context, h *Host) (<-chan Frame, func() error) {
	frames := make(chan Frame, 16)
	errc := make(chan error, 1)
	go func() {
		errc <- h.Run(ctx, func(f Frame) { frames <- f })
	}()
	return frames, func() error { return <-errc }
}

func nextFrame(t *testing.T, frames <-chan Frame) Frame {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return Frame{}
	}
}

func TestRunLaysOutOnceThenPerBatch(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	h, doc := newTestHost(t, Config{InboxSize: 4})
	frames, wait := runHost(context.Background(), h)

	first := nextFrame(t, frames)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Zero(t, first.Applied)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, float32(100), widthOf(t, first.Result, doc, "a"))

	require.NoError(t, h.Submit(mustEdit(t, schemas.Edit{Op: schemas.EditStyle, Target: "#a", Value: "width: 250px; height: 20px"})))
	second := nextFrame(t, frames)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, 1, second.Applied)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, float32(250), widthOf(t, second.Result, doc, "a"))
	assert.Same(t, second.Result, h.Latest())

	h.Close()
	require.NoError(t, wait())
}

func TestFailedMutationDoesNotBlockOthers(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	h, doc := newTestHost(t, Config{InboxSize: 4})
	// Queued before Run, so both land in the first batch after the initial pass.
	require.NoError(t, h.Submit(mustEdit(t, schemas.Edit{Op: schemas.EditStyle, Target: "#missing", Value: "width: 1px"})))
	require.NoError(t, h.Submit(mustEdit(t, schemas.Edit{Op: schemas.EditText, Target: "#a", Value: "second"})))

	frames, wait := runHost(context.Background(), h)
	nextFrame(t, frames)
	f := nextFrame(t, frames)
	assert.Equal(t, 1, f.Applied)
	require.Len(t, f.Failed, 1)
	assert.Contains(t, f.Failed[0].Error(), "matched nothing")

	id, _ := doc.ElementByID("a")
	kids := doc.Tree.Children(id)
	require.NotEmpty(t, kids)
	assert.Equal(t, "second", doc.Tree.Node(kids[0]).Text)

	h.Close()
	require.NoError(t, wait())
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	h, _ := newTestHost(t, Config{InboxSize: 1})
	ctx, cancel := context.WithCancel(context.Background())
	frames, wait := runHost(ctx, h)
	nextFrame(t, frames)
	cancel()
	assert.True(t, errors.Is(wait(), context.Canceled))
}

func TestSubmitBackpressure(t *testing.T) {
	h, _ := newTestHost(t, Config{InboxSize: 1})
	noop := func(*cascade.Document, *layout.Viewport) error { return nil }

	require.NoError(t, h.Submit(noop))
	assert.ErrorIs(t, h.Submit(noop), ErrInboxFull)

	h.Close()
	h.Close()
	assert.ErrorIs(t, h.Submit(noop), ErrClosed)
	assert.Nil(t, h.Latest())
}

func TestFrameRateLimitsPasses(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	h, _ := newTestHost(t, Config{FramesPerSecond: 10, InboxSize: 8})
	frames, wait := runHost(context.Background(), h)
	nextFrame(t, frames)

	noop := func(*cascade.Document, *layout.Viewport) error { return nil }
	start := time.Now()
	require.NoError(t, h.Submit(noop))
	nextFrame(t, frames)
	require.NoError(t, h.Submit(noop))
	nextFrame(t, frames)
	// Burst of one: two more frames at 10 fps take at least one interval.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	h.Close()
	require.NoError(t, wait())
}

func TestViewportEditChangesNextPass(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	h, _ := newTestHost(t, Config{InboxSize: 2})
	frames, wait := runHost(context.Background(), h)
	nextFrame(t, frames)

	require.NoError(t, h.Submit(mustEdit(t, schemas.Edit{Op: schemas.EditViewport, Viewport: &schemas.Viewport{Width: 640, Height: 200, Paged: true}})))
	f := nextFrame(t, frames)
	assert.Equal(t, float32(640), f.Result.DocumentSize.W)
	assert.NotEmpty(t, f.Result.Pages)

	h.Close()
	require.NoError(t, wait())
}

func TestApplyEditValidation(t *testing.T) {
	cases := []struct {
		name string
		edit schemas.Edit
		want string
	}{
		{"style without target", schemas.Edit{Op: schemas.EditStyle, Value: "color: red"}, "needs a target"},
		{"text without target", schemas.Edit{Op: schemas.EditText}, "needs a target"},
		{"viewport without size", schemas.Edit{Op: schemas.EditViewport, Viewport: &schemas.Viewport{Width: 10}}, "positive width"},
		{"viewport missing", schemas.Edit{Op: schemas.EditViewport}, "positive width"},
		{"unknown op", schemas.Edit{Op: "resize"}, "unknown edit op"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ApplyEdit(tc.edit)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestTextEditRejectsEmptyElements(t *testing.T) {
	logger := zaptest.NewLogger(t)
	doc, err := cascade.ParseHTML(strings.NewReader(`<html><body><div id="e"></div></body></html>`), cascade.Options{Viewport: geom.Size{W: 100, H: 100}, Logger: logger})
	require.NoError(t, err)

	m := mustEdit(t, schemas.Edit{Op: schemas.EditText, Target: "#e", Value: "x"})
	vp := layout.Viewport{}
	err = m(doc, &vp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text")

	bad := mustEdit(t, schemas.Edit{Op: schemas.EditStyle, Target: "div::before", Value: "color: red"})
	assert.Error(t, bad(doc, &vp))
}

func TestViewportFrom(t *testing.T) {
	vp := ViewportFrom(schemas.Viewport{Width: 300, Height: 200, Paged: true})
	assert.Equal(t, layout.Viewport{
		Size:     geom.Size{W: 300, H: 200},
		Scale:    1,
		Paged:    true,
		PageSize: geom.Size{W: 300, H: 200},
	}, vp)

	vp = ViewportFrom(schemas.Viewport{Width: 300, Height: 200, Scale: 2, Paged: true, PageHeight: 50})
	assert.Equal(t, float32(2), vp.Scale)
	assert.Equal(t, geom.Size{W: 300, H: 50}, vp.PageSize)

	vp = ViewportFrom(schemas.Viewport{Width: 300, Height: 200, PageHeight: 50})
	assert.Equal(t, geom.Size{}, vp.PageSize)
}
