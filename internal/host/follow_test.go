package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

// leakOptions ignores the process-wide inotify tracker that hpcloud/tail
// starts once and never stops.
func leakOptions(extra ...goleak.Option) []goleak.Option {
	return append([]goleak.Option{
		goleak.IgnoreAnyFunction("github.com/hpcloud/tail/watch.(*InotifyTracker).run"),
		goleak.IgnoreAnyFunction("gopkg.in/fsnotify%2ev1.(*Watcher).readEvents"),
	}, extra...)
}

func TestFollowEditsSubmitsValidLines(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions(goleak.IgnoreCurrent())...)

	path := filepath.Join(t.TempDir(), "edits.jsonl")
	lines := "# comment\n" +
		"not json\n" +
		`{"op":"style"}` + "\n" +
		`{"op":"style","target":"#a","value":"width: 300px; height: 20px"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	h, doc := newTestHost(t, Config{InboxSize: 4})
	frames, wait := runHost(context.Background(), h)
	nextFrame(t, frames)

	ctx, cancel := context.WithCancel(context.Background())
	followErr := make(chan error, 1)
	go func() {
		followErr <- FollowEdits(ctx, path, h, FollowOptions{FromStart: true, Poll: true}, zaptest.NewLogger(t))
	}()

	f := nextFrame(t, frames)
	assert.Equal(t, 1, f.Applied)
	assert.Empty(t, f.Failed)
	assert.Equal(t, float32(300), widthOf(t, f.Result, doc, "a"))

	cancel()
	require.NoError(t, <-followErr)
	h.Close()
	require.NoError(t, wait())
}

func TestFollowEditsMissingFile(t *testing.T) {
	h, _ := newTestHost(t, Config{InboxSize: 1})
	err := FollowEdits(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"), h, FollowOptions{Poll: true}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to tail edit stream")
}

func TestFollowEditsReturnsWhenHostCloses(t *testing.T) {
	// Polling never touches the inotify tracker, so nothing is ignored here.
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := filepath.Join(t.TempDir(), "edits.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	h, _ := newTestHost(t, Config{InboxSize: 1})
	h.Close()
	assert.NoError(t, FollowEdits(context.Background(), path, h, FollowOptions{Poll: true}, zaptest.NewLogger(t)))
}
