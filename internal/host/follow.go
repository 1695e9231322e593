package host

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hpcloud/tail"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trellis/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FollowOptions controls how an edit stream is tailed.
type FollowOptions struct {
	// FromStart replays edits already in the file. Otherwise only lines
	// appended after the call are read.
	FromStart bool
	// Poll stats the file instead of using inotify.
	Poll bool
}

// FollowEdits tails a file of JSON lines, one schemas.Edit each, and
// submits them to h. Bad lines and a full inbox are logged and skipped.
// It blocks until ctx is done, h is closed, or the file can no longer be
// read.
func FollowEdits(ctx context.Context, path string, h *Host, opts FollowOptions, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("edit-follower")

	whence := io.SeekEnd
	if opts.FromStart {
		whence = io.SeekStart
	}
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      opts.Poll,
		Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail edit stream: %w", err)
	}
	defer func() {
		t.Stop()
		// Cleanup only releases inotify watches and starts the shared
		// tracker if it is not running yet.
		if !opts.Poll {
			t.Cleanup()
		}
	}()

	logger.Info("Following edit stream.", zap.String("path", path))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				if err := t.Wait(); err != nil {
					return fmt.Errorf("edit stream ended: %w", err)
				}
				return nil
			}
			if line.Err != nil {
				logger.Warn("Failed to read edit line.", zap.Error(line.Err))
				continue
			}
			submitLine(h, line.Text, logger)
		}
	}
}

func submitLine(h *Host, text string, logger *zap.Logger) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "#") {
		return
	}
	var e schemas.Edit
	if err := json.UnmarshalFromString(text, &e); err != nil {
		logger.Warn("Skipping malformed edit.", zap.String("line", text), zap.Error(err))
		return
	}
	m, err := ApplyEdit(e)
	if err != nil {
		logger.Warn("Skipping invalid edit.", zap.String("op", string(e.Op)), zap.Error(err))
		return
	}
	if err := h.Submit(m); err != nil {
		logger.Warn("Dropping edit.", zap.String("op", string(e.Op)), zap.Error(err))
	}
}
