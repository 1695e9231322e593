package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/trellis/api/schemas"
	"github.com/xkilldash9x/trellis/internal/export"
	"github.com/xkilldash9x/trellis/internal/host"
	"github.com/xkilldash9x/trellis/internal/observability"
)

// newWatchCmd creates and configures the `watch` command.
func newWatchCmd() *cobra.Command {
	var (
		edits     string
		output    string
		fromStart bool
		poll      bool
		maxFrames int
	)
	watchCmd := &cobra.Command{
		Use:   "watch <document>",
		Short: "Re-lays out a document as edits are appended to an edit stream",
		Long: `Follows a file of JSON edit lines (op: style, text or viewport) and
re-lays out the document after each batch of edits, printing one frame
summary per pass. With --output the full result is rewritten every frame.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			if edits == "" {
				return errors.New("--edits is required")
			}
			logger := observability.Component("watch")

			s, err := openSession(cfg, args[0], logger)
			if err != nil {
				return err
			}
			defer s.close()

			hc := cfg.Host()
			h := host.New(s.engine, s.doc, s.viewport, host.Config{
				FramesPerSecond: hc.FramesPerSecond,
				PassBudget:      hc.PassBudget,
				InboxSize:       hc.InboxSize,
			}, logger)

			stdout := cmd.OutOrStdout()
			onFrame := func(f host.Frame) {
				summary := schemas.FrameSummary{
					FrameID:   f.ID,
					Seq:       f.Seq,
					PassID:    f.Result.PassID,
					Applied:   f.Applied,
					ElapsedMS: float64(f.Elapsed.Microseconds()) / 1000,
					Messages:  len(f.Result.Messages),
				}
				for _, e := range f.Failed {
					summary.Failed = append(summary.Failed, e.Error())
				}
				if err := export.JSON(stdout, summary, false); err != nil {
					logger.Warn("Failed to write frame summary.", zap.Error(err))
				}
				if output != "" {
					if err := writeFrame(output, f, s); err != nil {
						logger.Warn("Failed to write frame.", zap.String("output", output), zap.Error(err))
					}
				}
				if maxFrames > 0 && int(f.Seq) >= maxFrames {
					h.Close()
				}
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				defer h.Close()
				return h.Run(ctx, onFrame)
			})
			g.Go(func() error {
				return host.FollowEdits(ctx, edits, h, host.FollowOptions{FromStart: fromStart, Poll: poll}, logger)
			})
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	watchCmd.Flags().StringVarP(&edits, "edits", "e", "", "file of JSON edit lines to follow")
	watchCmd.Flags().StringVarP(&output, "output", "o", "", "rewrite the full result to this file every frame")
	watchCmd.Flags().BoolVar(&fromStart, "from-start", false, "apply edits already in the file")
	watchCmd.Flags().BoolVar(&poll, "poll", false, "poll the edit file instead of using inotify")
	watchCmd.Flags().IntVar(&maxFrames, "frames", 0, "stop after this many frames (0 runs until interrupted)")
	return watchCmd
}

func writeFrame(path string, f host.Frame, s *session) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeResult(out, s.cfg, s, f.Result, -1, s.logger); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
