package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/trellis/internal/observability"
)

// newBatchCmd creates and configures the `batch` command.
func newBatchCmd() *cobra.Command {
	var (
		outDir string
		jobs   int
	)
	batchCmd := &cobra.Command{
		Use:   "batch <documents...>",
		Short: "Renders many documents concurrently, one engine per document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			logger := observability.Component("batch")
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if jobs <= 0 {
				jobs = runtime.GOMAXPROCS(0)
			}

			outputs := make([]string, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for i, path := range args {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					docLogger := logger.With(zap.String("document", path))
					s, err := openSession(cfg, path, docLogger)
					if err != nil {
						return err
					}
					defer s.close()
					res := s.layout()

					base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
					target := filepath.Join(outDir, base+"."+cfg.Output().Format)
					f, err := os.Create(target)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", target, err)
					}
					if err := writeResult(f, cfg, s, res, -1, docLogger); err != nil {
						_ = f.Close()
						return fmt.Errorf("%s: %w", path, err)
					}
					if err := f.Close(); err != nil {
						return fmt.Errorf("failed to close %s: %w", target, err)
					}
					outputs[i] = target
					docLogger.Debug("Rendered.", zap.String("output", target), zap.String("pass_id", res.PassID))
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for i, path := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", path, outputs[i])
			}
			logger.Info("Batch complete.", zap.Int("documents", len(args)), zap.Int("jobs", jobs))
			return nil
		},
	}
	batchCmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "directory for rendered files")
	batchCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "documents rendered at once (default GOMAXPROCS)")
	return batchCmd
}
