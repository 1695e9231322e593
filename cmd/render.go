// File: cmd/render.go
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trellis/internal/config"
	"github.com/xkilldash9x/trellis/internal/export"
	"github.com/xkilldash9x/trellis/internal/layout"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/observability"
)

// newRenderCmd creates and configures the `render` command.
func newRenderCmd() *cobra.Command {
	var (
		output string
		page   int
	)
	renderCmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Lays out an HTML or JSON document and writes its boxes and display list",
		Long: `Lays out an HTML document, or a JSON document when the file ends in .json,
and writes the result as JSON (boxes, display list, diagnostics) or SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			logger := observability.Component("render")

			s, err := openSession(cfg, args[0], logger)
			if err != nil {
				return err
			}
			defer s.close()
			res := s.layout()

			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := writeResult(out, cfg, s, res, page, logger); err != nil {
				return err
			}
			logger.Info("Rendered document.",
				zap.String("document", args[0]),
				zap.String("pass_id", res.PassID),
				zap.Int("boxes", len(res.Rects)),
				zap.Int("pages", len(res.Pages)))
			return nil
		},
	}
	renderCmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	renderCmd.Flags().IntVar(&page, "page", -1, "SVG only: render a single page of a paged layout")
	return renderCmd
}

// writeResult encodes res in the configured format. page selects one page
// of a paged SVG; a negative page renders the whole document.
func writeResult(w io.Writer, cfg *config.Config, s *session, res *layout.Result, page int, logger *zap.Logger) error {
	switch cfg.Output().Format {
	case "svg":
		list, size := res.DisplayList, res.DocumentSize
		if page >= 0 {
			var ok bool
			if list, ok = res.PageList(page); !ok {
				return fmt.Errorf("page %d out of range (document has %d pages)", page, len(res.Pages))
			}
			size = pageSize(res, s.viewport)
		}
		return export.WriteSVG(w, list, size, export.SVGOptions{
			Images:     s.images,
			Background: style.White,
			Logger:     logger,
		})
	default:
		return export.JSON(w, export.Convert(res, s.doc.Tree), cfg.Output().Pretty)
	}
}
