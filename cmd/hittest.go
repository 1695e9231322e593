package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trellis/api/schemas"
	"github.com/xkilldash9x/trellis/internal/export"
	"github.com/xkilldash9x/trellis/internal/layout"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
	"github.com/xkilldash9x/trellis/internal/observability"
)

// newHitTestCmd creates and configures the `hittest` command.
func newHitTestCmd() *cobra.Command {
	var x, y float64
	hitCmd := &cobra.Command{
		Use:   "hittest <document>",
		Short: "Reports the element under a point in document coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			logger := observability.Component("hittest")

			s, err := openSession(cfg, args[0], logger)
			if err != nil {
				return err
			}
			defer s.close()
			res := s.layout()

			p := geom.Point{X: float32(x), Y: float32(y)}
			out := hitResult(res, s.doc.Tree, p)
			logger.Debug("Hit test complete.", zap.Bool("hit", out.Hit), zap.Int32("node", out.Node))
			return export.JSON(cmd.OutOrStdout(), out, cfg.Output().Pretty)
		},
	}
	hitCmd.Flags().Float64Var(&x, "x", 0, "x coordinate in CSS pixels")
	hitCmd.Flags().Float64Var(&y, "y", 0, "y coordinate in CSS pixels")
	return hitCmd
}

func hitResult(res *layout.Result, styled *tree.StyledTree, p geom.Point) schemas.HitResult {
	out := schemas.HitResult{Point: schemas.Point{X: p.X, Y: p.Y}, Node: -1}
	id, ok := res.Hit(p)
	if !ok {
		return out
	}
	out.Hit, out.Node = true, int32(id)
	if styled.Contains(id) {
		n := styled.Node(id)
		out.Tag, out.ElementID = n.Tag, n.ElementID
	}
	if r, ok := res.Rect(id); ok {
		b := r.BorderBox()
		out.Rect = &schemas.Rect{X: b.X, Y: b.Y, W: b.W, H: b.H}
	}
	return out
}
