package host

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/trellis/api/schemas"
	"github.com/xkilldash9x/trellis/internal/cascade"
	"github.com/xkilldash9x/trellis/internal/layout"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// ViewportFrom converts a wire viewport. Scale defaults to 1 and the page
// height to the viewport height.
func ViewportFrom(v schemas.Viewport) layout.Viewport {
	vp := layout.Viewport{
		Size:  geom.Size{W: v.Width, H: v.Height},
		Scale: v.Scale,
		Paged: v.Paged,
	}
	if vp.Scale <= 0 {
		vp.Scale = 1
	}
	if v.Paged {
		ph := v.PageHeight
		if ph <= 0 {
			ph = v.Height
		}
		vp.PageSize = geom.Size{W: v.Width, H: ph}
	}
	return vp
}

// ApplyEdit turns one edit stream entry into a mutation. Malformed edits
// fail here; edits whose target matches nothing fail when applied.
func ApplyEdit(e schemas.Edit) (Mutation, error) {
	switch e.Op {
	case schemas.EditStyle:
		if e.Target == "" {
			return nil, errors.New("style edit needs a target")
		}
		return func(doc *cascade.Document, _ *layout.Viewport) error {
			ids, err := targets(doc, e.Target)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := doc.SetInlineStyle(id, e.Value); err != nil {
					return err
				}
			}
			return nil
		}, nil

	case schemas.EditText:
		if e.Target == "" {
			return nil, errors.New("text edit needs a target")
		}
		return func(doc *cascade.Document, _ *layout.Viewport) error {
			ids, err := targets(doc, e.Target)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := setText(doc, id, e.Value); err != nil {
					return err
				}
			}
			return nil
		}, nil

	case schemas.EditViewport:
		if e.Viewport == nil || e.Viewport.Width <= 0 || e.Viewport.Height <= 0 {
			return nil, errors.New("viewport edit needs a positive width and height")
		}
		next := ViewportFrom(*e.Viewport)
		return func(_ *cascade.Document, vp *layout.Viewport) error {
			*vp = next
			return nil
		}, nil
	}
	return nil, fmt.Errorf("unknown edit op %q", e.Op)
}

func targets(doc *cascade.Document, selector string) ([]tree.NodeID, error) {
	ids, err := doc.Query(selector)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("selector %q matched nothing", selector)
	}
	return ids, nil
}

// setText replaces the first text child of an element, or the node itself
// when it is text. Remaining text children are emptied.
func setText(doc *cascade.Document, id tree.NodeID, value string) error {
	if doc.Tree.Node(id).Kind == tree.KindText {
		return doc.SetText(id, value)
	}
	found := false
	for _, k := range doc.Tree.Children(id) {
		if doc.Tree.Node(k).Kind != tree.KindText {
			continue
		}
		v := ""
		if !found {
			v, found = value, true
		}
		if err := doc.SetText(k, v); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("node %d has no text to replace", id)
	}
	return nil
}
