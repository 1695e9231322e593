package cascade

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/trellis/api/schemas"
)

// FromSchema styles a JSON document. The node tree is converted to markup
// so that both front ends share one cascade. A root other than html is
// wrapped in html and body as needed.
func FromSchema(doc schemas.Document, opts Options) (*Document, error) {
	if doc.Root.Tag == "" && !doc.Root.IsText() {
		return nil, ErrEmptyDocument
	}
	top, err := schemaNode(doc.Root)
	if err != nil {
		return nil, err
	}

	root := &html.Node{Type: html.DocumentNode}
	htmlEl := top
	if top.Type != html.ElementNode || top.Data != "html" {
		htmlEl = elementNode("html")
		body := top
		if top.Type != html.ElementNode || top.Data != "body" {
			body = elementNode("body")
			body.AppendChild(top)
		}
		htmlEl.AppendChild(body)
	}
	if doc.CSS != "" {
		head := elementNode("head")
		sheet := elementNode("style")
		sheet.AppendChild(&html.Node{Type: html.TextNode, Data: doc.CSS})
		head.AppendChild(sheet)
		htmlEl.InsertBefore(head, htmlEl.FirstChild)
	}
	root.AppendChild(htmlEl)
	return newDocument(root, opts)
}

func elementNode(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag}
}

func schemaNode(n schemas.Node) (*html.Node, error) {
	if n.IsText() {
		if n.Tag != "" || len(n.Children) > 0 {
			return nil, fmt.Errorf("text node cannot carry tag %q or children", n.Tag)
		}
		return &html.Node{Type: html.TextNode, Data: *n.Text}, nil
	}
	if n.Tag == "" {
		return nil, errors.New("element without tag")
	}
	el := elementNode(strings.ToLower(n.Tag))

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		el.Attr = append(el.Attr, html.Attribute{Key: strings.ToLower(k), Val: n.Attrs[k]})
	}
	for _, a := range []html.Attribute{{Key: "id", Val: n.ID}, {Key: "class", Val: n.Class}, {Key: "style", Val: n.Style}, {Key: "src", Val: n.Src}} {
		if a.Val != "" {
			el.Attr = append(el.Attr, a)
		}
	}

	for i, c := range n.Children {
		child, err := schemaNode(c)
		if err != nil {
			return nil, fmt.Errorf("%s child %d: %w", n.Tag, i, err)
		}
		el.AppendChild(child)
	}
	return el, nil
}
