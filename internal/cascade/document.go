// File: internal/cascade/document.go
package cascade

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// ErrEmptyDocument is returned when the input holds no markup at all.
var ErrEmptyDocument = errors.New("document is empty")

// ImageLoader registers image files and hands out handles for them.
type ImageLoader interface {
	RegisterFile(path string) (style.ImageHandle, error)
}

// Options configures how a document is styled.
type Options struct {
	Viewport         geom.Size
	DefaultFontSize  float32
	LineHeightFactor float32
	// BaseDir resolves relative image sources.
	BaseDir  string
	Images   ImageLoader
	Logger   *zap.Logger
	ExtraCSS string
}

// Origin ranks where a declaration came from.
type Origin int

const (
	OriginUserAgent Origin = iota
	OriginHint
	OriginAuthor
	OriginInline
)

// weighted is a declaration with the context the cascade sorts on.
type weighted struct {
	declaration
	origin      Origin
	specificity Specificity
	order       int
}

// priority folds origin and importance into one rank.
func (w weighted) priority() int {
	switch {
	case w.origin == OriginUserAgent:
		return 0
	case w.origin == OriginHint:
		return 1
	case w.important && w.origin == OriginInline:
		return 5
	case w.important:
		return 4
	case w.origin == OriginInline:
		return 3
	default:
		return 2
	}
}

func sortCascade(decls []weighted) {
	sort.SliceStable(decls, func(i, j int) bool {
		a, b := decls[i], decls[j]
		if pa, pb := a.priority(), b.priority(); pa != pb {
			return pa < pb
		}
		if a.specificity != b.specificity {
			return a.specificity.Less(b.specificity)
		}
		return a.order < b.order
	})
}

// matched is everything the stylesheets say about one element.
type matched struct {
	element []weighted
	before  []weighted
	after   []weighted
}

// computer turns cascaded declarations into computed styles.
type computer struct {
	opts   Options
	logger *zap.Logger
	rem    float32
	images map[string]style.ImageHandle
}

func newComputer(opts Options) *computer {
	if opts.DefaultFontSize <= 0 {
		opts.DefaultFontSize = style.DefaultFontSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &computer{
		opts:   opts,
		logger: opts.Logger.Named("cascade"),
		rem:    opts.DefaultFontSize,
		images: make(map[string]style.ImageHandle),
	}
}

// image loads src relative to the base directory. Without a loader every
// image is reported missing.
func (c *computer) image(src string) (style.ImageHandle, error) {
	if h, ok := c.images[src]; ok {
		return h, nil
	}
	if c.opts.Images == nil {
		return 0, fmt.Errorf("no image loader for %q", src)
	}
	path := src
	if !filepath.IsAbs(path) && c.opts.BaseDir != "" {
		path = filepath.Join(c.opts.BaseDir, path)
	}
	h, err := c.opts.Images.RegisterFile(path)
	if err != nil {
		return 0, err
	}
	c.images[src] = h
	return h, nil
}

// compute resolves the cascaded declarations of one element.
func (c *computer) compute(decls []weighted, parent *style.ComputedStyle) *style.ComputedStyle {
	st := style.InheritFrom(parent)
	if parent == nil {
		st.FontSize = c.opts.DefaultFontSize
		if c.opts.LineHeightFactor > 0 {
			st.LineHeight = style.LineHeight{Kind: style.LineHeightNumber, Value: c.opts.LineHeightFactor}
		}
	}
	u := units{rem: c.rem, viewport: c.opts.Viewport}

	for _, d := range decls {
		if d.property == "font-size" {
			_ = applyFontSize(st, parent, d.value, u)
		}
	}
	if parent == nil {
		c.rem = st.FontSize
		u.rem = st.FontSize
	}
	u.em = st.FontSize

	for _, d := range decls {
		if d.property == "color" {
			c.applyLogged(st, parent, d.declaration, u)
		}
	}
	for _, d := range decls {
		switch d.property {
		case "font-size", "color", "content":
			continue
		}
		c.applyLogged(st, parent, d.declaration, u)
	}
	return st
}

func (c *computer) applyLogged(st, parent *style.ComputedStyle, d declaration, u units) {
	if err := c.apply(st, parent, d, u); err != nil {
		c.logger.Debug("Dropped declaration.",
			zap.String("property", d.property),
			zap.String("value", d.value),
			zap.Error(err),
		)
	}
}

// generated computes ::before or ::after. It returns nil unless the content
// property produces something.
func (c *computer) generated(decls []weighted, owner *style.ComputedStyle) *style.Generated {
	content := ""
	for _, d := range decls {
		if d.property == "content" {
			content = d.value
		}
	}
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "", "none", "normal":
		return nil
	}
	g := &style.Generated{Style: c.compute(decls, owner)}
	if g.Style.Display == style.DisplayNone {
		return nil
	}
	for _, part := range fields(content) {
		if src, ok := url(part); ok {
			h, err := c.image(src)
			if err != nil {
				c.logger.Warn("Failed to load generated image.", zap.String("source", src), zap.Error(err))
				continue
			}
			g.Image = h
			continue
		}
		g.Text += unquote(part)
	}
	return g
}

// skipped elements never produce boxes and cannot be restyled into view.
var skipped = map[string]bool{
	"head": true, "script": true, "style": true, "template": true, "title": true,
	"meta": true, "link": true, "noscript": true,
}

// Document is a styled HTML document. It keeps the parsed markup so that
// selections and inline style edits can be mapped back onto the tree.
type Document struct {
	Tree *tree.StyledTree

	root    *html.Node
	comp    *computer
	rules   map[*html.Node]*matched
	byHTML  map[*html.Node]tree.NodeID
	byID    map[tree.NodeID]*html.Node
	Skipped []error
}

// ParseHTML parses r, applies the user agent sheet, every <style> element
// and opts.ExtraCSS, and builds the styled tree.
func ParseHTML(r io.Reader, opts Options) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrEmptyDocument
	}
	root, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return newDocument(root, opts)
}

func newDocument(root *html.Node, opts Options) (*Document, error) {
	d := &Document{
		Tree:   tree.New(),
		root:   root,
		comp:   newComputer(opts),
		rules:  make(map[*html.Node]*matched),
		byHTML: make(map[*html.Node]tree.NodeID),
		byID:   make(map[tree.NodeID]*html.Node),
	}

	sheets := []*Stylesheet{ParseStylesheet(userAgentCSS)}
	for _, n := range htmlquery.Find(root, "//style") {
		sheets = append(sheets, ParseStylesheet(htmlquery.InnerText(n)))
	}
	if opts.ExtraCSS != "" {
		sheets = append(sheets, ParseStylesheet(opts.ExtraCSS))
	}
	order := 0
	for i, sheet := range sheets {
		origin := OriginAuthor
		if i == 0 {
			origin = OriginUserAgent
		}
		d.Skipped = append(d.Skipped, sheet.Skipped...)
		for _, rule := range sheet.Rules {
			for _, sel := range rule.Selectors {
				nodes, err := htmlquery.QueryAll(root, sel.XPath)
				if err != nil {
					d.Skipped = append(d.Skipped, fmt.Errorf("selector %q: %w", sel.Source, err))
					continue
				}
				for _, n := range nodes {
					d.match(n, rule, sel, origin, order)
				}
			}
			order++
		}
	}
	for _, err := range d.Skipped {
		d.comp.logger.Debug("Skipped rule.", zap.Error(err))
	}

	top := htmlquery.FindOne(root, "/html")
	if top == nil {
		return nil, ErrEmptyDocument
	}
	d.build(top, tree.None)
	return d, nil
}

func (d *Document) match(n *html.Node, rule Rule, sel Selector, origin Origin, order int) {
	m := d.rules[n]
	if m == nil {
		m = &matched{}
		d.rules[n] = m
	}
	dst := &m.element
	switch sel.Pseudo {
	case "before":
		dst = &m.before
	case "after":
		dst = &m.after
	}
	for _, decl := range rule.declarations {
		*dst = append(*dst, weighted{declaration: decl, origin: origin, specificity: sel.Specificity, order: order})
	}
}

// cascaded collects the sorted declarations of n: matched rules, hints and
// the style attribute.
func (d *Document) cascaded(n *html.Node) (element, before, after []weighted) {
	if m := d.rules[n]; m != nil {
		element = append(element, m.element...)
		before = append(before, m.before...)
		after = append(after, m.after...)
	}
	element = append(element, hints(n)...)
	for _, decl := range parseDeclarations(htmlquery.SelectAttr(n, "style")) {
		element = append(element, weighted{declaration: decl, origin: OriginInline})
	}
	sortCascade(element)
	sortCascade(before)
	sortCascade(after)
	return element, before, after
}

// hints maps presentational attributes onto declarations.
func hints(n *html.Node) []weighted {
	var out []weighted
	add := func(prop, value string) {
		out = append(out, weighted{declaration: declaration{property: prop, value: value}, origin: OriginHint})
	}
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "hidden":
			add("display", "none")
		case "dir":
			if v := strings.ToLower(a.Val); v == "ltr" || v == "rtl" {
				add("direction", v)
			}
		case "width", "height":
			switch n.Data {
			case "img", "iframe", "table", "td", "th", "col":
				v := strings.TrimSpace(a.Val)
				if _, err := strconv.ParseFloat(v, 32); err == nil {
					v += "px"
				}
				add(a.Key, v)
			}
		case "bgcolor":
			add("background-color", a.Val)
		case "align":
			if n.Data == "p" || n.Data == "div" || strings.HasPrefix(n.Data, "h") {
				add("text-align", a.Val)
			}
		}
	}
	return out
}

func (d *Document) styleFor(n *html.Node, parent *style.ComputedStyle) *style.ComputedStyle {
	element, before, after := d.cascaded(n)
	st := d.comp.compute(element, parent)
	if lang := htmlquery.SelectAttr(n, "lang"); lang != "" {
		st.Language = lang
	}
	st.Before = d.comp.generated(before, st)
	st.After = d.comp.generated(after, st)
	return st
}

func (d *Document) build(n *html.Node, parent tree.NodeID) {
	var parentStyle *style.ComputedStyle
	if parent != tree.None {
		parentStyle = d.Tree.Style(parent)
	}

	var id tree.NodeID
	switch n.Type {
	case html.TextNode:
		if parent == tree.None {
			return
		}
		id = d.Tree.AddText(n.Data, style.InheritFrom(parentStyle))
	case html.ElementNode:
		if skipped[n.Data] {
			return
		}
		st := d.styleFor(n, parentStyle)
		switch n.Data {
		case "img":
			h, err := d.imageHandle(n)
			if err != nil {
				d.comp.logger.Warn("Failed to load image.", zap.String("src", htmlquery.SelectAttr(n, "src")), zap.Error(err))
			}
			id = d.Tree.AddReplaced(tree.ReplacedImage, h, st)
		case "iframe":
			id = d.Tree.AddReplaced(tree.ReplacedIframe, 0, st)
		default:
			id = d.Tree.AddElement(n.Data, st)
		}
		if elementID := htmlquery.SelectAttr(n, "id"); elementID != "" {
			d.Tree.SetElementID(id, elementID)
		}
	default:
		return
	}

	d.byHTML[n] = id
	d.byID[id] = n
	if parent == tree.None {
		d.Tree.SetRoot(id)
	} else {
		d.Tree.AppendChild(parent, id)
	}
	if n.Type == html.ElementNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			d.build(c, id)
		}
	}
}

func (d *Document) imageHandle(n *html.Node) (style.ImageHandle, error) {
	src := htmlquery.SelectAttr(n, "src")
	if src == "" {
		return 0, errors.New("img without src")
	}
	return d.comp.image(src)
}

// Select evaluates an XPath expression and returns the tree nodes of the
// matching elements. Matches outside the rendered tree are dropped.
func (d *Document) Select(expr string) ([]tree.NodeID, error) {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	var ids []tree.NodeID
	for _, n := range nodes {
		if id, ok := d.byHTML[n]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Query is Select for a CSS selector.
func (d *Document) Query(selector string) ([]tree.NodeID, error) {
	sel, err := CompileSelector(selector)
	if err != nil {
		return nil, err
	}
	if sel.Pseudo != "" {
		return nil, fmt.Errorf("selector %q: pseudo-elements cannot be queried", selector)
	}
	return d.Select(sel.XPath)
}

// ElementByID returns the node carrying the id attribute.
func (d *Document) ElementByID(elementID string) (tree.NodeID, bool) {
	return d.Tree.FindByElementID(elementID)
}

// SetInlineStyle replaces the style attribute of an element and restyles
// it and its descendants.
func (d *Document) SetInlineStyle(id tree.NodeID, css string) error {
	n, ok := d.byID[id]
	if !ok || n.Type != html.ElementNode {
		return fmt.Errorf("node %d is not an element", id)
	}
	replaced := false
	for i := range n.Attr {
		if n.Attr[i].Key == "style" {
			n.Attr[i].Val = css
			replaced = true
		}
	}
	if !replaced {
		n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: css})
	}
	d.restyle(id)
	return nil
}

func (d *Document) restyle(id tree.NodeID) {
	n := d.byID[id]
	var parentStyle *style.ComputedStyle
	if p := d.Tree.Node(id).Parent; p != tree.None {
		parentStyle = d.Tree.Style(p)
	}
	if n.Type == html.TextNode {
		d.Tree.SetStyle(id, style.InheritFrom(parentStyle))
		return
	}
	d.Tree.SetStyle(id, d.styleFor(n, parentStyle))
	for _, k := range d.Tree.Children(id) {
		d.restyle(k)
	}
}

// SetText replaces the contents of a text node.
func (d *Document) SetText(id tree.NodeID, text string) error {
	n, ok := d.byID[id]
	if !ok || n.Type != html.TextNode {
		return fmt.Errorf("node %d is not a text node", id)
	}
	n.Data = text
	d.Tree.SetText(id, text)
	return nil
}

// HTML renders the current markup, including edits.
func (d *Document) HTML() string {
	return htmlquery.OutputHTML(d.root, true)
}
