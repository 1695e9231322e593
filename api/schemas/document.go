package schemas

// -- Document Input Schemas --

// Document is a JSON document description, the alternative to HTML input.
type Document struct {
	// Viewport overrides the configured viewport when set.
	Viewport *Viewport `json:"viewport,omitempty"`
	// CSS is an author stylesheet applied to the document.
	CSS  string `json:"css,omitempty"`
	Root Node   `json:"root"`
}

// Node is an element, or a text node when Text is set.
type Node struct {
	Tag      string            `json:"tag,omitempty"`
	ID       string            `json:"id,omitempty"`
	Class    string            `json:"class,omitempty"`
	Style    string            `json:"style,omitempty"`
	Src      string            `json:"src,omitempty"`
	Text     *string           `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

// IsText reports whether the node is a text node.
func (n Node) IsText() bool { return n.Text != nil }

// Viewport describes the layout area.
type Viewport struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
	Scale  float32 `json:"scale,omitempty"`
	Paged  bool    `json:"paged,omitempty"`
	// PageHeight defaults to Height in paged mode.
	PageHeight float32 `json:"page_height,omitempty"`
}

// -- Edit Stream Schemas --

// EditOp names a mutation applied between layout passes.
type EditOp string

const (
	EditStyle    EditOp = "style"
	EditText     EditOp = "text"
	EditViewport EditOp = "viewport"
)

// Edit is one line of an edit stream. Target is a CSS selector; every
// match is edited.
type Edit struct {
	Op       EditOp    `json:"op"`
	Target   string    `json:"target,omitempty"`
	Value    string    `json:"value,omitempty"`
	Viewport *Viewport `json:"viewport,omitempty"`
}
