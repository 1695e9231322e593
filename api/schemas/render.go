package schemas

// -- Render Output Schemas --

// Rect is an axis aligned rectangle in CSS pixels.
type Rect struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	W float32 `json:"w"`
	H float32 `json:"h"`
}

// Point is a position in CSS pixels.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Size is a width and height in CSS pixels.
type Size struct {
	W float32 `json:"w"`
	H float32 `json:"h"`
}

// Edges holds physical per-side values.
type Edges struct {
	Top    float32 `json:"top"`
	Right  float32 `json:"right"`
	Bottom float32 `json:"bottom"`
	Left   float32 `json:"left"`
}

// RenderResult is the serialized output of one layout pass.
type RenderResult struct {
	PassID   string        `json:"pass_id"`
	Document Size          `json:"document"`
	Boxes    []Box         `json:"boxes"`
	Items    []DisplayItem `json:"display_list"`
	Pages    []Page        `json:"pages,omitempty"`
	Overflow []Overflow    `json:"overflow,omitempty"`
	Messages []Message     `json:"messages,omitempty"`
	Cache    *CacheStats   `json:"cache,omitempty"`
}

// Box is the geometry of one laid out node.
type Box struct {
	Node      int32  `json:"node"`
	Kind      string `json:"kind"`
	Role      string `json:"role"`
	Tag       string `json:"tag,omitempty"`
	ElementID string `json:"element_id,omitempty"`
	// Rect is the border box in document coordinates.
	Rect    Rect   `json:"rect"`
	Content Rect   `json:"content"`
	Margin  Edges  `json:"margin"`
	Border  Edges  `json:"border"`
	Padding Edges  `json:"padding"`
	Pieces  []Rect `json:"pieces,omitempty"`
	Page    int    `json:"page,omitempty"`
}

// DisplayItem is one display list entry. Fields not used by Kind are
// omitted. Colors are #rrggbbaa.
type DisplayItem struct {
	Kind   string      `json:"kind"`
	Node   int32       `json:"node"`
	Rect   *Rect       `json:"rect,omitempty"`
	Color  string      `json:"color,omitempty"`
	Radii  *[4]float32 `json:"radii,omitempty"`
	Widths *Edges      `json:"widths,omitempty"`
	Styles []string    `json:"styles,omitempty"`
	Colors []string    `json:"colors,omitempty"`
	Offset *Point      `json:"offset,omitempty"`
	Blur   float32     `json:"blur,omitempty"`
	Spread float32     `json:"spread,omitempty"`
	Inset  bool        `json:"inset,omitempty"`
	Text   string      `json:"text,omitempty"`
	Origin *Point      `json:"origin,omitempty"`
	Font   uint64      `json:"font,omitempty"`
	Size   float32     `json:"size,omitempty"`
	Glyphs []Glyph     `json:"glyphs,omitempty"`
	// Image is the image handle of image items.
	Image      uint64      `json:"image,omitempty"`
	Background bool        `json:"background,omitempty"`
	Matrix     *[6]float32 `json:"matrix,omitempty"`
	Opacity    *float32    `json:"opacity,omitempty"`
}

// Glyph is one positioned glyph of a text run.
type Glyph struct {
	ID      uint32  `json:"id"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Advance float32 `json:"advance"`
}

// Page is one page of a paged layout.
type Page struct {
	Index int  `json:"index"`
	Rect  Rect `json:"rect"`
}

// Overflow summarizes a scroll container.
type Overflow struct {
	Node       int32 `json:"node"`
	ClientSize Size  `json:"client_size"`
	ScrollSize Size  `json:"scroll_size"`
}

// Message is a diagnostic raised during layout.
type Message struct {
	Level    string `json:"level"`
	Code     string `json:"code"`
	Node     int32  `json:"node"`
	Resource string `json:"resource,omitempty"`
	Text     string `json:"text"`
}

// CacheStats reports cache effectiveness for the pass.
type CacheStats struct {
	Pass      uint64 `json:"pass"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// HitResult answers a hit test.
type HitResult struct {
	Point     Point  `json:"point"`
	Hit       bool   `json:"hit"`
	Node      int32  `json:"node"`
	Tag       string `json:"tag,omitempty"`
	ElementID string `json:"element_id,omitempty"`
	Rect      *Rect  `json:"rect,omitempty"`
}

// FrameSummary reports one frame of a watch session.
type FrameSummary struct {
	FrameID   string   `json:"frame_id"`
	Seq       uint64   `json:"seq"`
	PassID    string   `json:"pass_id"`
	Applied   int      `json:"applied"`
	Failed    []string `json:"failed,omitempty"`
	ElapsedMS float64  `json:"elapsed_ms"`
	Messages  int      `json:"messages"`
}
