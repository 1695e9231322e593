package schemas_test

import (
	"reflect"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trellis/api/schemas"
)

// TestStructJSONTags pins the wire names of the public schemas.
func TestStructJSONTags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name         string
		structRef    interface{}
		expectedTags map[string]string
	}{
		{
			name:      "Document",
			structRef: schemas.Document{},
			expectedTags: map[string]string{
				"Viewport": "viewport,omitempty",
				"CSS":      "css,omitempty",
				"Root":     "root",
			},
		},
		{
			name:      "Node",
			structRef: schemas.Node{},
			expectedTags: map[string]string{
				"Tag":      "tag,omitempty",
				"ID":       "id,omitempty",
				"Class":    "class,omitempty",
				"Style":    "style,omitempty",
				"Src":      "src,omitempty",
				"Text":     "text,omitempty",
				"Attrs":    "attrs,omitempty",
				"Children": "children,omitempty",
			},
		},
		{
			name:      "Edit",
			structRef: schemas.Edit{},
			expectedTags: map[string]string{
				"Op":       "op",
				"Target":   "target,omitempty",
				"Value":    "value,omitempty",
				"Viewport": "viewport,omitempty",
			},
		},
		{
			name:      "RenderResult",
			structRef: schemas.RenderResult{},
			expectedTags: map[string]string{
				"PassID":   "pass_id",
				"Document": "document",
				"Boxes":    "boxes",
				"Items":    "display_list",
				"Pages":    "pages,omitempty",
				"Overflow": "overflow,omitempty",
				"Messages": "messages,omitempty",
				"Cache":    "cache,omitempty",
			},
		},
		{
			name:      "Overflow",
			structRef: schemas.Overflow{},
			expectedTags: map[string]string{
				"Node":       "node",
				"ClientSize": "client_size",
				"ScrollSize": "scroll_size",
			},
		},
		{
			name:      "FrameSummary",
			structRef: schemas.FrameSummary{},
			expectedTags: map[string]string{
				"FrameID":   "frame_id",
				"Seq":       "seq",
				"PassID":    "pass_id",
				"Applied":   "applied",
				"Failed":    "failed,omitempty",
				"ElapsedMS": "elapsed_ms",
				"Messages":  "messages",
			},
		},
	}

	for _, tc := range testCases {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			structType := reflect.TypeOf(tt.structRef)
			actualTags := make(map[string]string)
			for i := 0; i < structType.NumField(); i++ {
				field := structType.Field(i)
				if jsonTag := field.Tag.Get("json"); jsonTag != "" {
					actualTags[field.Name] = jsonTag
				}
			}
			assert.Equal(t, tt.expectedTags, actualTags, "JSON tags for struct %s do not match expectations", tt.name)
		})
	}
}

func TestDocumentDecodesTextNodes(t *testing.T) {
	t.Parallel()
	var doc schemas.Document
	err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(`{
		"viewport": {"width": 320, "height": 200, "paged": true},
		"css": "p { margin: 0 }",
		"root": {"tag": "body", "children": [
			{"tag": "p", "id": "a", "children": [{"text": "hello"}]},
			{"text": ""}
		]}
	}`, &doc)
	require.NoError(t, err)

	require.NotNil(t, doc.Viewport)
	assert.True(t, doc.Viewport.Paged)
	assert.Zero(t, doc.Viewport.PageHeight)
	require.Len(t, doc.Root.Children, 2)
	assert.False(t, doc.Root.Children[0].IsText())
	assert.True(t, doc.Root.Children[1].IsText(), "an empty text is still a text node")
	assert.Equal(t, "hello", *doc.Root.Children[0].Children[0].Text)
}
