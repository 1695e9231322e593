package text

import (
	"strings"

	"github.com/xkilldash9x/trellis/internal/layout/style"
)

const tabSize = 8

// WhiteSpaceState carries collapsing context from one text item to the next
// inside a paragraph.
type WhiteSpaceState struct {
	// PendingSpace is true when the last emitted character was a
	// collapsible space, or at the start of a paragraph.
	PendingSpace bool
	column       int
}

// NewWhiteSpaceState starts a paragraph. Leading collapsible spaces are
// dropped.
func NewWhiteSpaceState() WhiteSpaceState {
	return WhiteSpaceState{PendingSpace: true}
}

// ProcessWhiteSpace applies the white-space property to one text item.
// It returns the pieces separated by forced breaks: len(pieces)-1 forced
// breaks occur between them.
func ProcessWhiteSpace(s string, ws style.WhiteSpace, st *WhiteSpaceState) []string {
	var pieces []string
	var b strings.Builder
	collapse := ws.CollapsesSpaces()
	keepNewlines := ws.PreservesNewlines()

	flush := func() {
		pieces = append(pieces, b.String())
		b.Reset()
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\r':
			continue
		case r == '\n' && keepNewlines:
			if collapse {
				// pre-line removes spaces before the break.
				trimmed := strings.TrimRight(b.String(), " ")
				b.Reset()
				b.WriteString(trimmed)
			}
			flush()
			st.PendingSpace = collapse
			st.column = 0
		case collapse && (r == ' ' || r == '\t' || r == '\n' || r == '\f'):
			if !st.PendingSpace {
				b.WriteByte(' ')
				st.PendingSpace = true
			}
		case r == '\t':
			n := tabSize - st.column%tabSize
			b.WriteString(strings.Repeat(" ", n))
			st.column += n
			st.PendingSpace = false
		default:
			b.WriteRune(r)
			st.PendingSpace = false
			st.column++
		}
	}
	flush()
	return pieces
}

// TrimTrailingCollapsible removes a trailing collapsible space at the end of
// a paragraph.
func TrimTrailingCollapsible(s string, ws style.WhiteSpace) string {
	if ws.CollapsesSpaces() {
		return strings.TrimRight(s, " ")
	}
	return s
}

// IsCollapsibleSpace reports whether the space at a line edge may be removed
// or hung.
func IsCollapsibleSpace(r rune, ws style.WhiteSpace) bool {
	return r == ' ' && ws != style.WhiteSpacePre
}
