package cascade

import (
	"fmt"
	"strings"
)

// Specificity orders matching rules: ids, then classes, attributes and
// pseudo-classes, then type selectors.
type Specificity [3]int

func (s Specificity) Less(o Specificity) bool {
	for i := range s {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return false
}

// Selector is one complex selector compiled to an XPath expression.
type Selector struct {
	Source      string
	XPath       string
	Specificity Specificity
	// Pseudo is "before" or "after" for generated content rules.
	Pseudo string
}

// Rule is a selector list with its declarations.
type Rule struct {
	Selectors    []Selector
	declarations []declaration
	order        int
}

// Stylesheet is an ordered list of rules from one origin.
type Stylesheet struct {
	Rules []Rule
	// Skipped holds rules that could not be compiled, with the reason.
	Skipped []error
}

// ParseStylesheet parses the supported subset of CSS: style rules with
// type, universal, class, id and attribute selectors, :first-child and
// :last-child, descendant and child combinators, and ::before/::after.
// At-rules are skipped whole.
func ParseStylesheet(css string) *Stylesheet {
	css = stripComments(css)
	sheet := &Stylesheet{}
	for len(css) > 0 {
		css = strings.TrimSpace(css)
		if css == "" {
			break
		}
		if css[0] == '@' {
			css = skipAtRule(css)
			continue
		}
		open := strings.IndexByte(css, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(css[open:], '}')
		if end < 0 {
			end = len(css) - open
		}
		prelude, body := css[:open], css[open+1:open+end]
		if open+end+1 <= len(css) {
			css = css[open+end+1:]
		} else {
			css = ""
		}

		rule := Rule{declarations: parseDeclarations(body), order: len(sheet.Rules)}
		for _, src := range splitTop(prelude, ',') {
			src = strings.TrimSpace(src)
			if src == "" {
				continue
			}
			sel, err := CompileSelector(src)
			if err != nil {
				sheet.Skipped = append(sheet.Skipped, err)
				continue
			}
			rule.Selectors = append(rule.Selectors, sel)
		}
		if len(rule.Selectors) > 0 {
			sheet.Rules = append(sheet.Rules, rule)
		}
	}
	return sheet
}

func stripComments(css string) string {
	var b strings.Builder
	for {
		start := strings.Index(css, "/*")
		if start < 0 {
			b.WriteString(css)
			return b.String()
		}
		b.WriteString(css[:start])
		end := strings.Index(css[start+2:], "*/")
		if end < 0 {
			return b.String()
		}
		css = css[start+2+end+2:]
	}
}

// skipAtRule drops an at-rule: up to ';' for statements, or a balanced
// block.
func skipAtRule(css string) string {
	semi := strings.IndexByte(css, ';')
	open := strings.IndexByte(css, '{')
	if open < 0 || (semi >= 0 && semi < open) {
		if semi < 0 {
			return ""
		}
		return css[semi+1:]
	}
	depth := 0
	for i := open; i < len(css); i++ {
		switch css[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return css[i+1:]
			}
		}
	}
	return ""
}

// parseDeclarations splits a declaration block. Property names are
// lowercased; malformed entries are dropped.
func parseDeclarations(body string) []declaration {
	var out []declaration
	for _, part := range splitTop(body, ';') {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(val)
		important := false
		if i := strings.LastIndex(strings.ToLower(val), "!important"); i >= 0 {
			val, important = strings.TrimSpace(val[:i]), true
		}
		if prop == "" || val == "" {
			continue
		}
		out = append(out, declaration{property: prop, value: val, important: important})
	}
	return out
}

// CompileSelector translates a complex selector into an XPath expression
// usable with htmlquery.
func CompileSelector(src string) (Selector, error) {
	sel := Selector{Source: src}
	s := strings.TrimSpace(src)
	if i := strings.Index(s, "::"); i >= 0 {
		sel.Pseudo = strings.ToLower(s[i+2:])
		s = s[:i]
	} else if strings.HasSuffix(s, ":before") || strings.HasSuffix(s, ":after") {
		i := strings.LastIndexByte(s, ':')
		sel.Pseudo, s = s[i+1:], s[:i]
	}
	if sel.Pseudo != "" && sel.Pseudo != "before" && sel.Pseudo != "after" {
		return sel, fmt.Errorf("selector %q: unsupported pseudo-element", src)
	}

	var xp strings.Builder
	axis := "//"
	tokens := strings.Fields(strings.NewReplacer(">", " > ").Replace(s))
	if len(tokens) == 0 {
		if sel.Pseudo == "" {
			return sel, fmt.Errorf("selector %q: empty", src)
		}
		tokens = []string{"*"}
	}
	for i, tok := range tokens {
		if tok == ">" {
			if i == 0 || i == len(tokens)-1 || tokens[i-1] == ">" {
				return sel, fmt.Errorf("selector %q: dangling combinator", src)
			}
			axis = "/"
			continue
		}
		step, spec, err := compileCompound(tok)
		if err != nil {
			return sel, fmt.Errorf("selector %q: %w", src, err)
		}
		xp.WriteString(axis)
		xp.WriteString(step)
		for k := range spec {
			sel.Specificity[k] += spec[k]
		}
		axis = "//"
	}
	sel.XPath = xp.String()
	return sel, nil
}

// compileCompound translates one compound selector such as
// div.note#main[lang]:first-child into a location step.
func compileCompound(tok string) (string, Specificity, error) {
	var spec Specificity
	name := "*"
	var preds []string

	i := 0
	for i < len(tok) && isIdentByte(tok[i]) {
		i++
	}
	if i > 0 {
		name = strings.ToLower(tok[:i])
		spec[2]++
	} else if strings.HasPrefix(tok, "*") {
		i = 1
	}

	for i < len(tok) {
		c := tok[i]
		switch c {
		case '.', '#':
			j := i + 1
			for j < len(tok) && isIdentByte(tok[j]) {
				j++
			}
			ident := tok[i+1 : j]
			if ident == "" {
				return "", spec, fmt.Errorf("empty %q selector", string(c))
			}
			if c == '#' {
				preds = append(preds, fmt.Sprintf("[@id='%s']", ident))
				spec[0]++
			} else {
				preds = append(preds, fmt.Sprintf("[contains(concat(' ', normalize-space(@class), ' '), ' %s ')]", ident))
				spec[1]++
			}
			i = j
		case '[':
			j := strings.IndexByte(tok[i:], ']')
			if j < 0 {
				return "", spec, fmt.Errorf("unterminated attribute selector")
			}
			attr := tok[i+1 : i+j]
			if k, v, ok := strings.Cut(attr, "="); ok {
				preds = append(preds, fmt.Sprintf("[@%s='%s']", strings.ToLower(k), unquote(v)))
			} else {
				preds = append(preds, fmt.Sprintf("[@%s]", strings.ToLower(attr)))
			}
			spec[1]++
			i += j + 1
		case ':':
			j := i + 1
			for j < len(tok) && (isIdentByte(tok[j])) {
				j++
			}
			switch pseudo := strings.ToLower(tok[i+1 : j]); pseudo {
			case "first-child":
				preds = append(preds, "[not(preceding-sibling::*)]")
			case "last-child":
				preds = append(preds, "[not(following-sibling::*)]")
			case "root":
				preds = append(preds, "[not(parent::*)]")
			default:
				return "", spec, fmt.Errorf("unsupported pseudo-class :%s", pseudo)
			}
			spec[1]++
			i = j
		default:
			return "", spec, fmt.Errorf("unexpected %q", string(c))
		}
	}
	return name + strings.Join(preds, ""), spec, nil
}

func isIdentByte(c byte) bool {
	return c == '-' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}

// userAgentCSS is the default sheet applied beneath author styles.
const userAgentCSS = `
html, address, blockquote, body, dd, div, dl, dt, fieldset, form, frame,
frameset, h1, h2, h3, h4, h5, h6, noframes, ol, p, ul, center, dir, hr, menu,
pre, article, aside, footer, header, hgroup, main, nav, section, figure,
figcaption, details, summary, legend { display: block }
li { display: list-item }
head, script, style, title, meta, link, template, noscript { display: none }
table { display: table }
tr { display: table-row }
thead { display: table-header-group }
tbody { display: table-row-group }
tfoot { display: table-footer-group }
col { display: table-column }
colgroup { display: table-column-group }
td, th { display: table-cell; padding: 1px }
caption { display: table-caption; text-align: center }
body { margin: 8px }
h1 { font-size: 2em; margin: 0.67em 0; font-weight: bold }
h2 { font-size: 1.5em; margin: 0.83em 0; font-weight: bold }
h3 { font-size: 1.17em; margin: 1em 0; font-weight: bold }
h4 { margin: 1.33em 0; font-weight: bold }
h5 { font-size: 0.83em; margin: 1.67em 0; font-weight: bold }
h6 { font-size: 0.67em; margin: 2.33em 0; font-weight: bold }
p, blockquote, figure, dl { margin: 1em 0 }
blockquote, figure { margin-left: 40px; margin-right: 40px }
ul, ol, menu, dir { margin: 1em 0; padding-left: 40px }
dd { margin-left: 40px }
th { font-weight: bold; text-align: center }
b, strong { font-weight: bold }
i, em, cite, var, dfn { font-style: italic }
pre, code, kbd, samp, tt { font-family: monospace }
pre { white-space: pre; margin: 1em 0 }
small { font-size: smaller }
big { font-size: larger }
sub { vertical-align: sub; font-size: smaller }
sup { vertical-align: super; font-size: smaller }
center { text-align: center }
hr { border: 1px inset gray; margin: 0.5em auto }
`
