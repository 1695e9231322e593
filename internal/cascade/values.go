package cascade

import (
	"math"
	"strconv"
	"strings"

	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
)

// units carries what relative lengths resolve against while computing one
// element.
type units struct {
	em       float32
	rem      float32
	viewport geom.Size
}

// number parses a bare CSS number.
func number(s string) (float32, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}

// absolute converts a dimension to px. Percentages are not absolute.
func (u units) absolute(s string) (float32, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "0" {
		return 0, true
	}
	for _, suffix := range []struct {
		unit  string
		scale float32
	}{
		{"rem", u.rem},
		{"em", u.em},
		{"px", 1},
		{"pt", 4.0 / 3},
		{"pc", 16},
		{"in", 96},
		{"cm", 96 / 2.54},
		{"mm", 96 / 25.4},
		{"vw", u.viewport.W / 100},
		{"vh", u.viewport.H / 100},
	} {
		if num, ok := strings.CutSuffix(s, suffix.unit); ok {
			v, ok := number(num)
			if !ok {
				return 0, false
			}
			return v * suffix.scale, true
		}
	}
	return 0, false
}

// length parses a length-percentage, allowing auto.
func (u units) length(s string) (style.Length, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "auto":
		return style.Auto, true
	case "none":
		return style.None, true
	}
	if num, ok := strings.CutSuffix(s, "%"); ok {
		v, ok := number(num)
		if !ok {
			return style.Length{}, false
		}
		return style.Percent(v), true
	}
	v, ok := u.absolute(s)
	if !ok {
		return style.Length{}, false
	}
	return style.Px(v), true
}

// sides expands the one to four value shorthand form.
func sides[T any](vals []T) (top, right, bottom, left T, ok bool) {
	switch len(vals) {
	case 1:
		return vals[0], vals[0], vals[0], vals[0], true
	case 2:
		return vals[0], vals[1], vals[0], vals[1], true
	case 3:
		return vals[0], vals[1], vals[2], vals[1], true
	case 4:
		return vals[0], vals[1], vals[2], vals[3], true
	}
	return top, right, bottom, left, false
}

// fields splits a value on whitespace outside parentheses and quotes.
func fields(s string) []string {
	var out []string
	depth, start := 0, -1
	var quote rune
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
		case (r == ' ' || r == '\t' || r == '\n') && depth == 0:
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// splitTop splits s on sep outside parentheses and quotes.
func splitTop(s string, sep rune) []string {
	var out []string
	depth, start := 0, 0
	var quote rune
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == sep && depth == 0:
			out = append(out, s[start:i])
			start = i + len(string(sep))
		}
	}
	return append(out, s[start:])
}

var namedColors = map[string]style.Color{
	"black":       style.Black,
	"white":       style.White,
	"transparent": style.Transparent,
	"red":         {R: 255, A: 255},
	"green":       {G: 128, A: 255},
	"lime":        {G: 255, A: 255},
	"blue":        {B: 255, A: 255},
	"navy":        {B: 128, A: 255},
	"yellow":      {R: 255, G: 255, A: 255},
	"orange":      {R: 255, G: 165, A: 255},
	"purple":      {R: 128, B: 128, A: 255},
	"teal":        {G: 128, B: 128, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
	"silver":      {R: 192, G: 192, B: 192, A: 255},
	"maroon":      {R: 128, A: 255},
	"olive":       {R: 128, G: 128, A: 255},
	"aqua":        {G: 255, B: 255, A: 255},
	"fuchsia":     {R: 255, B: 255, A: 255},
}

// color parses hex, rgb()/rgba() and named colors. currentColor resolves
// to current.
func color(s string, current style.Color) (style.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "currentcolor" {
		return current, true
	}
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		return hexColor(hex)
	}
	for _, fn := range []string{"rgba(", "rgb("} {
		if args, ok := strings.CutPrefix(s, fn); ok {
			args, ok = strings.CutSuffix(args, ")")
			if !ok {
				return style.Color{}, false
			}
			return rgbColor(args)
		}
	}
	return style.Color{}, false
}

func hexColor(hex string) (style.Color, bool) {
	if len(hex) == 3 || len(hex) == 4 {
		var b strings.Builder
		for _, r := range hex {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		hex = b.String()
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return style.Color{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return style.Color{}, false
	}
	return style.Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func rgbColor(args string) (style.Color, bool) {
	args = strings.ReplaceAll(args, "/", " ")
	parts := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 3 && len(parts) != 4 {
		return style.Color{}, false
	}
	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		scale := float32(1)
		if i == 3 {
			scale = 255
		}
		if num, ok := strings.CutSuffix(p, "%"); ok {
			p, scale = num, 255.0/100
		}
		v, ok := number(p)
		if !ok {
			return style.Color{}, false
		}
		ch[i] = uint8(geom.Clamp(v*scale, 0, 255) + 0.5)
	}
	return style.Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, true
}

// url extracts the target of url(...), quoted or not.
func url(s string) (string, bool) {
	s = strings.TrimSpace(s)
	inner, ok := strings.CutPrefix(s, "url(")
	if !ok {
		return "", false
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return "", false
	}
	return unquote(strings.TrimSpace(inner)), true
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// angle parses deg, grad, rad and turn into radians.
func angle(s string) (float32, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range []struct {
		unit  string
		scale float64
	}{
		{"deg", math.Pi / 180},
		{"grad", math.Pi / 200},
		{"rad", 1},
		{"turn", 2 * math.Pi},
	} {
		if num, ok := strings.CutSuffix(s, suffix.unit); ok {
			v, ok := number(num)
			return float32(float64(v) * suffix.scale), ok
		}
	}
	if s == "0" {
		return 0, true
	}
	return 0, false
}
