package text

import (
	"sort"
	"unicode"
	"unicode/utf8"
)

// Script is a Unicode script name as used by the unicode package tables.
type Script string

const (
	ScriptCommon    Script = "Common"
	ScriptInherited Script = "Inherited"
	ScriptLatin     Script = "Latin"
)

// Frequently seen scripts are probed first; the rest in name order so the
// lookup is deterministic.
var scriptOrder = func() []string {
	first := []string{"Latin", "Common", "Inherited", "Han", "Arabic", "Hebrew", "Cyrillic", "Greek", "Hiragana", "Katakana", "Hangul", "Devanagari", "Thai"}
	seen := make(map[string]bool, len(first))
	for _, f := range first {
		seen[f] = true
	}
	var rest []string
	for name := range unicode.Scripts {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(first, rest...)
}()

// ScriptOf returns the script property of r.
func ScriptOf(r rune) Script {
	if r < 0x80 {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			return ScriptLatin
		}
		return ScriptCommon
	}
	for _, name := range scriptOrder {
		if unicode.Is(unicode.Scripts[name], r) {
			return Script(name)
		}
	}
	return ScriptCommon
}

// ScriptRun is a maximal range of one resolved script.
type ScriptRun struct {
	Range  ByteRange
	Script Script
}

// ItemizeScripts splits s into script runs. Common and Inherited characters
// join the run they follow, or the first real script when leading.
func ItemizeScripts(s string) []ScriptRun {
	var runs []ScriptRun
	current := ScriptCommon
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		sc := ScriptOf(r)
		if sc != ScriptCommon && sc != ScriptInherited && sc != current {
			if current == ScriptCommon {
				current = sc
			} else {
				runs = append(runs, ScriptRun{Range: ByteRange{Start: start, End: i}, Script: current})
				start = i
				current = sc
			}
		}
		i += size
	}
	if len(s) > 0 {
		if current == ScriptCommon && len(runs) > 0 {
			runs[len(runs)-1].Range.End = len(s)
		} else {
			runs = append(runs, ScriptRun{Range: ByteRange{Start: start, End: len(s)}, Script: current})
		}
	}
	return runs
}
