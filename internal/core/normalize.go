package core

// normalize.go canonicalizes header text and resolves cell values by alias.

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader lowercases s, strips accents and drops every character
// that is not a letter or digit. "Tipo de Mídia" becomes "tipodemidia".
// Letters without a decomposition, such as "ß" or "ø", are kept as they are,
// so "Straße" becomes "straße" and never matches "strasse".
// It never fails; input that cannot be transformed is folded rune by rune.
func NormalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Lookup returns the first non-blank value found under any of the aliases.
// Aliases are tried in order; within an alias, columns are scanned left to right.
func (r ParsedRow) Lookup(aliases []string) (CellValue, bool) {
	for _, alias := range aliases {
		want := NormalizeHeader(alias)
		if want == "" {
			continue
		}
		for _, c := range r.Cells {
			if NormalizeHeader(c.Header) != want {
				continue
			}
			if c.Value.IsBlank() {
				continue
			}
			return c.Value, true
		}
	}
	return CellValue{}, false
}

// Resolve looks up a row value under any of the aliases.
func Resolve(row ParsedRow, aliases []string) (CellValue, bool) {
	return row.Lookup(aliases)
}

// lookupText is Lookup returning the trimmed text, or "" when absent.
func (r ParsedRow) lookupText(aliases []string) string {
	v, ok := r.Lookup(aliases)
	if !ok {
		return ""
	}
	return v.String()
}
