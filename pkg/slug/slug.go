// Package slug turns display names into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that carry no combining mark under NFD and need an explicit ASCII
// spelling.
var folded = strings.NewReplacer("ı", "i", "ø", "o", "ß", "ss", "æ", "ae", "đ", "d", "ł", "l")

// Generate creates a lowercase, hyphen-separated slug from name. Accented
// letters are reduced to their base letter.
//
// Examples:
//   - "Home & Garden" → "home-garden"
//   - "Café Crème" → "cafe-creme"
//   - "Çocuk Ürünleri" → "cocuk-urunleri"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = folded.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
