package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

var foldDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeName lowercases name, folds diacritics ("Družina" -> "druzina")
// and collapses whitespace to single spaces so that names typed on the
// command line compare equal to names rendered by the portal.
func NormalizeName(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err == nil {
		name = folded
	}
	name = strings.ToLower(name)
	name = strings.TrimSpace(name)
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}
