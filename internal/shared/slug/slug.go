package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

var fold = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"á", "a", "à", "a", "â", "a", "ä", "a", "é", "e", "è", "e", "ê", "e",
	"í", "i", "ó", "o", "ú", "u", "ñ", "n", "ß", "ss",
)

// FromName builds a URL slug for a product name. Common accented letters are
// folded to ASCII, everything else non-alphanumeric becomes a single dash.
func FromName(s string) string {
	s = fold.Replace(strings.ToLower(strings.TrimSpace(s)))
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "product"
	}
	return s
}
