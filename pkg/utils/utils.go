package utils

import (
	"path"
	"strings"

	"github.com/gosimple/unidecode"
)

// ObjectKey builds the storage key of an uploaded file: <type>/<id>/<name>.
// The name is sanitized and stripped of any directory part.
func ObjectKey(typeID, id, filename string) string {
	name := SanitizeFilename(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	return path.Join(typeID, id, name)
}

// SanitizeFilename transliterates a filename to printable ASCII. Runes with
// no ASCII transliteration become a hyphen.
func SanitizeFilename(filename string) string {
	var b strings.Builder
	b.Grow(len(filename))

	for _, r := range filename {
		if isPrintableASCII(r) {
			b.WriteRune(r)
			continue
		}
		n := b.Len()
		for _, t := range strings.TrimSpace(unidecode.Unidecode(string(r))) {
			if isPrintableASCII(t) && t != '/' && t != '\\' {
				b.WriteRune(t)
			}
		}
		if b.Len() == n {
			b.WriteByte('-')
		}
	}
	return b.String()
}

func isPrintableASCII(r rune) bool {
	return r >= ' ' && r <= '~'
}
