package filedepot

import (
	"path"
	"strings"
	"unicode/utf8"
)

// IsValidPath validates that a path string meets the requirements for a
// virtual object path. It checks that the path:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/" (directory markers are handled by the locator)
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8
//   - does not contain "." segments (/., /./, or ending with /.)
//   - does not contain null bytes, control characters (< 0x20), or DEL (0x7f)
//
// Returns true if the path is valid, false otherwise.
func IsValidPath(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' {
		return false
	}

	if strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") {
		return false
	}

	if strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if p == "/." || strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	for _, r := range p {
		if r == 0 || r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}

// BaseName returns the final segment of a virtual path.
func BaseName(p string) string {
	return path.Base(p)
}

// ExtensionOf returns the extension of the path's final segment without the
// leading dot, or "" when the segment has none.
func ExtensionOf(p string) string {
	ext := path.Ext(path.Base(p))
	return strings.TrimPrefix(ext, ".")
}

// translitTable maps Cyrillic letters to ASCII transliterations for
// display-safe download filenames. Presentation only; stored names keep
// their original spelling.
var translitTable = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "i", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	'А': "A", 'Б': "B", 'В': "V", 'Г': "G", 'Д': "D", 'Е': "E", 'Ё': "E",
	'Ж': "Zh", 'З': "Z", 'И': "I", 'Й': "I", 'К': "K", 'Л': "L", 'М': "M",
	'Н': "N", 'О': "O", 'П': "P", 'Р': "R", 'С': "S", 'Т': "T", 'У': "U",
	'Ф': "F", 'Х': "H", 'Ц': "C", 'Ч': "Ch", 'Ш': "Sh", 'Щ': "Sch",
	'Ъ': "", 'Ы': "Y", 'Ь': "", 'Э': "E", 'Ю': "Yu", 'Я': "Ya",
}

// SafeFilename transliterates a display name into a form safe for an HTTP
// Content-Disposition filename: Cyrillic letters map to ASCII, quotes and
// control characters are dropped, other non-ASCII runes become "_".
func SafeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f || r == '"':
			// dropped
		case r < 0x80:
			b.WriteRune(r)
		default:
			if t, ok := translitTable[r]; ok {
				b.WriteString(t)
			} else {
				b.WriteByte('_')
			}
		}
	}

	return b.String()
}
