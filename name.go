package wad

import "strings"

// CoerceName converts name to a valid lump name: upper case, at most eight
// characters, cut at the first character outside A-Z, 0-9 and [ ] - _ \ ^.
// Coercing an already coerced name returns it unchanged.
func CoerceName(name string) string {
	var sb strings.Builder
	for i := 0; i < len(name) && sb.Len() < nameSize; i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if !validNameChar(c) {
			break
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// ValidName reports whether name is already in coerced form.
func ValidName(name string) bool {
	return name != "" && CoerceName(name) == name
}

func validNameChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte(`[]-_\^`, c) >= 0
}

// sameName compares a stored name with an already coerced query.
func sameName(stored, query string) bool {
	return strings.EqualFold(stored, query)
}
