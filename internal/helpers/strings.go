package helpers

import "unicode/utf8"

// String returns the dereferenced value of the input pointer if it's not nil, otherwise, it returns an empty string.
func String(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Truncate shortens s to at most n bytes, appending "..." if truncation occurs. It never splits a rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return cut(s, n)
	}
	return cut(s, n-3) + "..."
}

func cut(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
