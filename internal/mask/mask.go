// Package mask redacts personal strings for display.
package mask

import "strings"

// String masks s by character count. Inputs shorter than 4 characters are
// fully starred; longer inputs keep a short prefix and suffix around a
// fixed "****" so the output does not reveal the input length.
func String(s string) string {
	r := []rune(s)
	n := len(r)
	if n < 4 {
		return strings.Repeat("*", n)
	}
	prefix := 1
	if n >= 10 {
		prefix = 2
	}
	suffix := 1
	if n > 5 {
		suffix = 2
	}
	return string(r[:prefix]) + "****" + string(r[n-suffix:])
}
