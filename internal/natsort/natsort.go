// Package natsort orders strings so that embedded digit runs compare as
// numbers ("img2" < "img10") and everything else compares case-insensitively.
package natsort

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Compare returns -1, 0 or 1 depending on whether a sorts before, equal to or
// after b in natural order. Strings that only differ in case or leading zeros
// fall back to a byte comparison so the order stays total.
func Compare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			si, sj := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			if c := compareNumeric(a[si:i], b[sj:j]); c != 0 {
				return c
			}
			continue
		}

		ra, na := utf8.DecodeRuneInString(a[i:])
		rb, nb := utf8.DecodeRuneInString(b[j:])
		if c := cmp.Compare(unicode.ToLower(ra), unicode.ToLower(rb)); c != 0 {
			return c
		}
		i += na
		j += nb
	}

	if c := cmp.Compare(len(a)-i, len(b)-j); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Sort sorts ids in place in natural order.
func Sort(ids []string) {
	slices.SortStableFunc(ids, Compare)
}

// compareNumeric compares two digit runs by value without parsing them, so
// runs longer than an int64 still order correctly.
func compareNumeric(x, y string) int {
	x = strings.TrimLeft(x, "0")
	y = strings.TrimLeft(y, "0")
	if c := cmp.Compare(len(x), len(y)); c != 0 {
		return c
	}
	return strings.Compare(x, y)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
