package textstat

import (
	"strings"
	"unicode"
)

// Dice returns the Sørensen–Dice coefficient over character bigrams of a and b
// with all whitespace removed. Identical inputs score 1; inputs shorter than two
// characters score 0. Bigram multiplicity is respected, so "aaaa" vs "aa" is 0.5.
func Dice(a, b string) float64 {
	ra := stripSpace(a)
	rb := stripSpace(b)
	if string(ra) == string(rb) {
		return 1
	}
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	type bigram [2]rune
	first := make(map[bigram]int, len(ra))
	for i := 0; i+1 < len(ra); i++ {
		first[bigram{ra[i], ra[i+1]}]++
	}
	intersection := 0
	for i := 0; i+1 < len(rb); i++ {
		key := bigram{rb[i], rb[i+1]}
		if first[key] > 0 {
			first[key]--
			intersection++
		}
	}
	return 2.0 * float64(intersection) / float64(len(ra)+len(rb)-2)
}

func stripSpace(s string) []rune {
	return []rune(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}
