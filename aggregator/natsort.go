package aggregator

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// natChunk is either a run of digits or a run of anything else.
type natChunk struct {
	text  string
	digit bool
}

// natKey splits s into alternating text and digit runs. The key always starts
// with a text run (possibly empty) so chunks of the same position share a kind.
func natKey(s string, fold cases.Caser) []natChunk {
	var out []natChunk
	var cur strings.Builder
	inDigits := false
	flush := func() {
		t := cur.String()
		if !inDigits {
			t = fold.String(t)
		}
		out = append(out, natChunk{text: t, digit: inDigits})
		cur.Reset()
	}
	for _, r := range s {
		d := r >= '0' && r <= '9'
		if d != inDigits {
			flush()
			inDigits = d
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

// compareDigits compares two digit runs by numeric value without parsing.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func compareNat(a, b []natChunk) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		var c int
		if a[i].digit && b[i].digit {
			c = compareDigits(a[i].text, b[i].text)
		} else {
			c = strings.Compare(a[i].text, b[i].text)
		}
		if c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// NaturalLess orders strings with digit runs compared numerically and text runs
// compared case-insensitively, so "Company 2" sorts before "Company 10".
func NaturalLess(a, b string) bool {
	fold := cases.Fold()
	if c := compareNat(natKey(a, fold), natKey(b, fold)); c != 0 {
		return c < 0
	}
	return a < b
}

// NaturalSort sorts names in place in natural order.
func NaturalSort(names []string) {
	fold := cases.Fold()
	keys := make(map[string][]natChunk, len(names))
	for _, n := range names {
		if _, ok := keys[n]; !ok {
			keys[n] = natKey(n, fold)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		if c := compareNat(keys[names[i]], keys[names[j]]); c != 0 {
			return c < 0
		}
		return names[i] < names[j]
	})
}
