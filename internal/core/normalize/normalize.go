// Package normalize cleans profile text coming from the social graph.
// Display keeps case and accents for rendering; Key folds both for comparisons.
// Pipeline order
// 1 drop ill-formed UTF-8 and non-space control characters
// 2 Unicode NFKC normalization
// 3 remove format characters (zero-width joiners, BOM)
// 4 fold fullwidth forms to ASCII
// 5 collapse whitespace to single spaces and trim
// Key additionally case-folds and strips combining marks
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// transform chains are stateful so each goroutine takes its own from a pool
var (
	displayPool = sync.Pool{New: func() any {
		return transform.Chain(
			runes.ReplaceIllFormed(),
			runes.Remove(runes.Predicate(func(r rune) bool { return unicode.IsControl(r) && !unicode.IsSpace(r) })),
			norm.NFKC,
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	}}
	keyPool = sync.Pool{New: func() any {
		return transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			cases.Fold(),
			norm.NFC,
		)
	}}
)

func run(p *sync.Pool, s string) string {
	tr := p.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	p.Put(tr)
	if err != nil {
		return s
	}
	return out
}

// Display returns s cleaned for rendering
func Display(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(run(&displayPool, s), "\uFFFD", "")), " ")
}

// Key returns the comparison form of s: Display, case folded, without accents
func Key(s string) string {
	if s == "" {
		return ""
	}
	return run(&keyPool, Display(s))
}

// Broad reduces a free-form location ("Austin, Texas, United States") to its
// broadest component in Key form ("united states")
func Broad(location string) string {
	i := strings.LastIndexByte(location, ',')
	return Key(location[i+1:])
}

// SameArea reports whether two locations share a broad area. Either side may
// contain the other, so "USA" matches "Denver, USA" and "Kota Jakarta, Indonesia" matches "indonesia"
func SameArea(a, b string) bool {
	ba, bb := Broad(a), Broad(b)
	if ba == "" || bb == "" {
		return false
	}
	return strings.Contains(ba, bb) || strings.Contains(bb, ba)
}
