// Package utils provides small shared helpers: theme-name normalization,
// calendar bucketing and report formatting.
package utils

import (
	"strings"
)

// Known spelling variants of market theme names, keyed by lowercase form.
var themeAliases = map[string]string{
	"red ledges real esate":        "Red Ledges Real Estate",
	"victory ranch real esate":     "Victory Ranch Real Estate",
	"deer valley east real esate":  "Deer Valley East Real Estate",
	"park city real esate":         "Park City Real Estate",
	"heber real estate":            "Heber Utah Real Estate",
	"heber ut real estate":         "Heber Utah Real Estate",
	"promontory park city":         "Promontory Park City",
	"promontory":                   "Promontory Park City",
	"ski in ski out home for sale": "Ski In Ski Out Home For Sale",
	"ski-in ski-out homes":         "Ski In Ski Out Home For Sale",
	"kamas utah real estate":       "Kamas Real Estate",
	"glenwild park city":           "Glenwild",
}

// NormalizeTheme trims, collapses internal whitespace and folds known
// misspellings onto their canonical theme name. Unknown names keep their
// original casing.
func NormalizeTheme(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}

	if canonical, ok := themeAliases[strings.ToLower(name)]; ok {
		return canonical
	}

	// Generic "Esate" typo on otherwise unknown themes.
	if strings.HasSuffix(strings.ToLower(name), " real esate") {
		return name[:len(name)-len("Esate")] + "Estate"
	}
	return name
}

// ShortThemeName drops the trailing "Real Estate" used on most themes,
// e.g. "Park City Real Estate" becomes "Park City".
func ShortThemeName(theme string) string {
	theme = NormalizeTheme(theme)
	short := strings.TrimSpace(strings.TrimSuffix(theme, "Real Estate"))
	if short == "" {
		return theme
	}
	return short
}

// ThemeTerms returns the lowercase words of a theme that carry meaning for
// keyword matching (generic words like "real" and "estate" are removed).
func ThemeTerms(theme string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(NormalizeTheme(theme))) {
		if _, skip := genericWords[w]; skip {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

var genericWords = map[string]struct{}{
	"real": {}, "estate": {}, "for": {}, "sale": {}, "home": {}, "homes": {},
	"in": {}, "the": {}, "and": {}, "of": {},
}
