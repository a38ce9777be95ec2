package extract

import (
	"regexp"
	"strings"
)

// CountryMap maps uppercase localized country spellings (French and
// English) to canonical English names. Read-only after construction;
// unmapped input yields "", never a guess.
type CountryMap map[string]string

// DefaultCountries covers the countries the documents we handle actually
// come from.
func DefaultCountries() CountryMap {
	return CountryMap{
		"MAROC":   "Morocco",
		"MOROCCO": "Morocco",
		"FRANCE":  "France",
		"TUNISIE": "Tunisia",
		"TUNISIA": "Tunisia",
		"ALGERIE": "Algeria",
		"ALGÉRIE": "Algeria",
		"ALGERIA": "Algeria",
	}
}

// Canonical resolves a localized spelling to its canonical English name.
func (m CountryMap) Canonical(value string) string {
	return m[strings.ToUpper(strings.TrimSpace(value))]
}

var reCountryToken = regexp.MustCompile(`(?i)\b(MAROC|MOROCCO|FRANCE|TUNISIE|TUNISIA|ALGERIE|ALGERIA)\b`)

// MatchLine finds the first recognized country token in a line and returns
// its canonical name, or "" when the line names no known country.
func (m CountryMap) MatchLine(line string) string {
	match := reCountryToken.FindStringSubmatch(line)
	if match == nil {
		return ""
	}
	return m.Canonical(match[1])
}
