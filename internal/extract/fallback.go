package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Generic fallback extractors: format-agnostic heuristics over a line
// sequence, each usable on any document type. The reconciliation engine
// invokes them only to fill slots still empty after structured decoding.

var (
	reDayMonthYear = regexp.MustCompile(`(\d{2})[/\-.](\d{2})[/\-.](\d{4})`)
	reYearMonthDay = regexp.MustCompile(`(\d{4})[/\-.](\d{2})[/\-.](\d{2})`)
	reSexToken     = regexp.MustCompile(`(?i)\b([MF])\b`)
)

// ExtractDate returns the first date found in the lines, normalized to
// YYYY-MM-DD. Day-month-year is the more common regional format and is
// tried before year-month-day on each line, which also makes re-parsing a
// canonical YYYY-MM-DD value idempotent.
func ExtractDate(lines []string) string {
	for _, line := range lines {
		if m := reDayMonthYear.FindStringSubmatch(line); m != nil {
			return fmt.Sprintf("%04d-%02d-%02d", atoi(m[3]), atoi(m[2]), atoi(m[1]))
		}
		if m := reYearMonthDay.FindStringSubmatch(line); m != nil {
			return fmt.Sprintf("%04d-%02d-%02d", atoi(m[1]), atoi(m[2]), atoi(m[3]))
		}
	}
	return ""
}

// ExtractSex returns the first standalone M or F token, uppercased.
func ExtractSex(lines []string) string {
	for _, line := range lines {
		if s := matchSexToken(line); s != "" {
			return s
		}
	}
	return ""
}

func matchSexToken(line string) string {
	m := reSexToken.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// ExtractNames scans for NOM/PRENOM labeled lines using the same label
// logic as the ID-card parser, for documents where no structured decoder
// produced a name.
func ExtractNames(lines []string) (surname, givenName string) {
	for _, line := range lines {
		upper := strings.ToUpper(line)
		if surname == "" {
			if v, ok := labelValue(line, upper, "NOM"); ok {
				surname = v
			}
		}
		if givenName == "" {
			if v, ok := labelValue(line, upper, "PRENOM"); ok {
				givenName = v
			}
		}
	}
	return surname, givenName
}

// ExtractCountryCity finds the first line naming a known country and, when
// one was found, walks the lines backward for the first digit-free line as
// the city. City and address lines typically sit near the document footer,
// below the numeric fields, which is what the backward scan exploits.
func ExtractCountryCity(lines []string, countries CountryMap) (country, city string) {
	for _, line := range lines {
		if c := countries.MatchLine(line); c != "" {
			country = c
			break
		}
	}
	if country == "" {
		return "", ""
	}
	for i := len(lines) - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate != "" && !strings.ContainsAny(candidate, "0123456789") {
			city = candidate
			break
		}
	}
	return country, city
}
