package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// mrzLineLen is the TD3 passport line width. Lines shorter than this are
// rejected outright rather than parsed partially.
const mrzLineLen = 44

// ParseMRZ decodes the two machine-readable-zone lines of a passport into a
// partial FieldRecord. Candidate lines are those containing "<<", with
// spaces stripped. The decoder is all-or-nothing about its preconditions:
// fewer than two candidates, or candidates shorter than 44 characters,
// yield an all-empty record. MRZ check digits are not validated.
//
// now anchors the two-digit birth-year century resolution.
func ParseMRZ(lines []string, now time.Time) FieldRecord {
	var rec FieldRecord

	var mrz []string
	for _, line := range lines {
		if strings.Contains(line, "<<") {
			mrz = append(mrz, strings.ReplaceAll(line, " ", ""))
		}
	}
	if len(mrz) < 2 {
		return rec
	}

	line1, line2 := mrz[0], mrz[1]
	if len(line1) < mrzLineLen || len(line2) < mrzLineLen {
		return rec
	}

	// Line 1: drop document-type + issuing-state prefix, then the name
	// block is SURNAME<<GIVEN<NAMES padded with filler.
	segments := strings.Split(line1[5:], "<<")
	if len(segments) >= 2 {
		rec.Surname = strings.ReplaceAll(segments[0], "<", " ")
		rec.GivenName = strings.ReplaceAll(segments[1], "<", " ")
	}

	// Line 2: fixed character offsets.
	docNumber := strings.ReplaceAll(line2[0:9], "<", "")
	month := atoi(line2[2:4])
	day := atoi(line2[4:6])
	yy := atoi(line2[13:15])
	sex := line2[20:21]

	rec.BirthDate = fmt.Sprintf("%04d-%02d-%02d", resolveBirthYear(yy, now), month, day)
	if docNumber != "" {
		rec.DocumentNumber = docNumber
	}
	if sex == "M" || sex == "F" {
		rec.Sex = sex
	}
	return rec
}

// resolveBirthYear expands a two-digit MRZ year on the assumption that the
// holder was born in the past: a value beyond the current year's last two
// digits belongs to the 1900s, anything else (the boundary value included)
// to the 2000s. No check-digit cross-validation is done.
func resolveBirthYear(yy int, now time.Time) int {
	if yy > now.Year()%100 {
		return 1900 + yy
	}
	return 2000 + yy
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
