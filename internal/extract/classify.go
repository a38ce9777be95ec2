package extract

import "strings"

const (
	passportLinePrefix = "P<"
	mrzMinLineLen      = 30
	mrzMinFillerCount  = 5
)

// Classify decides whether a line sequence came from a passport or a
// national ID card. A single line that starts with the passport signature,
// or that is long enough and dense enough in MRZ filler characters,
// classifies the whole document as a passport; nothing else does, so the
// default is national-id.
func Classify(lines []string) DocumentType {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, passportLinePrefix) {
			return DocPassport
		}
		if len(line) >= mrzMinLineLen && strings.Count(line, "<") > mrzMinFillerCount {
			return DocPassport
		}
	}
	return DocNationalID
}
