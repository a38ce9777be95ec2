package extract

import "strings"

// NormalizeLines turns raw OCR output into an ordered sequence of trimmed,
// non-empty lines. CRLF and lone CR line endings are accepted. Never fails;
// whitespace-only input yields an empty slice.
func NormalizeLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
