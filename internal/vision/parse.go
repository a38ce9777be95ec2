package vision

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mbshop/MIM-egistration-2027/internal/extract"
)

var (
	reISODate = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	reDMYDate = regexp.MustCompile(`(\d{2})[/\-.](\d{2})[/\-.](\d{4})`)
)

// ParseResponse maps the model's free-form reply onto a FieldRecord.
// The reply is rarely bare JSON: it gets carved down to the first
// balanced-looking object, sanitized (non-string values and unknown keys
// dropped), schema-validated, and the birth_date and sex slots are
// re-validated field by field. Any failure along the way yields an empty
// record and an error, never a partial guess.
func ParseResponse(text string) (extract.FieldRecord, error) {
	carved, err := carveJSON(text)
	if err != nil {
		return extract.FieldRecord{}, err
	}

	cleaned, dropped, err := sanitizeFields(carved)
	if err != nil {
		return extract.FieldRecord{}, err
	}
	if len(dropped) > 0 {
		slog.Debug("vision.sanitize.dropped", "keys", strings.Join(dropped, ","))
	}

	if err := validateFields(cleaned); err != nil {
		return extract.FieldRecord{}, err
	}

	var rec extract.FieldRecord
	if err := json.Unmarshal(cleaned, &rec); err != nil {
		return extract.FieldRecord{}, fmt.Errorf("vision: unmarshal fields: %w", err)
	}

	rec.BirthDate = normalizeBirthDate(rec.BirthDate)
	rec.Sex = normalizeSex(rec.Sex)
	return rec, nil
}

// carveJSON isolates the first balanced-looking JSON object substring from
// a reply that may be wrapped in prose or markdown fences.
func carveJSON(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("vision: empty response text")
	}
	if text[0] != '{' && text[0] != '[' {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end == -1 || end <= start {
			return nil, fmt.Errorf("vision: no JSON object in response")
		}
		text = text[start : end+1]
	}
	return []byte(text), nil
}

var fieldKeys = map[string]struct{}{
	"surname": {}, "given_name": {}, "birth_date": {}, "sex": {},
	"country": {}, "city": {}, "document_number": {},
}

// sanitizeFields drops unknown keys and non-string values and trims the
// rest, so the strict schema still validates replies where the model got
// creative with types or extras.
func sanitizeFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, fmt.Errorf("vision: decode json: %w", err)
	}

	var dropped []string
	out := make(map[string]string, len(fieldKeys))
	for k, v := range m {
		if _, ok := fieldKeys[k]; !ok {
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		s, ok := v.(string)
		if !ok {
			dropped = append(dropped, k+"(type)")
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, dropped, err
	}
	return b, dropped, nil
}

// normalizeBirthDate re-validates a model-supplied date: canonical
// YYYY-MM-DD is kept, a DD/MM/YYYY-like form is converted, anything else
// is discarded to empty.
func normalizeBirthDate(s string) string {
	if s == "" {
		return ""
	}
	if m := reISODate.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}
	if m := reDMYDate.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1])
	}
	return ""
}

// normalizeSex reduces a model-supplied value to its first rune,
// uppercased, accepting only M or F.
func normalizeSex(s string) string {
	if s == "" {
		return ""
	}
	first := strings.ToUpper(string([]rune(s)[0]))
	if first != "M" && first != "F" {
		return ""
	}
	return first
}
