package extract

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// VisionSource reads the whole document semantically and returns a partial
// FieldRecord. An error means the source produced nothing usable.
type VisionSource interface {
	ExtractFields(ctx context.Context, imagePath string) (FieldRecord, error)
}

// TextSource returns the raw multi-script text recognized on the image.
type TextSource interface {
	RecognizeText(ctx context.Context, imagePath string) (string, error)
}

// Engine reconciles the two extraction sources plus the document-type
// specific decoders into one best-effort FieldRecord. It never fails:
// every failure mode degrades to fewer populated fields.
//
// Trust order is {MRZ > vision > label-scan > generic fallback} for
// passports and {vision > label-scan > generic fallback} for ID cards.
// A fixed, position-encoded MRZ is more reliable than the model's
// free-form reading; a keyword scan over an unconstrained card layout
// is less reliable than it.
type Engine struct {
	vision    VisionSource // nil when the vision adapter is disabled
	text      TextSource
	countries CountryMap
	logger    *slog.Logger
}

func NewEngine(vision VisionSource, text TextSource, countries CountryMap, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if countries == nil {
		countries = DefaultCountries()
	}
	return &Engine{vision: vision, text: text, countries: countries, logger: logger}
}

// Extract runs both source adapters against the image and merges their
// output. The adapters are independent and dominate total latency, so they
// run concurrently; the merge itself is strictly sequential and
// order-dependent.
func (e *Engine) Extract(ctx context.Context, imagePath string) FieldRecord {
	start := time.Now()

	var (
		visionRec FieldRecord
		visionErr error
		rawText   string
		textErr   error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if e.vision == nil {
			visionErr = errVisionDisabled
			return nil
		}
		visionRec, visionErr = e.vision.ExtractFields(gctx, imagePath)
		return nil
	})
	g.Go(func() error {
		rawText, textErr = e.text.RecognizeText(gctx, imagePath)
		return nil
	})
	_ = g.Wait()

	var out FieldRecord

	// Vision output is the highest-trust source at this point; later the
	// MRZ decoder may override it for passports.
	if visionErr != nil {
		e.logger.Warn("extract.vision.unavailable", "path", imagePath, "error", visionErr)
	} else {
		out.Overwrite(visionRec)
	}

	if textErr != nil {
		e.logger.Warn("extract.ocr.unavailable", "path", imagePath, "error", textErr)
		return out
	}

	lines := NormalizeLines(rawText)
	docType := Classify(lines)

	switch docType {
	case DocPassport:
		out.Overwrite(ParseMRZ(lines, time.Now()))
	case DocNationalID:
		out.FillEmpty(ParseIDCard(lines, e.countries))
	}

	// Generic fallbacks fill remaining gaps; they never overwrite.
	if out.BirthDate == "" {
		out.BirthDate = ExtractDate(lines)
	}
	if out.Sex == "" {
		out.Sex = ExtractSex(lines)
	}
	if out.Surname == "" || out.GivenName == "" {
		surname, givenName := ExtractNames(lines)
		if out.Surname == "" {
			out.Surname = surname
		}
		if out.GivenName == "" {
			out.GivenName = givenName
		}
	}
	if out.Country == "" || out.City == "" {
		country, city := ExtractCountryCity(lines, e.countries)
		if out.Country == "" {
			out.Country = country
		}
		if out.City == "" {
			out.City = city
		}
	}

	e.logger.Info("extract.merged",
		"path", imagePath,
		"doc_type", string(docType),
		"vision_ok", visionErr == nil,
		"ocr_lines", len(lines),
		"fields", out.Populated(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

type engineError string

func (e engineError) Error() string { return string(e) }

const errVisionDisabled = engineError("vision adapter disabled")
