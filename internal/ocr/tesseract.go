package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Languages   string // tesseract language packs, default "fra+ara+eng"
	TessdataDir string // optional --tessdata-dir override
}

// Recognizer is the glyph-OCR source adapter: it shells out to tesseract
// and hands back whatever multi-script text it recognized. Identity
// documents carry French, Arabic and English text, hence the default
// language stack.
type Recognizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewRecognizer(cfg Config, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "fra+ara+eng"
	}
	return &Recognizer{cfg: cfg, runner: execRunner{}, logger: logger}
}

// RecognizeText runs tesseract on the image at path. A non-zero exit or an
// output with no recognizable text is an error; the caller decides how to
// degrade.
func (r *Recognizer) RecognizeText(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", r.cfg.Languages}
	if r.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", r.cfg.TessdataDir)
	}

	out, errb, err := r.runner.Run(ctx, r.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}

	text := string(out)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("tesseract: no text recognized in %s", path)
	}

	r.logger.Debug("ocr.recognized", "path", path, "bytes", len(text), "lang", r.cfg.Languages)
	return text, nil
}
