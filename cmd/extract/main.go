package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mbshop/MIM-egistration-2027/internal/common"
	"github.com/mbshop/MIM-egistration-2027/internal/extract"
	"github.com/mbshop/MIM-egistration-2027/internal/ocr"
	"github.com/mbshop/MIM-egistration-2027/internal/vision"
)

// extract runs the reconciliation pipeline against a single image and
// prints the resulting record as JSON. Useful for tuning prompts and
// tesseract language packs without the full server.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "extract <image-path>")
		os.Exit(2)
	}
	imagePath := os.Args[1]
	if _, err := os.Stat(imagePath); err != nil {
		logger.Error("cannot read image", "path", imagePath, "error", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	recognizer := ocr.NewRecognizer(ocr.Config{
		Tesseract:   cfg.OCR.Tesseract,
		Languages:   cfg.OCR.Languages,
		TessdataDir: cfg.OCR.TessdataDir,
	}, logger)

	var visionSource extract.VisionSource
	visionClient := vision.NewClient(vision.Config{
		APIKey:  cfg.Vision.APIKey,
		BaseURL: cfg.Vision.BaseURL,
		Model:   cfg.Vision.Model,
		Timeout: cfg.Vision.Timeout,
	}, logger)
	if visionClient.Enabled() {
		visionSource = visionClient
	} else {
		logger.Warn("vision adapter disabled, no API key configured")
	}

	engine := extract.NewEngine(visionSource, recognizer, extract.DefaultCountries(), logger)
	rec := engine.Extract(ctx, imagePath)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		logger.Error("encode record", "error", err)
		os.Exit(1)
	}
}
