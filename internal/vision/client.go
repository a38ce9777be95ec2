package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mbshop/MIM-egistration-2027/internal/extract"
)

const prompt = "You are an OCR extraction engine for Moroccan national ID cards and passports, " +
	"and similar French/Arabic identity documents. Detect automatically if the document is a " +
	"national ID card or a passport. Read the image and extract exactly these fields in JSON " +
	"with keys: surname, given_name, birth_date, sex, country, city, document_number. " +
	"birth_date must be in format YYYY-MM-DD. sex must be \"M\" or \"F\" or empty string. " +
	"country must be the country name in English. city is the city of birth or residence. " +
	"document_number is the national ID card number (CIN) or passport number. " +
	"Return only pure JSON, no explanation."

// Config for the Gemini vision client.
type Config struct {
	APIKey  string        // if empty, falls back to env GEMINI_API_KEY
	BaseURL string        // default https://generativelanguage.googleapis.com/v1beta
	Model   string        // e.g. "gemini-3-flash-preview"
	Timeout time.Duration // http client timeout
}

// Client is the vision-AI source adapter. It performs whole-document
// semantic reading through the Gemini generateContent API and maps the
// response into a FieldRecord. Every failure mode surfaces as an error the
// reconciliation engine absorbs into an empty record.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-3-flash-preview"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Enabled reports whether an API key is configured. A disabled client is
// functionally identical to a failed one.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// ExtractFields sends the image to the model and parses the returned text
// into a FieldRecord.
func (c *Client) ExtractFields(ctx context.Context, imagePath string) (extract.FieldRecord, error) {
	rid := uuid.New().String()
	start := time.Now()

	if !c.Enabled() {
		return extract.FieldRecord{}, fmt.Errorf("vision: no API key configured")
	}

	img, err := os.ReadFile(imagePath)
	if err != nil {
		return extract.FieldRecord{}, fmt.Errorf("vision: read image: %w", err)
	}

	body := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": prompt},
					{"inline_data": map[string]any{
						"mime_type": "image/jpeg",
						"data":      base64.StdEncoding.EncodeToString(img),
					}},
				},
			},
		},
	}

	c.logger.Info("vision.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"image_bytes", len(img),
	)

	endpoint := c.cfg.BaseURL + "/models/" + url.PathEscape(c.cfg.Model) +
		":generateContent?key=" + url.QueryEscape(c.cfg.APIKey)
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("vision.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.FieldRecord{}, err
	}

	var gr struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gr); err != nil {
		c.logger.Error("vision.extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return extract.FieldRecord{}, fmt.Errorf("vision: decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		c.logger.Error("vision.extract.no_candidates", "req_id", rid, "raw_bytes", len(raw))
		return extract.FieldRecord{}, fmt.Errorf("vision: no candidates in response")
	}

	rec, err := ParseResponse(gr.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		c.logger.Error("vision.extract.parse_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.FieldRecord{}, err
	}

	c.logger.Info("vision.extract.ok",
		"req_id", rid,
		"fields", rec.Populated(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

func (c *Client) post(ctx context.Context, endpoint string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision http error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("vision response body close error", "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vision status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
