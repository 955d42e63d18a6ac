// Package ocr talks to the OCR provider and normalizes its overlay output
// into flat text+box fragments.
//
// The provider multiplexes success and failure onto one always-200 response:
// an exit code of 1 means success, anything else folds bad credentials,
// quota exhaustion, and parse failures into a single signal. The client
// therefore returns the decoded response as data and leaves classification
// to Outcome(); only transport and HTTP-level failures surface as errors.
package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hangana/toonvocab/archive"
)

var (
	// ErrUnsupportedFormat is returned when the buffer is not a recognizable image.
	ErrUnsupportedFormat = errors.New("ocr: unsupported image format")
	// ErrBadStatus is returned on a non-200 HTTP response.
	ErrBadStatus = errors.New("ocr: unexpected HTTP status")
)

// Config configures the OCR client.
type Config struct {
	Endpoint string        // default https://api.ocr.space/parse/image
	APIKey   string        // provider API key, sent as a header
	Language string        // ISO 639-2 code (default "kor")
	Engine   int           // provider engine, 1 or 2 (default 2, better with CJK)
	NoScale  bool          // disable provider-side upscaling (on by default)
	Timeout  time.Duration // per-call HTTP timeout (default 60s)
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Endpoint == "" {
		c.Endpoint = "https://api.ocr.space/parse/image"
	}
	if c.Language == "" {
		c.Language = "kor"
	}
	if c.Engine != 1 && c.Engine != 2 {
		c.Engine = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client performs recognition calls.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: cfg.Logger,
	}
}

// Recognize submits one image buffer and returns the decoded provider
// response. The image format is detected from magic bytes, never from
// caller-supplied metadata. Overlay output (per-word geometry) is always
// requested. Transport failures propagate unmodified; an application-level
// failure exit code is returned as data inside the Response.
func (c *Client) Recognize(ctx context.Context, imageData []byte) (*Response, error) {
	format := archive.Sniff(imageData)
	if format == archive.FormatUnknown {
		return nil, ErrUnsupportedFormat
	}

	dataURI := "data:" + format.MimeType() + ";base64," +
		base64.StdEncoding.EncodeToString(imageData)

	form := url.Values{}
	form.Set("base64Image", dataURI)
	form.Set("language", c.cfg.Language)
	form.Set("OCREngine", strconv.Itoa(c.cfg.Engine))
	form.Set("scale", strconv.FormatBool(!c.cfg.NoScale))
	form.Set("isOverlayRequired", "true")
	form.Set("filetype", providerFiletype(format))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP POST %s: %w", c.cfg.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d from %s: %s",
			ErrBadStatus, resp.StatusCode, c.cfg.Endpoint, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ocr: decode response: %w", err)
	}

	c.logger.Debug("ocr call complete",
		"exit_code", out.OCRExitCode,
		"parsed_results", len(out.ParsedResults),
		"bytes", len(imageData))
	return &out, nil
}

// providerFiletype maps a sniffed format to the provider's filetype token.
func providerFiletype(f archive.Format) string {
	switch f {
	case archive.FormatPNG:
		return "PNG"
	case archive.FormatJPEG:
		return "JPG"
	case archive.FormatWEBP:
		return "WEBP"
	default:
		return ""
	}
}
