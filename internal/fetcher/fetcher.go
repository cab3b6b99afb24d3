package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/metrics"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/util"
)

const (
	UserAgent = "ToolScoutAI/0.1 (+https://example.com; bot) Mozilla/5.0"
	accept    = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 5 << 20
	// SnippetLimit bounds the page text handed to the LLM.
	SnippetLimit = 20000
)

var urlPattern = regexp.MustCompile(`(?i)^https?://`)

// Page is the cleaned result of a fetch.
type Page struct {
	URL         string
	Title       string
	Text        string
	Status      int
	ContentType string
}

// Fetcher downloads a page in a single attempt and reduces it to plain text.
type Fetcher struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
}

func New(client *http.Client, timeout time.Duration, maxBytes int64) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{Client: client, Timeout: timeout, MaxBytes: maxBytes}
}

// ValidateURL accepts only http and https URLs.
func ValidateURL(raw string) error {
	if raw == "" || !urlPattern.MatchString(raw) {
		return ErrInvalidURL
	}
	return nil
}

// Snippet truncates page text to the prefix sent downstream.
func Snippet(text string) string {
	return util.Truncate(text, SnippetLimit)
}

// Fetch GETs rawURL, following redirects, and returns its title and text.
// The whole exchange, body included, is bounded by f.Timeout.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if err := ValidateURL(rawURL); err != nil {
		return Page{}, err
	}
	start := time.Now()
	page, err := f.fetch(ctx, rawURL)
	metrics.ObserveFetch(time.Since(start), err)
	fields := map[string]any{
		"url":         rawURL,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("fetch.failed", fields)
		return Page{}, err
	}
	fields["status"] = page.Status
	fields["text_len"] = len(page.Text)
	telemetry.Info("fetch.complete", fields)
	return page, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.Client.Do(req)
	if err != nil {
		return Page{}, classify(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes))
	if err != nil {
		return Page{}, classify(ctx, err)
	}

	page := Page{
		URL:         resp.Request.URL.String(),
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if isPDF(page.ContentType) {
		text, err := extractPDF(data)
		if err != nil {
			return Page{}, fmt.Errorf("%w: pdf: %v", ErrFetch, err)
		}
		page.Text = text
		return page, nil
	}
	page.Title, page.Text = CleanHTML(string(data))
	return page, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrFetch, err)
}
