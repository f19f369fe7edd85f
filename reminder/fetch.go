package reminder

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"chequereminder/tracing"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	spreadsheetAccept = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,application/vnd.ms-excel,application/octet-stream,*/*"

	// Share links that fail to resolve tend to come back as tiny HTML
	// stubs; anything at or below this is not a real workbook.
	minSpreadsheetSize = 1000
)

// Fetcher downloads a spreadsheet by trying candidate URLs in order.
type Fetcher struct {
	Client *http.Client
	Delay  time.Duration
}

func NewFetcher() *Fetcher {
	client := &http.Client{Timeout: 60 * time.Second}
	client.Transport = otelhttp.NewTransport(http.DefaultTransport)
	return &Fetcher{Client: client, Delay: 2 * time.Second}
}

// Fetch returns the raw bytes of the first candidate that responds with
// something that looks like a spreadsheet. Network errors on one
// candidate do not abort the loop.
func (f *Fetcher) Fetch(ctx context.Context, candidates []string) ([]byte, error) {
	ctx, span := tracing.NewSpan("reminder.fetch", ctx)
	defer span.End()
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	ferr := &FetchError{Attempts: candidates}
	for i, u := range candidates {
		if i > 0 && f.Delay > 0 {
			time.Sleep(f.Delay)
		}
		log.Debug().Msgf("Attempt %d: downloading %s", i+1, u)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			ferr.LastErr = err
			continue
		}
		req.Header.Set("User-Agent", browserUserAgent)
		req.Header.Set("Accept", spreadsheetAccept)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := f.Client.Do(req)
		if err != nil {
			log.Warn().Err(err).Msgf("Request failed for %s", u)
			ferr.LastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Warn().Err(err).Msgf("Failed to read body from %s", u)
			ferr.LastErr = err
			continue
		}

		ferr.LastStatus = resp.StatusCode
		if resp.StatusCode != http.StatusOK {
			log.Debug().Int("status", resp.StatusCode).Msgf("Rejected %s", u)
			continue
		}
		if ok, reason := looksLikeSpreadsheet(resp.Header.Get("Content-Type"), body); !ok {
			log.Warn().Msgf("Rejected %s: %s", u, reason)
			continue
		}

		log.Info().Msgf("Downloaded spreadsheet (%d bytes) from %s", len(body), u)
		span.SetAttributes(attribute.Int("bytes", len(body)))
		return body, nil
	}

	log.Error().Msgf("All %d candidate URLs failed", len(candidates))
	return nil, ferr
}

func looksLikeSpreadsheet(contentType string, body []byte) (bool, string) {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/html") || bytes.HasPrefix(body, []byte("<!DOCTYPE")) {
		return false, "received HTML instead of a spreadsheet"
	}
	if len(body) <= minSpreadsheetSize {
		return false, "response too small to be a spreadsheet"
	}
	if strings.Contains(ct, "excel") ||
		strings.Contains(ct, "spreadsheet") ||
		strings.Contains(ct, "vnd.openxmlformats") ||
		strings.Contains(ct, "application/octet-stream") ||
		bytes.HasPrefix(body, []byte("PK")) {
		return true, ""
	}
	return false, "content type " + contentType + " does not look like a spreadsheet"
}
