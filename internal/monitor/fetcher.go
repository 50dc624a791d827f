package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/aleister1102/sitewatch/internal/httpclient"
	"github.com/aleister1102/sitewatch/internal/models"
	"github.com/rs/zerolog"
)

const defaultMaxBodyBytes = 2 << 20

// metaTimeLayouts are tried in order when reading a last-modified meta tag
var metaTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// TimestampFetcher reads the server-reported modification time of a URL.
// Every failure is returned as *common.FetchError.
type TimestampFetcher interface {
	Fetch(ctx context.Context, url string) (models.Timestamp, error)
}

// HTTPTimestampFetcher fetches the Last-Modified header with a plain GET.
type HTTPTimestampFetcher struct {
	client       *httpclient.HTTPClient
	timeout      time.Duration
	metaFallback bool
	maxBodyBytes int64
	logger       zerolog.Logger
}

// NewHTTPTimestampFetcher creates a fetcher using client and the limits in cfg
func NewHTTPTimestampFetcher(client *httpclient.HTTPClient, cfg config.MonitorConfig, logger zerolog.Logger) *HTTPTimestampFetcher {
	return &HTTPTimestampFetcher{
		client:       client,
		timeout:      cfg.FetchTimeout(),
		metaFallback: cfg.HTMLMetaFallback,
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       logger.With().Str("component", "Fetcher").Logger(),
	}
}

// Fetch performs one GET of url bounded by the configured timeout.
// It never panics; a panic in the transport is reported as a FetchError.
func (f *HTTPTimestampFetcher) Fetch(ctx context.Context, url string) (ts models.Timestamp, err error) {
	defer func() {
		if r := recover(); r != nil {
			ts = models.UnsetTimestamp
			err = common.NewFetchError(url, "unexpected failure", fmt.Errorf("panic: %v", r))
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return models.UnsetTimestamp, common.NewFetchError(url, "invalid request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return models.UnsetTimestamp, common.NewFetchError(url, "request timed out",
				fmt.Errorf("%w: no response within %s", common.ErrTimeout, f.timeout))
		}
		return models.UnsetTimestamp, common.NewFetchError(url, "request failed", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodyBytes))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fetchErr := common.NewFetchError(url, "unexpected status", nil)
		fetchErr.StatusCode = resp.StatusCode
		return models.UnsetTimestamp, fetchErr
	}

	if header := resp.Header.Get("Last-Modified"); header != "" {
		parsed, parseErr := http.ParseTime(header)
		if parseErr != nil {
			return models.UnsetTimestamp, common.NewFetchError(url, fmt.Sprintf("invalid Last-Modified header %q", header), parseErr)
		}
		return models.NewTimestamp(parsed), nil
	}

	if f.metaFallback && isHTML(resp.Header.Get("Content-Type")) {
		if parsed, ok := f.timestampFromMeta(io.LimitReader(resp.Body, f.maxBodyBytes)); ok {
			f.logger.Debug().Str("url", url).Time("last_modified", parsed).Msg("Using last-modified meta tag")
			return models.NewTimestamp(parsed), nil
		}
	}

	return models.UnsetTimestamp, common.NewFetchError(url, "no modification time reported", common.ErrMissingLastModified)
}

func isHTML(contentType string) bool {
	return contentType == "" || strings.Contains(strings.ToLower(contentType), "html")
}

// timestampFromMeta looks for <meta http-equiv="last-modified"> or <meta name="last-modified">
func (f *HTTPTimestampFetcher) timestampFromMeta(body io.Reader) (time.Time, bool) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		f.logger.Debug().Err(err).Msg("Failed to parse HTML body")
		return time.Time{}, false
	}

	var found time.Time
	doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		key := sel.AttrOr("http-equiv", sel.AttrOr("name", ""))
		if !strings.EqualFold(strings.TrimSpace(key), "last-modified") {
			return true
		}
		content := strings.TrimSpace(sel.AttrOr("content", ""))
		if parsed, ok := parseMetaTime(content); ok {
			found = parsed
			return false
		}
		return true
	})
	return found, !found.IsZero()
}

func parseMetaTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if parsed, err := http.ParseTime(value); err == nil {
		return parsed, true
	}
	for _, layout := range metaTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
