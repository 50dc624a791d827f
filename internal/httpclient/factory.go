package httpclient

import (
	"time"

	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/rs/zerolog"
)

// HTTPClientFactory provides methods to create common HTTP client configurations
type HTTPClientFactory struct {
	logger zerolog.Logger
}

// NewHTTPClientFactory creates a new HTTP client factory
func NewHTTPClientFactory(logger zerolog.Logger) *HTTPClientFactory {
	return &HTTPClientFactory{logger: logger.With().Str("component", "HTTPClientFactory").Logger()}
}

// CreateMonitorClient creates the client used by the timestamp fetcher.
// The per-fetch deadline is applied by the caller's context, so the client
// timeout is only a backstop.
func (f *HTTPClientFactory) CreateMonitorClient(cfg config.MonitorConfig) (*HTTPClient, error) {
	return NewHTTPClientBuilder(f.logger).
		WithTimeout(cfg.FetchTimeout()).
		WithInsecureSkipVerify(cfg.InsecureSkipVerify).
		WithUserAgent(cfg.UserAgent).
		WithProxy(cfg.Proxy).
		WithFollowRedirects(true).
		WithMaxRedirects(5).
		WithCustomHeader("Cache-Control", "no-cache").
		WithHTTP2(true).
		Build()
}

// CreateNotifierClient creates an HTTP client for webhook and bot API calls
func (f *HTTPClientFactory) CreateNotifierClient(timeout time.Duration) (*HTTPClient, error) {
	return NewHTTPClientBuilder(f.logger).
		WithTimeout(timeout).
		WithFollowRedirects(true).
		WithMaxRedirects(3).
		WithHTTP2(true).
		Build()
}
