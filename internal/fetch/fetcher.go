package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultUserAgent = "pyq-analyzer/1.0"

// Fetcher retrieves one raw paper document by URL. This is the only true I/O
// boundary of a run; implementations must respect the context.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches papers over HTTP with a per-request timeout.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return raw, nil
}

// URLBuilder expands a year into a paper URL.
type URLBuilder func(year int) string

// TemplateLoader adapts a Fetcher into the per-year loader the paper caches
// consume, building the URL from the configured template.
type TemplateLoader struct {
	fetcher Fetcher
	url     URLBuilder
}

func NewTemplateLoader(fetcher Fetcher, url URLBuilder) *TemplateLoader {
	return &TemplateLoader{fetcher: fetcher, url: url}
}

func (l *TemplateLoader) LoadPaper(ctx context.Context, year int) ([]byte, error) {
	return l.fetcher.Fetch(ctx, l.url(year))
}
