package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFetcherSetsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("paper body"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, "exam-bot/2.0")
	raw, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(raw) != "paper body" {
		t.Fatalf("unexpected body: %q", raw)
	}
	if gotUA != "exam-bot/2.0" {
		t.Fatalf("unexpected user agent: %q", gotUA)
	}
}

func TestHTTPFetcherDefaultUserAgent(t *testing.T) {
	fetcher := NewHTTPFetcher(5*time.Second, "")
	if fetcher.userAgent != defaultUserAgent {
		t.Fatalf("expected default user agent, got %q", fetcher.userAgent)
	}
}

func TestHTTPFetcherRejectsNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, "")
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestTemplateLoaderBuildsURLFromYear(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("ok body here"))
	}))
	defer server.Close()

	loader := NewTemplateLoader(NewHTTPFetcher(5*time.Second, ""), func(year int) string {
		return server.URL + "/papers/2020.txt"
	})
	if _, err := loader.LoadPaper(context.Background(), 2020); err != nil {
		t.Fatalf("load: %v", err)
	}
	if gotPath != "/papers/2020.txt" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
}
