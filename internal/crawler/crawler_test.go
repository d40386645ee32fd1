package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seoaudit/internal/config"
	"seoaudit/internal/fetcher"
	"seoaudit/internal/urlutil"
	"seoaudit/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuditConfig(maxPages int) config.AuditConfig {
	cfg := config.Default().Audit
	cfg.MaxPages = maxPages
	cfg.Concurrency = 4
	cfg.HostRatePerSec = 1000 // keep tests fast
	return cfg
}

func testFetcher(cfg config.AuditConfig) *fetcher.Fetcher {
	return fetcher.New(fetcher.Options{
		UserAgent:      cfg.UserAgent,
		ConnectTimeout: 2 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		MaxRedirects:   cfg.MaxRedirects,
	})
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	page := func(title, links string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, "<html><head><title>%s</title></head><body>%s</body></html>", title, links)
		}
	}

	mux.HandleFunc("/{$}", page("Home", `<a href="/a">a</a> <a href="/b">b</a> <a href="/a#frag">a again</a> <a href="https://external.test/x">ext</a>`))
	mux.HandleFunc("/a", page("A", `<a href="/">home</a> <a href="/plain.txt">txt</a>`))
	mux.HandleFunc("/b", page("B", `<a href="/a">a</a>`))
	mux.HandleFunc("/plain.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, `see <a href="/never">never</a>`)
	})
	return srv
}

func crawlSite(t *testing.T, srv *httptest.Server, maxPages int) []*types.CrawlRecord {
	t.Helper()
	cfg := testAuditConfig(maxPages)
	homepage, err := urlutil.Canonicalize(srv.URL + "/")
	if err != nil {
		t.Fatalf("canonicalize seed: %v", err)
	}
	engine := NewEngine(cfg, testFetcher(cfg), nil, urlutil.Host(homepage), testLogger())
	records, err := engine.Crawl(context.Background(), []string{homepage})
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	return records
}

func TestCrawlDiscoversInternalLinks(t *testing.T) {
	srv := newTestSite(t)
	records := crawlSite(t, srv, 100)

	byURL := map[string]*types.CrawlRecord{}
	for _, rec := range records {
		if _, dup := byURL[rec.URL]; dup {
			t.Errorf("duplicate record for %s", rec.URL)
		}
		byURL[rec.URL] = rec
	}

	for _, path := range []string{"/", "/a", "/b", "/plain.txt"} {
		canonical, _ := urlutil.Canonicalize(srv.URL + path)
		if _, ok := byURL[canonical]; !ok {
			t.Errorf("missing record for %s", canonical)
		}
	}
	if len(records) != 4 {
		t.Errorf("record count = %d, want 4 (external links not followed)", len(records))
	}

	plain, _ := urlutil.Canonicalize(srv.URL + "/plain.txt")
	if byURL[plain].Facts != nil {
		t.Error("non-HTML record must have no facts")
	}
	never, _ := urlutil.Canonicalize(srv.URL + "/never")
	if _, ok := byURL[never]; ok {
		t.Error("links inside non-HTML bodies must not be followed")
	}
}

func TestCrawlHonorsPageBudget(t *testing.T) {
	srv := newTestSite(t)
	records := crawlSite(t, srv, 2)
	if len(records) > 2 {
		t.Errorf("record count = %d, want <= 2", len(records))
	}
}

func TestCrawlRecordsFailures(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/missing">gone</a></body></html>`)
	})

	records := crawlSite(t, srv, 10)
	var missing *types.CrawlRecord
	for _, rec := range records {
		if rec.Fetch.StatusCode == 404 {
			missing = rec
		}
	}
	if missing == nil {
		t.Fatal("404 target must still be recorded")
	}
}

func TestCrawlStopsOnCancelledContext(t *testing.T) {
	srv := newTestSite(t)
	cfg := testAuditConfig(100)
	homepage, _ := urlutil.Canonicalize(srv.URL + "/")
	engine := NewEngine(cfg, testFetcher(cfg), nil, urlutil.Host(homepage), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		records, err := engine.Crawl(ctx, []string{homepage})
		if err != nil {
			t.Errorf("crawl: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("records = %d, want none after pre-cancelled context", len(records))
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("crawl did not return after cancellation")
	}
}

func TestSeeds(t *testing.T) {
	sitemapURLs := map[string]struct{}{
		"https://site.test/a/":         {},
		"https://site.test/b":          {},
		"https://elsewhere.test/other": {},
		"not a url":                    {},
	}
	seeds := Seeds("https://site.test/", "site.test", sitemapURLs)

	if seeds[0] != "https://site.test/" {
		t.Errorf("homepage must seed first, got %q", seeds[0])
	}
	if len(seeds) != 3 {
		t.Errorf("seeds = %v, want homepage + 2 same-host sitemap urls", seeds)
	}
	for _, seed := range seeds {
		if urlutil.Host(seed) != "site.test" {
			t.Errorf("foreign-host seed %q", seed)
		}
	}
}
