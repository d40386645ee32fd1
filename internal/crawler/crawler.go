// Package crawler coordinates bounded, polite site discovery: it seeds from
// the homepage and sitemap URLs, follows internal links, and emits one
// CrawlRecord per distinct canonical URL.
package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"seoaudit/internal/config"
	"seoaudit/internal/fetcher"
	"seoaudit/internal/parser"
	"seoaudit/internal/robots"
	"seoaudit/internal/urlutil"
	"seoaudit/pkg/types"
)

// Engine drives one crawl. It is single-use: construct, Crawl, discard.
type Engine struct {
	cfg     config.AuditConfig
	fetcher *fetcher.Fetcher
	limiter *HostLimiter
	robots  *robots.Result
	logger  *slog.Logger

	baseHost string

	mu      sync.Mutex
	seen    map[string]struct{}
	records []*types.CrawlRecord

	pool *workerPool
	wg   sync.WaitGroup
}

// NewEngine builds a crawl engine for one site.
func NewEngine(cfg config.AuditConfig, f *fetcher.Fetcher, robotsResult *robots.Result, baseHost string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := NewHostLimiter(cfg.HostRatePerSec, 0)
	if cfg.RespectRobots && robotsResult != nil {
		limiter = NewHostLimiter(cfg.HostRatePerSec, robotsResult.CrawlDelay)
	}
	return &Engine{
		cfg:      cfg,
		fetcher:  f,
		limiter:  limiter,
		robots:   robotsResult,
		logger:   logger,
		baseHost: baseHost,
		seen:     make(map[string]struct{}),
	}
}

// Crawl processes the seed URLs and every same-host link reachable from
// them, up to the page budget. Record order is not deterministic; callers
// sort before reporting.
func (e *Engine) Crawl(ctx context.Context, seeds []string) ([]*types.CrawlRecord, error) {
	pool, err := newWorkerPool(ctx, e.cfg.Concurrency, e.cfg.MaxPages)
	if err != nil {
		return nil, err
	}
	e.pool = pool
	defer pool.close()

	for _, seed := range seeds {
		e.enqueue(ctx, seed)
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		<-done
	case <-done:
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.records, nil
}

// enqueue reserves a budget slot for an unseen canonical URL and submits it.
// The reservation happening before submit bounds total submissions to the
// page budget, which in turn guarantees submit never blocks a worker.
func (e *Engine) enqueue(ctx context.Context, canonicalURL string) {
	e.mu.Lock()
	if _, dup := e.seen[canonicalURL]; dup {
		e.mu.Unlock()
		return
	}
	if len(e.seen) >= e.cfg.MaxPages {
		e.mu.Unlock()
		return
	}
	e.seen[canonicalURL] = struct{}{}
	e.mu.Unlock()

	e.wg.Add(1)
	if err := e.pool.submit(ctx, func(workerCtx context.Context) {
		defer e.wg.Done()
		e.handle(workerCtx, canonicalURL)
	}); err != nil {
		e.wg.Done()
		e.logger.Debug("enqueue rejected", "url", canonicalURL, "error", err)
	}
}

func (e *Engine) handle(ctx context.Context, canonicalURL string) {
	if ctx.Err() != nil {
		return
	}

	target, err := url.Parse(canonicalURL)
	if err != nil {
		return
	}

	if e.cfg.RespectRobots && e.robots != nil && !e.robots.Allowed(target.Path) {
		e.logger.Debug("blocked by robots", "url", canonicalURL)
		return
	}

	if err := e.limiter.Wait(ctx, target.Hostname()); err != nil {
		return
	}

	result := e.fetcher.Fetch(ctx, canonicalURL)
	record := &types.CrawlRecord{URL: canonicalURL, Fetch: result}

	if result.Error == types.FetchOK && result.IsHTML() && len(result.Body) > 0 {
		record.Facts = parser.Parse(result, e.baseHost)
	}

	e.mu.Lock()
	e.records = append(e.records, record)
	e.mu.Unlock()

	if result.Error != types.FetchOK || record.Facts == nil {
		return
	}
	if result.StatusCode < 200 || result.StatusCode >= 300 {
		return
	}

	for _, link := range record.Facts.Links {
		if !link.IsInternal {
			continue
		}
		e.enqueue(ctx, link.Href)
	}
}

// Seeds canonicalizes the homepage plus every same-host sitemap URL into the
// initial frontier, homepage first.
func Seeds(homepage string, baseHost string, sitemapURLs map[string]struct{}) []string {
	seeds := []string{homepage}
	seen := map[string]struct{}{homepage: {}}
	for raw := range sitemapURLs {
		canonical, err := urlutil.Canonicalize(raw)
		if err != nil {
			continue
		}
		if urlutil.Host(canonical) != baseHost {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		seeds = append(seeds, canonical)
	}
	return seeds
}
