// Package audit wires the pipeline together: resolve robots and sitemaps,
// crawl, build the site context, evaluate the rule catalog, score, and shape
// the report.
package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"seoaudit/internal/config"
	"seoaudit/internal/crawler"
	"seoaudit/internal/fetcher"
	"seoaudit/internal/report"
	"seoaudit/internal/robots"
	"seoaudit/internal/urlutil"
	"seoaudit/pkg/types"
)

// Input validation failures surfaced to the caller before any crawl starts.
var (
	ErrInvalidURL      = errors.New("invalid_url")
	ErrInvalidMaxPages = errors.New("invalid_max_pages")
)

// Request parameterises one audit run.
type Request struct {
	URL           string
	MaxPages      *int
	RespectRobots *bool
}

// Service runs audits against a base configuration.
type Service struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewService constructs an audit service.
func NewService(cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, logger: logger}
}

// Audit crawls the site rooted at req.URL and returns the full report.
// It fails on input validation and when the crawler cannot be set up from
// the configuration; per-URL fetch errors are encoded in the report itself.
func (s *Service) Audit(ctx context.Context, req Request) (*types.AuditReport, error) {
	homepage, err := urlutil.Canonicalize(req.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	cfg := s.cfg.Audit
	if req.MaxPages != nil {
		if *req.MaxPages < 1 {
			return nil, fmt.Errorf("%w: max_pages must be >= 1", ErrInvalidMaxPages)
		}
		cfg.MaxPages = *req.MaxPages
	}
	if req.RespectRobots != nil {
		cfg.RespectRobots = *req.RespectRobots
	}

	base, err := url.Parse(homepage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	baseHost := urlutil.Host(homepage)

	start := time.Now()

	if !cfg.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline.Duration)
		defer cancel()
	}

	f := fetcher.New(fetcher.Options{
		UserAgent:      cfg.UserAgent,
		ConnectTimeout: cfg.ConnectTimeout.Duration,
		RequestTimeout: cfg.RequestTimeout.Duration,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		MaxRedirects:   cfg.MaxRedirects,
	})

	resolver := robots.NewResolver(f.Client(), cfg.UserAgent, cfg.SitemapMaxDepth, cfg.SitemapMaxURLs, s.logger)

	var robotsResult *robots.Result
	var llmsExists bool
	var llmsContent string

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		robotsResult = resolver.Resolve(groupCtx, base)
		return nil
	})
	g.Go(func() error {
		llmsExists, llmsContent = probeLLMSTxt(groupCtx, f.Client(), cfg.UserAgent, base)
		return nil
	})
	_ = g.Wait()

	s.logger.Info("starting crawl",
		"url", homepage,
		"max_pages", cfg.MaxPages,
		"respect_robots", cfg.RespectRobots,
		"sitemap_urls", len(robotsResult.SitemapURLs))

	engine := crawler.NewEngine(cfg, f, robotsResult, baseHost, s.logger)
	seeds := crawler.Seeds(homepage, baseHost, robotsResult.SitemapURLs)
	records, err := engine.Crawl(ctx, seeds)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}

	site := BuildSiteContext(records, baseHost, homepage, robotsResult)
	site.LLMSTxtExists = llmsExists
	site.LLMSTxtContent = llmsContent

	scores := ScoreAll(records, site)
	siteIssues := SiteIssues(site)

	doc := report.Build(report.Input{
		BaseURL:                homepage,
		Records:                records,
		Scores:                 scores,
		SiteIssues:             siteIssues,
		StatusDistribution:     StatusDistribution(records),
		AverageScore:           AverageScore(scores),
		Crawlability:           crawlability(site),
		ExecutionTimeSeconds:   time.Since(start).Seconds(),
	})

	s.logger.Info("audit complete",
		"url", homepage,
		"pages", len(records),
		"average_score", doc.AuditStats.SiteOverview.AverageSEOScore,
		"elapsed", time.Since(start).String())

	return doc, nil
}

func crawlability(site *types.SiteContext) types.Crawlability {
	return types.Crawlability{
		RobotsTxtExists:        site.Robots.Exists,
		RobotsTxtContent:       site.Robots.RawText,
		LLMSTxtExists:          site.LLMSTxtExists,
		LLMSTxtContent:         site.LLMSTxtContent,
		SitemapExists:          len(site.SitemapsFound) > 0,
		SitemapsFound:          site.SitemapsFound,
		TotalSitemapLinksCount: len(site.SitemapURLs),
	}
}

func probeLLMSTxt(ctx context.Context, client *http.Client, userAgent string, base *url.URL) (bool, string) {
	target := base.Scheme + "://" + base.Host + "/llms.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, ""
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, ""
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return false, ""
	}
	return true, string(body)
}
