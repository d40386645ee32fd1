// Package robots retrieves and interprets robots.txt and discovers the
// site's sitemap URL set.
package robots

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

// Result is the outcome of resolving robots.txt and sitemaps for a site.
type Result struct {
	Exists           bool
	RawText          string
	DeclaredSitemaps []string
	CrawlDelay       time.Duration

	// SitemapDocs are the declared or probed sitemap documents that answered
	// with 2xx XML. Sitemaps reached through an index are expanded into
	// SitemapURLs but not listed here.
	SitemapDocs []string
	// SitemapURLs is the flat expanded page URL set.
	SitemapURLs map[string]struct{}

	group *robotstxt.Group
}

// Allowed reports whether the audit user agent may fetch the given path.
// Fail-open: with no robots.txt (or no matching group) everything is allowed.
func (r *Result) Allowed(path string) bool {
	if r == nil || r.group == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	return r.group.Test(path)
}

// Resolver fetches robots.txt and expands the site's sitemaps.
type Resolver struct {
	client    *http.Client
	userAgent string
	maxDepth  int
	maxURLs   int
	logger    *slog.Logger
}

// NewResolver constructs a resolver sharing the crawler's HTTP client.
func NewResolver(client *http.Client, userAgent string, maxDepth, maxURLs int, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if maxDepth <= 0 {
		maxDepth = 5
	}
	if maxURLs <= 0 {
		maxURLs = 50000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client:    client,
		userAgent: userAgent,
		maxDepth:  maxDepth,
		maxURLs:   maxURLs,
		logger:    logger,
	}
}

// Resolve fetches <base>/robots.txt, parses its directives, and expands every
// discovered sitemap into a flat URL set. Errors downgrade to absence.
func (r *Resolver) Resolve(ctx context.Context, base *url.URL) *Result {
	result := &Result{SitemapURLs: make(map[string]struct{})}

	robotsURL := base.Scheme + "://" + base.Host + "/robots.txt"
	status, body, err := r.get(ctx, robotsURL)
	if err != nil {
		r.logger.Debug("robots.txt fetch failed", "url", robotsURL, "error", err)
	} else if status >= 200 && status < 300 {
		result.Exists = true
		result.RawText = string(body)
		if data, perr := robotstxt.FromBytes(body); perr == nil {
			result.DeclaredSitemaps = append(result.DeclaredSitemaps, data.Sitemaps...)
			if group := data.FindGroup(r.userAgent); group != nil {
				result.group = group
				result.CrawlDelay = group.CrawlDelay
			}
		} else {
			r.logger.Warn("robots.txt parse failed", "url", robotsURL, "error", perr)
		}
	}

	r.expandSitemaps(ctx, base, result)
	return result
}

// Candidate sitemap locations probed after the declared ones.
var commonSitemapPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
	"/sitemaps.xml",
	"/wp-sitemap.xml",
}

func (r *Resolver) expandSitemaps(ctx context.Context, base *url.URL, result *Result) {
	candidates := append([]string(nil), result.DeclaredSitemaps...)
	for _, path := range commonSitemapPaths {
		candidates = append(candidates, base.Scheme+"://"+base.Host+path)
	}

	seenDocs := make(map[string]struct{})
	for _, doc := range candidates {
		doc = strings.TrimSpace(doc)
		if doc == "" {
			continue
		}
		if _, dup := seenDocs[doc]; dup {
			continue
		}
		seenDocs[doc] = struct{}{}
		if r.walkSitemap(ctx, doc, 0, seenDocs, result) {
			result.SitemapDocs = append(result.SitemapDocs, doc)
		}
	}
}

// walkSitemap fetches one sitemap document and folds its URLs into the
// result, recursing into index entries. Returns whether the document was a
// usable 2xx sitemap.
func (r *Resolver) walkSitemap(ctx context.Context, docURL string, depth int, seenDocs map[string]struct{}, result *Result) bool {
	if depth >= r.maxDepth || len(result.SitemapURLs) >= r.maxURLs {
		return false
	}

	status, body, err := r.get(ctx, docURL)
	if err != nil || status < 200 || status >= 300 {
		return false
	}
	body, err = maybeGunzip(body)
	if err != nil {
		r.logger.Debug("sitemap gunzip failed", "url", docURL, "error", err)
		return false
	}

	doc, err := parseSitemap(body)
	if err != nil {
		r.logger.Debug("sitemap parse failed", "url", docURL, "error", err)
		return false
	}

	switch doc.kind {
	case sitemapKindIndex:
		for _, loc := range doc.locs {
			loc = strings.TrimSpace(loc)
			if loc == "" {
				continue
			}
			if _, dup := seenDocs[loc]; dup {
				continue
			}
			seenDocs[loc] = struct{}{}
			r.walkSitemap(ctx, loc, depth+1, seenDocs, result)
		}
	case sitemapKindURLSet:
		for _, loc := range doc.locs {
			loc = strings.TrimSpace(loc)
			if loc == "" {
				continue
			}
			if len(result.SitemapURLs) >= r.maxURLs {
				break
			}
			result.SitemapURLs[loc] = struct{}{}
		}
	}
	return true
}

func (r *Resolver) get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
