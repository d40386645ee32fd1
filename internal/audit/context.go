package audit

import (
	"strings"

	"seoaudit/internal/robots"
	"seoaudit/internal/urlutil"
	"seoaudit/pkg/types"
)

// BuildSiteContext computes the cross-page joins the rule engine needs:
// duplicate title/description maps, the inbound-link graph, the expanded
// sitemap set, and per-URL status lookups. One pass, after the crawl.
func BuildSiteContext(records []*types.CrawlRecord, baseHost, homepage string, robotsResult *robots.Result) *types.SiteContext {
	ctx := &types.SiteContext{
		BaseHost:              baseHost,
		HomepageURL:           homepage,
		DuplicateTitles:       make(map[string][]string),
		DuplicateDescriptions: make(map[string][]string),
		InboundLinks:          make(map[string]int),
		SitemapURLs:           make(map[string]struct{}),
		StatusByURL:           make(map[string]int),
	}

	if robotsResult != nil {
		ctx.Robots = types.RobotsInfo{
			Exists:           robotsResult.Exists,
			RawText:          robotsResult.RawText,
			DeclaredSitemaps: robotsResult.DeclaredSitemaps,
			CrawlDelay:       robotsResult.CrawlDelay,
		}
		ctx.SitemapsFound = robotsResult.SitemapDocs
		for raw := range robotsResult.SitemapURLs {
			canonical, err := urlutil.Canonicalize(raw)
			if err != nil {
				continue
			}
			ctx.SitemapURLs[canonical] = struct{}{}
		}
	}

	titles := make(map[string][]string)
	descriptions := make(map[string][]string)
	inboundSources := make(map[string]map[string]struct{})

	for _, rec := range records {
		ctx.StatusByURL[rec.URL] = rec.Fetch.StatusCode

		if rec.Facts == nil {
			continue
		}
		if rec.Facts.Title != nil {
			if key := NormalizeText(*rec.Facts.Title); key != "" {
				titles[key] = append(titles[key], rec.URL)
			}
		}
		if rec.Facts.MetaDescription != nil {
			if key := NormalizeText(*rec.Facts.MetaDescription); key != "" {
				descriptions[key] = append(descriptions[key], rec.URL)
			}
		}

		for _, link := range rec.Facts.Links {
			if !link.IsInternal || link.Href == rec.URL {
				continue
			}
			sources, ok := inboundSources[link.Href]
			if !ok {
				sources = make(map[string]struct{})
				inboundSources[link.Href] = sources
			}
			sources[rec.URL] = struct{}{}
		}
	}

	for key, urls := range titles {
		if len(urls) > 1 {
			ctx.DuplicateTitles[key] = urls
		}
	}
	for key, urls := range descriptions {
		if len(urls) > 1 {
			ctx.DuplicateDescriptions[key] = urls
		}
	}
	for target, sources := range inboundSources {
		ctx.InboundLinks[target] = len(sources)
	}

	return ctx
}

// NormalizeText lowercases and collapses whitespace so duplicate detection
// ignores formatting differences.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
