package audit

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"seoaudit/pkg/types"
)

// ruleFunc is one stateless per-page check. Rules run in a fixed order and
// never mutate crawler state.
type ruleFunc func(rec *types.CrawlRecord, site *types.SiteContext) []types.Issue

var technicalRules = []ruleFunc{
	ruleRobotsDirectives,
	ruleRedirects,
	ruleHTTPS,
	ruleCanonical,
	ruleServerError,
	ruleMixedContent,
	ruleStructuredData,
}

// Evaluate runs the full catalog against one record and returns its issues
// sorted by severity, then code.
func Evaluate(rec *types.CrawlRecord, site *types.SiteContext) []types.Issue {
	var issues []types.Issue
	for _, rule := range technicalRules {
		issues = append(issues, rule(rec, site)...)
	}
	for _, rule := range onpageRules {
		issues = append(issues, rule(rec, site)...)
	}
	for _, rule := range reportedOnlyRules {
		issues = append(issues, rule(rec, site)...)
	}
	sortIssues(issues)
	return issues
}

func sortIssues(issues []types.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Severity.Rank() != issues[j].Severity.Rank() {
			return issues[i].Severity.Rank() < issues[j].Severity.Rank()
		}
		return issues[i].Code < issues[j].Code
	})
}

func ruleRobotsDirectives(rec *types.CrawlRecord, _ *types.SiteContext) []types.Issue {
	if rec.Facts == nil {
		return nil
	}
	meta, header := rec.Facts.MetaRobots, rec.Facts.XRobots

	var issues []types.Issue
	if hasToken(meta, "noindex") || hasToken(header, "noindex") {
		issues = append(issues, newIssue(CodeNoindexOnIndexable, rec.URL, "Page carries a noindex directive"))
	}
	if hasToken(meta, "nofollow") || hasToken(header, "nofollow") {
		issues = append(issues, newIssue(CodeNofollowDirective, rec.URL, "Page carries a nofollow directive"))
	}
	if len(meta) > 0 && len(header) > 0 && hasToken(meta, "noindex") != hasToken(header, "noindex") {
		issues = append(issues, newIssue(CodeMetaRobotsConflict, rec.URL, "Meta robots tag and X-Robots-Tag header disagree on indexability"))
	}
	return issues
}

func ruleRedirects(rec *types.CrawlRecord, _ *types.SiteContext) []types.Issue {
	fetch := rec.Fetch
	var issues []types.Issue

	if fetch.Error == types.FetchRedirectLoop || chainRepeats(fetch.RedirectChain) {
		// A loop swallows the rest of the chain diagnostics.
		return []types.Issue{newIssue(CodeRedirectLoop, rec.URL, "Redirect chain revisits a URL it already passed through")}
	}
	if fetch.StatusCode == 404 && len(fetch.RedirectChain) >= 1 {
		issues = append(issues, newIssue(CodeRedirectChainEnds404, rec.URL, "Redirect chain ends in a 404 response"))
	}
	if len(fetch.RedirectChain) > 3 {
		issue := newIssue(CodeRedirectChainTooLong, rec.URL, fmt.Sprintf("Redirect chain has %d hops", len(fetch.RedirectChain)))
		issue.ThresholdNote = "more than 3 hops"
		issues = append(issues, issue)
	}
	for _, hop := range fetch.RedirectChain {
		if hop.Status == 302 {
			issues = append(issues, newIssue(CodeRedirect302, rec.URL, "Redirect uses a temporary 302 instead of a permanent 301"))
			break
		}
	}
	return issues
}

func chainRepeats(chain []types.RedirectHop) bool {
	seen := make(map[string]struct{}, len(chain))
	for _, hop := range chain {
		if _, dup := seen[hop.URL]; dup {
			return true
		}
		seen[hop.URL] = struct{}{}
	}
	return false
}

func ruleHTTPS(rec *types.CrawlRecord, _ *types.SiteContext) []types.Issue {
	if transportFailed(rec.Fetch) {
		return nil
	}
	if schemeOf(rec.Fetch.FinalURL) == "http" {
		return []types.Issue{newIssue(CodeNotHTTPS, rec.URL, "Page is not served over HTTPS")}
	}
	return nil
}

func ruleCanonical(rec *types.CrawlRecord, site *types.SiteContext) []types.Issue {
	if rec.Facts == nil || rec.Facts.Canonical == "" {
		return nil
	}
	canonical := rec.Facts.Canonical

	if status, crawled := site.StatusByURL[canonical]; crawled && status == 404 {
		return []types.Issue{newIssue(CodeCanonical404, rec.URL, fmt.Sprintf("Canonical target %s returns 404", canonical))}
	}
	if canonical == site.HomepageURL && rec.URL != site.HomepageURL {
		return []types.Issue{newIssue(CodeCanonicalToHomepage, rec.URL, "Canonical points to the homepage instead of the current page")}
	}
	if canonical != rec.URL {
		return []types.Issue{newIssue(CodeCanonicalDifferentURL, rec.URL, fmt.Sprintf("Canonical points to a different URL: %s", canonical))}
	}
	return nil
}

func ruleServerError(rec *types.CrawlRecord, _ *types.SiteContext) []types.Issue {
	if rec.Fetch.StatusCode >= 500 && rec.Fetch.StatusCode <= 599 {
		return []types.Issue{newIssue(CodeServerError5xx, rec.URL, fmt.Sprintf("Server responded with %d", rec.Fetch.StatusCode))}
	}
	return nil
}

func ruleMixedContent(rec *types.CrawlRecord, _ *types.SiteContext) []types.Issue {
	if rec.Facts == nil || !rec.Facts.HTTPS || len(rec.Facts.MixedContent) == 0 {
		return nil
	}
	return []types.Issue{newIssue(CodeMixedContentJSCSS, rec.URL,
		fmt.Sprintf("%d resource(s) loaded over plain HTTP on an HTTPS page", len(rec.Facts.MixedContent)))}
}

func ruleStructuredData(rec *types.CrawlRecord, _ *types.SiteContext) []types.Issue {
	if rec.Facts == nil {
		return nil
	}
	var issues []types.Issue
	if len(rec.Facts.StructuredData) == 0 {
		if rec.Fetch.StatusCode >= 200 && rec.Fetch.StatusCode < 300 {
			issues = append(issues, newIssue(CodeMissingStructuredData, rec.URL, "No structured data found"))
		}
		return issues
	}

	counts := make(map[string]int)
	for _, block := range rec.Facts.StructuredData {
		counts[block.TypeLabel]++
	}
	for _, label := range sortedKeys(counts) {
		if counts[label] > 1 {
			issues = append(issues, newIssue(CodeDuplicateStructuredData, rec.URL,
				fmt.Sprintf("Structured data type %q appears %d times", label, counts[label])))
			break
		}
	}
	return issues
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

func schemeOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

func transportFailed(f *types.FetchResult) bool {
	switch f.Error {
	case types.FetchTimeout, types.FetchDNSError, types.FetchTLSError, types.FetchRefused, types.FetchNetworkError:
		return true
	}
	return false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
