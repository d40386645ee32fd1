package audit

import (
	"fmt"
	"net/url"
	"strings"

	"seoaudit/pkg/types"
)

// Reported-only checks surface in the report with zero penalty weight.

const (
	urlMaxLen      = 100
	urlMaxSegments = 5
)

var reportedOnlyRules = []ruleFunc{
	ruleURLShape,
	ruleResponseHygiene,
}

func ruleURLShape(rec *types.CrawlRecord, _ *types.SiteContext) []types.Issue {
	parsed, err := url.Parse(rec.URL)
	if err != nil {
		return nil
	}
	path := parsed.Path

	var issues []types.Issue
	if strings.Contains(path, "_") {
		issues = append(issues, newIssue(CodeURLsContainUnderscore, rec.URL, "URL path contains underscores"))
	}
	if path != strings.ToLower(path) {
		issues = append(issues, newIssue(CodeURLsContainUppercase, rec.URL, "URL path contains uppercase characters"))
	}
	if len(rec.URL) > urlMaxLen {
		issues = append(issues, newIssue(CodeURLsTooLong, rec.URL, fmt.Sprintf("URL is %d characters long", len(rec.URL))))
	}
	if segments := pathSegments(path); segments > urlMaxSegments {
		issues = append(issues, newIssue(CodeURLsTooDeep, rec.URL, fmt.Sprintf("URL path is %d segments deep", segments)))
	}
	if hasSpecialCharacters(path) {
		issues = append(issues, newIssue(CodeURLsSpecialCharacters, rec.URL, "URL path contains special characters"))
	}
	return issues
}

func pathSegments(path string) int {
	count := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			count++
		}
	}
	return count
}

// hasSpecialCharacters reports characters outside [a-z0-9-_./]. Uppercase is
// excluded here; it has its own check.
func hasSpecialCharacters(path string) bool {
	for _, r := range strings.ToLower(path) {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == '/':
		default:
			return true
		}
	}
	return false
}

func ruleResponseHygiene(rec *types.CrawlRecord, _ *types.SiteContext) []types.Issue {
	var issues []types.Issue

	if rec.Fetch.StatusCode == 404 {
		issues = append(issues, newIssue(CodeStatus404, rec.URL, "Page returns 404 Not Found"))
	}
	if rec.Facts != nil && !rec.Facts.ViewportPresent {
		issues = append(issues, newIssue(CodeMissingViewport, rec.URL, "Missing viewport meta tag"))
	}
	if rec.Fetch.Headers != nil && rec.Fetch.StatusCode > 0 {
		if rec.Fetch.Headers.Get("Cache-Control") == "" {
			issues = append(issues, newIssue(CodeMissingCacheControl, rec.URL, "Response has no Cache-Control header"))
		}
		switch strings.ToLower(strings.TrimSpace(rec.Fetch.Headers.Get("Content-Encoding"))) {
		case "gzip", "deflate", "br", "brotli":
		default:
			issues = append(issues, newIssue(CodeMissingContentCompression, rec.URL, "Response is not compressed"))
		}
	}
	return issues
}

// SiteIssues emits the site-level reported-only findings, anchored to the
// homepage URL.
func SiteIssues(site *types.SiteContext) []types.Issue {
	var issues []types.Issue
	if !site.Robots.Exists {
		issues = append(issues, newIssue(CodeMissingRobotsTxt, site.HomepageURL, "robots.txt is missing or not accessible"))
	}
	if len(site.SitemapsFound) == 0 {
		issues = append(issues, newIssue(CodeNoSitemapsFound, site.HomepageURL, "No XML sitemaps were found"))
	}
	if !site.LLMSTxtExists {
		issues = append(issues, newIssue(CodeMissingLLMSTxt, site.HomepageURL, "llms.txt is missing or not accessible"))
	}
	sortIssues(issues)
	return issues
}
