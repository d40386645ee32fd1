// Package report shapes the aggregated audit data into the two-part
// document returned to callers. Output is deterministic: pages in sorted
// URL order, issues sorted by severity then code.
package report

import (
	"seoaudit/pkg/types"
)

// Input carries everything the builder needs, already computed.
type Input struct {
	BaseURL              string
	Records              []*types.CrawlRecord
	Scores               []types.PageScore
	SiteIssues           []types.Issue
	StatusDistribution   map[string]int
	AverageScore         float64
	Crawlability         types.Crawlability
	ExecutionTimeSeconds float64
}

// Build assembles the final AuditReport.
func Build(in Input) *types.AuditReport {
	var all []types.Issue
	for _, score := range in.Scores {
		all = append(all, score.Issues...)
	}
	all = append(all, in.SiteIssues...)

	overview := types.SiteOverview{
		BaseURL:           in.BaseURL,
		TotalCrawledPages: len(in.Records),
		AverageSEOScore:   in.AverageScore,
		TotalIssues:       len(all),
	}
	for _, issue := range all {
		switch issue.Severity {
		case types.SeverityCritical:
			overview.CriticalIssuesCount++
		case types.SeverityHigh:
			overview.HighIssuesCount++
		case types.SeverityMedium:
			overview.MediumIssuesCount++
		case types.SeverityLow:
			overview.LowIssuesCount++
		}
	}

	stats := types.AuditStats{
		SiteOverview:           overview,
		Crawlability:           in.Crawlability,
		StatusCodeDistribution: in.StatusDistribution,
		TechnicalSEO:           map[string]int{},
		OnPageSEO:              map[string]int{},
	}
	issues := types.AuditIssues{
		SiteOverview: overview,
		Crawlability: in.Crawlability,
		TechnicalSEO: map[string][]types.Issue{},
		OnPageSEO:    map[string][]types.Issue{},
	}

	for _, issue := range all {
		switch issue.Category {
		case types.CategoryOnPage:
			stats.OnPageSEO[issue.Code]++
			issues.OnPageSEO[issue.Code] = append(issues.OnPageSEO[issue.Code], issue)
		default:
			stats.TechnicalSEO[issue.Code]++
			issues.TechnicalSEO[issue.Code] = append(issues.TechnicalSEO[issue.Code], issue)
		}
		switch issue.Severity {
		case types.SeverityCritical:
			issues.IssuesSummary.Critical = append(issues.IssuesSummary.Critical, issue)
		case types.SeverityHigh:
			issues.IssuesSummary.High = append(issues.IssuesSummary.High, issue)
		case types.SeverityMedium:
			issues.IssuesSummary.Medium = append(issues.IssuesSummary.Medium, issue)
		case types.SeverityLow:
			issues.IssuesSummary.Low = append(issues.IssuesSummary.Low, issue)
		}
	}

	statusByURL := make(map[string]int, len(in.Records))
	for _, rec := range in.Records {
		statusByURL[rec.URL] = rec.Fetch.StatusCode
	}
	for _, score := range in.Scores {
		page := types.PageReport{
			URL:        score.URL,
			StatusCode: statusByURL[score.URL],
			SEOScore:   score.Final,
			Issues:     score.Issues,
		}
		if page.Issues == nil {
			page.Issues = []types.Issue{}
		}
		issues.Pages = append(issues.Pages, page)
	}

	return &types.AuditReport{
		AuditStats:    stats,
		AuditIssues:   issues,
		ExecutionTime: in.ExecutionTimeSeconds,
	}
}
