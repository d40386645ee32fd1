package report

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"seoaudit/pkg/types"
)

// ExportXLSX writes a two-sheet spreadsheet rendition of the report: a
// summary sheet with site metrics and the status distribution, and an
// issues sheet with one row per finding in report order.
func ExportXLSX(rep *types.AuditReport, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	overview := rep.AuditStats.SiteOverview
	rows := [][]any{
		{"Base URL", overview.BaseURL},
		{"Pages crawled", overview.TotalCrawledPages},
		{"Average SEO score", overview.AverageSEOScore},
		{"Total issues", overview.TotalIssues},
		{"Critical", overview.CriticalIssuesCount},
		{"High", overview.HighIssuesCount},
		{"Medium", overview.MediumIssuesCount},
		{"Low", overview.LowIssuesCount},
		{"robots.txt present", rep.AuditStats.Crawlability.RobotsTxtExists},
		{"Sitemap present", rep.AuditStats.Crawlability.SitemapExists},
		{"Execution time (s)", rep.ExecutionTime},
	}

	statuses := make([]string, 0, len(rep.AuditStats.StatusCodeDistribution))
	for status := range rep.AuditStats.StatusCodeDistribution {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		rows = append(rows, []any{"Status " + status, rep.AuditStats.StatusCodeDistribution[status]})
	}

	for i, row := range rows {
		if err := f.SetSheetRow(summarySheet, "A"+strconv.Itoa(i+1), &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	const issuesSheet = "Issues"
	if _, err := f.NewSheet(issuesSheet); err != nil {
		return fmt.Errorf("create issues sheet: %w", err)
	}
	header := []any{"Severity", "Category", "Code", "URL", "Message"}
	if err := f.SetSheetRow(issuesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write issues header: %w", err)
	}

	row := 2
	for _, bucket := range [][]types.Issue{
		rep.AuditIssues.IssuesSummary.Critical,
		rep.AuditIssues.IssuesSummary.High,
		rep.AuditIssues.IssuesSummary.Medium,
		rep.AuditIssues.IssuesSummary.Low,
	} {
		for _, issue := range bucket {
			cells := []any{string(issue.Severity), issue.Category, issue.Code, issue.URL, issue.Message}
			if err := f.SetSheetRow(issuesSheet, "A"+strconv.Itoa(row), &cells); err != nil {
				return fmt.Errorf("write issue row: %w", err)
			}
			row++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
