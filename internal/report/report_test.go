package report

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"seoaudit/pkg/types"
)

func sampleInput() Input {
	critical := types.Issue{
		Code: "not_https", Category: types.CategoryTechnical,
		Severity: types.SeverityCritical, URL: "http://site.test/", Message: "Page is not served over HTTPS", Weight: -15,
	}
	medium := types.Issue{
		Code: "title_too_short", Category: types.CategoryOnPage,
		Severity: types.SeverityMedium, URL: "http://site.test/a", Message: "Title too short (12 chars)", Weight: -4,
	}
	siteIssue := types.Issue{
		Code: "missing_robots_txt", Category: types.CategoryTechnical,
		Severity: types.SeverityLow, URL: "http://site.test/", Message: "robots.txt is missing or not accessible",
	}

	return Input{
		BaseURL: "http://site.test/",
		Records: []*types.CrawlRecord{
			{URL: "http://site.test/", Fetch: &types.FetchResult{StatusCode: 200}},
			{URL: "http://site.test/a", Fetch: &types.FetchResult{StatusCode: 200}},
		},
		Scores: []types.PageScore{
			{URL: "http://site.test/", Final: 85, PenaltyTotal: 15, Issues: []types.Issue{critical}},
			{URL: "http://site.test/a", Final: 96, PenaltyTotal: 4, Issues: []types.Issue{medium}},
		},
		SiteIssues:           []types.Issue{siteIssue},
		StatusDistribution:   map[string]int{"200": 2},
		AverageScore:         90.5,
		Crawlability:         types.Crawlability{SitemapsFound: []string{}},
		ExecutionTimeSeconds: 1.25,
	}
}

func TestBuildOverviewCounts(t *testing.T) {
	rep := Build(sampleInput())

	overview := rep.AuditStats.SiteOverview
	if overview.TotalCrawledPages != 2 {
		t.Errorf("pages = %d", overview.TotalCrawledPages)
	}
	if overview.AverageSEOScore != 90.5 {
		t.Errorf("average = %v", overview.AverageSEOScore)
	}
	if overview.TotalIssues != 3 {
		t.Errorf("total issues = %d, want 3 (two page + one site)", overview.TotalIssues)
	}
	if overview.CriticalIssuesCount != 1 || overview.MediumIssuesCount != 1 || overview.LowIssuesCount != 1 {
		t.Errorf("severity counts = %+v", overview)
	}
	if rep.AuditIssues.SiteOverview != overview {
		t.Error("both trees must share the same overview")
	}
}

func TestBuildCategoryMaps(t *testing.T) {
	rep := Build(sampleInput())

	if rep.AuditStats.TechnicalSEO["not_https"] != 1 {
		t.Error("technical count missing")
	}
	if rep.AuditStats.OnPageSEO["title_too_short"] != 1 {
		t.Error("onpage count missing")
	}
	if len(rep.AuditIssues.TechnicalSEO["missing_robots_txt"]) != 1 {
		t.Error("site-level issue must land in the technical map")
	}
	if len(rep.AuditIssues.IssuesSummary.Critical) != 1 || len(rep.AuditIssues.IssuesSummary.Low) != 1 {
		t.Error("issues_summary buckets wrong")
	}
}

func TestBuildPages(t *testing.T) {
	rep := Build(sampleInput())
	if len(rep.AuditIssues.Pages) != 2 {
		t.Fatalf("pages = %d", len(rep.AuditIssues.Pages))
	}
	if rep.AuditIssues.Pages[0].URL != "http://site.test/" || rep.AuditIssues.Pages[0].StatusCode != 200 {
		t.Errorf("page[0] = %+v", rep.AuditIssues.Pages[0])
	}
	if rep.AuditIssues.Pages[1].SEOScore != 96 {
		t.Errorf("page[1] score = %d", rep.AuditIssues.Pages[1].SEOScore)
	}
}

func TestBuildDeterministic(t *testing.T) {
	first, _ := json.Marshal(Build(sampleInput()))
	second, _ := json.Marshal(Build(sampleInput()))
	if string(first) != string(second) {
		t.Error("identical input must produce byte-identical reports")
	}
}

func TestExportXLSX(t *testing.T) {
	rep := Build(sampleInput())
	path := filepath.Join(t.TempDir(), "audit.xlsx")
	if err := ExportXLSX(rep, path); err != nil {
		t.Fatalf("export: %v", err)
	}
}
