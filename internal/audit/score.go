package audit

import (
	"math"
	"sort"
	"strconv"

	"seoaudit/pkg/types"
)

const (
	baseScore  = 100
	scoreFloor = 20
)

// ScorePage folds a page's issues into its final score:
// max(20, 100 + sum of weights). Reported-only issues carry weight 0.
func ScorePage(url string, issues []types.Issue) types.PageScore {
	sum := 0
	for _, issue := range issues {
		sum += issue.Weight
	}
	final := baseScore + sum
	if final < scoreFloor {
		final = scoreFloor
	}
	return types.PageScore{
		URL:          url,
		PenaltyTotal: -sum,
		Final:        final,
		Issues:       issues,
	}
}

// ScoreAll evaluates and scores every record, returning page scores in
// sorted URL order so downstream output is deterministic.
func ScoreAll(records []*types.CrawlRecord, site *types.SiteContext) []types.PageScore {
	sorted := append([]*types.CrawlRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].URL < sorted[j].URL })

	scores := make([]types.PageScore, 0, len(sorted))
	for _, rec := range sorted {
		scores = append(scores, ScorePage(rec.URL, Evaluate(rec, site)))
	}
	return scores
}

// AverageScore is the unscaled arithmetic mean of final scores, rounded to
// two decimals. No site-level scaling factor is applied.
func AverageScore(scores []types.PageScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s.Final
	}
	return math.Round(float64(total)/float64(len(scores))*100) / 100
}

// StatusDistribution maps observed statuses (and error pseudo-statuses) to
// page counts. Timeouts and cancellations count as "timeout"; other
// transport failures as "network_error". Redirect loops and over-long
// chains use the last hop's status.
func StatusDistribution(records []*types.CrawlRecord) map[string]int {
	dist := make(map[string]int)
	for _, rec := range records {
		dist[statusKey(rec.Fetch)]++
	}
	return dist
}

func statusKey(f *types.FetchResult) string {
	switch f.Error {
	case types.FetchTimeout:
		return "timeout"
	case types.FetchDNSError, types.FetchTLSError, types.FetchRefused, types.FetchNetworkError:
		return "network_error"
	case types.FetchRedirectLoop, types.FetchTooManyRedirects:
		if n := len(f.RedirectChain); n > 0 {
			return strconv.Itoa(f.RedirectChain[n-1].Status)
		}
		return "network_error"
	}
	return strconv.Itoa(f.StatusCode)
}
