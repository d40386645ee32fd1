package audit

import (
	"fmt"
	"strings"

	"seoaudit/pkg/types"
)

// Penalty caps: alt-text rules emit one issue per offending image up to
// these counts; further occurrences are neither emitted nor scored.
const (
	missingAltCap = 3
	emptyAltCap   = 2
)

const (
	titleMinLen = 30
	titleMaxLen = 70
	descMinLen  = 120
	descMaxLen  = 160

	excessiveLinkThreshold = 100
)

var titleTemplateWords = []string{"home", "page", "untitled", "new page"}

var onpageRules = []ruleFunc{
	ruleTitle,
	ruleMetaDescription,
	ruleHeadings,
	ruleImageAlt,
	ruleInternalLinks,
	ruleOrphan,
}

func ruleTitle(rec *types.CrawlRecord, site *types.SiteContext) []types.Issue {
	if rec.Facts == nil {
		return nil
	}
	facts := rec.Facts

	if facts.Title == nil {
		return []types.Issue{newIssue(CodeMissingTitle, rec.URL, "Missing title tag")}
	}
	title := *facts.Title
	if title == "" {
		return []types.Issue{newIssue(CodeTitleEmpty, rec.URL, "Title tag is empty")}
	}

	var issues []types.Issue
	length := len([]rune(title))
	if length < titleMinLen {
		issue := newIssue(CodeTitleTooShort, rec.URL, fmt.Sprintf("Title too short (%d chars)", length))
		issue.ThresholdNote = "recommended 30-70 chars"
		issues = append(issues, issue)
	} else if length > titleMaxLen {
		issue := newIssue(CodeTitleTooLong, rec.URL, fmt.Sprintf("Title too long (%d chars)", length))
		issue.ThresholdNote = "recommended 30-70 chars"
		issues = append(issues, issue)
	}

	if length < 20 {
		lower := strings.ToLower(title)
		for _, word := range titleTemplateWords {
			if strings.Contains(lower, word) {
				issues = append(issues, newIssue(CodeTitleTemplateDefault, rec.URL, "Title appears to be a template or default value"))
				break
			}
		}
	}

	if _, dup := site.DuplicateTitles[NormalizeText(title)]; dup {
		issues = append(issues, newIssue(CodeDuplicateTitle, rec.URL, fmt.Sprintf("Title %q is used on multiple pages", title)))
	}
	return issues
}

func ruleMetaDescription(rec *types.CrawlRecord, site *types.SiteContext) []types.Issue {
	if rec.Facts == nil {
		return nil
	}
	facts := rec.Facts

	if facts.MetaDescription == nil {
		return []types.Issue{newIssue(CodeMissingMetaDescription, rec.URL, "Missing meta description")}
	}
	desc := *facts.MetaDescription
	if desc == "" {
		return []types.Issue{newIssue(CodeMetaDescriptionEmpty, rec.URL, "Meta description is empty")}
	}

	var issues []types.Issue
	length := len([]rune(desc))
	if length < descMinLen {
		issue := newIssue(CodeMetaDescriptionTooShort, rec.URL, fmt.Sprintf("Meta description too short (%d chars)", length))
		issue.ThresholdNote = "recommended 120-160 chars"
		issues = append(issues, issue)
	} else if length > descMaxLen {
		issue := newIssue(CodeMetaDescriptionTooLong, rec.URL, fmt.Sprintf("Meta description too long (%d chars)", length))
		issue.ThresholdNote = "recommended 120-160 chars"
		issues = append(issues, issue)
	}

	if _, dup := site.DuplicateDescriptions[NormalizeText(desc)]; dup {
		issues = append(issues, newIssue(CodeDuplicateDescription, rec.URL, "Meta description is used on multiple pages"))
	}
	return issues
}

func ruleHeadings(rec *types.CrawlRecord, _ *types.SiteContext) []types.Issue {
	if rec.Facts == nil {
		return nil
	}
	facts := rec.Facts
	h1Count := facts.HeadingCounts[0]

	if h1Count == 0 {
		return []types.Issue{newIssue(CodeNoH1, rec.URL, "No H1 tag found")}
	}

	var issues []types.Issue
	if h1Count > 1 {
		issues = append(issues, newIssue(CodeMultipleH1, rec.URL, fmt.Sprintf("Multiple H1 tags found (%d)", h1Count)))
	}

	allEmpty := true
	for _, text := range facts.H1Texts {
		if text != "" {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		issues = append(issues, newIssue(CodeH1Other, rec.URL, "H1 tags are present but contain no text"))
		return issues
	}

	if h1Count == 1 && facts.Title != nil && len(facts.H1Texts) == 1 {
		if strings.EqualFold(strings.TrimSpace(facts.H1Texts[0]), strings.TrimSpace(*facts.Title)) {
			issues = append(issues, newIssue(CodeH1IdenticalToTitle, rec.URL, "H1 is identical to the title tag"))
		}
	}
	return issues
}

func ruleImageAlt(rec *types.CrawlRecord, _ *types.SiteContext) []types.Issue {
	if rec.Facts == nil {
		return nil
	}

	var issues []types.Issue
	missing, empty := 0, 0
	for _, img := range rec.Facts.Images {
		if img.IsSVG {
			continue
		}
		switch {
		case img.Alt == nil:
			if missing < missingAltCap {
				issues = append(issues, newIssue(CodeImagesMissingAlt, rec.URL, fmt.Sprintf("Image missing alt attribute: %s", img.Src)))
			}
			missing++
		case *img.Alt == "":
			if empty < emptyAltCap {
				issues = append(issues, newIssue(CodeImagesEmptyAlt, rec.URL, fmt.Sprintf("Image with empty alt attribute: %s", img.Src)))
			}
			empty++
		}
	}
	return issues
}

func ruleInternalLinks(rec *types.CrawlRecord, site *types.SiteContext) []types.Issue {
	if rec.Facts == nil {
		return nil
	}
	facts := rec.Facts

	var issues []types.Issue
	internal := 0
	broken := false
	noAnchor := false
	for _, link := range facts.Links {
		if link.IsInternal {
			internal++
			if status, crawled := site.StatusByURL[link.Href]; crawled && status >= 400 {
				broken = true
			}
		}
		if link.AnchorText == "" && link.AriaLabel == "" {
			noAnchor = true
		}
	}

	if broken {
		issues = append(issues, newIssue(CodeBrokenInternalLinks, rec.URL, "Page links to internal URLs that return errors"))
	}
	if internal > excessiveLinkThreshold {
		issue := newIssue(CodeExcessiveInternalLinks, rec.URL, fmt.Sprintf("Excessive internal links (%d)", internal))
		issue.ThresholdNote = "recommended at most 100"
		issues = append(issues, issue)
	}
	if noAnchor {
		issues = append(issues, newIssue(CodeLinkWithoutAnchorText, rec.URL, "Page contains links without anchor text or aria-label"))
	}
	if facts.MalformedHrefs > 0 {
		issues = append(issues, newIssue(CodeInternalLinksOther, rec.URL, fmt.Sprintf("%d link(s) have hrefs that could not be resolved", facts.MalformedHrefs)))
	}
	return issues
}

func ruleOrphan(rec *types.CrawlRecord, site *types.SiteContext) []types.Issue {
	if rec.URL == site.HomepageURL {
		return nil
	}
	if _, inSitemap := site.SitemapURLs[rec.URL]; !inSitemap {
		return nil
	}
	if site.InboundLinks[rec.URL] > 0 {
		return nil
	}
	return []types.Issue{newIssue(CodeOrphanPage, rec.URL, "Page is listed in the sitemap but has no internal inbound links")}
}
