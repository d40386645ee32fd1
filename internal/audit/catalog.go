package audit

import "seoaudit/pkg/types"

// Rule codes. The catalog is closed: every issue the engine emits carries
// one of these codes with the severity and weight registered below.
const (
	// Technical, scored.
	CodeNoindexOnIndexable      = "noindex_on_indexable"
	CodeRedirectLoop            = "redirect_loop"
	CodeNotHTTPS                = "not_https"
	CodeCanonical404            = "canonical_404"
	CodeCanonicalToHomepage     = "canonical_to_homepage"
	CodeServerError5xx          = "server_error_5xx"
	CodeRedirectChainEnds404    = "redirect_chain_ends_404"
	CodeMixedContentJSCSS       = "mixed_content_js_css"
	CodeMetaRobotsConflict      = "meta_robots_conflict"
	CodeCanonicalDifferentURL   = "canonical_different_url"
	CodeRedirectChainTooLong    = "redirect_chain_too_long"
	CodeRedirect302             = "redirect_302"
	CodeNofollowDirective       = "nofollow_directive"
	CodeMissingStructuredData   = "missing_structured_data"
	CodeDuplicateStructuredData = "duplicate_structured_data"

	// On-page, scored.
	CodeMissingTitle            = "missing_title"
	CodeTitleEmpty              = "title_empty"
	CodeMissingMetaDescription  = "missing_meta_description"
	CodeMetaDescriptionEmpty    = "meta_description_empty"
	CodeNoH1                    = "no_h1"
	CodeOrphanPage              = "orphan_page"
	CodeTitleTooShort           = "title_too_short"
	CodeTitleTooLong            = "title_too_long"
	CodeDuplicateTitle          = "duplicate_title"
	CodeMultipleH1              = "multiple_h1"
	CodeImagesMissingAlt        = "images_missing_alt"
	CodeBrokenInternalLinks     = "broken_internal_links"
	CodeMetaDescriptionTooShort = "meta_description_too_short"
	CodeMetaDescriptionTooLong  = "meta_description_too_long"
	CodeH1Other                 = "h1_other"
	CodeTitleTemplateDefault    = "title_template_default"
	CodeH1IdenticalToTitle      = "h1_identical_to_title"
	CodeImagesEmptyAlt          = "images_empty_alt"
	CodeDuplicateDescription    = "duplicate_description"
	CodeExcessiveInternalLinks  = "excessive_internal_links"
	CodeLinkWithoutAnchorText   = "link_without_anchor_text"
	CodeInternalLinksOther      = "internal_links_other"

	// Reported-only, zero weight.
	CodeURLsContainUnderscore       = "urls_contain_underscore"
	CodeURLsContainUppercase        = "urls_contain_uppercase"
	CodeURLsTooLong                 = "urls_too_long"
	CodeURLsTooDeep                 = "urls_too_deep"
	CodeURLsSpecialCharacters       = "urls_special_characters"
	CodeMissingViewport             = "missing_viewport"
	CodeMissingCacheControl         = "missing_cache_control"
	CodeMissingContentCompression   = "missing_content_compression"
	CodeMissingRobotsTxt            = "missing_robots_txt"
	CodeNoSitemapsFound             = "no_sitemaps_found"
	CodeMissingLLMSTxt              = "missing_llms_txt"
	CodeStatus404                   = "status_404"
)

type catalogEntry struct {
	category string
	severity types.Severity
	weight   int
}

var catalog = map[string]catalogEntry{
	CodeNoindexOnIndexable:      {types.CategoryTechnical, types.SeverityCritical, -15},
	CodeRedirectLoop:            {types.CategoryTechnical, types.SeverityCritical, -15},
	CodeNotHTTPS:                {types.CategoryTechnical, types.SeverityCritical, -15},
	CodeCanonical404:            {types.CategoryTechnical, types.SeverityHigh, -12},
	CodeCanonicalToHomepage:     {types.CategoryTechnical, types.SeverityHigh, -12},
	CodeServerError5xx:          {types.CategoryTechnical, types.SeverityHigh, -12},
	CodeRedirectChainEnds404:    {types.CategoryTechnical, types.SeverityHigh, -12},
	CodeMixedContentJSCSS:       {types.CategoryTechnical, types.SeverityHigh, -10},
	CodeMetaRobotsConflict:      {types.CategoryTechnical, types.SeverityMedium, -6},
	CodeCanonicalDifferentURL:   {types.CategoryTechnical, types.SeverityMedium, -6},
	CodeRedirectChainTooLong:    {types.CategoryTechnical, types.SeverityMedium, -6},
	CodeRedirect302:             {types.CategoryTechnical, types.SeverityMedium, -4},
	CodeNofollowDirective:       {types.CategoryTechnical, types.SeverityLow, -3},
	CodeMissingStructuredData:   {types.CategoryTechnical, types.SeverityLow, -2},
	CodeDuplicateStructuredData: {types.CategoryTechnical, types.SeverityLow, -2},

	CodeMissingTitle:            {types.CategoryOnPage, types.SeverityHigh, -8},
	CodeTitleEmpty:              {types.CategoryOnPage, types.SeverityHigh, -8},
	CodeMissingMetaDescription:  {types.CategoryOnPage, types.SeverityHigh, -6},
	CodeMetaDescriptionEmpty:    {types.CategoryOnPage, types.SeverityHigh, -6},
	CodeNoH1:                    {types.CategoryOnPage, types.SeverityHigh, -6},
	CodeOrphanPage:              {types.CategoryOnPage, types.SeverityHigh, -6},
	CodeTitleTooShort:           {types.CategoryOnPage, types.SeverityMedium, -4},
	CodeTitleTooLong:            {types.CategoryOnPage, types.SeverityMedium, -4},
	CodeDuplicateTitle:          {types.CategoryOnPage, types.SeverityMedium, -4},
	CodeMultipleH1:              {types.CategoryOnPage, types.SeverityMedium, -4},
	CodeImagesMissingAlt:        {types.CategoryOnPage, types.SeverityMedium, -4},
	CodeBrokenInternalLinks:     {types.CategoryOnPage, types.SeverityMedium, -4},
	CodeMetaDescriptionTooShort: {types.CategoryOnPage, types.SeverityMedium, -3},
	CodeMetaDescriptionTooLong:  {types.CategoryOnPage, types.SeverityMedium, -3},
	CodeH1Other:                 {types.CategoryOnPage, types.SeverityMedium, -3},
	CodeTitleTemplateDefault:    {types.CategoryOnPage, types.SeverityLow, -3},
	CodeH1IdenticalToTitle:      {types.CategoryOnPage, types.SeverityLow, -2},
	CodeImagesEmptyAlt:          {types.CategoryOnPage, types.SeverityLow, -2},
	CodeDuplicateDescription:    {types.CategoryOnPage, types.SeverityLow, -2},
	CodeExcessiveInternalLinks:  {types.CategoryOnPage, types.SeverityLow, -2},
	CodeLinkWithoutAnchorText:   {types.CategoryOnPage, types.SeverityLow, -2},
	CodeInternalLinksOther:      {types.CategoryOnPage, types.SeverityLow, -2},

	CodeURLsContainUnderscore:     {types.CategoryTechnical, types.SeverityLow, 0},
	CodeURLsContainUppercase:      {types.CategoryTechnical, types.SeverityLow, 0},
	CodeURLsTooLong:               {types.CategoryTechnical, types.SeverityLow, 0},
	CodeURLsTooDeep:               {types.CategoryTechnical, types.SeverityLow, 0},
	CodeURLsSpecialCharacters:     {types.CategoryTechnical, types.SeverityLow, 0},
	CodeMissingViewport:           {types.CategoryTechnical, types.SeverityLow, 0},
	CodeMissingCacheControl:       {types.CategoryTechnical, types.SeverityLow, 0},
	CodeMissingContentCompression: {types.CategoryTechnical, types.SeverityLow, 0},
	CodeMissingRobotsTxt:          {types.CategoryTechnical, types.SeverityLow, 0},
	CodeNoSitemapsFound:           {types.CategoryTechnical, types.SeverityLow, 0},
	CodeMissingLLMSTxt:            {types.CategoryTechnical, types.SeverityLow, 0},
	CodeStatus404:                 {types.CategoryTechnical, types.SeverityLow, 0},
}

// newIssue builds an Issue with the catalog's category, severity, and weight
// so emitted metadata can never drift from the registry.
func newIssue(code, url, message string) types.Issue {
	entry := catalog[code]
	return types.Issue{
		Code:     code,
		Category: entry.category,
		Severity: entry.severity,
		URL:      url,
		Message:  message,
		Weight:   entry.weight,
	}
}
