// Package parser turns fetched HTML into the facts the rule engine consumes.
// Parsing is lenient: malformed documents yield best-effort facts and never
// fail the pipeline.
package parser

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"seoaudit/internal/urlutil"
	"seoaudit/pkg/types"
)

// Parse extracts PageFacts from an HTML fetch result. baseHost decides link
// internality; the final URL after redirects anchors relative references.
func Parse(fetch *types.FetchResult, baseHost string) *types.PageFacts {
	facts := &types.PageFacts{}

	base, err := url.Parse(fetch.FinalURL)
	if err != nil {
		base = nil
	} else {
		facts.HTTPS = strings.EqualFold(base.Scheme, "https")
	}

	facts.XRobots = splitDirectives(fetch.Headers.Get("X-Robots-Tag"))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fetch.Body))
	if err != nil {
		return facts
	}

	extractHead(doc, base, facts)
	extractHeadings(doc, facts)
	extractImages(doc, facts)
	extractLinks(doc, base, baseHost, facts)
	extractStructuredData(doc, facts)
	if facts.HTTPS {
		extractMixedContent(doc, facts)
	}

	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		facts.LangAttr = strings.TrimSpace(lang)
	}

	return facts
}

func extractHead(doc *goquery.Document, base *url.URL, facts *types.PageFacts) {
	if title := doc.Find("head title").First(); title.Length() > 0 {
		text := strings.TrimSpace(title.Text())
		facts.Title = &text
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "description":
			if facts.MetaDescription == nil {
				content, _ := s.Attr("content")
				content = strings.TrimSpace(content)
				facts.MetaDescription = &content
			}
		case "robots", "googlebot":
			if len(facts.MetaRobots) == 0 {
				content, _ := s.Attr("content")
				facts.MetaRobots = splitDirectives(content)
			}
		case "viewport":
			facts.ViewportPresent = true
		}
		if cs, ok := s.Attr("charset"); ok && facts.Charset == "" {
			facts.Charset = strings.ToLower(strings.TrimSpace(cs))
		}
		if he, _ := s.Attr("http-equiv"); strings.EqualFold(he, "content-type") && facts.Charset == "" {
			if content, ok := s.Attr("content"); ok {
				if i := strings.Index(strings.ToLower(content), "charset="); i >= 0 {
					facts.Charset = strings.ToLower(strings.TrimSpace(content[i+len("charset="):]))
				}
			}
		}
	})

	doc.Find(`link[rel="canonical"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" || base == nil {
			return true
		}
		if resolved, err := urlutil.Resolve(base, href); err == nil {
			facts.Canonical = resolved
		}
		return false
	})
}

func extractHeadings(doc *goquery.Document, facts *types.PageFacts) {
	for level := 1; level <= 6; level++ {
		sel := doc.Find(headingTag(level))
		facts.HeadingCounts[level-1] = sel.Length()
		if level == 1 {
			sel.Each(func(_ int, s *goquery.Selection) {
				facts.H1Texts = append(facts.H1Texts, strings.TrimSpace(s.Text()))
			})
		}
	}
}

func headingTag(level int) string {
	return string([]byte{'h', byte('0' + level)})
}

func extractImages(doc *goquery.Document, facts *types.PageFacts) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		img := types.Image{Src: src}
		if alt, ok := s.Attr("alt"); ok {
			trimmed := strings.TrimSpace(alt)
			img.Alt = &trimmed
		}
		img.Width, _ = s.Attr("width")
		img.Height, _ = s.Attr("height")
		img.IsSVG = isSVGSource(src)
		facts.Images = append(facts.Images, img)
	})
}

func isSVGSource(src string) bool {
	lower := strings.ToLower(src)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	return strings.HasSuffix(lower, ".svg") || strings.HasPrefix(lower, "data:image/svg")
}

func extractLinks(doc *goquery.Document, base *url.URL, baseHost string, facts *types.PageFacts) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}
		if base == nil {
			return
		}
		resolved, err := urlutil.Resolve(base, href)
		if err != nil {
			facts.MalformedHrefs++
			return
		}

		link := types.Link{
			Href:       resolved,
			AnchorText: strings.TrimSpace(s.Text()),
			IsInternal: strings.EqualFold(urlutil.Host(resolved), baseHost),
		}
		if aria, ok := s.Attr("aria-label"); ok {
			link.AriaLabel = strings.TrimSpace(aria)
		}
		if rel, ok := s.Attr("rel"); ok {
			for _, token := range strings.Fields(strings.ToLower(rel)) {
				link.RelTokens = append(link.RelTokens, token)
			}
		}
		facts.Links = append(facts.Links, link)
	})
}

func extractStructuredData(doc *goquery.Document, facts *types.PageFacts) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		for _, label := range jsonLDTypes(s.Text()) {
			facts.StructuredData = append(facts.StructuredData, types.StructuredData{Kind: "jsonld", TypeLabel: label})
		}
	})
	doc.Find("[itemscope]").Each(func(_ int, s *goquery.Selection) {
		itemtype, _ := s.Attr("itemtype")
		facts.StructuredData = append(facts.StructuredData, types.StructuredData{Kind: "microdata", TypeLabel: typeLabel(itemtype)})
	})
	doc.Find("[typeof]").Each(func(_ int, s *goquery.Selection) {
		to, _ := s.Attr("typeof")
		facts.StructuredData = append(facts.StructuredData, types.StructuredData{Kind: "rdfa", TypeLabel: typeLabel(to)})
	})
}

// jsonLDTypes pulls every @type out of a JSON-LD block, including @graph
// members and top-level arrays.
func jsonLDTypes(raw string) []string {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return []string{"Unknown"}
	}

	var labels []string
	var walk func(v any)
	walk = func(v any) {
		switch node := v.(type) {
		case []any:
			for _, item := range node {
				walk(item)
			}
		case map[string]any:
			switch t := node["@type"].(type) {
			case string:
				labels = append(labels, t)
			case []any:
				for _, item := range t {
					if s, ok := item.(string); ok {
						labels = append(labels, s)
					}
				}
			}
			if graph, ok := node["@graph"]; ok {
				walk(graph)
			}
		}
	}
	walk(data)

	if len(labels) == 0 {
		return []string{"Unknown"}
	}
	return labels
}

func typeLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Unknown"
	}
	if i := strings.LastIndexAny(raw, "/#"); i >= 0 && i+1 < len(raw) {
		return raw[i+1:]
	}
	return raw
}

func extractMixedContent(doc *goquery.Document, facts *types.PageFacts) {
	add := func(src string) {
		if strings.HasPrefix(strings.TrimSpace(src), "http://") {
			facts.MixedContent = append(facts.MixedContent, strings.TrimSpace(src))
		}
	}
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		add(src)
	})
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		if !strings.Contains(strings.ToLower(rel), "stylesheet") {
			return
		}
		href, _ := s.Attr("href")
		add(href)
	})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		add(src)
	})
}

func splitDirectives(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tokens []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}
