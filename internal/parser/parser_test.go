package parser

import (
	"net/http"
	"testing"

	"seoaudit/pkg/types"
)

const fixtureHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>  Widgets and Gadgets — Catalog  </title>
<meta name="description" content="All the widgets and gadgets you could ever need, in one catalog.">
<meta name="robots" content="INDEX, Follow">
<link rel="canonical" href="/catalog/">
<link rel="stylesheet" href="http://static.site.test/style.css">
<script type="application/ld+json">{"@context":"https://schema.org","@type":"WebPage"}</script>
<script type="application/ld+json">{"@graph":[{"@type":"Organization"},{"@type":"WebSite"}]}</script>
</head>
<body>
<h1> Catalog </h1>
<h2>Widgets</h2>
<h2>Gadgets</h2>
<div itemscope itemtype="https://schema.org/Product"><span>thing</span></div>
<p typeof="schema:Offer">offer</p>
<img src="/a.png" alt="A widget">
<img src="/b.png" alt="">
<img src="/c.png">
<img src="/logo.svg">
<img src="http://insecure.site.test/img.png" alt="x">
<a href="/about">About us</a>
<a href="/contact" aria-label="Contact"></a>
<a href="https://other.test/page">Elsewhere</a>
<a href="mailto:hi@site.test">Mail</a>
<a href="javascript:void(0)">JS</a>
<script src="http://static.site.test/app.js"></script>
</body>
</html>`

func fixtureFetch(t *testing.T) *types.FetchResult {
	t.Helper()
	return &types.FetchResult{
		RequestedURL: "https://site.test/catalog",
		FinalURL:     "https://site.test/catalog",
		StatusCode:   200,
		Headers: http.Header{
			"Content-Type": []string{"text/html; charset=utf-8"},
			"X-Robots-Tag": []string{"noindex, nofollow"},
		},
		Body: []byte(fixtureHTML),
	}
}

func TestParseHeadFacts(t *testing.T) {
	facts := Parse(fixtureFetch(t), "site.test")

	if facts.Title == nil || *facts.Title != "Widgets and Gadgets — Catalog" {
		t.Errorf("title = %v", facts.Title)
	}
	if facts.MetaDescription == nil || *facts.MetaDescription == "" {
		t.Error("want meta description")
	}
	if facts.Canonical != "https://site.test/catalog" {
		t.Errorf("canonical = %q, want resolved trimmed form", facts.Canonical)
	}
	if len(facts.MetaRobots) != 2 || facts.MetaRobots[0] != "index" || facts.MetaRobots[1] != "follow" {
		t.Errorf("meta robots = %v", facts.MetaRobots)
	}
	if len(facts.XRobots) != 2 || facts.XRobots[0] != "noindex" {
		t.Errorf("x-robots = %v", facts.XRobots)
	}
	if !facts.ViewportPresent {
		t.Error("want viewport")
	}
	if facts.LangAttr != "en" {
		t.Errorf("lang = %q", facts.LangAttr)
	}
	if facts.Charset != "utf-8" {
		t.Errorf("charset = %q", facts.Charset)
	}
	if !facts.HTTPS {
		t.Error("want https=true from final url")
	}
}

func TestParseHeadings(t *testing.T) {
	facts := Parse(fixtureFetch(t), "site.test")
	if facts.HeadingCounts[0] != 1 || facts.HeadingCounts[1] != 2 {
		t.Errorf("heading counts = %v", facts.HeadingCounts)
	}
	if len(facts.H1Texts) != 1 || facts.H1Texts[0] != "Catalog" {
		t.Errorf("h1 texts = %v", facts.H1Texts)
	}
}

func TestParseImages(t *testing.T) {
	facts := Parse(fixtureFetch(t), "site.test")
	if len(facts.Images) != 5 {
		t.Fatalf("image count = %d, want 5", len(facts.Images))
	}

	var withAlt, emptyAlt, missingAlt, svg int
	for _, img := range facts.Images {
		switch {
		case img.IsSVG:
			svg++
		case img.Alt == nil:
			missingAlt++
		case *img.Alt == "":
			emptyAlt++
		default:
			withAlt++
		}
	}
	if svg != 1 || missingAlt != 1 || emptyAlt != 1 || withAlt != 2 {
		t.Errorf("svg=%d missing=%d empty=%d with=%d", svg, missingAlt, emptyAlt, withAlt)
	}
}

func TestParseLinks(t *testing.T) {
	facts := Parse(fixtureFetch(t), "site.test")
	if len(facts.Links) != 3 {
		t.Fatalf("link count = %d, want 3 (mailto/js skipped)", len(facts.Links))
	}

	byHref := map[string]types.Link{}
	for _, link := range facts.Links {
		byHref[link.Href] = link
	}

	about, ok := byHref["https://site.test/about"]
	if !ok || !about.IsInternal || about.AnchorText != "About us" {
		t.Errorf("about link = %+v", about)
	}
	contact, ok := byHref["https://site.test/contact"]
	if !ok || contact.AnchorText != "" || contact.AriaLabel != "Contact" {
		t.Errorf("contact link = %+v", contact)
	}
	external, ok := byHref["https://other.test/page"]
	if !ok || external.IsInternal {
		t.Errorf("external link = %+v", external)
	}
}

func TestParseStructuredData(t *testing.T) {
	facts := Parse(fixtureFetch(t), "site.test")

	kinds := map[string]int{}
	labels := map[string]bool{}
	for _, block := range facts.StructuredData {
		kinds[block.Kind]++
		labels[block.TypeLabel] = true
	}
	if kinds["jsonld"] != 3 {
		t.Errorf("jsonld blocks = %d, want 3 (WebPage + graph of 2)", kinds["jsonld"])
	}
	if kinds["microdata"] != 1 || kinds["rdfa"] != 1 {
		t.Errorf("kinds = %v", kinds)
	}
	for _, want := range []string{"WebPage", "Organization", "WebSite", "Product"} {
		if !labels[want] {
			t.Errorf("missing type label %s", want)
		}
	}
}

func TestParseMixedContent(t *testing.T) {
	facts := Parse(fixtureFetch(t), "site.test")
	if len(facts.MixedContent) != 3 {
		t.Fatalf("mixed content = %v, want 3 entries (css, img, js)", facts.MixedContent)
	}

	// The same page served over plain HTTP reports no mixed content.
	fetch := fixtureFetch(t)
	fetch.FinalURL = "http://site.test/catalog"
	facts = Parse(fetch, "site.test")
	if facts.HTTPS {
		t.Error("https must be false")
	}
	if len(facts.MixedContent) != 0 {
		t.Errorf("mixed content on http page = %v, want none", facts.MixedContent)
	}
}

func TestParseMalformedHTML(t *testing.T) {
	fetch := fixtureFetch(t)
	fetch.Body = []byte("<html><head><title>Broken</title><body><h1>still here")
	facts := Parse(fetch, "site.test")
	if facts == nil {
		t.Fatal("lenient parse must return facts")
	}
	if facts.Title == nil || *facts.Title != "Broken" {
		t.Errorf("title = %v", facts.Title)
	}
	if facts.HeadingCounts[0] != 1 {
		t.Errorf("h1 count = %d", facts.HeadingCounts[0])
	}
}

func TestParseMissingPieces(t *testing.T) {
	fetch := fixtureFetch(t)
	fetch.Headers.Del("X-Robots-Tag")
	fetch.Body = []byte("<html><head></head><body><p>hi</p></body></html>")
	facts := Parse(fetch, "site.test")

	if facts.Title != nil {
		t.Error("no title tag: Title must be nil")
	}
	if facts.MetaDescription != nil {
		t.Error("no description tag: MetaDescription must be nil")
	}
	if facts.Canonical != "" || len(facts.MetaRobots) != 0 || len(facts.XRobots) != 0 {
		t.Error("absent facts must stay zero-valued")
	}
}
