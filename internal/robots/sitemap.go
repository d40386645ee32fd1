package robots

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
)

type sitemapKind int

const (
	sitemapKindURLSet sitemapKind = iota
	sitemapKindIndex
)

type sitemapDoc struct {
	kind sitemapKind
	locs []string
}

type urlSetXML struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

type sitemapIndexXML struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// parseSitemap decodes either of the two sitemap schemas, dispatching on the
// root element's local name.
func parseSitemap(body []byte) (*sitemapDoc, error) {
	root, err := rootElement(body)
	if err != nil {
		return nil, err
	}

	switch root {
	case "urlset":
		var set urlSetXML
		if err := xml.Unmarshal(body, &set); err != nil {
			return nil, fmt.Errorf("decode urlset: %w", err)
		}
		doc := &sitemapDoc{kind: sitemapKindURLSet}
		for _, u := range set.URLs {
			doc.locs = append(doc.locs, u.Loc)
		}
		return doc, nil
	case "sitemapindex":
		var idx sitemapIndexXML
		if err := xml.Unmarshal(body, &idx); err != nil {
			return nil, fmt.Errorf("decode sitemapindex: %w", err)
		}
		doc := &sitemapDoc{kind: sitemapKindIndex}
		for _, s := range idx.Sitemaps {
			doc.locs = append(doc.locs, s.Loc)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("unexpected root element %q", root)
}

func rootElement(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("scan xml: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

// maybeGunzip transparently decodes gzip-compressed sitemap payloads.
func maybeGunzip(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
