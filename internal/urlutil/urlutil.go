// Package urlutil normalises URLs so that two spellings of the same page
// compare equal everywhere in the audit pipeline.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonicalize parses raw and returns its canonical form: scheme and host
// lowercased, default port dropped, fragment stripped, and the trailing
// slash removed from non-root paths. Canonicalize is idempotent.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q missing host", raw)
	}
	return canonical(u), nil
}

// Resolve resolves href against base and canonicalizes the result.
func Resolve(base *url.URL, href string) (string, error) {
	ref, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", href, err)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", ref.Scheme)
	}
	return canonical(ref), nil
}

// Host returns the lowercased hostname of a canonical URL string.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func canonical(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != defaultPort(scheme) {
		host += ":" + port
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	out := scheme + "://" + host + path
	if q := u.RawQuery; q != "" {
		out += "?" + q
	}
	return out
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
