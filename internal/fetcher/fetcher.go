package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"

	"seoaudit/pkg/types"
)

// Options controls HTTP fetching behaviour.
type Options struct {
	UserAgent      string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	MaxRedirects   int
}

// Fetcher performs single GETs with manual redirect tracing so that every
// hop ends up in the record. All failures are encoded in the result; Fetch
// never returns an error to its caller.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	timeout      time.Duration
	maxBodyBytes int64
	maxRedirects int
	retryBackoff time.Duration
}

// New constructs a fetcher with a tuned shared transport.
func New(opts Options) *Fetcher {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 * 1024 * 1024
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 10
	}

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		// Redirects are walked by hand in Fetch so each hop is recorded.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Fetcher{
		client:       client,
		userAgent:    opts.UserAgent,
		timeout:      opts.RequestTimeout,
		maxBodyBytes: opts.MaxBodyBytes,
		maxRedirects: opts.MaxRedirects,
		retryBackoff: 500 * time.Millisecond,
	}
}

// Client exposes the underlying HTTP client for reuse (eg. robots.txt and
// sitemap fetches).
func (f *Fetcher) Client() *http.Client {
	if f == nil {
		return nil
	}
	return f.client
}

// UserAgent returns the identifying user agent string.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Fetch retrieves a single URL. Transient network failures are retried once
// after a short backoff; HTTP status errors are never retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *types.FetchResult {
	result := f.attempt(ctx, rawURL)
	if transient(result.Error) && ctx.Err() == nil {
		timer := time.NewTimer(f.retryBackoff)
		select {
		case <-timer.C:
			result = f.attempt(ctx, rawURL)
		case <-ctx.Done():
			timer.Stop()
		}
	}
	return result
}

func (f *Fetcher) attempt(parent context.Context, rawURL string) *types.FetchResult {
	result := &types.FetchResult{RequestedURL: rawURL, FinalURL: rawURL}
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	ctx, cancel := context.WithTimeout(parent, f.timeout)
	defer cancel()

	current := rawURL
	seen := map[string]struct{}{}

	for hop := 0; ; hop++ {
		if hop > f.maxRedirects {
			result.Error = types.FetchTooManyRedirects
			return result
		}
		if _, dup := seen[current]; dup {
			result.Error = types.FetchRedirectLoop
			return result
		}
		seen[current] = struct{}{}

		resp, err := f.get(ctx, current)
		if err != nil {
			result.Error = classify(parent, err)
			return result
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 && resp.Header.Get("Location") != "" {
			result.RedirectChain = append(result.RedirectChain, types.RedirectHop{URL: current, Status: resp.StatusCode})
			next, err := resp.Request.URL.Parse(resp.Header.Get("Location"))
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if err != nil {
				result.Error = types.FetchNetworkError
				return result
			}
			next.Fragment = ""
			current = next.String()
			result.FinalURL = current
			continue
		}

		result.FinalURL = resp.Request.URL.String()
		result.StatusCode = resp.StatusCode
		result.Headers = resp.Header.Clone()

		body, truncated, err := f.readBody(resp)
		if err != nil {
			result.Error = classify(parent, err)
			return result
		}
		result.Body = decodeBody(body, resp.Header.Get("Content-Type"))
		result.BodyTruncated = truncated
		return result
	}
}

func (f *Fetcher) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	return f.client.Do(req)
}

func (f *Fetcher) readBody(resp *http.Response) (body []byte, truncated bool, err error) {
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, gerr := gzip.NewReader(resp.Body)
		if gerr != nil {
			return nil, false, gerr
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	}

	body, err = io.ReadAll(io.LimitReader(reader, f.maxBodyBytes+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > f.maxBodyBytes {
		return body[:f.maxBodyBytes], true, nil
	}
	return body, false, nil
}

// decodeBody converts textual bodies to UTF-8 using the declared or sniffed
// charset. Non-text payloads (sitemap XML, images) pass through untouched.
func decodeBody(body []byte, contentType string) []byte {
	lower := strings.ToLower(contentType)
	if !strings.Contains(lower, "text/") && !strings.Contains(lower, "xhtml") {
		return body
	}

	if name := headerCharset(lower); name != "" && name != "utf-8" && name != "utf8" {
		if enc, err := htmlindex.Get(name); err == nil {
			if decoded, err := enc.NewDecoder().Bytes(body); err == nil {
				return decoded
			}
		}
	}

	// BOM and meta-tag aware sniff. Undeclared bodies that are valid UTF-8
	// pass through; other undeclared bodies decode as windows-1252.
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain && name == "utf-8" {
		return body
	}
	if decoded, err := enc.NewDecoder().Bytes(body); err == nil {
		return decoded
	}
	return body
}

func headerCharset(contentType string) string {
	for _, part := range strings.Split(contentType, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "charset=") {
			return strings.Trim(strings.TrimPrefix(part, "charset="), `"'`)
		}
	}
	return ""
}

func transient(e types.FetchError) bool {
	switch e {
	case types.FetchTimeout, types.FetchDNSError, types.FetchRefused, types.FetchNetworkError:
		return true
	}
	return false
}

func classify(ctx context.Context, err error) types.FetchError {
	if err == nil {
		return types.FetchOK
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.FetchTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return types.FetchDNSError
	}
	var certErr *tls.CertificateVerificationError
	var recErr tls.RecordHeaderError
	var unkErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &recErr) || errors.As(err, &unkErr) || errors.As(err, &hostErr) {
		return types.FetchTLSError
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return types.FetchRefused
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.FetchTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return types.FetchTimeout
	}
	return types.FetchNetworkError
}
