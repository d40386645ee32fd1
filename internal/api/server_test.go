package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"seoaudit/internal/audit"
	"seoaudit/internal/config"
	"seoaudit/pkg/types"
)

func newTestServer() *Server {
	cfg := config.Default()
	cfg.Audit.HostRatePerSec = 1000
	cfg.Audit.MaxPages = 20
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(audit.NewService(cfg, logger), logger)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := doJSON(t, newTestServer(), http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestHealthMethodNotAllowed(t *testing.T) {
	rr := doJSON(t, newTestServer(), http.MethodPost, "/health", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestAuditRejectsInvalidInput(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/audit", AuditRequest{URL: "ftp://site.test/"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad scheme: status = %d", rr.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "invalid_url" {
		t.Errorf("error = %q, want invalid_url", resp.Error)
	}

	zero := 0
	rr = doJSON(t, server, http.MethodPost, "/audit", AuditRequest{URL: "https://site.test/", MaxPages: &zero})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("zero max_pages: status = %d", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "invalid_max_pages" {
		t.Errorf("error = %q, want invalid_max_pages", resp.Error)
	}

	req := httptest.NewRequest(http.MethodPost, "/audit", bytes.NewReader([]byte("{not json")))
	rr2 := httptest.NewRecorder()
	server.ServeHTTP(rr2, req)
	if rr2.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status = %d", rr2.Code)
	}
}

func TestAuditEndToEnd(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>A small test page for audits</title></head><body><h1>Hi</h1></body></html>`)
	}))
	defer site.Close()

	two := 2
	rr := doJSON(t, newTestServer(), http.MethodPost, "/audit", AuditRequest{URL: site.URL, MaxPages: &two})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var rep types.AuditReport
	if err := json.Unmarshal(rr.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.AuditStats.SiteOverview.TotalCrawledPages != 1 {
		t.Errorf("pages = %d, want 1", rep.AuditStats.SiteOverview.TotalCrawledPages)
	}
	if rep.AuditStats.StatusCodeDistribution["200"] != 1 {
		t.Errorf("distribution = %v", rep.AuditStats.StatusCodeDistribution)
	}
	// Plain HTTP test server: the not_https finding must surface.
	if rep.AuditStats.TechnicalSEO["not_https"] != 1 {
		t.Errorf("technical_seo = %v, want not_https", rep.AuditStats.TechnicalSEO)
	}
	if rep.ExecutionTime <= 0 {
		t.Error("execution_time must be positive")
	}
}
