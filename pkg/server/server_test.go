package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disinfolab/casetrack/internal/casefile"
	"github.com/disinfolab/casetrack/internal/store"
	"github.com/disinfolab/casetrack/pkg/connector"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := casefile.NewService(db, connector.NewSeed(4))
	ts := httptest.NewServer(New(svc, 0).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func createTestCase(t *testing.T, ts *httptest.Server) store.CaseRecord {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/v1/cases", map[string]any{
		"title":     "Energy narrative monitoring",
		"query":     "energy claims",
		"platforms": []string{"x", "telegram"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create case: status %d", resp.StatusCode)
	}
	return decodeBody[store.CaseRecord](t, resp)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestCreateCaseValidationError(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/cases", map[string]any{"title": "abcd", "query": "energy claims"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for short title, got %d", resp.StatusCode)
	}
}

func TestCreateCaseInvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/cases", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", resp.StatusCode)
	}
}

func TestUnknownCaseIs404(t *testing.T) {
	ts := newTestServer(t)

	paths := []string{
		"/api/v1/cases/case_missing",
		"/api/v1/cases/case_missing/items",
		"/api/v1/cases/case_missing/alerts",
		"/api/v1/cases/case_missing/report",
		"/api/v1/cases/case_missing/timeline",
		"/api/v1/cases/case_missing/graph",
	}
	for _, path := range paths {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestGenerateProductsPrecondition(t *testing.T) {
	ts := newTestServer(t)
	c := createTestCase(t, ts)

	resp := postJSON(t, ts.URL+"/api/v1/cases/"+c.ID+"/generate-products", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 before analysis, got %d", resp.StatusCode)
	}
}

func TestCaseLifecycle(t *testing.T) {
	ts := newTestServer(t)
	c := createTestCase(t, ts)

	if c.Status != store.StatusDraft {
		t.Errorf("expected draft, got %s", c.Status)
	}

	resp := postJSON(t, ts.URL+"/api/v1/cases/"+c.ID+"/collect", nil)
	collected := decodeBody[store.CaseRecord](t, resp)
	if collected.ItemCount != 8 {
		t.Errorf("expected 8 items, got %d", collected.ItemCount)
	}

	resp = postJSON(t, ts.URL+"/api/v1/cases/"+c.ID+"/analyze", nil)
	analyzed := decodeBody[store.CaseRecord](t, resp)
	if analyzed.Status != store.StatusReady {
		t.Errorf("expected ready, got %s", analyzed.Status)
	}
	if analyzed.RiskScore <= 0 {
		t.Errorf("expected positive score, got %v", analyzed.RiskScore)
	}

	resp = postJSON(t, ts.URL+"/api/v1/cases/"+c.ID+"/generate-products", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate-products: status %d", resp.StatusCode)
	}

	for _, path := range []string{"alerts", "evidence", "media-verification", "timeline", "graph"} {
		url := fmt.Sprintf("%s/api/v1/cases/%s/%s", ts.URL, c.ID, path)
		getResp, err := http.Get(url)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		getResp.Body.Close()
		if getResp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, getResp.StatusCode)
		}
	}
}

func TestRunAllEndpoint(t *testing.T) {
	ts := newTestServer(t)
	c := createTestCase(t, ts)

	resp := postJSON(t, ts.URL+"/api/v1/cases/"+c.ID+"/run-all", nil)
	final := decodeBody[store.CaseRecord](t, resp)
	if final.Status != store.StatusReady {
		t.Errorf("expected ready after run-all, got %s", final.Status)
	}
	if final.ItemCount != 8 {
		t.Errorf("expected 8 items, got %d", final.ItemCount)
	}
}

func TestEmptyListsNotNull(t *testing.T) {
	ts := newTestServer(t)
	c := createTestCase(t, ts)

	resp, err := http.Get(ts.URL + "/api/v1/cases/" + c.ID + "/alerts")
	if err != nil {
		t.Fatalf("GET alerts: %v", err)
	}
	defer resp.Body.Close()
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Errorf("expected empty JSON array, got %s", raw)
	}
}

func TestReportHTML(t *testing.T) {
	ts := newTestServer(t)
	c := createTestCase(t, ts)

	postJSON(t, ts.URL+"/api/v1/cases/"+c.ID+"/run-all", nil).Body.Close()

	resp, err := http.Get(ts.URL + "/api/v1/cases/" + c.ID + "/report.html")
	if err != nil {
		t.Fatalf("GET report.html: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected HTML content type, got %s", ct)
	}

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "<h1") {
		t.Errorf("expected rendered headline, got %q", buf.String())
	}
}

func TestConnectorsAndCatalog(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/connectors")
	if err != nil {
		t.Fatalf("GET connectors: %v", err)
	}
	health := decodeBody[[]connector.Status](t, resp)
	if len(health) != 5 {
		t.Errorf("expected 5 connector entries, got %d", len(health))
	}

	resp, err = http.Get(ts.URL + "/api/v1/source-catalog")
	if err != nil {
		t.Fatalf("GET source-catalog: %v", err)
	}
	catalog := decodeBody[[]connector.CatalogEntry](t, resp)
	if len(catalog) != 7 {
		t.Errorf("expected 7 catalog entries, got %d", len(catalog))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	c := createTestCase(t, ts)
	postJSON(t, ts.URL+"/api/v1/cases/"+c.ID+"/run-all", nil).Body.Close()

	resp, err := http.Get(ts.URL + "/api/v1/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	metrics := decodeBody[store.GlobalMetrics](t, resp)
	if metrics.TotalCases != 1 {
		t.Errorf("expected 1 case, got %d", metrics.TotalCases)
	}
	if metrics.OpenAlerts == 0 {
		t.Error("expected open alerts after run-all")
	}
}
