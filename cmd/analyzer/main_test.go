package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/config"
)

const transcript = `MODERATOR: Welcome to the debate.
SMITH: Taxes are too high and families are struggling. Cut taxes now.
JONES: Schools need funding. Teachers need support and schools need books.
SMITH: Lower taxes mean stronger families and a stronger economy.
JONES: A stronger economy starts with schools and teachers.`

// standalone returns a config with every external dependency disabled.
func standalone(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Postgres.Host = ""
	cfg.Redis.Addr = ""
	cfg.Kafka.Brokers = nil
	cfg.RateLimit.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	a, err := build(ctx, cfg, false, prometheus.NewRegistry())
	if err != nil {
		cancel()
		t.Fatalf("build: %v", err)
	}
	srv := httptest.NewServer(a.handler)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		a.close()
	})
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, standalone(t))

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, body := doJSON(t, http.MethodGet, srv.URL+path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
		if body["status"] == nil {
			t.Fatalf("%s: missing status in %v", path, body)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("%s: missing X-Request-ID header", path)
		}
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	srv := newTestServer(t, standalone(t))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/analyses", map[string]any{
		"title":      "Town hall",
		"transcript": transcript,
		"speakers":   []string{"SMITH", "JONES", "BROWN"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %v", resp.StatusCode, body)
	}
	if id, _ := body["id"].(string); id == "" {
		t.Fatalf("report has no id: %v", body)
	}
	speakers, _ := body["speakers"].([]any)
	if len(speakers) != 2 {
		t.Fatalf("want 2 speaker reports, got %d", len(speakers))
	}
	missing, _ := body["missing"].([]any)
	if len(missing) != 1 || missing[0] != "BROWN" {
		t.Fatalf("want BROWN missing, got %v", body["missing"])
	}
	pairs, _ := body["pairs"].([]any)
	if len(pairs) != 1 {
		t.Fatalf("want 1 pair, got %d", len(pairs))
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/reports", nil)
	if resp.StatusCode != http.StatusOK || body["count"] != float64(0) {
		t.Fatalf("listing without a store: status %d body %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/reports/missing-id", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown report: status %d", resp.StatusCode)
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, standalone(t))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/analyses", map[string]any{
		"transcript": " ",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
	fields, _ := body["fields"].(map[string]any)
	if fields["transcript"] == nil || fields["speakers"] == nil {
		t.Fatalf("expected transcript and speakers field errors, got %v", body)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/analyses", map[string]any{
		"transcript": transcript,
		"speakers":   []string{"BROWN"},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("no requested speaker present: status %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/analyses", strings.NewReader("{not json"))
	raw, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	raw.Body.Close()
	if raw.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body: status %d", raw.StatusCode)
	}
}

func TestAsyncWithoutKafka(t *testing.T) {
	srv := newTestServer(t, standalone(t))

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/analyses/async", map[string]any{
		"transcript": transcript,
		"speakers":   []string{"SMITH"},
	})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", resp.StatusCode)
	}
}

func TestCompareEndToEnd(t *testing.T) {
	srv := newTestServer(t, standalone(t))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/comparisons", map[string]any{
		"speaker": "SMITH",
		"first":   map[string]string{"title": "first", "transcript": transcript},
		"second":  map[string]string{"title": "second", "transcript": "SMITH: Taxes taxes taxes. Families first."},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %v", resp.StatusCode, body)
	}
	if body["speaker"] != "SMITH" || body["first"] != "first" || body["second"] != "second" {
		t.Fatalf("unexpected comparison %v", body)
	}
	if _, ok := body["jaccard"].(map[string]any); !ok {
		t.Fatalf("missing jaccard scores: %v", body)
	}
}

func TestRateLimiting(t *testing.T) {
	cfg := standalone(t)
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerMinute = 1
	cfg.RateLimit.Burst = 2
	srv := newTestServer(t, cfg)

	var limited bool
	for i := 0; i < 5; i++ {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/reports", nil)
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			if resp.Header.Get("Retry-After") == "" {
				t.Error("429 without Retry-After")
			}
			break
		}
	}
	if !limited {
		t.Fatal("expected a 429 after exhausting the burst")
	}

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/health/live", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health should bypass the limiter, got %d", resp.StatusCode)
	}
}
