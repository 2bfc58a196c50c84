package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis/validator"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
)

type fakeService struct {
	err        error
	cached     bool
	lastFilter report.ListFilter
}

func (f *fakeService) Analyze(_ context.Context, req report.Request) (*report.DebateReport, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if len(req.Speakers) == 0 {
		return nil, false, &validator.ValidationError{Fields: map[string]string{"speakers": "at least one speaker is required"}}
	}
	return &report.DebateReport{ID: "r1", Title: req.Title}, f.cached, nil
}

func (f *fakeService) Submit(_ context.Context, _ report.Request) (*analysis.SubmitResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.SubmitResponse{ReportID: "r2", Status: analysis.StatusAccepted}, nil
}

func (f *fakeService) Report(_ context.Context, id string) (*report.DebateReport, error) {
	if id != "r1" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrReportNotFound, id)
	}
	return &report.DebateReport{ID: id}, nil
}

func (f *fakeService) List(_ context.Context, filter report.ListFilter) ([]report.Summary, error) {
	f.lastFilter = filter
	return []report.Summary{{ID: "r1"}}, nil
}

func (f *fakeService) Compare(_ context.Context, req report.ComparisonRequest) (*report.Comparison, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &report.Comparison{Speaker: req.Speaker}, nil
}

func newServer(svc Service, maxBody int64) *httptest.Server {
	mux := http.NewServeMux()
	New(svc, maxBody).Register(mux)
	return httptest.NewServer(mux)
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestAnalyze(t *testing.T) {
	svc := &fakeService{cached: true}
	srv := newServer(svc, 0)
	defer srv.Close()

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/analyses", `{"title":"x","transcript":"A: hi","speakers":["A"]}`)
	if resp.StatusCode != http.StatusOK || body["id"] != "r1" {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
	if resp.Header.Get(CacheHeader) != "hit" {
		t.Fatalf("cache header = %q", resp.Header.Get(CacheHeader))
	}

	resp, body = do(t, http.MethodPost, srv.URL+"/api/v1/analyses", `{"transcript":"A: hi"}`)
	fields, _ := body["fields"].(map[string]any)
	if resp.StatusCode != http.StatusBadRequest || fields["speakers"] == nil {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/analyses", `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid JSON status = %d", resp.StatusCode)
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"speaker not found", apperrors.ErrSpeakerNotFound, http.StatusNotFound},
		{"timeout", apperrors.ErrTimeout, http.StatusServiceUnavailable},
		{"internal", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(&fakeService{err: tt.err}, 0)
			defer srv.Close()
			resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/analyses", `{"transcript":"A: hi","speakers":["A"]}`)
			if resp.StatusCode != tt.want {
				t.Fatalf("status %d, want %d", resp.StatusCode, tt.want)
			}
			if tt.want == http.StatusInternalServerError && body["error"] != "analysis failed" {
				t.Fatalf("internal error leaked: %v", body)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	srv := newServer(&fakeService{}, 16)
	defer srv.Close()
	resp, _ := do(t, http.MethodPost, srv.URL+"/api/v1/analyses", `{"transcript":"`+strings.Repeat("a", 64)+`","speakers":["A"]}`)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
}

func TestSubmit(t *testing.T) {
	srv := newServer(&fakeService{}, 0)
	defer srv.Close()
	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/analyses/async", `{"transcript":"A: hi","speakers":["A"]}`)
	if resp.StatusCode != http.StatusAccepted || body["report_id"] != "r2" {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
	if resp.Header.Get("Location") != "/api/v1/reports/r2" {
		t.Fatalf("Location = %q", resp.Header.Get("Location"))
	}

	unavailable := newServer(&fakeService{err: apperrors.New(apperrors.ErrUnavailable, 503, "asynchronous analysis is not enabled")}, 0)
	defer unavailable.Close()
	resp, _ = do(t, http.MethodPost, unavailable.URL+"/api/v1/analyses/async", `{"transcript":"A: hi","speakers":["A"]}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestReportAndList(t *testing.T) {
	svc := &fakeService{}
	srv := newServer(svc, 0)
	defer srv.Close()

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/reports/r1", "")
	if resp.StatusCode != http.StatusOK || body["id"] != "r1" {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
	resp, _ = do(t, http.MethodGet, srv.URL+"/api/v1/reports/missing", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/reports?speaker=TRUMP&limit=5&offset=10", "")
	if resp.StatusCode != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
	if svc.lastFilter != (report.ListFilter{Speaker: "TRUMP", Limit: 5, Offset: 10}) {
		t.Fatalf("filter = %+v", svc.lastFilter)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/reports?limit=0&offset=-1", "")
	fields, _ := body["fields"].(map[string]any)
	if resp.StatusCode != http.StatusBadRequest || len(fields) != 2 {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
}

func TestCompare(t *testing.T) {
	srv := newServer(&fakeService{}, 0)
	defer srv.Close()
	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/comparisons",
		`{"speaker":"TRUMP","first":{"transcript":"TRUMP: a"},"second":{"transcript":"TRUMP: b"}}`)
	if resp.StatusCode != http.StatusOK || body["speaker"] != "TRUMP" {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
}

type fakeCache struct {
	hits, misses int64
	err          error
	invalidated  bool
}

func (f *fakeCache) Stats() (int64, int64) { return f.hits, f.misses }

func (f *fakeCache) Invalidate(context.Context) error {
	f.invalidated = f.err == nil
	return f.err
}

func TestCacheHandler(t *testing.T) {
	fc := &fakeCache{hits: 3, misses: 1}
	mux := http.NewServeMux()
	NewCacheHandler(fc).Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/cache/stats", "")
	if resp.StatusCode != http.StatusOK || body["hit_rate"] != 0.75 {
		t.Fatalf("status %d body %v", resp.StatusCode, body)
	}
	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/cache/invalidate", "")
	if resp.StatusCode != http.StatusOK || !fc.invalidated {
		t.Fatalf("invalidate status %d", resp.StatusCode)
	}
	fc.err = fmt.Errorf("redis down")
	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/cache/invalidate", "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("failed invalidate status %d", resp.StatusCode)
	}
}
