package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRun(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]Check
		want   Status
		code   int
	}{
		{"all up", map[string]Check{"postgres": Ping(ok, false)}, StatusUp, http.StatusOK},
		{"optional down", map[string]Check{"postgres": Ping(ok, false), "redis": Ping(fail, true)}, StatusDegraded, http.StatusOK},
		{"required down", map[string]Check{"postgres": Ping(fail, false), "redis": Ping(fail, true)}, StatusDown, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for name, check := range tt.checks {
				c.Register(name, check)
			}
			if got := c.Run(context.Background()); got.Status != tt.want {
				t.Fatalf("status = %s, want %s", got.Status, tt.want)
			}
			rec := httptest.NewRecorder()
			c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if rec.Code != tt.code {
				t.Fatalf("ready code = %d, want %d", rec.Code, tt.code)
			}
		})
	}
}
