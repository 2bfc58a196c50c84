package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", Invalidf("n must be >= 1, got %d", 0), http.StatusBadRequest},
		{"insufficient data", Insufficientf("empty token sequence"), http.StatusUnprocessableEntity},
		{"speaker not found", fmt.Errorf("lookup: %w", ErrSpeakerNotFound), http.StatusNotFound},
		{"report not found", ErrReportNotFound, http.StatusNotFound},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"timeout", fmt.Errorf("analysis: %w", ErrTimeout), http.StatusServiceUnavailable},
		{"app error wins", New(ErrInvalidInput, http.StatusConflict, "duplicate"), http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Fatalf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrSpeakerNotFound, http.StatusNotFound, "speaker %q", "BIDEN")
	if !errors.Is(err, ErrSpeakerNotFound) {
		t.Fatal("expected AppError to unwrap to ErrSpeakerNotFound")
	}
	if got := err.Error(); got != `speaker not found: speaker "BIDEN"` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestInvalidfWraps(t *testing.T) {
	err := Invalidf("threshold %v out of range", 1.5)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatal("expected ErrInvalidArgument")
	}
	if errors.Is(err, ErrInsufficientData) {
		t.Fatal("did not expect ErrInsufficientData")
	}
}
