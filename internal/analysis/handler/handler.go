// Package handler exposes the analysis service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/analysis/validator"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Debate-Transcript-Analytics/pkg/logger"
)

// Service is implemented by service.Service.
type Service interface {
	Analyze(ctx context.Context, req report.Request) (*report.DebateReport, bool, error)
	Submit(ctx context.Context, req report.Request) (*analysis.SubmitResponse, error)
	Report(ctx context.Context, id string) (*report.DebateReport, error)
	List(ctx context.Context, filter report.ListFilter) ([]report.Summary, error)
	Compare(ctx context.Context, req report.ComparisonRequest) (*report.Comparison, error)
}

// CacheHeader reports whether a synchronous analysis was served from cache.
const CacheHeader = "X-Report-Cache"

type Handler struct {
	svc          Service
	maxBodyBytes int64
	logger       *slog.Logger
}

// New creates a Handler. maxBodyBytes <= 0 leaves request bodies unbounded.
func New(svc Service, maxBodyBytes int64) *Handler {
	return &Handler{
		svc:          svc,
		maxBodyBytes: maxBodyBytes,
		logger:       slog.Default().With("component", "analysis-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/analyses", h.Analyze)
	mux.HandleFunc("POST /api/v1/analyses/async", h.Submit)
	mux.HandleFunc("GET /api/v1/reports", h.List)
	mux.HandleFunc("GET /api/v1/reports/{id}", h.Report)
	mux.HandleFunc("POST /api/v1/comparisons", h.Compare)
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req report.Request
	if !h.decode(w, r, &req) {
		return
	}
	rep, cached, err := h.svc.Analyze(r.Context(), req)
	if err != nil {
		h.fail(w, r, "analysis failed", err)
		return
	}
	if cached {
		w.Header().Set(CacheHeader, "hit")
	} else {
		w.Header().Set(CacheHeader, "miss")
	}
	logger.FromContext(r.Context()).Info("analysis served",
		"report_id", rep.ID,
		"speakers", len(rep.Speakers),
		"cached", cached,
	)
	h.writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req report.Request
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		h.fail(w, r, "submission failed", err)
		return
	}
	w.Header().Set("Location", "/api/v1/reports/"+resp.ReportID)
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "report id is required")
		return
	}
	rep, err := h.svc.Report(r.Context(), id)
	if err != nil {
		h.fail(w, r, "loading report failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, rep)
}

// List serves GET /api/v1/reports?speaker=&limit=&offset=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := report.ListFilter{Speaker: q.Get("speaker")}
	fields := make(map[string]string)
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > report.MaxListLimit {
			fields["limit"] = "limit must be between 1 and " + strconv.Itoa(report.MaxListLimit)
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fields["offset"] = "offset must be a non-negative integer"
		}
		filter.Offset = n
	}
	if len(fields) > 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": fields,
		})
		return
	}
	list, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "listing reports failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"reports": list,
		"count":   len(list),
	})
}

func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req report.ComparisonRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.svc.Compare(r.Context(), req)
	if err != nil {
		h.fail(w, r, "comparison failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// fail maps err to a status code. Validation errors carry their per-field
// messages; server-side failures hide the cause from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}
	status := apperrors.HTTPStatusCode(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(msg, "error", err, "status_code", status)
		h.writeError(w, status, msg)
		return
	}
	log.Info(msg, "error", err, "status_code", status)
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
