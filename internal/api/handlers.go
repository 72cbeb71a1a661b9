// Package api exposes HTTP handlers for the health data service.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"example.com/healthdata/internal/auth"
	"example.com/healthdata/internal/domain"
	"example.com/healthdata/internal/healthdata"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service      *domain.Service
	prefix       string
	maxBodyBytes int64
	requireScope bool
}

// HandlerConfig carries the routing and limits for a Handler.
type HandlerConfig struct {
	// Prefix is prepended to every API route, e.g. "/api/v1".
	Prefix       string
	MaxBodyBytes int64
	// RequireScope enforces auth.ScopeHealthDataExtract on extraction calls.
	RequireScope bool
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, cfg HandlerConfig) *Handler {
	return &Handler{
		service:      service,
		prefix:       cfg.Prefix,
		maxBodyBytes: cfg.MaxBodyBytes,
		requireScope: cfg.RequireScope,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(h.prefix+"/extract-steps/", h.extractSteps)
	mux.HandleFunc(h.prefix+"/extract-steps", h.extractSteps)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) extractSteps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	if h.requireScope {
		claims, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if !claims.HasScope(auth.ScopeHealthDataExtract) {
			writeError(w, http.StatusForbidden, "forbidden", "scope "+auth.ScopeHealthDataExtract+" required")
			return
		}
	}

	query, err := ParseExtractQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	body, err := h.readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "export document exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return
	}

	dataset, err := h.service.ExtractDataset(r.Context(), domain.ExtractInput{
		XML:          body,
		Mode:         query.Mode,
		IncludeSleep: query.IncludeSleep,
	})
	if err != nil {
		switch {
		case errors.Is(err, healthdata.ErrMalformedXML):
			writeError(w, http.StatusBadRequest, "invalid_xml", err.Error())
		case errors.Is(err, healthdata.ErrNoStepRecords):
			writeError(w, http.StatusUnprocessableEntity, "empty_dataset", err.Error())
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("extraction failed")
			writeError(w, http.StatusInternalServerError, "server_error", "extraction failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, toDatasetResponse(dataset))
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	reader := io.Reader(r.Body)
	if h.maxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	return io.ReadAll(reader)
}

// RecordView is one step or sleep sample in the response.
type RecordView struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Value     string `json:"value"`
}

// DatasetResponse is the body returned by the extraction endpoint. SleepData
// is nil only when sleep was not requested; a request that matched no sleep
// samples gets an empty list.
type DatasetResponse struct {
	ID        string        `json:"id"`
	StepData  []RecordView  `json:"stepData"`
	SleepData *[]RecordView `json:"sleepData,omitempty"`
}

func toDatasetResponse(d *domain.Dataset) DatasetResponse {
	resp := DatasetResponse{
		ID:       d.ID,
		StepData: toRecordViews(d.Steps),
	}
	if d.IncludeSleep {
		sleep := toRecordViews(d.Sleep)
		resp.SleepData = &sleep
	}
	return resp
}

func toRecordViews(records []healthdata.Record) []RecordView {
	out := make([]RecordView, 0, len(records))
	for _, r := range records {
		out = append(out, RecordView{StartDate: r.StartDate, EndDate: r.EndDate, Value: r.Value})
	}
	return out
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
