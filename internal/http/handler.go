package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/observability"
	"github.com/davidbz/creditmeter/internal/provider/response"
	"github.com/davidbz/creditmeter/internal/usage"
)

const (
	maxBatchRecords   = 10_000
	maxRecordBodyMB   = 1
	maxBatchBodyMB    = 32
	maxResponseBodyMB = 8
)

// CostResponse is the priced result of one usage record.
type CostResponse struct {
	Model      string                 `json:"model,omitempty"`
	Cost       domain.Cost            `json:"cost"`
	NoCost     bool                   `json:"noCost"`
	Components []domain.CostComponent `json:"components,omitempty"`
}

// BatchRequest reprices many usage records at once.
type BatchRequest struct {
	Records []usage.Record `json:"records"`
}

// BatchResponse holds costs in request order.
type BatchResponse struct {
	Costs []CostResponse `json:"costs"`
}

// EstimateResponse wraps a pre-call estimate.
type EstimateResponse struct {
	Estimate domain.Estimate `json:"estimate"`
}

// ModelsResponse lists catalog entries.
type ModelsResponse struct {
	Models []domain.ModelInfo `json:"models"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler handles HTTP requests.
type Handler struct {
	billing  *domain.BillingService
	metadata usage.MetadataDecoder
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(billing *domain.BillingService, metadata usage.MetadataDecoder) *Handler {
	return &Handler{
		billing:  billing,
		metadata: metadata,
	}
}

// HandleCost prices one completed call.
func (h *Handler) HandleCost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var rec usage.Record
	if !decodeBody(w, r, maxRecordBodyMB, &rec) {
		return
	}

	details, err := rec.Details(ctx, h.metadata)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	cost, err := h.billing.Charge(ctx, rec.Ref(), details)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, r, http.StatusOK, toCostResponse(cost))
}

// HandleProviderResponse prices a raw provider response body. The provider
// comes from the path; ?model= overrides the model id the response reports.
func (h *Handler) HandleProviderResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxResponseBodyMB<<20))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("failed to read body: %w", err))
		return
	}

	priced, err := response.Parse(r.PathValue("provider"), body, r.URL.Query().Get("model"))
	switch {
	case errors.Is(err, response.ErrUnknownProvider):
		writeError(w, r, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	cost, err := h.billing.Charge(ctx, priced.Ref, priced.Details)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	resp := toCostResponse(cost)
	resp.Model = priced.Ref.String()
	writeJSON(w, r, http.StatusOK, resp)
}

// HandleCostBatch reprices a batch of completed calls.
func (h *Handler) HandleCostBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req BatchRequest
	if !decodeBody(w, r, maxBatchBodyMB, &req) {
		return
	}
	if len(req.Records) > maxBatchRecords {
		writeError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Errorf("batch of %d records exceeds limit of %d", len(req.Records), maxBatchRecords))
		return
	}

	records := make([]domain.UsageRecord, len(req.Records))
	for i, rec := range req.Records {
		record, err := rec.UsageRecord(ctx, h.metadata)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("record %d: %w", i, err))
			return
		}
		records[i] = record
	}

	costs, err := h.billing.Backfill(ctx, records)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	resp := BatchResponse{Costs: make([]CostResponse, len(costs))}
	for i, cost := range costs {
		resp.Costs[i] = toCostResponse(cost)
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// HandleEstimate approximates the cost of a pending call.
func (h *Handler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req usage.EstimateRequest
	if !decodeBody(w, r, maxRecordBodyMB, &req) {
		return
	}

	estimate, err := h.billing.Estimate(ctx, req.Ref(), req.Options())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, r, http.StatusOK, EstimateResponse{Estimate: estimate})
}

// HandleModels lists the catalog.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	models, err := h.billing.Models(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, r, http.StatusOK, ModelsResponse{Models: models})
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func toCostResponse(cost domain.Cost) CostResponse {
	return CostResponse{
		Cost:       cost,
		NoCost:     cost.IsNoCost(),
		Components: cost.Components(),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrModelNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidModelRef), errors.Is(err, domain.ErrModalityMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads at most limitMB of JSON into v. On failure it writes the
// error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, limitMB int64, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limitMB<<20)).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Errorf("request body exceeds %d MB", limitMB))
		return false
	}

	writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	return false
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		// Status already written, just log.
		observability.FromContext(r.Context()).Error("failed to encode response", observability.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := observability.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", observability.Error(err))
	} else {
		logger.Info("request rejected",
			observability.Int("status", status),
			observability.Error(err))
	}

	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}
