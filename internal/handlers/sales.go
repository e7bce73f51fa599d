// internal/handlers/sales.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

// maxSaleListLimit caps an explicit ?limit=; without one the full ledger is returned
const maxSaleListLimit = 500

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	sales  ports.SaleService
	jobs   ports.JobService
	logger *slog.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(sales ports.SaleService, jobs ports.JobService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		sales:  sales,
		jobs:   jobs,
		logger: logger.With(slog.String("handler", "sales")),
	}
}

// CreateSaleRequest is the body of POST /sales
type CreateSaleRequest struct {
	Items []SaleLineRequest `json:"items"`
}

// SaleLineRequest keeps quantity as a raw number so a fractional value is
// reported by sale validation in line order instead of as a decode error.
type SaleLineRequest struct {
	StockItemID uuid.UUID   `json:"stock_item_id"`
	Quantity    json.Number `json:"quantity"`
}

// ToDomain converts the request lines. Non-integer quantities become 0,
// which sale validation rejects as an invalid quantity on that line.
func (req *CreateSaleRequest) ToDomain() []domain.LineRequest {
	lines := make([]domain.LineRequest, 0, len(req.Items))
	for _, item := range req.Items {
		qty, err := item.Quantity.Int64()
		if err != nil {
			qty = 0
		}
		lines = append(lines, domain.LineRequest{StockItemID: item.StockItemID, Quantity: int(qty)})
	}
	return lines
}

// CancelSaleResponse confirms a cancellation
type CancelSaleResponse struct {
	Message      string      `json:"message"`
	SaleID       uuid.UUID   `json:"sale_id"`
	Restored     []uuid.UUID `json:"restored"`
	Skipped      []uuid.UUID `json:"skipped"`
	OwnerMissing bool        `json:"owner_missing,omitempty"`
}

// ExportJobResponse reports an export job and its download link
type ExportJobResponse struct {
	*domain.Job
	DownloadURL string `json:"download_url,omitempty"`
}

// CreateSale handles POST /api/v1/sales
func (h *SaleHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req CreateSaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	sale, err := h.sales.CreateSale(r.Context(), claims.UserID, req.ToDomain())
	if err != nil {
		respondServiceError(w, r, h.logger, "create sale", err)
		return
	}

	respondJSON(w, r, http.StatusCreated, sale)
}

// ListSales handles GET /api/v1/sales
func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	from, to, err := parseRange(r)
	if err != nil {
		respondServiceError(w, r, h.logger, "list sales", err)
		return
	}

	sales, err := h.sales.ListSales(r.Context(), claims.UserID, ports.SaleFilter{
		From:  from,
		To:    to,
		Limit: parseLimit(r.URL.Query().Get("limit"), maxSaleListLimit),
	})
	if err != nil {
		respondServiceError(w, r, h.logger, "list sales", err)
		return
	}
	if sales == nil {
		sales = []*domain.Sale{}
	}

	respondJSON(w, r, http.StatusOK, sales)
}

// GetSale handles GET /api/v1/sales/{id}
func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sale, err := h.sales.GetSale(r.Context(), claims.UserID, saleID)
	if err != nil {
		respondServiceError(w, r, h.logger, "get sale", err)
		return
	}

	respondJSON(w, r, http.StatusOK, sale)
}

// CancelSale handles DELETE /api/v1/sales/{id}
func (h *SaleHandler) CancelSale(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.sales.CancelSale(r.Context(), claims.UserID, saleID)
	if err != nil {
		respondServiceError(w, r, h.logger, "cancel sale", err)
		return
	}

	resp := CancelSaleResponse{
		Message:      "Sale cancelled",
		SaleID:       result.SaleID,
		Restored:     result.Restored,
		Skipped:      result.Skipped,
		OwnerMissing: result.OwnerMissing,
	}
	if resp.Restored == nil {
		resp.Restored = []uuid.UUID{}
	}
	if resp.Skipped == nil {
		resp.Skipped = []uuid.UUID{}
	}

	respondJSON(w, r, http.StatusOK, resp)
}

// Summary handles GET /api/v1/sales/summary
func (h *SaleHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	from, to, err := parseRange(r)
	if err != nil {
		respondServiceError(w, r, h.logger, "sales summary", err)
		return
	}

	summary, err := h.sales.Summary(r.Context(), claims.UserID, from, to)
	if err != nil {
		respondServiceError(w, r, h.logger, "sales summary", err)
		return
	}

	respondJSON(w, r, http.StatusOK, summary)
}

// RequestExport handles POST /api/v1/sales/exports
func (h *SaleHandler) RequestExport(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	from, to, err := parseRange(r)
	if err != nil {
		respondServiceError(w, r, h.logger, "request export", err)
		return
	}

	job, err := h.sales.RequestExport(r.Context(), claims.UserID, from, to)
	if err != nil {
		respondServiceError(w, r, h.logger, "request export", err)
		return
	}

	w.Header().Set("Location", "/api/v1/sales/exports/"+job.ID)
	respondJSON(w, r, http.StatusAccepted, job)
}

// GetExport handles GET /api/v1/sales/exports/{jobId}
func (h *SaleHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	job, url, err := h.jobs.GetJob(r.Context(), claims.UserID, r.PathValue("jobId"))
	if err != nil {
		respondServiceError(w, r, h.logger, "get export", err)
		return
	}
	if job.Kind != domain.JobSalesExport {
		respondServiceError(w, r, h.logger, "get export", domain.ErrJobNotFound)
		return
	}

	respondJSON(w, r, http.StatusOK, ExportJobResponse{Job: job, DownloadURL: url})
}
