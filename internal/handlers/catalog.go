// internal/handlers/catalog.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

// CatalogHandler serves the owner's products and services
type CatalogHandler struct {
	catalog       ports.CatalogService
	jobs          ports.JobService
	maxUploadSize int64
	logger        *slog.Logger
}

// NewCatalogHandler creates a catalog handler. maxUploadSize bounds import files in bytes.
func NewCatalogHandler(catalog ports.CatalogService, jobs ports.JobService, maxUploadSize int64, logger *slog.Logger) *CatalogHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 10 << 20
	}
	return &CatalogHandler{
		catalog:       catalog,
		jobs:          jobs,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("handler", "catalog")),
	}
}

// Request DTOs

// CreateProductRequest is the body of POST /products
type CreateProductRequest struct {
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Quantity      int             `json:"quantity"`
}

// CreateServiceRequest is the body of POST /services
type CreateServiceRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
}

// UpdateProductRequest carries optional product edits
type UpdateProductRequest struct {
	Name          *string           `json:"name"`
	PurchasePrice *decimal.Decimal  `json:"purchase_price"`
	SalePrice     *decimal.Decimal  `json:"sale_price"`
	Quantity      *int              `json:"quantity"`
	State         *domain.ItemState `json:"state"`
}

// UpdateServiceRequest carries optional service edits
type UpdateServiceRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Cost        *decimal.Decimal  `json:"cost"`
	State       *domain.ItemState `json:"state"`
}

// RestockRequest is the body of POST /products/{id}/restock
type RestockRequest struct {
	Quantity int `json:"quantity"`
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.KindProduct)
}

// ListServices handles GET /api/v1/services
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.KindService)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request, kind domain.ItemKind) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	state, err := domain.ParseStateFilter(kind, r.URL.Query().Get("state"))
	if err != nil {
		respondServiceError(w, r, h.logger, "list catalog", err)
		return
	}

	items, err := h.catalog.List(r.Context(), claims.UserID, ports.CatalogFilter{Kind: kind, State: state})
	if err != nil {
		respondServiceError(w, r, h.logger, "list catalog", err)
		return
	}
	if items == nil {
		items = []*domain.StockItem{}
	}

	respondJSON(w, r, http.StatusOK, items)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, domain.KindProduct)
}

// GetService handles GET /api/v1/services/{id}
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, domain.KindService)
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request, kind domain.ItemKind) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	item, err := h.catalog.GetItem(r.Context(), claims.UserID, itemID, kind)
	if err != nil {
		respondServiceError(w, r, h.logger, "get item", err)
		return
	}

	respondJSON(w, r, http.StatusOK, item)
}

// CreateProduct handles POST /api/v1/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	item, err := h.catalog.CreateProduct(r.Context(), claims.UserID, ports.ProductInput{
		Name:          req.Name,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Quantity:      req.Quantity,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, "create product", err)
		return
	}

	respondJSON(w, r, http.StatusCreated, item)
}

// CreateService handles POST /api/v1/services
func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req CreateServiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	item, err := h.catalog.CreateService(r.Context(), claims.UserID, ports.ServiceInput{
		Name:        req.Name,
		Description: req.Description,
		Cost:        req.Cost,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, "create service", err)
		return
	}

	respondJSON(w, r, http.StatusCreated, item)
}

// UpdateProduct handles PATCH /api/v1/products/{id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	item, err := h.catalog.UpdateProduct(r.Context(), claims.UserID, itemID, domain.ProductPatch{
		Name:          req.Name,
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Quantity:      req.Quantity,
		State:         req.State,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, "update product", err)
		return
	}

	respondJSON(w, r, http.StatusOK, item)
}

// UpdateService handles PATCH /api/v1/services/{id}
func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateServiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	item, err := h.catalog.UpdateService(r.Context(), claims.UserID, itemID, domain.ServicePatch{
		Name:        req.Name,
		Description: req.Description,
		Cost:        req.Cost,
		State:       req.State,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, "update service", err)
		return
	}

	respondJSON(w, r, http.StatusOK, item)
}

// DeactivateProduct handles DELETE /api/v1/products/{id}
func (h *CatalogHandler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, domain.KindProduct, false)
}

// DeactivateService handles DELETE /api/v1/services/{id}
func (h *CatalogHandler) DeactivateService(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, domain.KindService, false)
}

// ActivateProduct handles POST /api/v1/products/{id}/activate
func (h *CatalogHandler) ActivateProduct(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, domain.KindProduct, true)
}

// ActivateService handles POST /api/v1/services/{id}/activate
func (h *CatalogHandler) ActivateService(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, domain.KindService, true)
}

func (h *CatalogHandler) setActive(w http.ResponseWriter, r *http.Request, kind domain.ItemKind, active bool) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var (
		item *domain.StockItem
		err  error
	)
	if active {
		item, err = h.catalog.Activate(r.Context(), claims.UserID, itemID, kind)
	} else {
		item, err = h.catalog.Deactivate(r.Context(), claims.UserID, itemID, kind)
	}
	if err != nil {
		respondServiceError(w, r, h.logger, "change item state", err)
		return
	}

	respondJSON(w, r, http.StatusOK, item)
}

// RestockProduct handles POST /api/v1/products/{id}/restock
func (h *CatalogHandler) RestockProduct(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req RestockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	item, err := h.catalog.Restock(r.Context(), claims.UserID, itemID, req.Quantity)
	if err != nil {
		respondServiceError(w, r, h.logger, "restock product", err)
		return
	}

	respondJSON(w, r, http.StatusOK, item)
}

// ImportProducts handles POST /api/v1/products/imports (multipart field "file")
func (h *CatalogHandler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1<<10)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_upload", "File too large or invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_upload", "Missing file field")
		return
	}
	defer file.Close()

	job, err := h.catalog.RequestImport(r.Context(), claims.UserID, ports.ImportUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, "request import", err)
		return
	}

	w.Header().Set("Location", "/api/v1/products/imports/"+job.ID)
	respondJSON(w, r, http.StatusAccepted, job)
}

// GetImport handles GET /api/v1/products/imports/{jobId}
func (h *CatalogHandler) GetImport(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	job, _, err := h.jobs.GetJob(r.Context(), claims.UserID, r.PathValue("jobId"))
	if err != nil {
		respondServiceError(w, r, h.logger, "get import", err)
		return
	}
	if job.Kind != domain.JobProductImport {
		respondServiceError(w, r, h.logger, "get import", domain.ErrJobNotFound)
		return
	}

	respondJSON(w, r, http.StatusOK, job)
}
