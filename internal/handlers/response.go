// internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/handlers/middleware"
	"github.com/ammerola/stockledger-be/internal/pkg/logger"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the body of every non-2xx JSON reply
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
	LineIndex *int   `json:"line_index,omitempty"`
	ItemID    string `json:"item_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// order matters: the first match wins
var errorMappings = []errorMapping{
	{domain.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{domain.ErrSaleNotFound, http.StatusNotFound, "sale_not_found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{domain.ErrJobNotFound, http.StatusNotFound, "job_not_found"},
	{domain.ErrOwnerNotFound, http.StatusNotFound, "owner_not_found"},
	{domain.ErrItemNotActive, http.StatusConflict, "item_not_active"},
	{domain.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{domain.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{domain.ErrEmptySale, http.StatusBadRequest, "empty_sale"},
	{domain.ErrKindMismatch, http.StatusBadRequest, "kind_mismatch"},
	{domain.ErrValidation, http.StatusBadRequest, "validation_failed"},
	{domain.ErrEmailTaken, http.StatusBadRequest, "email_taken"},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, "invalid_credentials"},
	{domain.ErrUserDisabled, http.StatusForbidden, "user_disabled"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
}

// statusForError maps a service error onto an HTTP status and error code
func statusForError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: logger.RequestID(r.Context()),
	})
}

// respondServiceError logs unexpected failures and hides their details
func respondServiceError(w http.ResponseWriter, r *http.Request, l *slog.Logger, op string, err error) {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), op+" failed", slog.String("error", err.Error()))
		respondError(w, r, status, code, "Internal Server Error")
		return
	}

	body := ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: logger.RequestID(r.Context()),
	}
	var saleErr *domain.SaleError
	if errors.As(err, &saleErr) {
		idx := saleErr.LineIndex
		body.LineIndex = &idx
		body.ItemID = saleErr.ItemID.String()
		if errors.Is(saleErr.Kind, domain.ErrInsufficientStock) {
			body.Requested = saleErr.Requested
			available := saleErr.Available
			body.Available = &available
		}
	}
	respondJSON(w, r, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}

// requireClaims returns the caller identity or answers 401
func requireClaims(w http.ResponseWriter, r *http.Request) (*ports.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
		return nil, false
	}
	return claims, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_id", "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// parseTimeParam accepts RFC3339 or a bare date. Empty yields the zero time.
func parseTimeParam(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError("invalid date %q", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := parseTimeParam(r.URL.Query().Get("from"), false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"), true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, domain.NewValidationError("to must not be before from")
	}
	return from, to, nil
}

// parseLimit returns 0 (no limit) when raw is absent or not a positive integer
func parseLimit(raw string, max int) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
