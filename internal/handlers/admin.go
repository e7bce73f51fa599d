// internal/handlers/admin.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

// AdminHandler serves user administration. Routes are mounted behind RequireRole(admin).
type AdminHandler struct {
	users  ports.UserAdminService
	logger *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(users ports.UserAdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		users:  users,
		logger: logger.With(slog.String("handler", "admin")),
	}
}

// UpdateUserRequest carries optional admin edits
type UpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, "list users", err)
		return
	}
	if users == nil {
		users = []*domain.User{}
	}

	respondJSON(w, r, http.StatusOK, users)
}

// ToggleUser handles POST /api/v1/admin/users/{id}/toggle
func (h *AdminHandler) ToggleUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.users.ToggleUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, h.logger, "toggle user", err)
		return
	}

	h.logger.InfoContext(r.Context(), "user toggled",
		slog.String("target_user_id", userID.String()),
		slog.Bool("enabled", user.Enabled))

	respondJSON(w, r, http.StatusOK, user)
}

// UpdateUser handles PATCH /api/v1/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	user, err := h.users.UpdateUser(r.Context(), userID, ports.UserPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, "update user", err)
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}
