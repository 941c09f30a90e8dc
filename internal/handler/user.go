package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippetbin/internal/service"
)

// UserHandler maps the read-only user routes onto UserService.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// HandleList returns all users.
//
// GET /users — public. Password hashes never appear in the output; the
// model's json:"-" tag guarantees it regardless of what gets serialized.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// HandleGetByID returns one user with their snippet IDs.
//
// GET /users/{id} — public, 404 for unknown ids.
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
