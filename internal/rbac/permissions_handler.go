package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/accesshub/accesshub/internal/platform/httpx"
)

// PermissionsHandler manages permission CRUD endpoints.
type PermissionsHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewPermissionsHandler builds a PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service}
}

// MountRoutes registers permission routes. All of them require authentication.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Use(RequireAuth)
	r.Get("/", h.listPermissions)
	r.Post("/", h.createPermission)
	r.Put("/{id}", h.updatePermission)
	r.Delete("/{id}", h.deletePermission)
}

type permissionPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch permissions")
		return
	}
	if perms == nil {
		perms = []Permission{}
	}
	httpx.JSON(w, http.StatusOK, perms)
}

func (h *PermissionsHandler) createPermission(w http.ResponseWriter, r *http.Request) {
	var payload permissionPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), payload.Name, payload.Description)
	if err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			httpx.Error(w, http.StatusBadRequest, "Permission name is required")
			return
		}
		h.logger.Error("create permission", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to create permission")
		return
	}
	httpx.JSON(w, http.StatusOK, perm)
}

func (h *PermissionsHandler) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Permission not found")
		return
	}
	var payload permissionPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	perm, err := h.service.UpdatePermission(r.Context(), id, payload.Name, payload.Description)
	if err != nil {
		switch {
		case errors.Is(err, httpx.ErrValidation):
			httpx.Error(w, http.StatusBadRequest, "Permission name is required")
		case errors.Is(err, httpx.ErrNotFound):
			httpx.Error(w, http.StatusNotFound, "Permission not found")
		default:
			h.logger.Error("update permission", slog.Any("error", err))
			httpx.Error(w, http.StatusInternalServerError, "Failed to update permission")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, perm)
}

func (h *PermissionsHandler) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Permission not found")
		return
	}
	if err := h.service.DeletePermission(r.Context(), id); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Permission not found")
			return
		}
		h.logger.Error("delete permission", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete permission")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
