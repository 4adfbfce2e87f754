package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/accesshub/accesshub/internal/platform/httpx"
)

// RolesHandler manages role CRUD and grant endpoints.
type RolesHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewRolesHandler builds a RolesHandler instance.
func NewRolesHandler(logger *slog.Logger, service *Service) *RolesHandler {
	return &RolesHandler{logger: logger, service: service}
}

// MountRoutes registers role routes. All of them require authentication.
func (h *RolesHandler) MountRoutes(r chi.Router) {
	r.Use(RequireAuth)
	r.Get("/", h.listRoles)
	r.Post("/", h.createRole)
	r.Get("/{id}", h.getRole)
	r.Put("/{id}", h.updateRole)
	r.Delete("/{id}", h.deleteRole)
	r.Post("/{id}/permissions", h.assignPermission)
	r.Delete("/{id}/permissions/{permissionId}", h.removePermission)
}

type rolePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type assignPayload struct {
	PermissionID int64 `json:"permissionId"`
}

func (h *RolesHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch roles")
		return
	}
	if roles == nil {
		roles = []RoleWithStats{}
	}
	httpx.JSON(w, http.StatusOK, roles)
}

func (h *RolesHandler) createRole(w http.ResponseWriter, r *http.Request) {
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	role, err := h.service.CreateRole(r.Context(), payload.Name, payload.Description)
	if err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			httpx.Error(w, http.StatusBadRequest, "Role name is required")
			return
		}
		h.logger.Error("create role", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to create role")
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *RolesHandler) getRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Role not found")
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Role not found")
			return
		}
		h.logger.Error("get role", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch role")
		return
	}
	if role.Permissions == nil {
		role.Permissions = []Permission{}
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *RolesHandler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Role not found")
		return
	}
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	role, err := h.service.UpdateRole(r.Context(), id, payload.Name, payload.Description)
	if err != nil {
		switch {
		case errors.Is(err, httpx.ErrValidation):
			httpx.Error(w, http.StatusBadRequest, "Role name is required")
		case errors.Is(err, httpx.ErrNotFound):
			httpx.Error(w, http.StatusNotFound, "Role not found")
		default:
			h.logger.Error("update role", slog.Any("error", err))
			httpx.Error(w, http.StatusInternalServerError, "Failed to update role")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *RolesHandler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Role not found")
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			httpx.Error(w, http.StatusNotFound, "Role not found")
			return
		}
		h.logger.Error("delete role", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete role")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *RolesHandler) assignPermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Role not found")
		return
	}
	var payload assignPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil || payload.PermissionID == 0 {
		httpx.Error(w, http.StatusBadRequest, "Permission ID is required")
		return
	}
	grant, err := h.service.GrantPermission(r.Context(), id, payload.PermissionID)
	if err != nil {
		h.logger.Error("assign permission", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to assign permission")
		return
	}
	httpx.JSON(w, http.StatusOK, grant)
}

func (h *RolesHandler) removePermission(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Role not found")
		return
	}
	permissionID, err := pathID(r, "permissionId")
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "Permission not found")
		return
	}
	if err := h.service.RevokePermission(r.Context(), id, permissionID); err != nil {
		h.logger.Error("remove permission", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to remove permission")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func pathID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
