package agent

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/rbac"
)

// Handler exposes the natural-language command endpoint.
type Handler struct {
	logger           *slog.Logger
	service          *Service
	apiKeyConfigured bool
}

// NewHandler constructs a Handler. apiKeyConfigured reflects whether the model
// credential was present at startup; its absence is reported before any model
// call is attempted.
func NewHandler(logger *slog.Logger, service *Service, apiKeyConfigured bool) *Handler {
	return &Handler{logger: logger, service: service, apiKeyConfigured: apiKeyConfigured}
}

// MountRoutes registers agent routes. Authentication is required.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(rbac.RequireAuth)
	r.Post("/command", h.handleCommand)
}

type commandRequest struct {
	Command string `json:"command"`
}

type commandResponse struct {
	Success bool     `json:"success"`
	Results []string `json:"results"`
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request) {
	if !h.apiKeyConfigured {
		httpx.Error(w, http.StatusInternalServerError, "GEMINI_API_KEY is not configured on the server.")
		return
	}

	var req commandRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		httpx.Error(w, http.StatusBadRequest, "Command is required")
		return
	}

	results, err := h.service.Execute(r.Context(), req.Command)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnparseable):
			httpx.Error(w, http.StatusBadRequest, "Failed to interpret command")
		case errors.Is(err, ErrNotArray):
			httpx.Error(w, http.StatusInternalServerError, "Invalid response format from agent")
		default:
			h.logger.Error("agent command", slog.Any("error", err))
			httpx.Error(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	if results == nil {
		results = []string{}
	}
	httpx.JSON(w, http.StatusOK, commandResponse{Success: true, Results: results})
}
