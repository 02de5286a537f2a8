package backup

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler exposes backup endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers backup routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/backup", h.export)
	r.Post("/backup/import", h.importBackup)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Export(r.Context())
	if err != nil {
		h.logger.Error("export backup", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	filename := fmt.Sprintf("pos-backup-%s.json", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) importBackup(w http.ResponseWriter, r *http.Request) {
	var snap Snapshot
	if err := httpx.DecodeJSON(w, r, &snap); err != nil {
		httpx.RespondError(w, err)
		return
	}
	counts, err := h.service.Import(r.Context(), snap)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, counts)
}
