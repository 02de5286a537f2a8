package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler exposes report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/items", h.items)
		r.Get("/bills", h.bills)
		r.Get("/summary", h.summary)
		r.Get("/credits", h.credits)
	})
}

func parseFilter(r *http.Request) (Filter, error) {
	from, to, err := httpx.DateRange(r)
	if err != nil {
		return Filter{}, err
	}
	return Filter{From: from, To: to, Query: r.URL.Query().Get("q")}, nil
}

func (h *Handler) respond(w http.ResponseWriter, name string, v any, err error) {
	if err != nil {
		h.logger.Error("build report", slog.String("report", name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) items(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Items(r.Context(), f)
	h.respond(w, "items", report, err)
}

func (h *Handler) bills(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Bills(r.Context(), f)
	h.respond(w, "bills", report, err)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	g, err := ParseGrouping(r.URL.Query().Get("groupBy"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Summary(r.Context(), f, g)
	h.respond(w, "summary", report, err)
}

func (h *Handler) credits(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Credits(r.Context(), r.URL.Query().Get("q"))
	h.respond(w, "credits", report, err)
}
