package billing

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Handler exposes bill and credit endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: shared.NewValidator()}
}

// MountRoutes registers billing routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/bills", func(r chi.Router) {
		r.Get("/", h.listBills)
		r.Post("/", h.createBill)
		r.Get("/{id}", h.showBill)
		r.Put("/{id}", h.updateBill)
		r.Delete("/{id}", h.deleteBill)
		r.Post("/{id}/returns", h.linkReturn)
	})
	r.Get("/invoice-numbers/next", h.nextInvoiceNumber)
	r.Get("/customer-credits", h.listCredits)
	r.Get("/customer-credits/{mobile}", h.showCredit)
}

type lineItemRequest struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code" validate:"max=64"`
	Name               string  `json:"name" validate:"required,max=200"`
	Size               string  `json:"size" validate:"max=32"`
	MRP                float64 `json:"mrp"`
	Quantity           int     `json:"quantity"`
	DiscountPercentage float64 `json:"discountPercentage"`
	OriginBillID       string  `json:"originBillId"`
}

type billRequest struct {
	CustomerName        string            `json:"customerName"`
	MobileNumber        string            `json:"mobileNumber"`
	Items               []lineItemRequest `json:"items" validate:"dive"`
	Date                *time.Time        `json:"date"`
	TransactionType     string            `json:"transactionType" validate:"omitempty,oneof=Sale Exchange Return"`
	PaymentMethod       string            `json:"paymentMethod" validate:"omitempty,oneof=Cash Card"`
	CreditToApply       string            `json:"creditToApply"`
	OriginalBillID      string            `json:"originalBillId"`
	CustomInvoiceNumber string            `json:"customInvoiceNumber" validate:"max=64"`
	ShowroomBrand       string            `json:"showroomBrand"`
	Address             string            `json:"address"`
	GSTNumber           string            `json:"gstNumber" validate:"max=32"`
}

func (req billRequest) draft() Draft {
	d := Draft{
		CustomerName:        req.CustomerName,
		MobileNumber:        req.MobileNumber,
		TransactionType:     TransactionType(req.TransactionType),
		PaymentMethod:       PaymentMethod(req.PaymentMethod),
		CreditToApply:       req.CreditToApply,
		OriginalBillID:      req.OriginalBillID,
		CustomInvoiceNumber: req.CustomInvoiceNumber,
		ShowroomBrand:       req.ShowroomBrand,
		Address:             req.Address,
		GSTNumber:           req.GSTNumber,
	}
	if req.Date != nil {
		d.Date = *req.Date
	}
	d.Items = make([]LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		d.Items = append(d.Items, LineItem{
			ID:                 it.ID,
			Code:               it.Code,
			Name:               it.Name,
			Size:               it.Size,
			MRP:                it.MRP,
			Quantity:           it.Quantity,
			DiscountPercentage: it.DiscountPercentage,
			OriginBillID:       it.OriginBillID,
		})
	}
	return d
}

type returnRequest struct {
	ItemIDs []string `json:"itemIds" validate:"required,min=1"`
}

type billResponse struct {
	Bill    Bill    `json:"bill"`
	Summary Summary `json:"summary"`
}

func (h *Handler) decodeBill(w http.ResponseWriter, r *http.Request) (Draft, bool) {
	var req billRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return Draft{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ValidationErrorFrom(err))
		return Draft{}, false
	}
	return req.draft(), true
}

func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decodeBill(w, r)
	if !ok {
		return
	}
	draft.IdempotencyKey = r.Header.Get("Idempotency-Key")
	res, err := h.service.Finalize(r.Context(), draft, false)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) updateBill(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decodeBill(w, r)
	if !ok {
		return
	}
	draft.ID = chi.URLParam(r, "id")
	res, err := h.service.Finalize(r.Context(), draft, true)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) deleteBill(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) showBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, billResponse{Bill: bill, Summary: bill.Summary()})
}

func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseListFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	bills, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list bills", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if bills == nil {
		bills = []Bill{}
	}
	page, perPage, paged, err := httpx.PageParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if paged {
		var meta shared.Pagination
		bills, meta = shared.Paginate(bills, page, perPage)
		httpx.SetPagination(w, meta)
	}
	httpx.JSON(w, http.StatusOK, bills)
}

func (h *Handler) linkReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.ValidationErrorFrom(err))
		return
	}
	sel, err := h.service.LinkReturn(r.Context(), chi.URLParam(r, "id"), req.ItemIDs)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sel)
}

func (h *Handler) nextInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"next": NextInvoiceNumber(r.URL.Query().Get("last")),
	})
}

func (h *Handler) listCredits(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.Credits(r.Context())
	if err != nil {
		h.logger.Error("list credits", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, all)
}

func (h *Handler) showCredit(w http.ResponseWriter, r *http.Request) {
	mobile := chi.URLParam(r, "mobile")
	balance, err := h.service.CreditBalance(r.Context(), mobile)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customerKey": mobile, "balance": balance})
}

// ParseListFilter reads the from/to date range and customer query
// parameters.
func ParseListFilter(r *http.Request) (ListFilter, error) {
	from, to, err := httpx.DateRange(r)
	if err != nil {
		return ListFilter{}, err
	}
	return ListFilter{From: from, To: to, CustomerKey: r.URL.Query().Get("customer")}, nil
}
