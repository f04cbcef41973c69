package order

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/schoolpay/payments/internal/auth"
	"github.com/schoolpay/payments/internal/transport"
	"github.com/schoolpay/payments/pkg/logger"
)

type ServiceAPI interface {
	CreateOrder(ctx context.Context, dto CreateOrderDTO) (*Order, error)
	CreatePayment(ctx context.Context, dto CreatePaymentDTO) (*PaymentLinkDTO, error)
	GetByCustomOrderID(customOrderID string) (*Order, error)
	GetBySchool(schoolID string, limit, offset int) ([]*Order, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     svc,
	}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var dto CreateOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.fillTrustee(r, &dto)

	o, err := h.Service.CreateOrder(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var dto CreatePaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.fillTrustee(r, &dto.CreateOrderDTO)

	link, err := h.Service.CreatePayment(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, link)
}

// GetSchoolOrders handles GET /api/v1/payments/school/{schoolId}/orders
func (h *Handler) GetSchoolOrders(w http.ResponseWriter, r *http.Request) {
	schoolID := chi.URLParam(r, "schoolId")
	if schoolID == "" {
		h.WriteError(w, http.StatusBadRequest, "school id is required")
		return
	}

	limit := 20
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	orders, err := h.Service.GetBySchool(schoolID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*Order{}
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"limit":  limit,
		"offset": offset,
	})
}

// fillTrustee defaults the trustee to the authenticated user when the
// request body omits it.
func (h *Handler) fillTrustee(r *http.Request, dto *CreateOrderDTO) {
	if dto.TrusteeID != "" {
		return
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		dto.TrusteeID = strconv.FormatInt(user.ID, 10)
	}
}
