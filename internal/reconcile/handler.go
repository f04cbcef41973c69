package reconcile

import (
	"encoding/json"
	"net/http"

	"github.com/schoolpay/payments/internal"
	"github.com/schoolpay/payments/internal/transport"
	"github.com/schoolpay/payments/pkg/logger"
)

// Handler exposes the manual status update endpoint used by operators to
// correct an order when the gateway report was missed or wrong.
type Handler struct {
	*transport.BaseHandler
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		engine:      engine,
	}
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.Logger.Info("manual status override",
		"custom_order_id", dto.CustomOrderID,
		"status", dto.Status,
		"actor", internal.UserIDFromContext(r.Context()))

	if err := h.engine.ApplyStatusUpdate(r.Context(), dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{
		"status":          "ok",
		"custom_order_id": dto.CustomOrderID,
	})
}
