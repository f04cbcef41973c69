package transaction

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/schoolpay/payments/internal/transport"
)

type ServiceAPI interface {
	List(q Query) ([]*Transaction, int64, error)
	ListBySchool(schoolID string, q Query) ([]*Transaction, int64, error)
	StatusByCustomOrderID(customOrderID string) (*Transaction, error)
	Stats(schoolID string) (*Stats, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     service,
	}
}

// ListTransactions handles GET /api/v1/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)

	transactions, total, err := h.Service.List(q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.writePage(w, transactions, total, q)
}

// ListSchoolTransactions handles GET /api/v1/transactions/school/{schoolId}
func (h *Handler) ListSchoolTransactions(w http.ResponseWriter, r *http.Request) {
	schoolID := chi.URLParam(r, "schoolId")
	if schoolID == "" {
		h.WriteError(w, http.StatusBadRequest, "school id is required")
		return
	}

	q := queryFromRequest(r)

	transactions, total, err := h.Service.ListBySchool(schoolID, q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.writePage(w, transactions, total, q)
}

// TransactionStatus handles GET /api/v1/transaction-status/{customOrderId}
func (h *Handler) TransactionStatus(w http.ResponseWriter, r *http.Request) {
	customOrderID := chi.URLParam(r, "customOrderId")
	if customOrderID == "" {
		h.WriteError(w, http.StatusBadRequest, "custom order id is required")
		return
	}

	t, err := h.Service.StatusByCustomOrderID(customOrderID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// TransactionStats handles GET /api/v1/transactions/stats
func (h *Handler) TransactionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.URL.Query().Get("school_id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) writePage(w http.ResponseWriter, transactions []*Transaction, total int64, q Query) {
	if transactions == nil {
		transactions = []*Transaction{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"total":        total,
		"page":         q.Page,
		"limit":        q.Limit,
	})
}

func queryFromRequest(r *http.Request) Query {
	params := r.URL.Query()

	q := Query{
		Status:   params.Get("status"),
		Gateway:  params.Get("gateway"),
		SchoolID: params.Get("school_id"),
		Sort:     params.Get("sort"),
		Order:    params.Get("order"),
		Page:     1,
		Limit:    20,
	}

	if pageStr := params.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			q.Page = p
		}
	}
	if limitStr := params.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			q.Limit = l
		}
	}

	return q
}
