package school

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/schoolpay/payments/internal/transport"
)

type ServiceAPI interface {
	CreateSchool(dto CreateSchoolDTO) (*School, error)
	GetBySchoolID(schoolID string) (*School, error)
	List(limit, offset int) ([]*School, error)
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

// CreateSchool handles POST /api/v1/schools. Admin only, enforced by the
// router middleware.
func (h *Handler) CreateSchool(w http.ResponseWriter, r *http.Request) {
	var dto CreateSchoolDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sch, err := h.Service.CreateSchool(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, sch)
}

// GetSchool handles GET /api/v1/schools/{id}
func (h *Handler) GetSchool(w http.ResponseWriter, r *http.Request) {
	schoolID := chi.URLParam(r, "id")
	if schoolID == "" {
		h.WriteError(w, http.StatusBadRequest, "school id is required")
		return
	}

	sch, err := h.Service.GetBySchoolID(schoolID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sch)
}

// ListSchools handles GET /api/v1/schools
func (h *Handler) ListSchools(w http.ResponseWriter, r *http.Request) {
	limit := 50
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

	schools, err := h.Service.List(limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if schools == nil {
		schools = []*School{}
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"schools": schools,
		"limit":   limit,
		"offset":  offset,
	})
}
