package transaction

import (
	"log/slog"
	"strings"

	"github.com/schoolpay/payments/internal"
)

type Repository interface {
	List(q Query) ([]*Transaction, int64, error)
	GetByCustomOrderID(customOrderID string) (*Transaction, error)
	Stats(schoolID string) (*Stats, error)
}

// sortColumns whitelists the sort keys the list endpoints accept. Anything
// else is rejected rather than interpolated into the query.
var sortColumns = map[string]bool{
	"created_at":         true,
	"order_amount":       true,
	"transaction_amount": true,
	"payment_time":       true,
	"status":             true,
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns the joined order/status rows matching the query, plus the
// total match count for pagination.
func (s *Service) List(q Query) ([]*Transaction, int64, error) {
	normalized, err := s.normalize(q)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(normalized)
}

// ListBySchool is List pinned to one school.
func (s *Service) ListBySchool(schoolID string, q Query) ([]*Transaction, int64, error) {
	q.SchoolID = schoolID
	return s.List(q)
}

// StatusByCustomOrderID returns the transaction view of a single order.
// Orders without a gateway report yet show as pending.
func (s *Service) StatusByCustomOrderID(customOrderID string) (*Transaction, error) {
	t, err := s.repo.GetByCustomOrderID(customOrderID)
	if err != nil {
		return nil, err
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	return t, nil
}

func (s *Service) Stats(schoolID string) (*Stats, error) {
	return s.repo.Stats(schoolID)
}

func (s *Service) normalize(q Query) (Query, error) {
	if q.Sort == "" {
		q.Sort = "created_at"
	}
	if !sortColumns[q.Sort] {
		return q, internal.NewValidationError("unsupported sort key: "+q.Sort, internal.ErrCodeInvalidSortKey)
	}

	q.Order = strings.ToLower(q.Order)
	if q.Order != "asc" {
		q.Order = "desc"
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}

	q.Status = strings.ToLower(q.Status)
	q.Gateway = strings.ToLower(q.Gateway)

	return q, nil
}
