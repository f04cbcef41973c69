package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/schoolpay/payments/internal"
	"github.com/schoolpay/payments/internal/transaction"
)

// TransactionRepository serves the read side: orders LEFT JOINed with their
// latest gateway report. Orders without a report appear with pending status.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) transaction.Repository {
	return &TransactionRepository{db: db}
}

// sortExpressions maps the service's whitelisted sort keys to qualified
// columns. Keys outside this map never reach the repository.
var sortExpressions = map[string]string{
	"created_at":         "o.created_at",
	"order_amount":       "o.order_amount",
	"transaction_amount": "s.transaction_amount",
	"payment_time":       "s.payment_time",
	"status":             "effective_status",
}

const selectColumns = `
	o.id AS collect_id,
	o.custom_order_id,
	o.school_id,
	o.student_name,
	o.gateway,
	o.order_amount,
	s.transaction_amount,
	COALESCE(s.status, 'pending') AS status,
	s.payment_mode,
	s.bank_reference,
	s.payment_message,
	s.payment_time,
	s.gateway_transaction_id,
	o.created_at`

func (r *TransactionRepository) List(q transaction.Query) ([]*transaction.Transaction, int64, error) {
	where, args := buildFilters(q)

	var total int64
	countQuery := `
		SELECT COUNT(*)
		FROM orders o
		LEFT JOIN order_statuses s ON s.collect_id = o.id` + where
	if err := r.db.Raw(countQuery, args...).Scan(&total).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to count transactions", err)
	}

	sortExpr, ok := sortExpressions[q.Sort]
	if !ok {
		sortExpr = "o.created_at"
	}
	direction := "DESC"
	if q.Order == "asc" {
		direction = "ASC"
	}

	listQuery := fmt.Sprintf(`
		SELECT %s,
		COALESCE(s.status, 'pending') AS effective_status
		FROM orders o
		LEFT JOIN order_statuses s ON s.collect_id = o.id%s
		ORDER BY %s %s
		LIMIT ? OFFSET ?`, selectColumns, where, sortExpr, direction)

	var rows []*transaction.Transaction
	listArgs := append(args, q.Limit, q.Offset())
	if err := r.db.Raw(listQuery, listArgs...).Scan(&rows).Error; err != nil {
		return nil, 0, internal.NewInternalError("failed to list transactions", err)
	}

	return rows, total, nil
}

func (r *TransactionRepository) GetByCustomOrderID(customOrderID string) (*transaction.Transaction, error) {
	query := `
		SELECT` + selectColumns + `
		FROM orders o
		LEFT JOIN order_statuses s ON s.collect_id = o.id
		WHERE o.custom_order_id = ?`

	var rows []*transaction.Transaction
	if err := r.db.Raw(query, customOrderID).Scan(&rows).Error; err != nil {
		return nil, internal.NewInternalError("failed to fetch transaction", err)
	}
	if len(rows) == 0 {
		return nil, internal.ErrOrderNotFound
	}
	return rows[0], nil
}

func (r *TransactionRepository) Stats(schoolID string) (*transaction.Stats, error) {
	where := ""
	var args []interface{}
	if schoolID != "" {
		where = " WHERE o.school_id = ?"
		args = append(args, schoolID)
	}

	stats := &transaction.Stats{}

	totalsQuery := `
		SELECT COUNT(*) AS total_orders, COALESCE(SUM(o.order_amount), 0) AS total_amount
		FROM orders o` + where
	if err := r.db.Raw(totalsQuery, args...).Scan(stats).Error; err != nil {
		return nil, internal.NewInternalError("failed to compute totals", err)
	}

	byStatusQuery := `
		SELECT COALESCE(s.status, 'pending') AS status,
		       COUNT(*) AS count,
		       COALESCE(SUM(s.transaction_amount), 0) AS amount
		FROM orders o
		LEFT JOIN order_statuses s ON s.collect_id = o.id` + where + `
		GROUP BY COALESCE(s.status, 'pending')
		ORDER BY status`
	if err := r.db.Raw(byStatusQuery, args...).Scan(&stats.ByStatus).Error; err != nil {
		return nil, internal.NewInternalError("failed to compute status counts", err)
	}

	return stats, nil
}

func buildFilters(q transaction.Query) (string, []interface{}) {
	where := ""
	var args []interface{}

	add := func(clause string, value interface{}) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}

	if q.SchoolID != "" {
		add("o.school_id = ?", q.SchoolID)
	}
	if q.Gateway != "" {
		add("LOWER(o.gateway) = ?", q.Gateway)
	}
	if q.Status != "" {
		add("COALESCE(s.status, 'pending') = ?", q.Status)
	}

	return where, args
}
