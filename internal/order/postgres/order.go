package postgres

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/schoolpay/payments/internal"
	orderDatamodel "github.com/schoolpay/payments/internal/core/datamodel/order"
	orderpkg "github.com/schoolpay/payments/internal/order"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) orderpkg.Repository {
	return &OrderRepository{
		db: db,
	}
}

func (r *OrderRepository) Create(o *orderpkg.Order) error {
	m := orderpkg.ToDataModel(o)
	if err := r.db.Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.NewConflictError("order code already exists", internal.ErrCodeDuplicateOrderCode).WithCause(err)
		}
		return err
	}
	o.ID = m.ID
	o.CreatedAt = m.CreatedAt
	o.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *OrderRepository) GetByID(id int64) (*orderpkg.Order, error) {
	var m orderDatamodel.Order
	if err := r.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrOrderNotFound
		}
		return nil, err
	}
	return orderpkg.FromDataModel(&m), nil
}

func (r *OrderRepository) GetByCustomOrderID(customOrderID string) (*orderpkg.Order, error) {
	var m orderDatamodel.Order
	if err := r.db.Where("custom_order_id = ?", customOrderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrOrderNotFound
		}
		return nil, err
	}
	return orderpkg.FromDataModel(&m), nil
}

func (r *OrderRepository) GetBySchoolID(schoolID string, limit, offset int) ([]*orderpkg.Order, error) {
	var models []*orderDatamodel.Order
	err := r.db.Where("school_id = ?", schoolID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*orderpkg.Order, 0, len(models))
	for _, m := range models {
		orders = append(orders, orderpkg.FromDataModel(m))
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(id int64, status string) error {
	result := r.db.Model(&orderDatamodel.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrOrderNotFound
	}
	return nil
}

// isDuplicateKey matches unique violations across postgres and the sqlite
// driver used in tests.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
