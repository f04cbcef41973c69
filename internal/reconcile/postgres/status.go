package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	orderstatusDatamodel "github.com/schoolpay/payments/internal/core/datamodel/orderstatus"
	"github.com/schoolpay/payments/internal/reconcile"
)

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) reconcile.StatusRepository {
	return &StatusRepository{
		db: db,
	}
}

// Upsert writes the status projection atomically: one row per collect_id,
// overwritten in place when a newer report arrives.
func (r *StatusRepository) Upsert(record *reconcile.StatusRecord) error {
	m := toDataModel(record)
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "collect_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"order_amount",
			"transaction_amount",
			"payment_mode",
			"payment_details",
			"bank_reference",
			"payment_message",
			"status",
			"error_message",
			"payment_time",
			"gateway_transaction_id",
			"gateway_response",
			"updated_at",
		}),
	}).Create(m).Error
}

func (r *StatusRepository) GetByCollectID(collectID int64) (*reconcile.StatusRecord, error) {
	var m orderstatusDatamodel.OrderStatus
	if err := r.db.Where("collect_id = ?", collectID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return fromDataModel(&m), nil
}

func toDataModel(record *reconcile.StatusRecord) *orderstatusDatamodel.OrderStatus {
	return &orderstatusDatamodel.OrderStatus{
		CollectID:            record.CollectID,
		OrderAmount:          record.OrderAmount,
		TransactionAmount:    record.TransactionAmount,
		PaymentMode:          record.PaymentMode,
		PaymentDetails:       record.PaymentDetails,
		BankReference:        record.BankReference,
		PaymentMessage:       record.PaymentMessage,
		Status:               record.Status,
		ErrorMessage:         record.ErrorMessage,
		PaymentTime:          record.PaymentTime,
		GatewayTransactionID: record.GatewayTransactionID,
		GatewayResponse:      record.GatewayResponse,
	}
}

func fromDataModel(m *orderstatusDatamodel.OrderStatus) *reconcile.StatusRecord {
	return &reconcile.StatusRecord{
		CollectID:            m.CollectID,
		OrderAmount:          m.OrderAmount,
		TransactionAmount:    m.TransactionAmount,
		PaymentMode:          m.PaymentMode,
		PaymentDetails:       m.PaymentDetails,
		BankReference:        m.BankReference,
		PaymentMessage:       m.PaymentMessage,
		Status:               m.Status,
		ErrorMessage:         m.ErrorMessage,
		PaymentTime:          m.PaymentTime,
		GatewayTransactionID: m.GatewayTransactionID,
		GatewayResponse:      m.GatewayResponse,
	}
}
