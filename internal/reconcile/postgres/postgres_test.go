package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/schoolpay/payments/internal/reconcile"
)

func TestReconcileRepositories(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Reconcile Repositories Suite")
}

// OrderStatusSQLite mirrors the order_statuses table with text instead of
// jsonb for SQLite compatibility.
type OrderStatusSQLite struct {
	ID                   int64      `gorm:"primaryKey"`
	CollectID            int64      `gorm:"column:collect_id;not null;uniqueIndex"`
	OrderAmount          int64      `gorm:"column:order_amount;not null"`
	TransactionAmount    int64      `gorm:"column:transaction_amount"`
	PaymentMode          *string    `gorm:"column:payment_mode"`
	PaymentDetails       *string    `gorm:"column:payment_details"`
	BankReference        *string    `gorm:"column:bank_reference"`
	PaymentMessage       *string    `gorm:"column:payment_message"`
	Status               string     `gorm:"column:status;default:pending"`
	ErrorMessage         *string    `gorm:"column:error_message"`
	PaymentTime          *time.Time `gorm:"column:payment_time"`
	GatewayTransactionID *string    `gorm:"column:gateway_transaction_id"`
	GatewayResponse      string     `gorm:"column:gateway_response;type:text"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
}

func (OrderStatusSQLite) TableName() string {
	return "order_statuses"
}

type WebhookLogSQLite struct {
	ID           int64     `gorm:"primaryKey"`
	WebhookID    string    `gorm:"column:webhook_id;not null;uniqueIndex"`
	EventType    string    `gorm:"column:event_type;not null"`
	Payload      string    `gorm:"column:payload;type:text"`
	Headers      string    `gorm:"column:headers;type:text"`
	StatusCode   int       `gorm:"column:status_code"`
	Processed    bool      `gorm:"column:processed;default:false"`
	ErrorMessage *string   `gorm:"column:error_message"`
	RetryCount   int       `gorm:"column:retry_count;default:0"`
	SourceIP     string    `gorm:"column:source_ip"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (WebhookLogSQLite) TableName() string {
	return "webhook_logs"
}

var _ = ginkgo.Describe("StatusRepository", func() {
	var (
		db   *gorm.DB
		repo reconcile.StatusRepository
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		err = db.AutoMigrate(&OrderStatusSQLite{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = NewStatusRepository(db)
	})

	strptr := func(s string) *string { return &s }

	ginkgo.Describe("Upsert", func() {
		ginkgo.Context("when no status row exists for the order", func() {
			ginkgo.It("should insert a new row", func() {
				// Given
				record := &reconcile.StatusRecord{
					CollectID:         42,
					OrderAmount:       250000,
					TransactionAmount: 250000,
					Status:            reconcile.ReportStatusPending,
				}

				// When
				err := repo.Upsert(record)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				stored, err := repo.GetByCollectID(42)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(stored).ToNot(gomega.BeNil())
				gomega.Expect(stored.Status).To(gomega.Equal(reconcile.ReportStatusPending))
			})
		})

		ginkgo.Context("when a status row already exists", func() {
			ginkgo.BeforeEach(func() {
				err := repo.Upsert(&reconcile.StatusRecord{
					CollectID:         42,
					OrderAmount:       250000,
					TransactionAmount: 0,
					Status:            reconcile.ReportStatusPending,
				})
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			})

			ginkgo.It("should overwrite it in place", func() {
				// When
				err := repo.Upsert(&reconcile.StatusRecord{
					CollectID:         42,
					OrderAmount:       250000,
					TransactionAmount: 250000,
					Status:            reconcile.ReportStatusSuccess,
					PaymentMode:       strptr("upi"),
					BankReference:     strptr("HDFC7788"),
					GatewayResponse:   json.RawMessage(`{"status": "SUCCESS"}`),
				})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				var count int64
				gomega.Expect(db.Model(&OrderStatusSQLite{}).Count(&count).Error).ToNot(gomega.HaveOccurred())
				gomega.Expect(count).To(gomega.Equal(int64(1)))

				stored, err := repo.GetByCollectID(42)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(stored.Status).To(gomega.Equal(reconcile.ReportStatusSuccess))
				gomega.Expect(stored.TransactionAmount).To(gomega.Equal(int64(250000)))
				gomega.Expect(*stored.PaymentMode).To(gomega.Equal("upi"))
			})

			ginkgo.It("should let a late report overwrite a terminal status", func() {
				// Given
				gomega.Expect(repo.Upsert(&reconcile.StatusRecord{
					CollectID:         42,
					OrderAmount:       250000,
					TransactionAmount: 250000,
					Status:            reconcile.ReportStatusSuccess,
				})).To(gomega.Succeed())

				// When
				err := repo.Upsert(&reconcile.StatusRecord{
					CollectID:    42,
					OrderAmount:  250000,
					Status:       reconcile.ReportStatusFailed,
					ErrorMessage: strptr("bank declined"),
				})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				stored, err := repo.GetByCollectID(42)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(stored.Status).To(gomega.Equal(reconcile.ReportStatusFailed))
				gomega.Expect(*stored.ErrorMessage).To(gomega.Equal("bank declined"))
			})
		})
	})

	ginkgo.Describe("GetByCollectID", func() {
		ginkgo.Context("when no row exists", func() {
			ginkgo.It("should return nil without error", func() {
				// When
				stored, err := repo.GetByCollectID(999)

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(stored).To(gomega.BeNil())
			})
		})
	})
})

var _ = ginkgo.Describe("WebhookLogRepository", func() {
	var (
		db   *gorm.DB
		repo reconcile.WebhookLogRepository
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		err = db.AutoMigrate(&WebhookLogSQLite{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = NewWebhookLogRepository(db)
	})

	newEntry := func(webhookID string) *reconcile.LogEntry {
		return &reconcile.LogEntry{
			WebhookID: webhookID,
			EventType: "payment.update",
			Payload:   json.RawMessage(`{"order_info": {"order_id": "ORD_X", "status": "success"}}`),
			Headers:   json.RawMessage(`{"Content-Type": "application/json"}`),
			SourceIP:  "10.0.0.1",
		}
	}

	ginkgo.Describe("Append", func() {
		ginkgo.Context("with a new delivery", func() {
			ginkgo.It("should insert the log row", func() {
				// When
				created, err := repo.Append(newEntry("wh_1"))

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created).To(gomega.BeTrue())
			})
		})

		ginkgo.Context("with a duplicate delivery", func() {
			ginkgo.It("should report it as already seen without error", func() {
				// Given
				created, err := repo.Append(newEntry("wh_1"))
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created).To(gomega.BeTrue())

				// When
				created, err = repo.Append(newEntry("wh_1"))

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(created).To(gomega.BeFalse())

				var count int64
				gomega.Expect(db.Model(&WebhookLogSQLite{}).Count(&count).Error).ToNot(gomega.HaveOccurred())
				gomega.Expect(count).To(gomega.Equal(int64(1)))
			})
		})
	})

	ginkgo.Describe("MarkProcessed and MarkFailed", func() {
		ginkgo.BeforeEach(func() {
			_, err := repo.Append(newEntry("wh_1"))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should set processed and clear the error message", func() {
			// Given a failure first
			gomega.Expect(repo.MarkFailed("wh_1", "order not found")).To(gomega.Succeed())

			// When
			gomega.Expect(repo.MarkProcessed("wh_1", 200)).To(gomega.Succeed())

			// Then
			var row WebhookLogSQLite
			gomega.Expect(db.Where("webhook_id = ?", "wh_1").First(&row).Error).ToNot(gomega.HaveOccurred())
			gomega.Expect(row.Processed).To(gomega.BeTrue())
			gomega.Expect(row.StatusCode).To(gomega.Equal(200))
			gomega.Expect(row.ErrorMessage).To(gomega.BeNil())
		})

		ginkgo.It("should record the failure reason", func() {
			// When
			gomega.Expect(repo.MarkFailed("wh_1", "missing order_info")).To(gomega.Succeed())

			// Then
			var row WebhookLogSQLite
			gomega.Expect(db.Where("webhook_id = ?", "wh_1").First(&row).Error).ToNot(gomega.HaveOccurred())
			gomega.Expect(row.Processed).To(gomega.BeFalse())
			gomega.Expect(*row.ErrorMessage).To(gomega.Equal("missing order_info"))
		})
	})

	ginkgo.Describe("MarkAbandoned", func() {
		ginkgo.It("should retire the entry from the replay backlog but keep the reason", func() {
			// Given
			_, err := repo.Append(newEntry("wh_1"))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			gomega.Expect(repo.MarkAbandoned("wh_1", "payload has no usable order_info")).To(gomega.Succeed())

			// Then
			var row WebhookLogSQLite
			gomega.Expect(db.Where("webhook_id = ?", "wh_1").First(&row).Error).ToNot(gomega.HaveOccurred())
			gomega.Expect(row.Processed).To(gomega.BeTrue())
			gomega.Expect(*row.ErrorMessage).To(gomega.Equal("payload has no usable order_info"))

			entries, err := repo.ListUnprocessed(10)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("IncrementRetryCount", func() {
		ginkgo.It("should bump the retry counter", func() {
			// Given
			_, err := repo.Append(newEntry("wh_1"))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			gomega.Expect(repo.IncrementRetryCount("wh_1")).To(gomega.Succeed())
			gomega.Expect(repo.IncrementRetryCount("wh_1")).To(gomega.Succeed())

			// Then
			var row WebhookLogSQLite
			gomega.Expect(db.Where("webhook_id = ?", "wh_1").First(&row).Error).ToNot(gomega.HaveOccurred())
			gomega.Expect(row.RetryCount).To(gomega.Equal(2))
		})
	})

	ginkgo.Describe("ListUnprocessed", func() {
		ginkgo.BeforeEach(func() {
			for _, id := range []string{"wh_1", "wh_2", "wh_3"} {
				_, err := repo.Append(newEntry(id))
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			}
			gomega.Expect(repo.MarkProcessed("wh_2", 200)).To(gomega.Succeed())
		})

		ginkgo.It("should return only unprocessed entries", func() {
			// When
			entries, err := repo.ListUnprocessed(10)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.HaveLen(2))
			ids := []string{entries[0].WebhookID, entries[1].WebhookID}
			gomega.Expect(ids).To(gomega.ConsistOf("wh_1", "wh_3"))
		})

		ginkgo.It("should respect the limit", func() {
			// When
			entries, err := repo.ListUnprocessed(1)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.HaveLen(1))
		})
	})
})
