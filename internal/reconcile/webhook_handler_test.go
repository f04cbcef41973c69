package reconcile

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/schoolpay/payments/internal/order"
)

var _ = Describe("Webhook Handler", func() {
	var (
		handler *WebhookHandler
		orders  *mockOrderStore
		logs    *mockLogRepo
	)

	BeforeEach(func() {
		orders = newMockOrderStore()
		statuses := newMockStatusRepo()
		logs = newMockLogRepo()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		engine := NewEngine(orders, statuses, logs, &mockPublisher{}, logger)
		handler = NewWebhookHandler(engine)

		orders.orders["ORD_1700000000000_AB12CD34"] = &order.Order{
			ID:            42,
			CustomOrderID: "ORD_1700000000000_AB12CD34",
			OrderAmount:   250000,
			Status:        order.StatusCreated,
		}
	})

	post := func(body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.HandlePaymentWebhook(rec, req)
		return rec
	}

	Context("with a valid delivery", func() {
		It("should ack with 200 and record the source ip", func() {
			body, _ := json.Marshal(map[string]interface{}{
				"id": "wh_1",
				"order_info": map[string]interface{}{
					"order_id": "ORD_1700000000000_AB12CD34",
					"status":   "success",
				},
			})

			rec := post(body)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(logs.entries["wh_1"].SourceIP).To(Equal("203.0.113.9"))
			Expect(orders.orders["ORD_1700000000000_AB12CD34"].Status).To(Equal(order.StatusCompleted))
		})
	})

	Context("with a delivery for an unknown order", func() {
		It("should still ack with 200", func() {
			body, _ := json.Marshal(map[string]interface{}{
				"id": "wh_2",
				"order_info": map[string]interface{}{
					"order_id": "ORD_GHOST",
					"status":   "success",
				},
			})

			rec := post(body)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(logs.entries["wh_2"].Processed).To(BeFalse())
		})
	})

	Context("with an empty body", func() {
		It("should reject with 400", func() {
			rec := post(nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("with an authorization header", func() {
		It("should not persist it in the log", func() {
			body, _ := json.Marshal(map[string]interface{}{
				"id": "wh_3",
				"order_info": map[string]interface{}{
					"order_id": "ORD_1700000000000_AB12CD34",
					"status":   "pending",
				},
			})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(body))
			req.Header.Set("Authorization", "Bearer secret")
			rec := httptest.NewRecorder()

			handler.HandlePaymentWebhook(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(string(logs.entries["wh_3"].Headers)).NotTo(ContainSubstring("secret"))
		})
	})
})
