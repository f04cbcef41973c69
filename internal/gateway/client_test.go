package gateway_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/schoolpay/payments/internal"
	"github.com/schoolpay/payments/internal/gateway"
)

func TestGatewayClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Gateway Client Suite")
}

var _ = Describe("Gateway Client", func() {
	var (
		server *httptest.Server
		logger *slog.Logger
	)

	newClient := func(baseURL string) *gateway.Client {
		return gateway.NewClient(internal.GatewayConfig{
			BaseURL:        baseURL,
			MerchantID:     "MERCHANT_01",
			APIKey:         "test-api-key",
			KeySalt:        "test-salt",
			CallbackURL:    "https://portal.example.com/api/v1/webhooks/payment",
			RequestTimeout: 5 * time.Second,
		}, logger)
	}

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	Describe("CreateCollectRequest", func() {
		Context("when the gateway accepts the request", func() {
			It("should return the collect request id and payment url", func() {
				var gotAuth, gotVerify string
				var gotBody []byte
				server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					gotAuth = r.Header.Get("Authorization")
					gotVerify = r.Header.Get("X-Verify")
					gotBody, _ = io.ReadAll(r.Body)
					w.Header().Set("Content-Type", "application/json")
					_, _ = w.Write([]byte(`{
						"success": true,
						"data": {
							"collect_request_id": "COL_12345",
							"payment_url": "https://pay.example.com/r/COL_12345",
							"status": "pending"
						}
					}`))
				}))

				client := newClient(server.URL)
				resp, err := client.CreateCollectRequest(context.Background(), &gateway.CollectRequest{
					CustomOrderID: "ORD_1700000000000_AB12CD34",
					Amount:        250000,
					Currency:      "INR",
					StudentName:   "Asha Verma",
					StudentEmail:  "asha@example.com",
				})

				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Data.CollectRequestID).To(Equal("COL_12345"))
				Expect(resp.Data.PaymentURL).To(Equal("https://pay.example.com/r/COL_12345"))

				Expect(gotAuth).To(Equal("Bearer test-api-key"))

				h := sha256.New()
				h.Write(gotBody)
				h.Write([]byte("/v1/collect"))
				h.Write([]byte("test-salt"))
				Expect(gotVerify).To(Equal(hex.EncodeToString(h.Sum(nil))))

				var sent map[string]interface{}
				Expect(json.Unmarshal(gotBody, &sent)).To(Succeed())
				Expect(sent["merchant_id"]).To(Equal("MERCHANT_01"))
				Expect(sent["callback_url"]).To(Equal("https://portal.example.com/api/v1/webhooks/payment"))
			})
		})

		Context("when the gateway returns a server error", func() {
			It("should return an external error", func() {
				server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
				}))

				client := newClient(server.URL)
				_, err := client.CreateCollectRequest(context.Background(), &gateway.CollectRequest{
					CustomOrderID: "ORD_1700000000000_AB12CD34",
					Amount:        250000,
				})

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeExternal))
				Expect(appErr.StatusCode).To(Equal(http.StatusBadGateway))
			})
		})

		Context("when the gateway rejects the request", func() {
			It("should surface the gateway message", func() {
				server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte(`{"success": false, "message": "merchant disabled"}`))
				}))

				client := newClient(server.URL)
				_, err := client.CreateCollectRequest(context.Background(), &gateway.CollectRequest{
					CustomOrderID: "ORD_1700000000000_AB12CD34",
					Amount:        250000,
				})

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("merchant disabled"))
			})
		})

		Context("when the gateway is unreachable", func() {
			It("should return an external error", func() {
				client := newClient("http://127.0.0.1:1")
				_, err := client.CreateCollectRequest(context.Background(), &gateway.CollectRequest{
					CustomOrderID: "ORD_1700000000000_AB12CD34",
					Amount:        250000,
				})

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeExternal))
			})
		})
	})
})
