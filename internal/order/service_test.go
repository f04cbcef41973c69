package order

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/schoolpay/payments/internal"
	"github.com/schoolpay/payments/internal/core/events"
	"github.com/schoolpay/payments/internal/gateway"
)

func TestOrderService(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Order Service Suite")
}

type mockRepository struct {
	orders      map[string]*Order
	nextID      int64
	failOnCodes map[string]bool
	createErr   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders:      make(map[string]*Order),
		failOnCodes: make(map[string]bool),
	}
}

func (m *mockRepository) Create(o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.orders[o.CustomOrderID]; exists || m.failOnCodes[o.CustomOrderID] {
		return internal.NewConflictError("order code already exists", internal.ErrCodeDuplicateOrderCode)
	}
	m.nextID++
	o.ID = m.nextID
	m.orders[o.CustomOrderID] = o
	return nil
}

func (m *mockRepository) GetByID(id int64) (*Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, internal.ErrOrderNotFound
}

func (m *mockRepository) GetByCustomOrderID(customOrderID string) (*Order, error) {
	if o, ok := m.orders[customOrderID]; ok {
		return o, nil
	}
	return nil, internal.ErrOrderNotFound
}

func (m *mockRepository) GetBySchoolID(schoolID string, limit, offset int) ([]*Order, error) {
	var out []*Order
	for _, o := range m.orders {
		if o.SchoolID == schoolID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateStatus(id int64, status string) error {
	for _, o := range m.orders {
		if o.ID == id {
			o.Status = status
			return nil
		}
	}
	return internal.ErrOrderNotFound
}

type mockSchoolChecker struct {
	known map[string]bool
	err   error
}

func (m *mockSchoolChecker) Exists(schoolID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.known[schoolID], nil
}

type mockCollectClient struct {
	lastRequest *gateway.CollectRequest
	response    *gateway.CollectResponse
	err         error
}

func (m *mockCollectClient) CreateCollectRequest(ctx context.Context, req *gateway.CollectRequest) (*gateway.CollectResponse, error) {
	m.lastRequest = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

type capturingPublisher struct {
	events []events.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

var _ = ginkgo.Describe("OrderService", func() {
	var (
		service   *Service
		repo      *mockRepository
		schools   *mockSchoolChecker
		collect   *mockCollectClient
		publisher *capturingPublisher
		ctx       context.Context
	)

	validDTO := func() CreateOrderDTO {
		return CreateOrderDTO{
			SchoolID:  "SCH_001",
			TrusteeID: "7",
			StudentInfo: StudentInfoDTO{
				Name:  "Asha Verma",
				ID:    "STU_881",
				Email: "asha@example.com",
			},
			Gateway:     GatewayPhonePe,
			OrderAmount: 250000,
		}
	}

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		schools = &mockSchoolChecker{known: map[string]bool{"SCH_001": true}}
		collect = &mockCollectClient{
			response: &gateway.CollectResponse{
				Success: true,
				Data: struct {
					CollectRequestID string `json:"collect_request_id"`
					PaymentURL       string `json:"payment_url"`
					Status           string `json:"status"`
				}{
					CollectRequestID: "COL_12345",
					PaymentURL:       "https://pay.example.com/r/COL_12345",
					Status:           "pending",
				},
			},
		}
		publisher = &capturingPublisher{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = NewService(repo, schools, collect, publisher, logger)
		ctx = context.Background()
	})

	ginkgo.Describe("CreateOrder", func() {
		ginkgo.Context("with a valid request", func() {
			ginkgo.It("should persist the order in created status", func() {
				// When
				o, err := service.CreateOrder(ctx, validDTO())

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(o.ID).To(gomega.BeNumerically(">", 0))
				gomega.Expect(o.Status).To(gomega.Equal(StatusCreated))
				gomega.Expect(o.Currency).To(gomega.Equal(DefaultCurrency))
			})

			ginkgo.It("should generate a well-formed order code", func() {
				// When
				o, err := service.CreateOrder(ctx, validDTO())

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(o.CustomOrderID).To(gomega.MatchRegexp(`^ORD_\d+_[A-Z0-9]{8}$`))
			})

			ginkgo.It("should publish an order created event", func() {
				// When
				_, err := service.CreateOrder(ctx, validDTO())

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(publisher.events).To(gomega.HaveLen(1))
				gomega.Expect(publisher.events[0].EventType()).To(gomega.Equal(events.EventTypeOrderCreated))
			})
		})

		ginkgo.Context("when validation fails", func() {
			ginkgo.It("should reject a non-positive amount", func() {
				// Given
				dto := validDTO()
				dto.OrderAmount = 0

				// When
				_, err := service.CreateOrder(ctx, dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
			})

			ginkgo.It("should reject an unsupported gateway", func() {
				// Given
				dto := validDTO()
				dto.Gateway = "CashOnDelivery"

				// When
				_, err := service.CreateOrder(ctx, dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(err.Error()).To(gomega.ContainSubstring("gateway"))
			})

			ginkgo.It("should reject incomplete student info", func() {
				// Given
				dto := validDTO()
				dto.StudentInfo.Email = "not-an-email"

				// When
				_, err := service.CreateOrder(ctx, dto)

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
			})
		})

		ginkgo.Context("when the school is unknown", func() {
			ginkgo.It("should return school not found", func() {
				// Given
				dto := validDTO()
				dto.SchoolID = "SCH_GHOST"

				// When
				_, err := service.CreateOrder(ctx, dto)

				// Then
				gomega.Expect(err).To(gomega.Equal(internal.ErrSchoolNotFound))
			})
		})

		ginkgo.Context("when the generated code collides", func() {
			ginkgo.It("should retry once with a fresh code", func() {
				// Given a repository that rejects the first generated code
				wrapped := &collisionOnce{inner: repo}
				svc := NewService(wrapped, schools, collect, publisher, slog.New(slog.NewTextHandler(io.Discard, nil)))

				// When
				o, err := svc.CreateOrder(ctx, validDTO())

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(o.ID).To(gomega.BeNumerically(">", 0))
				gomega.Expect(wrapped.calls).To(gomega.Equal(2))
			})
		})
	})

	ginkgo.Describe("CreatePayment", func() {
		ginkgo.Context("when the gateway accepts the collect request", func() {
			ginkgo.It("should return the order with a payment url", func() {
				// When
				link, err := service.CreatePayment(ctx, CreatePaymentDTO{CreateOrderDTO: validDTO()})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(link.Order).ToNot(gomega.BeNil())
				gomega.Expect(link.PaymentURL).To(gomega.Equal("https://pay.example.com/r/COL_12345"))
				gomega.Expect(link.CollectRequestID).To(gomega.Equal("COL_12345"))
			})

			ginkgo.It("should pass the order details to the gateway", func() {
				// When
				_, err := service.CreatePayment(ctx, CreatePaymentDTO{CreateOrderDTO: validDTO()})

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(collect.lastRequest).ToNot(gomega.BeNil())
				gomega.Expect(collect.lastRequest.Amount).To(gomega.Equal(int64(250000)))
				gomega.Expect(strings.HasPrefix(collect.lastRequest.CustomOrderID, "ORD_")).To(gomega.BeTrue())
			})
		})

		ginkgo.Context("when the gateway is down", func() {
			ginkgo.It("should surface the external error but keep the order", func() {
				// Given
				collect.err = internal.NewExternalError("payment gateway unreachable", errors.New("dial tcp: timeout"))

				// When
				_, err := service.CreatePayment(ctx, CreatePaymentDTO{CreateOrderDTO: validDTO()})

				// Then
				gomega.Expect(err).To(gomega.HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeExternal))

				// the order row survives for later reconciliation
				gomega.Expect(repo.orders).To(gomega.HaveLen(1))
			})
		})
	})

	ginkgo.Describe("GetBySchool", func() {
		ginkgo.It("should clamp an oversized page size", func() {
			// When
			_, err := service.GetBySchool("SCH_001", 5000, 0)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})
})

// collisionOnce fails the first Create with a duplicate-code conflict and
// delegates afterwards.
type collisionOnce struct {
	inner *mockRepository
	calls int
}

func (c *collisionOnce) Create(o *Order) error {
	c.calls++
	if c.calls == 1 {
		return internal.NewConflictError("order code already exists", internal.ErrCodeDuplicateOrderCode)
	}
	return c.inner.Create(o)
}

func (c *collisionOnce) GetByID(id int64) (*Order, error) {
	return c.inner.GetByID(id)
}

func (c *collisionOnce) GetByCustomOrderID(code string) (*Order, error) {
	return c.inner.GetByCustomOrderID(code)
}

func (c *collisionOnce) GetBySchoolID(schoolID string, limit, offset int) ([]*Order, error) {
	return c.inner.GetBySchoolID(schoolID, limit, offset)
}

func (c *collisionOnce) UpdateStatus(id int64, status string) error {
	return c.inner.UpdateStatus(id, status)
}
