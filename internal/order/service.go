package order

import (
	"context"
	"log/slog"

	"github.com/schoolpay/payments/internal"
	"github.com/schoolpay/payments/internal/core/events"
	"github.com/schoolpay/payments/internal/gateway"
)

type Repository interface {
	Create(o *Order) error
	GetByID(id int64) (*Order, error)
	GetByCustomOrderID(customOrderID string) (*Order, error)
	GetBySchoolID(schoolID string, limit, offset int) ([]*Order, error)
	UpdateStatus(id int64, status string) error
}

type SchoolChecker interface {
	Exists(schoolID string) (bool, error)
}

type CollectClient interface {
	CreateCollectRequest(ctx context.Context, req *gateway.CollectRequest) (*gateway.CollectResponse, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      Repository
	schools   SchoolChecker
	collect   CollectClient
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(repo Repository, schools SchoolChecker, collect CollectClient, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		schools:   schools,
		collect:   collect,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOrder validates the request and persists a new order in created
// status. The order code is regenerated once if it collides with an
// existing one.
func (s *Service) CreateOrder(ctx context.Context, dto CreateOrderDTO) (*Order, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("order validation failed", "error", err, "school_id", dto.SchoolID)
		return nil, err
	}

	exists, err := s.schools.Exists(dto.SchoolID)
	if err != nil {
		s.logger.Error("school lookup failed", "error", err, "school_id", dto.SchoolID)
		return nil, internal.NewInternalError("failed to verify school", err)
	}
	if !exists {
		return nil, internal.ErrSchoolNotFound
	}

	currency := dto.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	o := &Order{
		SchoolID:      dto.SchoolID,
		TrusteeID:     dto.TrusteeID,
		StudentInfo:   StudentInfo(dto.StudentInfo),
		Gateway:       dto.Gateway,
		CustomOrderID: GenerateOrderCode(),
		OrderAmount:   dto.OrderAmount,
		Currency:      currency,
		Status:        StatusCreated,
	}

	if err := s.repo.Create(o); err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeDuplicateOrderCode {
			s.logger.Warn("order code collision, regenerating", "custom_order_id", o.CustomOrderID)
			o.CustomOrderID = GenerateOrderCode()
			err = s.repo.Create(o)
		}
		if err != nil {
			s.logger.Error("failed to create order", "error", err, "school_id", dto.SchoolID)
			return nil, err
		}
	}

	s.logger.Info("order created",
		"order_id", o.ID,
		"custom_order_id", o.CustomOrderID,
		"school_id", o.SchoolID,
		"amount", o.OrderAmount,
		"gateway", o.Gateway)

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.NewOrderCreatedEvent(
			o.ID, o.CustomOrderID, o.SchoolID, o.OrderAmount, o.Gateway))
	}

	return o, nil
}

// CreatePayment creates the order and asks the gateway for a hosted payment
// page. The order stays in created status until the webhook reports back.
func (s *Service) CreatePayment(ctx context.Context, dto CreatePaymentDTO) (*PaymentLinkDTO, error) {
	o, err := s.CreateOrder(ctx, dto.CreateOrderDTO)
	if err != nil {
		return nil, err
	}

	resp, err := s.collect.CreateCollectRequest(ctx, &gateway.CollectRequest{
		CustomOrderID: o.CustomOrderID,
		Amount:        o.OrderAmount,
		Currency:      o.Currency,
		CallbackURL:   dto.CallbackURL,
		StudentName:   o.StudentInfo.Name,
		StudentEmail:  o.StudentInfo.Email,
	})
	if err != nil {
		s.logger.Error("collect request failed",
			"error", err,
			"order_id", o.ID,
			"custom_order_id", o.CustomOrderID)
		return nil, err
	}

	return &PaymentLinkDTO{
		Order:            o,
		CollectRequestID: resp.Data.CollectRequestID,
		PaymentURL:       resp.Data.PaymentURL,
	}, nil
}

func (s *Service) GetByCustomOrderID(customOrderID string) (*Order, error) {
	o, err := s.repo.GetByCustomOrderID(customOrderID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) GetBySchool(schoolID string, limit, offset int) ([]*Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetBySchoolID(schoolID, limit, offset)
}
