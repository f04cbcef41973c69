package school

import (
	"log/slog"

	"github.com/schoolpay/payments/internal"
)

type Repository interface {
	Create(s *School) error
	GetBySchoolID(schoolID string) (*School, error)
	List(limit, offset int) ([]*School, error)
	Exists(schoolID string) (bool, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreateSchool(dto CreateSchoolDTO) (*School, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	sch := &School{
		SchoolID:     dto.SchoolID,
		Name:         dto.Name,
		ContactEmail: dto.ContactEmail,
		IsActive:     true,
	}

	if err := s.repo.Create(sch); err != nil {
		s.logger.Error("failed to create school", "error", err, "school_id", dto.SchoolID)
		return nil, err
	}

	s.logger.Info("school created", "school_id", sch.SchoolID, "name", sch.Name)
	return sch, nil
}

func (s *Service) GetBySchoolID(schoolID string) (*School, error) {
	return s.repo.GetBySchoolID(schoolID)
}

func (s *Service) List(limit, offset int) ([]*School, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(limit, offset)
}

// Exists reports whether an active school with this id is registered. Order
// creation checks this before accepting a payment request.
func (s *Service) Exists(schoolID string) (bool, error) {
	if schoolID == "" {
		return false, nil
	}
	exists, err := s.repo.Exists(schoolID)
	if err != nil {
		return false, internal.NewInternalError("failed to check school", err)
	}
	return exists, nil
}
