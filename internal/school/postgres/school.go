package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/schoolpay/payments/internal"
	schoolpkg "github.com/schoolpay/payments/internal/school"

	dm "github.com/schoolpay/payments/internal/core/datamodel/school"
)

type SchoolRepository struct {
	db *gorm.DB
}

func NewSchoolRepository(db *gorm.DB) schoolpkg.Repository {
	return &SchoolRepository{db: db}
}

func (r *SchoolRepository) Create(s *schoolpkg.School) error {
	model := s.ToDataModel()
	if err := r.db.Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return internal.NewConflictError("school already registered", internal.ErrCodeDuplicateSchool)
		}
		return internal.NewInternalError("failed to create school", err)
	}
	s.ID = model.ID
	s.CreatedAt = model.CreatedAt
	s.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *SchoolRepository) GetBySchoolID(schoolID string) (*schoolpkg.School, error) {
	var model dm.School
	err := r.db.Where("school_id = ?", schoolID).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrSchoolNotFound
		}
		return nil, internal.NewInternalError("failed to fetch school", err)
	}
	return schoolpkg.FromDataModel(&model), nil
}

func (r *SchoolRepository) List(limit, offset int) ([]*schoolpkg.School, error) {
	var models []*dm.School
	err := r.db.Order("name ASC").Limit(limit).Offset(offset).Find(&models).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list schools", err)
	}

	schools := make([]*schoolpkg.School, 0, len(models))
	for _, model := range models {
		schools = append(schools, schoolpkg.FromDataModel(model))
	}
	return schools, nil
}

func (r *SchoolRepository) Exists(schoolID string) (bool, error) {
	var count int64
	err := r.db.Model(&dm.School{}).
		Where("school_id = ? AND is_active = ?", schoolID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func isDuplicateKey(err error) bool {
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
