package postgres

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/schoolpay/payments/internal"
	userpkg "github.com/schoolpay/payments/internal/user"
)

// UserRepository reads profiles over sqlx. Auth owns the write side of the
// users table; this repository only serves /users/me.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) userpkg.Repository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID          int64      `db:"id"`
	Email       string     `db:"email"`
	Name        string     `db:"name"`
	Role        string     `db:"role"`
	SchoolID    *string    `db:"school_id"`
	IsActive    bool       `db:"is_active"`
	LastLoginAt *time.Time `db:"last_login_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r *UserRepository) GetByID(userID int64) (*userpkg.User, error) {
	var row userRow
	query := `
		SELECT id, email, name, role, school_id, is_active, last_login_at, created_at, updated_at
		FROM users
		WHERE id = ?`

	if err := r.db.Get(&row, r.db.Rebind(query), userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to fetch user", err)
	}

	return &userpkg.User{
		ID:          row.ID,
		Email:       row.Email,
		Name:        row.Name,
		Role:        row.Role,
		SchoolID:    row.SchoolID,
		IsActive:    row.IsActive,
		LastLoginAt: row.LastLoginAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}
