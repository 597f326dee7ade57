package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/martijn/parkapi/internal/core/domain"
	"github.com/martijn/parkapi/internal/core/repository"
)

const userColumns = `id, username, password, role, created_at, modified_at, created_by, modified_by`

type userRepository struct {
	ext     sqlx.ExtContext
	dialect *dialect
}

// NewUserRepository returns a repository that runs each statement in its own
// implicit transaction. Use TxManager to group statements.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{ext: db.DB, dialect: db.dialect}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := r.ext.Rebind(`
		INSERT INTO users (username, password, role, created_at, modified_at, created_by, modified_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.ext.QueryRowxContext(ctx, query,
		user.Username,
		user.Password,
		string(user.Role),
		r.dialect.timeArg(user.CreatedAt),
		r.dialect.nullTimeArg(user.ModifiedAt),
		nullString(user.CreatedBy),
		nullString(user.ModifiedBy),
	).Scan(&user.ID)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return fmt.Errorf("failed to create user %s: %w", user.Username, repository.ErrDuplicateUsername)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := r.ext.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	var user domain.User
	err := sqlx.GetContext(ctx, r.ext, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user id=%d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := r.ext.Rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ?`)

	var user domain.User
	err := sqlx.GetContext(ctx, r.ext, &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", username, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := r.ext.Rebind(`
		UPDATE users
		SET username = ?, password = ?, role = ?, modified_at = ?, modified_by = ?
		WHERE id = ?
	`)

	result, err := r.ext.ExecContext(ctx, query,
		user.Username,
		user.Password,
		string(user.Role),
		r.dialect.nullTimeArg(user.ModifiedAt),
		nullString(user.ModifiedBy),
		user.ID,
	)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return fmt.Errorf("failed to update user %d: %w", user.ID, repository.ErrDuplicateUsername)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user id=%d: %w", user.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []any{}

	query, args = r.dialect.ApplyFilters(query, args, filter.Filters)
	query = ApplyOrdering(query, filter.Order, "id ASC")
	query, args = ApplyPagination(query, args, filter.ListFilter)

	users := []*domain.User{}
	if err := sqlx.SelectContext(ctx, r.ext, &users, r.ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context, filter repository.UserFilter) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE 1=1`
	args := []any{}

	query, args = r.dialect.ApplyFilters(query, args, filter.Filters)

	var count int
	if err := sqlx.GetContext(ctx, r.ext, &count, r.ext.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
