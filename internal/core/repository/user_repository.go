package repository

import (
	"context"
	"errors"

	"github.com/martijn/parkapi/internal/api/util"
	"github.com/martijn/parkapi/internal/core/domain"
)

var (
	// ErrNotFound is returned when no row matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername is returned when an insert or update would violate
	// the unique constraint on users.username.
	ErrDuplicateUsername = errors.New("username already exists")
)

// UserFilter embeds ListFilter for generic query/order/pagination
type UserFilter struct {
	util.ListFilter
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)
	Count(ctx context.Context, filter UserFilter) (int, error)
}

// TxManager runs fn inside a single transaction. The repository passed to fn
// is bound to that transaction; fn must not use any other repository.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, users UserRepository) error) error
}
