package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/martijn/parkapi/internal/core/domain"
	"github.com/martijn/parkapi/internal/core/repository"
)

type UserService struct {
	txManager repository.TxManager
	encoder   PasswordEncoder
	now       func() time.Time
}

func NewUserService(txManager repository.TxManager, encoder PasswordEncoder) *UserService {
	return &UserService{
		txManager: txManager,
		encoder:   encoder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create encodes the password and persists a new user. A taken username is
// reported as ErrUsernameConflict; any other store error is returned as is.
func (s *UserService) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	created := *user
	if created.Role == "" {
		created.Role = domain.RoleCustomer
	}
	if !created.Role.IsValid() {
		return nil, fmt.Errorf("invalid role: %q", created.Role)
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = s.now()
	}

	encoded, err := s.encoder.Encode(user.Password)
	if err != nil {
		return nil, err
	}
	created.Password = encoded

	err = s.txManager.WithinTx(ctx, func(ctx context.Context, users repository.UserRepository) error {
		return users.Create(ctx, &created)
	})
	if errors.Is(err, repository.ErrDuplicateUsername) {
		return nil, newUsernameConflictError(user.Username, err)
	}
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// GetByID returns the user or ErrNotFound.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user *domain.User
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, users repository.UserRepository) error {
		var err error
		user, err = users.FindByID(ctx, id)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newNotFoundError(id, err)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByUsername returns the user or ErrNotFound.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user *domain.User
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, users repository.UserRepository) error {
		var err error
		user, err = users.FindByUsername(ctx, username)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &ServiceError{
			Kind:    KindNotFound,
			Message: fmt.Sprintf("username {%s} not found", username),
			Err:     err,
		}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePassword replaces the password of user id. The confirmation is
// checked before the user is loaded, so a mismatched confirmation is reported
// even for an unknown id.
func (s *UserService) UpdatePassword(ctx context.Context, id int64, currentPassword, newPassword, confirmPassword string) (*domain.User, error) {
	if newPassword != confirmPassword {
		return nil, newPasswordMismatchError(MismatchConfirmation)
	}

	var updated *domain.User
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, users repository.UserRepository) error {
		user, err := users.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if !s.encoder.Matches(currentPassword, user.Password) {
			return newPasswordMismatchError(MismatchCurrent)
		}

		encoded, err := s.encoder.Encode(newPassword)
		if err != nil {
			return err
		}

		now := s.now()
		user.Password = encoded
		user.ModifiedAt = &now
		if err := users.Update(ctx, user); err != nil {
			return err
		}

		updated = user
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newNotFoundError(id, err)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// List returns users in store order unless the filter says otherwise.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]*domain.User, error) {
	var list []*domain.User
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, users repository.UserRepository) error {
		var err error
		list, err = users.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListWithCount returns one page of users and the total number of matches,
// read in the same transaction.
func (s *UserService) ListWithCount(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error) {
	var (
		list  []*domain.User
		total int
	)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, users repository.UserRepository) error {
		var err error
		if list, err = users.List(ctx, filter); err != nil {
			return err
		}
		total, err = users.Count(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
