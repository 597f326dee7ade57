package database

import (
	"context"
	"fmt"

	"github.com/martijn/parkapi/internal/core/repository"
)

type txManager struct {
	db *DB
}

func NewTxManager(db *DB) repository.TxManager {
	return &txManager{db: db}
}

// WithinTx commits when fn returns nil and rolls back on error or panic.
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context, users repository.UserRepository) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	return fn(ctx, &userRepository{ext: tx, dialect: m.db.dialect})
}
