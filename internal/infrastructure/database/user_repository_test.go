package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/martijn/parkapi/internal/api/util"
	"github.com/martijn/parkapi/internal/core/domain"
	"github.com/martijn/parkapi/internal/core/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUsers(t *testing.T, repo repository.UserRepository, usernames ...string) []*domain.User {
	t.Helper()

	base := time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
	users := make([]*domain.User, 0, len(usernames))
	for i, name := range usernames {
		u := domain.NewUser(name, "123456")
		u.CreatedAt = base.Add(time.Duration(i) * 24 * time.Hour)
		if i == 0 {
			u.Role = domain.RoleAdmin
		}
		require.NoError(t, repo.Create(context.Background(), u))
		users = append(users, u)
	}
	return users
}

// runUserRepositoryContract exercises behaviour every dialect must share.
func runUserRepositoryContract(t *testing.T, db *DB) {
	ctx := context.Background()
	repo := NewUserRepository(db)

	t.Run("create assigns increasing ids", func(t *testing.T) {
		users := seedUsers(t, repo, "admin@email.com", "customer@email.com")
		require.NotZero(t, users[0].ID)
		require.Greater(t, users[1].ID, users[0].ID)
	})

	t.Run("duplicate username is reported as ErrDuplicateUsername", func(t *testing.T) {
		err := repo.Create(ctx, domain.NewUser("admin@email.com", "654321"))
		require.ErrorIs(t, err, repository.ErrDuplicateUsername)
	})

	t.Run("find by id round-trips fields", func(t *testing.T) {
		existing, err := repo.FindByUsername(ctx, "admin@email.com")
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, "admin@email.com", got.Username)
		assert.Equal(t, domain.RoleAdmin, got.Role)
		assert.Equal(t, "123456", got.Password)
		assert.Nil(t, got.ModifiedAt)
		assert.Nil(t, got.CreatedBy)
		assert.True(t, got.CreatedAt.Equal(time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)))
	})

	t.Run("missing id is ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 1000)
		require.ErrorIs(t, err, repository.ErrNotFound)

		_, err = repo.FindByUsername(ctx, "nobody@email.com")
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("update persists password and modified_at", func(t *testing.T) {
		u, err := repo.FindByUsername(ctx, "customer@email.com")
		require.NoError(t, err)

		now := time.Date(2025, 12, 1, 8, 30, 0, 0, time.UTC)
		u.Password = "101010"
		u.ModifiedAt = &now
		require.NoError(t, repo.Update(ctx, u))

		got, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "101010", got.Password)
		require.NotNil(t, got.ModifiedAt)
		assert.True(t, got.ModifiedAt.Equal(now))
	})

	t.Run("update of missing id is ErrNotFound", func(t *testing.T) {
		err := repo.Update(ctx, &domain.User{ID: 999, Username: "ghost@email.com", Password: "x", Role: domain.RoleCustomer})
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("list and count honour filters", func(t *testing.T) {
		all, err := repo.List(ctx, repository.UserFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Less(t, all[0].ID, all[1].ID)

		admins := repository.UserFilter{ListFilter: util.ListFilter{
			Filters: []util.QueryFilter{{Field: "role", Operator: util.OpEq, Value: string(domain.RoleAdmin)}},
		}}
		got, err := repo.List(ctx, admins)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "admin@email.com", got[0].Username)

		count, err := repo.Count(ctx, admins)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		modified := repository.UserFilter{ListFilter: util.ListFilter{
			Filters: []util.QueryFilter{{Field: "modified_at", Operator: util.OpIsNotNull}},
		}}
		got, err = repo.List(ctx, modified)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "customer@email.com", got[0].Username)

		since := repository.UserFilter{ListFilter: util.ListFilter{
			Filters: []util.QueryFilter{{Field: "created_at", Operator: util.OpGte, Value: time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)}},
		}}
		got, err = repo.List(ctx, since)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "customer@email.com", got[0].Username)
	})

	t.Run("timestamp filters match the exact instant", func(t *testing.T) {
		adminCreated := time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
		customerModified := time.Date(2025, 12, 1, 8, 30, 0, 0, time.UTC)

		tests := []struct {
			name  string
			field string
			op    util.QueryOperator
			value time.Time
			want  []string
		}{
			{name: "created eq", field: "created_at", op: util.OpEq, value: adminCreated, want: []string{"admin@email.com"}},
			{name: "created lte", field: "created_at", op: util.OpLte, value: adminCreated, want: []string{"admin@email.com"}},
			{name: "created lt", field: "created_at", op: util.OpLt, value: adminCreated, want: []string{}},
			{name: "created gt", field: "created_at", op: util.OpGt, value: adminCreated, want: []string{"customer@email.com"}},
			{name: "modified eq", field: "modified_at", op: util.OpEq, value: customerModified, want: []string{"customer@email.com"}},
			{name: "modified gt", field: "modified_at", op: util.OpGt, value: customerModified, want: []string{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.List(ctx, repository.UserFilter{ListFilter: util.ListFilter{
					Filters: []util.QueryFilter{{Field: tt.field, Operator: tt.op, Value: tt.value}},
				}})
				require.NoError(t, err)

				names := []string{}
				for _, u := range got {
					names = append(names, u.Username)
				}
				assert.Equal(t, tt.want, names)
			})
		}
	})

	t.Run("list honours order and pagination", func(t *testing.T) {
		filter := repository.UserFilter{ListFilter: util.ListFilter{
			Order:   []util.OrderClause{{Field: "username", Direction: util.OrderDesc}},
			Page:    2,
			PerPage: 1,
		}}
		got, err := repo.List(ctx, filter)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "admin@email.com", got[0].Username)

		in := repository.UserFilter{ListFilter: util.ListFilter{
			Filters: []util.QueryFilter{{Field: "username", Operator: util.OpIn, Value: []string{"admin@email.com", "nobody@email.com"}}},
		}}
		got, err = repo.List(ctx, in)
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		tm := NewTxManager(db)
		boom := errors.New("boom")

		err := tm.WithinTx(ctx, func(ctx context.Context, users repository.UserRepository) error {
			if err := users.Create(ctx, domain.NewUser("rolled@email.com", "123456")); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = repo.FindByUsername(ctx, "rolled@email.com")
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("transaction commits on success", func(t *testing.T) {
		tm := NewTxManager(db)

		var created *domain.User
		err := tm.WithinTx(ctx, func(ctx context.Context, users repository.UserRepository) error {
			created = domain.NewUser("committed@email.com", "123456")
			return users.Create(ctx, created)
		})
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "committed@email.com", got.Username)
	})
}

func TestUserRepositorySQLite(t *testing.T) {
	runUserRepositoryContract(t, newTestDB(t))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	require.Error(t, err)
}

func TestRoleCheckConstraint(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	u := domain.NewUser("root@email.com", "123456")
	u.Role = domain.Role("ROLE_ROOT")
	err := repo.Create(context.Background(), u)
	require.Error(t, err)
	require.NotErrorIs(t, err, repository.ErrDuplicateUsername)
}

func TestSQLiteTimestampsAreFixedWidth(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
	early := domain.NewUser("early@email.com", "123456")
	early.CreatedAt = base.Add(250 * time.Millisecond)
	late := domain.NewUser("late@email.com", "123456")
	late.CreatedAt = base.Add(500 * time.Millisecond)
	require.NoError(t, repo.Create(ctx, early))
	require.NoError(t, repo.Create(ctx, late))

	var stored string
	require.NoError(t, db.GetContext(ctx, &stored, `SELECT CAST(created_at AS TEXT) FROM users WHERE id = ?`, early.ID))
	assert.Equal(t, "2025-11-01 10:00:00.250000000", stored)

	got, err := repo.List(ctx, repository.UserFilter{ListFilter: util.ListFilter{
		Filters: []util.QueryFilter{{Field: "created_at", Operator: util.OpGt, Value: base.Add(300 * time.Millisecond)}},
	}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "late@email.com", got[0].Username)

	found, err := repo.FindByID(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, found.CreatedAt.Equal(early.CreatedAt))
}
