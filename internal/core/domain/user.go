package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the stored role value. The "ROLE_" prefix is part of the stored
// representation only; Name returns the public form.
type Role string

const (
	RoleAdmin    Role = "ROLE_ADMIN"
	RoleCustomer Role = "ROLE_CUSTOMER"

	rolePrefix = "ROLE_"
)

// Name returns the role without its storage prefix, e.g. "ADMIN".
func (r Role) Name() string {
	return strings.TrimPrefix(string(r), rolePrefix)
}

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// ParseRole accepts both the stored and the public form, case-insensitive.
func ParseRole(s string) (Role, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	role := Role(rolePrefix + strings.TrimPrefix(name, rolePrefix))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %q (expected ADMIN or CUSTOMER)", s)
	}
	return role, nil
}

type User struct {
	ID         int64      `db:"id"`
	Username   string     `db:"username"`
	Password   string     `db:"password"` // encoded by the configured password encoder
	Role       Role       `db:"role"`
	CreatedAt  time.Time  `db:"created_at"`
	ModifiedAt *time.Time `db:"modified_at"`
	CreatedBy  *string    `db:"created_by"`
	ModifiedBy *string    `db:"modified_by"`
}

// NewUser builds an unsaved customer. The store assigns ID on insert.
func NewUser(username, password string) *User {
	return &User{
		Username:  username,
		Password:  password,
		Role:      RoleCustomer,
		CreatedAt: time.Now().UTC(),
	}
}
