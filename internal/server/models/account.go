// Package models defines the persisted domain types of medqueue: accounts
// and messages, plus their closed role/status enumerations. The enums
// implement sql.Scanner and driver.Valuer so that an invalid value coming
// from (or going to) the store is rejected at the type boundary instead of
// by a database CHECK constraint.
package models

import (
	"database/sql/driver"
	"fmt"
)

// Role determines which read path and which submission semantics apply to
// an account.
type Role string

const (
	RoleClient Role = "Client"
	RoleStaff  Role = "Staff"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleStaff
}

func (r Role) String() string { return string(r) }

// ParseRole converts a raw string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		role, err := ParseRole(v)
		if err != nil {
			return err
		}
		*r = role
		return nil
	case []byte:
		return r.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
}

func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %q", string(r))
	}
	return string(r), nil
}

// Account is an identity record. Name is the primary key; the role never
// changes after creation.
type Account struct {
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	Role         Role   `db:"role"`
}
