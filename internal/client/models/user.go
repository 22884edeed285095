// Package models defines the data shapes exchanged between the gymkeeper
// client and the gym backend.
package models

import (
	"fmt"
	"strings"
)

// Role is the authorization role of a gym account.
type Role string

const (
	RoleMember     Role = "MEMBER"
	RoleTrainer    Role = "TRAINER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleMember, RoleTrainer, RoleAdmin, RoleSuperAdmin}
}

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleTrainer, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether r carries administrative rights.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ParseRole accepts role names case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// UserProfile is the current user as returned by GET /api/v1/users/me.
// It is replaced wholesale, never patched field by field.
type UserProfile struct {
	ID            int64    `json:"id"`
	Firstname     string   `json:"firstname"`
	Lastname      string   `json:"lastname"`
	Email         string   `json:"email"`
	Role          Role     `json:"role"`
	Avatar        string   `json:"avatar,omitempty"`
	Enabled       bool     `json:"enabled"`
	WalletBalance *float64 `json:"walletBalance,omitempty"`
}

// Clone returns a deep copy so snapshots never share memory with the owner.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	if u.WalletBalance != nil {
		b := *u.WalletBalance
		c.WalletBalance = &b
	}
	return &c
}

func (u *UserProfile) FullName() string {
	return strings.TrimSpace(u.Firstname + " " + u.Lastname)
}
