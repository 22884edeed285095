package users

import "time"

// Account roles. Only RoleMember and RoleTrainer may self-register.
const (
	RoleMember     = "MEMBER"
	RoleTrainer    = "TRAINER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

type User struct {
	ID            int64
	Firstname     string
	Lastname      string
	Email         string
	Role          string
	Avatar        string
	Enabled       bool
	PasswordHash  []byte
	TokenVersion  int
	WalletBalance float64
	CreatedAt     time.Time
}

// Clone returns a copy that does not share the password hash.
func (u *User) Clone() *User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}
