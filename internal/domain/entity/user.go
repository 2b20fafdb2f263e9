package entity

import (
	"time"
)

// User is the aggregate root for the identity domain. Identities are keyed
// by email; most of them never carry a password because authentication
// happens exclusively through the OTP flow. PasswordHash is set only for
// the seeded bootstrap admin.
type User struct {
	ID           string
	Email        string
	Role         Role
	IsActive     bool
	IsStaff      bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
