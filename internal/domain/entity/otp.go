package entity

import "time"

// OTP is a single issued one-time code. Rows are append-only: the only
// mutation ever applied is the one-way IsUsed transition. Several pending
// codes may coexist for the same email; issuing a new one does not
// invalidate the others.
type OTP struct {
	ID        string
	Email     string
	Code      string
	IsUsed    bool
	CreatedAt time.Time
}

// ExpiresAt returns the end of the validity window for the given TTL.
func (o *OTP) ExpiresAt(ttl time.Duration) time.Time {
	return o.CreatedAt.Add(ttl)
}
