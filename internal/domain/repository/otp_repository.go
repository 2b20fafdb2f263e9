package repository

import (
	"context"

	"github.com/grymm/barber-auth/internal/domain/entity"
)

// OTPRepository is the durable ledger of issued codes.
type OTPRepository interface {
	// Issue persists a fresh pending record. Prior outstanding records for
	// the same email are left untouched.
	Issue(ctx context.Context, email, code string) (*entity.OTP, error)
	// FindActive returns the most recently issued unconsumed record matching
	// (email, code) exactly, or (nil, nil) when there is none.
	FindActive(ctx context.Context, email, code string) (*entity.OTP, error)
	// MarkConsumed flips is_used to true and reports whether this call
	// performed the transition. It is a no-op on an already consumed record,
	// and concurrent callers serialize on the row so that exactly one of
	// them gets true.
	MarkConsumed(ctx context.Context, id string) (bool, error)
}
