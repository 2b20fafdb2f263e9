package repository

import (
	"context"

	"github.com/grymm/barber-auth/internal/domain/entity"
)

// UserRepository is the identity directory consumed by the verification
// engine. Implementations must treat email as a unique key.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByEmail returns (nil, nil) when no identity exists for the email.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, email string, role entity.Role) (*entity.User, error)
	// UpdateRole persists a role change (the customer->barber promotion).
	UpdateRole(ctx context.Context, id string, role entity.Role) error
	// List returns identities ordered newest first, optionally filtered by a
	// case-insensitive email substring.
	List(ctx context.Context, emailQuery string, limit int) ([]*entity.User, error)
}
