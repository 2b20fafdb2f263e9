package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grymm/barber-auth/internal/domain/entity"
	"github.com/grymm/barber-auth/internal/domain/repository"
)

type OTPRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

func (r *OTPRepository) Issue(ctx context.Context, email, code string) (*entity.OTP, error) {
	o := &entity.OTP{Email: email, Code: code}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO otps (email, code)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, email, code)

	if err := row.Scan(&o.ID, &o.CreatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OTPRepository) FindActive(ctx context.Context, email, code string) (*entity.OTP, error) {
	o := &entity.OTP{}
	// Newest first so a code collision resolves toward the latest issuance.
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, code, is_used, created_at
		FROM otps
		WHERE email = $1 AND code = $2 AND is_used = false
		ORDER BY created_at DESC
		LIMIT 1
	`, email, code)

	if err := row.Scan(&o.ID, &o.Email, &o.Code, &o.IsUsed, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (r *OTPRepository) MarkConsumed(ctx context.Context, id string) (bool, error) {
	// The is_used guard makes the transition one-way and serializes
	// concurrent consumers on the row lock. Marking an already consumed
	// record affects zero rows and is not an error; the affected count
	// tells the caller whether it won the transition.
	tag, err := r.pool.Exec(ctx, `
		UPDATE otps
		SET is_used = true
		WHERE id = $1 AND is_used = false
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var _ repository.OTPRepository = (*OTPRepository)(nil)
