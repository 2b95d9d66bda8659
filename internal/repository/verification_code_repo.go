package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type VerificationCodeRepository struct {
	DB *pgxpool.Pool
}

func NewVerificationCodeRepository(db *pgxpool.Pool) *VerificationCodeRepository {
	return &VerificationCodeRepository{DB: db}
}

// Create inserts a fresh code. Previously issued codes for the same email
// stay valid; verification matches on the exact code value.
func (r *VerificationCodeRepository) Create(ctx context.Context, email, code string, expiresAt time.Time) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO verification_codes (email, code, expires_at, used)
		VALUES ($1, $2, $3, FALSE)
	`, email, code, expiresAt)
	return err
}

// Consume marks a matching live code as used in a single conditional
// UPDATE, so concurrent attempts with the same code can never both win.
// Returns false when no live code matched: wrong, expired or already used.
func (r *VerificationCodeRepository) Consume(ctx context.Context, email, code string) (bool, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE verification_codes
		SET used = TRUE
		WHERE email = $1 AND code = $2 AND used = FALSE AND expires_at > now()
	`, email, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
