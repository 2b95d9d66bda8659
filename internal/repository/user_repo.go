package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flibisk/lowther-loudspeakers-sub001/internal/model"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, email, display_name, full_name, address, country, equipment, password_hash, last_login_at, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.FullName, &u.Address,
		&u.Country, &u.Equipment, &u.PasswordHash, &u.LastLoginAt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a user with only the email set. A concurrent insert for
// the same email surfaces as ErrDuplicate; callers resolve it by re-reading.
func (r *UserRepository) Create(ctx context.Context, email string) (*model.User, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO users (email, last_login_at)
		VALUES ($1, now())
		RETURNING `+userColumns, email)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	return err
}

// SetDisplayName relies on the unique index for global uniqueness; a taken
// name comes back as ErrDuplicate.
func (r *UserRepository) SetDisplayName(ctx context.Context, id int64, name string) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET display_name = $1 WHERE id = $2`, name, id)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) SetFullName(ctx context.Context, id int64, v string) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET full_name = $1 WHERE id = $2`, v, id)
	return err
}

func (r *UserRepository) SetAddress(ctx context.Context, id int64, v string) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET address = $1 WHERE id = $2`, v, id)
	return err
}

func (r *UserRepository) SetCountry(ctx context.Context, id int64, v string) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET country = $1 WHERE id = $2`, v, id)
	return err
}

func (r *UserRepository) SetEquipment(ctx context.Context, id int64, v string) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET equipment = $1 WHERE id = $2`, v, id)
	return err
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
	return err
}
