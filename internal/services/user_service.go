package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flibisk/lowther-loudspeakers-sub001/internal/model"
	"github.com/flibisk/lowther-loudspeakers-sub001/internal/repository"
)

// UserStore is the slice of the user repository the services need.
type UserStore interface {
	Create(ctx context.Context, email string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
	SetDisplayName(ctx context.Context, id int64, name string) error
	SetFullName(ctx context.Context, id int64, v string) error
	SetAddress(ctx context.Context, id int64, v string) error
	SetCountry(ctx context.Context, id int64, v string) error
	SetEquipment(ctx context.Context, id int64, v string) error
	SetPasswordHash(ctx context.Context, id int64, hash string) error
}

type UserService struct {
	Users UserStore
	Log   *slog.Logger
}

func NewUserService(users UserStore, log *slog.Logger) *UserService {
	return &UserService{Users: users, Log: log}
}

// FindOrCreate returns the user for a normalized email, creating it on
// first sight. The unique constraint on email is the source of truth: a
// creation race is resolved by re-reading, never surfaced to the caller.
func (s *UserService) FindOrCreate(ctx context.Context, email string) (*model.User, bool, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err == nil {
		s.touchLogin(ctx, u)
		return u, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	u, err = s.Users.Create(ctx, email)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, false, err
	}

	// Lost the creation race; the row exists now.
	u, err = s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	s.touchLogin(ctx, u)
	return u, false, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.Users.GetByID(ctx, id)
}

// touchLogin records the login event; a failure here is not worth
// failing a sign-in over.
func (s *UserService) touchLogin(ctx context.Context, u *model.User) {
	if err := s.Users.TouchLastLogin(ctx, u.ID); err != nil {
		s.Log.Warn("could not update last login", "user_id", u.ID, "err", err)
	}
}
