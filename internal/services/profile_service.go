package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/flibisk/lowther-loudspeakers-sub001/internal/model"
	"github.com/flibisk/lowther-loudspeakers-sub001/internal/repository"
)

var displayNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ProfileService completes a first-time profile: a unique display name is
// required, everything else is optional and saved independently.
type ProfileService struct {
	Users UserStore
	Log   *slog.Logger
}

func NewProfileService(users UserStore, log *slog.Logger) *ProfileService {
	return &ProfileService{Users: users, Log: log}
}

type CompleteProfileRequest struct {
	DisplayName string
	FullName    *string
	Address     *string
	Country     *string
	Equipment   *string
}

// Complete sets the display name and any optional fields supplied. A
// taken name returns ErrDisplayNameTaken without touching the verified
// session, so the caller can retry. Re-submitting one's own current name
// succeeds idempotently. Optional-field failures are logged and never
// block completion.
func (s *ProfileService) Complete(ctx context.Context, userID int64, req CompleteProfileRequest) (*model.User, error) {
	if !displayNameRegex.MatchString(req.DisplayName) {
		return nil, fmt.Errorf("%w: display name must be 3-20 letters, digits or underscores", ErrValidation)
	}

	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.DisplayName == nil || *u.DisplayName != req.DisplayName {
		if err := s.Users.SetDisplayName(ctx, userID, req.DisplayName); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, ErrDisplayNameTaken
			}
			return nil, err
		}
	}

	s.saveOptional(ctx, userID, "full_name", req.FullName, s.Users.SetFullName)
	s.saveOptional(ctx, userID, "address", req.Address, s.Users.SetAddress)
	s.saveOptional(ctx, userID, "country", req.Country, s.Users.SetCountry)
	s.saveOptional(ctx, userID, "equipment", req.Equipment, s.Users.SetEquipment)

	return s.Users.GetByID(ctx, userID)
}

func (s *ProfileService) saveOptional(ctx context.Context, userID int64, field string, value *string,
	save func(context.Context, int64, string) error) {
	if value == nil {
		return
	}
	if err := save(ctx, userID, *value); err != nil {
		s.Log.Warn("optional profile field not saved", "user_id", userID, "field", field, "err", err)
	}
}

// SetPassword lets a verified user add a password. Staying magic-link
// only is a supported end state; this is never required.
func (s *ProfileService) SetPassword(ctx context.Context, userID int64, password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.Users.SetPasswordHash(ctx, userID, string(hash))
}
