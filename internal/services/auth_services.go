package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/flibisk/lowther-loudspeakers-sub001/internal/model"
)

const MinPasswordLen = 8

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	codeRegex  = regexp.MustCompile(`^[0-9]{6}$`)
)

// CodeStore is the slice of the verification-code repository the auth
// service needs. Consume must be atomic: at most one caller wins a code.
type CodeStore interface {
	Create(ctx context.Context, email, code string, expiresAt time.Time) error
	Consume(ctx context.Context, email, code string) (bool, error)
}

type AuthService struct {
	Codes     CodeStore
	Users     *UserService
	Notify    *NotificationService
	Validator EmailValidator

	CodeTTL         time.Duration
	DiscountCode    string
	DiscountPercent int

	Log *slog.Logger
}

func NewAuthService(codes CodeStore, users *UserService, notify *NotificationService,
	validator EmailValidator, codeTTL time.Duration, discountCode string, discountPercent int,
	log *slog.Logger) *AuthService {
	return &AuthService{
		Codes:           codes,
		Users:           users,
		Notify:          notify,
		Validator:       validator,
		CodeTTL:         codeTTL,
		DiscountCode:    discountCode,
		DiscountPercent: discountPercent,
		Log:             log,
	}
}

// NormalizeEmail lowercases and trims; it is the identity key everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

// generateCode draws a uniformly random 6-digit code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// RequestCode issues a one-time code and emails it. Delivery capability
// is checked before the code is persisted so a misconfigured mailer never
// leaves undeliverable codes behind. Earlier codes for the same email are
// not invalidated.
func (s *AuthService) RequestCode(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	if s.Validator != nil {
		if err := s.Validator.Validate(ctx, email); err != nil {
			return fmt.Errorf("%w: %s", ErrValidation, err)
		}
	}

	if !s.Notify.Configured() {
		return fmt.Errorf("%w: email delivery not configured", ErrServiceUnavailable)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err := s.Codes.Create(ctx, email, code, time.Now().Add(s.CodeTTL)); err != nil {
		return err
	}

	if err := s.Notify.SendCode(ctx, email, code); err != nil {
		// The persisted code stays behind as audit trail; nobody can
		// consume it without the inbox it never reached.
		return err
	}

	s.Log.Info("verification code issued", "email", RedactEmail(email))
	return nil
}

type VerifyResult struct {
	User            *model.User
	IsNewUser       bool
	NeedsUsername   bool
	DiscountCode    string
	DiscountPercent int
}

// VerifyCode consumes a submitted code exactly once, provisions the user
// and, for first-time users, dispatches the welcome package before any
// session is finalized. The failure reason behind a rejected code is
// deliberately not exposed.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (*VerifyResult, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if !codeRegex.MatchString(code) {
		return nil, fmt.Errorf("%w: code must be 6 digits", ErrValidation)
	}

	ok, err := s.Codes.Consume(ctx, email, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOrExpiredCode
	}

	user, isNew, err := s.Users.FindOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{
		User:          user,
		IsNewUser:     isNew,
		NeedsUsername: user.DisplayName == nil,
	}

	if isNew {
		if err := s.Notify.SendWelcomePackage(ctx, email, s.DiscountCode, s.DiscountPercent); err != nil {
			return nil, err
		}
		res.DiscountCode = s.DiscountCode
		res.DiscountPercent = s.DiscountPercent
	}

	s.Log.Info("code verified", "email", RedactEmail(email), "user_id", user.ID, "new_user", isNew)
	return res, nil
}

// LoginWithPassword authenticates accounts that chose to set a password.
// Magic-link-only accounts (no hash) fail with the same generic error as
// a wrong password.
func (s *AuthService) LoginWithPassword(ctx context.Context, email, password string) (*model.User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	u, err := s.Users.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.Users.touchLogin(ctx, u)
	return u, nil
}
