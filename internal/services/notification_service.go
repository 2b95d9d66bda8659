package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// mailingListTimeout boxes the best-effort leg so a slow provider cannot
// stall signup.
const mailingListTimeout = 5 * time.Second

// NotificationService owns both delivery legs. The transactional email
// leg is required: its failure fails the caller. The mailing-list leg is
// best-effort: its failure is logged and swallowed.
type NotificationService struct {
	Mailer EmailSender // nil when email delivery is not configured
	List   MailingList // nil when mailing-list sync is not configured
	Log    *slog.Logger
}

func NewNotificationService(mailer EmailSender, list MailingList, log *slog.Logger) *NotificationService {
	return &NotificationService{Mailer: mailer, List: list, Log: log}
}

// Configured reports whether the required email leg can be attempted at
// all. Callers check this before persisting anything a send would orphan.
func (s *NotificationService) Configured() bool {
	return s.Mailer != nil
}

func (s *NotificationService) SendCode(ctx context.Context, email, code string) error {
	if s.Mailer == nil {
		return fmt.Errorf("%w: email delivery not configured", ErrServiceUnavailable)
	}

	msgID, err := s.Mailer.SendCodeEmail(ctx, email, code)
	if err != nil {
		s.Log.Error("code email failed", "to", RedactEmail(email), "err", err)
		return fmt.Errorf("%w: could not send verification email", ErrServiceUnavailable)
	}

	s.Log.Info("code email sent", "to", RedactEmail(email), "message_id", msgID)
	return nil
}

// SendWelcomePackage sends the welcome email (required), then attempts
// the mailing-list subscription (best-effort). Success is defined solely
// by the email leg.
func (s *NotificationService) SendWelcomePackage(ctx context.Context, email, discountCode string, discountPercent int) error {
	if s.Mailer == nil {
		return fmt.Errorf("%w: email delivery not configured", ErrServiceUnavailable)
	}

	msgID, err := s.Mailer.SendWelcomeEmail(ctx, email, discountCode, discountPercent)
	if err != nil {
		s.Log.Error("welcome email failed", "to", RedactEmail(email), "err", err)
		return fmt.Errorf("%w: could not send welcome email", ErrServiceUnavailable)
	}
	s.Log.Info("welcome email sent", "to", RedactEmail(email), "message_id", msgID)

	if s.List != nil {
		subCtx, cancel := context.WithTimeout(ctx, mailingListTimeout)
		defer cancel()

		if err := s.List.Subscribe(subCtx, email, map[string]string{
			"discount_code":    discountCode,
			"discount_percent": strconv.Itoa(discountPercent),
		}); err != nil {
			s.Log.Warn("mailing list subscribe failed", "to", RedactEmail(email), "err", err)
		}
	}

	return nil
}
