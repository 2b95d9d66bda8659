package services

import "context"

// EmailSender is the required transactional-email leg. Implementations
// return the provider message id on success.
type EmailSender interface {
	SendCodeEmail(ctx context.Context, toEmail, code string) (string, error)
	SendWelcomeEmail(ctx context.Context, toEmail, discountCode string, discountPercent int) (string, error)
}

// MailingList is the best-effort leg; a failed Subscribe never fails the
// operation that triggered it.
type MailingList interface {
	Subscribe(ctx context.Context, email string, fields map[string]string) error
}
