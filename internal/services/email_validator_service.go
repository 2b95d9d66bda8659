package services

import "context"

// EmailValidator is an optional pre-issue check (reputation, disposable
// address screening). Format validation happens before it runs.
type EmailValidator interface {
	Validate(ctx context.Context, email string) error
}

type LocalValidator struct{}

func NewLocalValidator() *LocalValidator {
	return &LocalValidator{}
}

func (v *LocalValidator) Validate(ctx context.Context, email string) error {
	// Format already checked upstream, nothing else to do locally.
	return nil
}
