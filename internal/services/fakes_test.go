package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/flibisk/lowther-loudspeakers-sub001/internal/model"
	"github.com/flibisk/lowther-loudspeakers-sub001/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- code store ---

type codeRow struct {
	email     string
	code      string
	expiresAt time.Time
	used      bool
}

// fakeCodeStore mirrors the repository's contract: Consume is a single
// guarded update under a lock, so concurrent callers can never both win.
type fakeCodeStore struct {
	mu        sync.Mutex
	rows      []*codeRow
	createErr error
}

func (f *fakeCodeStore) Create(ctx context.Context, email, code string, expiresAt time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, &codeRow{email: email, code: code, expiresAt: expiresAt})
	return nil
}

func (f *fakeCodeStore) Consume(ctx context.Context, email, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := false
	for _, r := range f.rows {
		if r.email == email && r.code == code && !r.used && r.expiresAt.After(time.Now()) {
			r.used = true
			matched = true
		}
	}
	return matched, nil
}

func (f *fakeCodeStore) seed(email, code string, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, &codeRow{email: email, code: code, expiresAt: expiresAt})
}

func (f *fakeCodeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeCodeStore) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rows) == 0 {
		return ""
	}
	return f.rows[len(f.rows)-1].code
}

// --- user store ---

// fakeUserStore enforces the email and display-name unique constraints
// under a lock, the way Postgres does with its unique indexes.
type fakeUserStore struct {
	mu           sync.Mutex
	users        map[int64]*model.User
	byEmail      map[string]int64
	displayNames map[string]int64
	nextID       int64

	// pretendMissingOnce makes the first GetByEmail miss even when the
	// row exists, to force the create-then-duplicate-then-reread path.
	pretendMissingOnce bool

	// failFields makes individual profile-field saves fail by column name.
	failFields map[string]error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:        map[int64]*model.User{},
		byEmail:      map[string]int64{},
		displayNames: map[string]int64{},
	}
}

func (f *fakeUserStore) Create(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[email]; ok {
		return nil, repository.ErrDuplicate
	}
	f.nextID++
	now := time.Now()
	u := &model.User{ID: f.nextID, Email: email, LastLoginAt: &now, CreatedAt: now}
	f.users[u.ID] = u
	f.byEmail[email] = u.ID
	return copyUser(u), nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pretendMissingOnce {
		f.pretendMissingOnce = false
		return nil, repository.ErrNotFound
	}
	id, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(f.users[id]), nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (f *fakeUserStore) TouchLastLogin(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (f *fakeUserStore) SetDisplayName(ctx context.Context, id int64, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if owner, taken := f.displayNames[name]; taken && owner != id {
		return repository.ErrDuplicate
	}
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.DisplayName != nil {
		delete(f.displayNames, *u.DisplayName)
	}
	u.DisplayName = &name
	f.displayNames[name] = id
	return nil
}

func (f *fakeUserStore) setField(id int64, column string, set func(*model.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFields[column]; ok {
		return err
	}
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	set(u)
	return nil
}

func (f *fakeUserStore) SetFullName(ctx context.Context, id int64, v string) error {
	return f.setField(id, "full_name", func(u *model.User) { u.FullName = &v })
}

func (f *fakeUserStore) SetAddress(ctx context.Context, id int64, v string) error {
	return f.setField(id, "address", func(u *model.User) { u.Address = &v })
}

func (f *fakeUserStore) SetCountry(ctx context.Context, id int64, v string) error {
	return f.setField(id, "country", func(u *model.User) { u.Country = &v })
}

func (f *fakeUserStore) SetEquipment(ctx context.Context, id int64, v string) error {
	return f.setField(id, "equipment", func(u *model.User) { u.Equipment = &v })
}

func (f *fakeUserStore) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	return f.setField(id, "password_hash", func(u *model.User) { u.PasswordHash = &hash })
}

func (f *fakeUserStore) userCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

// --- providers ---

type sentEmail struct {
	to              string
	code            string
	discountCode    string
	discountPercent int
}

type fakeMailer struct {
	mu         sync.Mutex
	codeSends  []sentEmail
	welcomes   []sentEmail
	codeErr    error
	welcomeErr error
}

func (f *fakeMailer) SendCodeEmail(ctx context.Context, to, code string) (string, error) {
	if f.codeErr != nil {
		return "", f.codeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codeSends = append(f.codeSends, sentEmail{to: to, code: code})
	return fmt.Sprintf("msg-%d", len(f.codeSends)), nil
}

func (f *fakeMailer) SendWelcomeEmail(ctx context.Context, to, discountCode string, discountPercent int) (string, error) {
	if f.welcomeErr != nil {
		return "", f.welcomeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, sentEmail{to: to, discountCode: discountCode, discountPercent: discountPercent})
	return fmt.Sprintf("welcome-%d", len(f.welcomes)), nil
}

type fakeMailingList struct {
	mu     sync.Mutex
	emails []string
	fields map[string]string
	err    error
}

func (f *fakeMailingList) Subscribe(ctx context.Context, email string, fields map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, email)
	f.fields = fields
	return nil
}
