package duosite

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// Access is the outcome of the admin gate for one caller.
type Access int

const (
	AccessNoSession Access = iota
	AccessDenied
	AccessAdmin
)

func (a Access) String() string {
	switch a {
	case AccessAdmin:
		return "admin"
	case AccessDenied:
		return "denied"
	}
	return "no-session"
}

// Authorize resolves whether id may enter the admin area. Presence of an
// admin_users row for the session account is the only check.
func (s *Store) Authorize(ctx context.Context, id Identity) (Access, error) {
	if !id.Authenticated() {
		return AccessNoSession, nil
	}
	_, err := s.GetAdmin(ctx, id.UserID)
	switch {
	case errors.Is(err, ErrNotFound):
		return AccessDenied, nil
	case err != nil:
		return AccessDenied, fmt.Errorf("admin lookup: %w", err)
	}
	return AccessAdmin, nil
}

// IsAdmin reports whether id belongs to an admin account. Lookup errors
// count as denial.
func (s *Store) IsAdmin(ctx context.Context, id Identity) bool {
	access, err := s.Authorize(ctx, id)
	return err == nil && access == AccessAdmin
}

func (s *Store) requireAdmin(ctx context.Context, id Identity) error {
	access, err := s.Authorize(ctx, id)
	if err != nil {
		return err
	}
	switch access {
	case AccessNoSession:
		return ErrUnauthenticated
	case AccessDenied:
		return ErrForbidden
	}
	return nil
}

func validateCredentials(email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", invalid("email", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", invalid("email", "is not a valid address")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "", invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	return email, nil
}

// SignUp creates a new account with a bcrypt-hashed password.
func (s *Store) SignUp(ctx context.Context, email, password string) (Account, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}
	acc, err := s.insertAccount(ctx, email, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, invalid("email", "is already registered")
		}
		return Account{}, fmt.Errorf("insert account: %w", err)
	}
	return acc, nil
}

// SignIn checks email and password and returns the matching account.
func (s *Store) SignIn(ctx context.Context, email, password string) (Account, error) {
	acc, err := s.GetAccountByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		// hash anyway so unknown emails take as long as wrong passwords
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, fmt.Errorf("lookup account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("duosite-placeholder"), bcrypt.MinCost)

// GrantAdmin promotes an existing account to super admin.
func (s *Store) GrantAdmin(ctx context.Context, email string) (AdminAccount, error) {
	acc, err := s.GetAccountByEmail(ctx, email)
	if err != nil {
		return AdminAccount{}, err
	}
	if err := s.upsertAdmin(ctx, acc, true); err != nil {
		return AdminAccount{}, err
	}
	return s.GetAdmin(ctx, acc.ID)
}

// EnsureAdmin makes sure an account for email exists, carries password, and
// is a super admin. It is used to bootstrap the first admin at start-up.
func (s *Store) EnsureAdmin(ctx context.Context, email, password string) (AdminAccount, error) {
	acc, err := s.GetAccountByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		if acc, err = s.SignUp(ctx, email, password); err != nil {
			return AdminAccount{}, err
		}
	case err != nil:
		return AdminAccount{}, err
	default:
		if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
			if _, err := validateCredentials(email, password); err != nil {
				return AdminAccount{}, err
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return AdminAccount{}, fmt.Errorf("hash password: %w", err)
			}
			if err := s.setPasswordHash(ctx, acc.ID, string(hash)); err != nil {
				return AdminAccount{}, fmt.Errorf("update password: %w", err)
			}
		}
	}
	if err := s.upsertAdmin(ctx, acc, true); err != nil {
		return AdminAccount{}, err
	}
	return s.GetAdmin(ctx, acc.ID)
}

// UpdateProfile saves the editable profile fields of the calling account.
func (s *Store) UpdateProfile(ctx context.Context, id Identity, p Profile) (Profile, error) {
	if !id.Authenticated() {
		return Profile{}, ErrUnauthenticated
	}
	p.ID = id.UserID
	p.Username = strings.TrimSpace(p.Username)
	p.FullName = strings.TrimSpace(p.FullName)
	p.Bio = strings.TrimSpace(p.Bio)
	p.AvatarURL = strings.TrimSpace(p.AvatarURL)
	if utf8.RuneCountInString(p.Username) > 40 {
		return Profile{}, invalid("username", "must be at most 40 characters")
	}
	if utf8.RuneCountInString(p.Bio) > 1000 {
		return Profile{}, invalid("bio", "must be at most 1000 characters")
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.saveProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return s.GetProfile(ctx, p.ID)
}
