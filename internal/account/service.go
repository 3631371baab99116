// Package account owns the sign-up and verification lifecycle: issuing
// codes, evaluating submitted codes, credential checks and username availability.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/store"
)

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("account is not verified")
	ErrSendVerification   = errors.New("failed to send verification email")
)

// VerificationSender delivers a freshly issued code to its owner, either
// directly or by queueing the delivery.
type VerificationSender interface {
	SendVerification(ctx context.Context, email, username, code string) error
}

// Service implements the account operations on top of a UserStore.
type Service struct {
	users  store.UserStore
	codes  *CodeGenerator
	sender VerificationSender
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the account operations.
func NewService(users store.UserStore, codes *CodeGenerator, sender VerificationSender, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		users:  users,
		codes:  codes,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp registers username/email or restarts the flow of a pending record,
// then dispatches a verification code. A username is reserved only by a
// verified user; a stale pending holder of it is replaced.
func (s *Service) SignUp(ctx context.Context, username, email, password string) (*models.User, error) {
	username = NormalizeUsername(username)
	email = NormalizeEmail(email)

	holder, err := s.users.FindUserByUsername(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		holder = nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up username: %w", err)
	case holder.IsVerified:
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	code, expiry, err := s.codes.Generate(s.now())
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil && existing.IsVerified {
		return nil, ErrEmailTaken
	}

	// A pending holder of the username that is not this email's record is
	// released in the same store write that saves the new registration.
	replace := holder != nil && (existing == nil || holder.ID != existing.ID)

	user := existing
	if user != nil {
		user.Username = username
		user.PasswordHash = string(hash)
		user.VerifyCode = code
		user.VerifyCodeExpiry = expiry
	} else {
		user = &models.User{
			Username:            username,
			Email:               email,
			PasswordHash:        string(hash),
			VerifyCode:          code,
			VerifyCodeExpiry:    expiry,
			IsAcceptingMessages: true,
		}
	}

	switch {
	case replace:
		err = s.users.ReplacePendingUser(ctx, holder.ID, user)
	case existing != nil:
		err = s.users.UpdatePendingUser(ctx, user)
	default:
		err = s.users.CreateUser(ctx, user)
	}
	// ErrNotFound from a replace means the holder was verified or replaced
	// by a concurrent request.
	if errors.Is(err, store.ErrDuplicate) || (replace && errors.Is(err, store.ErrNotFound)) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	if replace {
		s.logger.Info("Replaced stale pending sign-up", "username", username)
	}

	if err := s.sender.SendVerification(ctx, user.Email, user.Username, code); err != nil {
		return user, fmt.Errorf("%w: %v", ErrSendVerification, err)
	}
	return user, nil
}

// Authenticate resolves identifier as an email (when it contains "@") or a
// username and checks password. Unverified accounts cannot sign in.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.FindUserByEmail(ctx, NormalizeEmail(identifier))
	} else {
		user, err = s.users.FindUserByUsername(ctx, NormalizeUsername(identifier))
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	return user, nil
}

// IsUsernameAvailable reports whether no verified user holds username.
func (s *Service) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	user, err := s.users.FindUserByUsername(ctx, NormalizeUsername(username))
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up username: %w", err)
	}
	return !user.IsVerified, nil
}

// PurgeUnverified deletes pending accounts whose code expired more than
// retention ago, releasing their username and email.
func (s *Service) PurgeUnverified(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention)
	n, err := s.users.DeleteUnverifiedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge unverified users: %w", err)
	}
	return n, nil
}
