package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/Shailesh2302/CipherChat/internal/store"
)

// Outcome is the result of checking a submitted verification code.
type Outcome int

const (
	OutcomeNotFound Outcome = iota + 1
	OutcomeAlreadyVerified
	OutcomeVerified
	OutcomeExpired
	OutcomeIncorrectCode
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeAlreadyVerified:
		return "already_verified"
	case OutcomeVerified:
		return "verified"
	case OutcomeExpired:
		return "expired"
	case OutcomeIncorrectCode:
		return "incorrect_code"
	default:
		return "unknown"
	}
}

// Verify checks code against the pending record of username. Only
// OutcomeVerified writes to the store, and it does so with a conditional
// update, so of two concurrent correct submissions exactly one wins.
func (s *Service) Verify(ctx context.Context, username, code string) (Outcome, error) {
	username = NormalizeUsername(username)

	user, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return OutcomeNotFound, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load user: %w", err)
	}

	if user.IsVerified {
		return OutcomeAlreadyVerified, nil
	}

	now := s.now()
	// Expiry is checked first: a stale code is expired whether or not it matches.
	if !user.CodeLive(now) {
		return OutcomeExpired, nil
	}
	if subtle.ConstantTimeCompare([]byte(user.VerifyCode), []byte(code)) != 1 {
		return OutcomeIncorrectCode, nil
	}

	changed, err := s.users.MarkVerified(ctx, user.Username, code, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark user verified: %w", err)
	}
	if changed {
		s.logger.Info("Account verified", "username", user.Username)
		return OutcomeVerified, nil
	}

	// The record moved underneath us; report what it looks like now.
	current, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return OutcomeNotFound, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to reload user: %w", err)
	}
	switch {
	case current.IsVerified:
		return OutcomeAlreadyVerified, nil
	case !current.CodeLive(now):
		return OutcomeExpired, nil
	default:
		return OutcomeIncorrectCode, nil
	}
}
