// Package store defines the persistence contracts shared by every backend.
//
// Each operation is a single-record read or an atomic single-record write,
// except ReplacePendingUser, which must apply both of its writes or neither.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Shailesh2302/CipherChat/internal/models"
)

var (
	// ErrNotFound is returned when the addressed user or message does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique username or email would be violated.
	ErrDuplicate = errors.New("duplicate record")
)

// UserStore persists user records. Lookups do not load messages.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	// UpdatePendingUser rewrites the credential and verification fields of a
	// user that is still unverified. ErrNotFound if no unverified user has u.ID.
	UpdatePendingUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
	// ReplacePendingUser removes the unverified user staleID and saves u in its
	// place: u is created when u.ID is empty, otherwise updated as in
	// UpdatePendingUser. On any error the stale record is left as it was.
	// ErrNotFound if staleID is no longer an unverified user.
	ReplacePendingUser(ctx context.Context, staleID string, u *models.User) error

	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	// MarkVerified flips is_verified only if the user is unverified, the code
	// matches and now is before the expiry. It reports whether a record changed.
	MarkVerified(ctx context.Context, username, code string, now time.Time) (bool, error)
	SetAcceptingMessages(ctx context.Context, id string, accepting bool) (*models.User, error)
	// DeleteUnverifiedBefore removes unverified users whose code expired before cutoff.
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MessageStore persists the messages owned by a user.
type MessageStore interface {
	AppendMessage(ctx context.Context, userID string, msg *models.Message) error
	// ListMessages returns the owner's messages, newest first.
	ListMessages(ctx context.Context, userID string) ([]models.Message, error)
	DeleteMessage(ctx context.Context, userID, messageID string) error
}

// IdentityStore links OAuth identities to users.
type IdentityStore interface {
	// UpsertIdentity creates or replaces the identity keyed by (provider, provider user id).
	UpsertIdentity(ctx context.Context, userID string, identity *models.AuthIdentity) error
}

// Store is the full handle constructed by the process entry point.
type Store interface {
	UserStore
	MessageStore
	IdentityStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
