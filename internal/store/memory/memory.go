// Package memory is a process-local store used by tests and by local
// development when no DATABASE_URL is configured.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/store"
	"github.com/google/uuid"
)

// Store keeps users keyed by ID. Every method holds the lock for its whole
// read-modify-write, which gives the same single-record atomicity the
// database backends provide.
type Store struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users: make(map[string]*models.User),
	}
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicate
		}
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now

	c := *u
	c.Messages = append([]models.Message(nil), u.Messages...)
	c.Identities = nil
	s.users[c.ID] = &c
	return nil
}

func (s *Store) UpdatePendingUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok || existing.IsVerified {
		return store.ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && other.Username == u.Username {
			return store.ErrDuplicate
		}
	}

	existing.Username = u.Username
	existing.PasswordHash = u.PasswordHash
	existing.VerifyCode = u.VerifyCode
	existing.VerifyCodeExpiry = u.VerifyCodeExpiry
	existing.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ReplacePendingUser(ctx context.Context, staleID string, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stale, ok := s.users[staleID]
	if !ok || stale.IsVerified {
		return store.ErrNotFound
	}

	var target *models.User
	if u.ID != "" {
		target, ok = s.users[u.ID]
		if !ok || target.IsVerified {
			return store.ErrNotFound
		}
	}
	for id, other := range s.users {
		if id == staleID || id == u.ID {
			continue
		}
		if other.Username == u.Username || (target == nil && strings.EqualFold(other.Email, u.Email)) {
			return store.ErrDuplicate
		}
	}

	delete(s.users, staleID)
	now := time.Now()
	if target != nil {
		target.Username = u.Username
		target.PasswordHash = u.PasswordHash
		target.VerifyCode = u.VerifyCode
		target.VerifyCodeExpiry = u.VerifyCodeExpiry
		target.UpdatedAt = now
		return nil
	}

	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	c := *u
	c.Messages = append([]models.Message(nil), u.Messages...)
	c.Identities = nil
	s.users[c.ID] = &c
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return snapshot(u), nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findBy(func(u *models.User) bool { return u.Username == username })
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findBy(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) findBy(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return snapshot(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) MarkVerified(ctx context.Context, username, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username != username {
			continue
		}
		if u.IsVerified || u.VerifyCode != code || !u.CodeLive(now) {
			return false, nil
		}
		u.IsVerified = true
		u.UpdatedAt = time.Now()
		return true, nil
	}
	return false, nil
}

func (s *Store) SetAcceptingMessages(ctx context.Context, id string, accepting bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.IsAcceptingMessages = accepting
	u.UpdatedAt = time.Now()
	return snapshot(u), nil
}

func (s *Store) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, u := range s.users {
		if !u.IsVerified && u.VerifyCodeExpiry.Before(cutoff) {
			delete(s.users, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) AppendMessage(ctx context.Context, userID string, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.UserID = userID
	u.Messages = append(u.Messages, *msg)
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	msgs := append([]models.Message{}, u.Messages...)
	models.SortNewestFirst(msgs)
	return msgs, nil
}

func (s *Store) DeleteMessage(ctx context.Context, userID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	for i, m := range u.Messages {
		if m.ID == messageID {
			u.Messages = append(u.Messages[:i], u.Messages[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) UpsertIdentity(ctx context.Context, userID string, identity *models.AuthIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	identity.UserID = userID
	identity.UpdatedAt = time.Now()

	for i, existing := range u.Identities {
		if existing.Provider == identity.Provider && existing.ProviderUserID == identity.ProviderUserID {
			identity.ID = existing.ID
			identity.CreatedAt = existing.CreatedAt
			u.Identities[i] = *identity
			return nil
		}
	}
	identity.CreatedAt = identity.UpdatedAt
	u.Identities = append(u.Identities, *identity)
	return nil
}

// MessageCount is a test helper reporting how many messages a user owns.
func (s *Store) MessageCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID]; ok {
		return len(u.Messages)
	}
	return 0
}

// Identities returns a copy of the identities linked to a user.
func (s *Store) Identities(userID string) []models.AuthIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID]; ok {
		return append([]models.AuthIdentity(nil), u.Identities...)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

func snapshot(u *models.User) *models.User {
	c := *u
	c.Messages = nil
	c.Identities = nil
	return &c
}
