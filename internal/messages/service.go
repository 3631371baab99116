// Package messages implements the anonymous submission gate and the owner's
// view of their messages.
package messages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shailesh2302/CipherChat/internal/account"
	"github.com/Shailesh2302/CipherChat/internal/auth"
	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/store"
	"github.com/Shailesh2302/CipherChat/internal/streams"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")
)

// SubmitOutcome is the result of an anonymous submission.
type SubmitOutcome int

const (
	SubmitAccepted SubmitOutcome = iota + 1
	SubmitUserNotFound
	SubmitNotAccepting
)

func (o SubmitOutcome) String() string {
	switch o {
	case SubmitAccepted:
		return "accepted"
	case SubmitUserNotFound:
		return "user_not_found"
	case SubmitNotAccepting:
		return "not_accepting"
	default:
		return "unknown"
	}
}

// EventPublisher announces accepted messages.
type EventPublisher interface {
	PublishMessageReceived(ctx context.Context, evt streams.MessageReceived) (string, error)
}

// Store is what the service needs from persistence.
type Store interface {
	store.UserStore
	store.MessageStore
}

// Service holds message operations. A nil publisher disables events.
type Service struct {
	store     Store
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the message operations.
func NewService(s Store, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		store:     s,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit appends content to username's messages if they accept messages.
// Acceptance does not depend on whether the owner is verified.
func (s *Service) Submit(ctx context.Context, username, content string) (SubmitOutcome, *models.Message, error) {
	username = account.NormalizeUsername(username)

	user, err := s.store.FindUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return SubmitUserNotFound, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	if !user.IsAcceptingMessages {
		return SubmitNotAccepting, nil, nil
	}

	msg := &models.Message{
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, user.ID, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return SubmitUserNotFound, nil, nil
		}
		return 0, nil, fmt.Errorf("failed to store message: %w", err)
	}

	s.publish(ctx, user, msg)
	return SubmitAccepted, msg, nil
}

func (s *Service) publish(ctx context.Context, user *models.User, msg *models.Message) {
	if s.publisher == nil {
		return
	}
	_, err := s.publisher.PublishMessageReceived(ctx, streams.MessageReceived{
		MessageID:  msg.ID,
		UserID:     user.ID,
		Username:   user.Username,
		ReceivedAt: msg.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("Failed to publish message event", "error", err, "message_id", msg.ID)
	}
}

// List returns the principal's messages, newest first.
func (s *Service) List(ctx context.Context, p auth.Principal) ([]models.Message, error) {
	msgs, err := s.store.ListMessages(ctx, p.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// Delete removes one of the principal's messages.
func (s *Service) Delete(ctx context.Context, p auth.Principal, messageID string) error {
	err := s.store.DeleteMessage(ctx, p.UserID, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrMessageNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// SetAccepting records whether the principal accepts new messages. Existing
// messages are untouched.
func (s *Service) SetAccepting(ctx context.Context, p auth.Principal, accepting bool) (*models.User, error) {
	user, err := s.store.SetAcceptingMessages(ctx, p.UserID, accepting)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update message acceptance: %w", err)
	}
	return user, nil
}

// GetAccepting reports the principal's acceptance flag.
func (s *Service) GetAccepting(ctx context.Context, p auth.Principal) (bool, error) {
	user, err := s.store.FindUserByID(ctx, p.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user: %w", err)
	}
	return user.IsAcceptingMessages, nil
}
