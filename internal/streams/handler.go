package streams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shailesh2302/CipherChat/internal/store"
)

// Notifier tells an owner that a new anonymous message arrived.
type Notifier interface {
	SendMessageNotice(ctx context.Context, email, username string) error
}

// HandleMessageReceived returns a handler that emails the owner of the
// message. Deleted or unverified owners are skipped and the entry is acked.
func HandleMessageReceived(users store.UserStore, notifier Notifier, logger *slog.Logger) EventHandler {
	return func(ctx context.Context, evt MessageReceived) error {
		user, err := users.FindUserByID(ctx, evt.UserID)
		if errors.Is(err, store.ErrNotFound) {
			logger.Info("Skipping notice for deleted user", "user_id", evt.UserID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load owner: %w", err)
		}

		if !user.IsVerified {
			return nil
		}

		if err := notifier.SendMessageNotice(ctx, user.Email, user.Username); err != nil {
			return fmt.Errorf("failed to send notice: %w", err)
		}

		logger.Info("Message notice sent", "username", user.Username, "message_id", evt.MessageID)
		return nil
	}
}
