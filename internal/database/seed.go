package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/store"
)

const (
	DevUsername = "devuser"
	DevEmail    = "dev@cipherchat.local"
	DevPassword = "devpassword"
)

var devMessages = []string{
	"What's a hobby you've recently started?",
	"If you could have dinner with any historical figure, who would it be?",
	"What's a simple thing that makes you happy?",
}

// SeedDevData populates the store with a verified development user and a few
// messages. Idempotent: skips if the user already exists.
func SeedDevData(ctx context.Context, s store.Store, logger *slog.Logger) error {
	_, err := s.FindUserByEmail(ctx, DevEmail)
	if err == nil {
		logger.Info("Seed data already exists, skipping")
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up seed user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DevPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	user := &models.User{
		Username:            DevUsername,
		Email:               DevEmail,
		PasswordHash:        string(hash),
		VerifyCode:          "000000",
		VerifyCodeExpiry:    time.Now().Add(time.Hour),
		IsAcceptingMessages: true,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create seed user: %w", err)
	}
	if _, err := s.MarkVerified(ctx, user.Username, user.VerifyCode, time.Now()); err != nil {
		return fmt.Errorf("failed to verify seed user: %w", err)
	}

	// Stagger timestamps so the dashboard ordering is visible.
	base := time.Now().Add(-time.Duration(len(devMessages)) * time.Hour)
	for i, content := range devMessages {
		msg := &models.Message{
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.AppendMessage(ctx, user.ID, msg); err != nil {
			return fmt.Errorf("failed to create seed message: %w", err)
		}
	}

	logger.Info("Seed data created",
		"username", DevUsername,
		"email", DevEmail,
		"messages", len(devMessages),
	)
	return nil
}
