// Package postgres implements the store contracts on PostgreSQL through gorm.
// Messages and identities live in child tables that cascade with their user.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Shailesh2302/CipherChat/internal/database"
	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/store"
)

// Store is a gorm-backed store.Store.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open gorm connection. Schema is managed by database.RunMigrations.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) UpdatePendingUser(ctx context.Context, u *models.User) error {
	if !validID(u.ID) {
		return store.ErrNotFound
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_verified = ?", u.ID, false).
		Updates(map[string]interface{}{
			"username":           u.Username,
			"password_hash":      u.PasswordHash,
			"verify_code":        u.VerifyCode,
			"verify_code_expiry": u.VerifyCodeExpiry,
			"updated_at":         time.Now(),
		})
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return store.ErrDuplicate
	}
	if result.Error != nil {
		return fmt.Errorf("failed to update pending user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return store.ErrNotFound
	}

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ReplacePendingUser(ctx context.Context, staleID string, u *models.User) error {
	if !validID(staleID) {
		return store.ErrNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND is_verified = ?", staleID, false).Delete(&models.User{})
		if result.Error != nil {
			return fmt.Errorf("failed to release pending user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return store.ErrNotFound
		}

		txStore := &Store{db: tx}
		if u.ID == "" {
			return txStore.CreateUser(ctx, u)
		}
		return txStore.UpdatePendingUser(ctx, u)
	})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}
	return s.findUser(ctx, "id = ?", id)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *Store) findUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *Store) MarkVerified(ctx context.Context, username, code string, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND is_verified = ? AND verify_code = ? AND verify_code_expiry > ?", username, false, code, now).
		Updates(map[string]interface{}{
			"is_verified": true,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark user verified: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) SetAcceptingMessages(ctx context.Context, id string, accepting bool) (*models.User, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_accepting_messages": accepting,
			"updated_at":            time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update message acceptance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.FindUserByID(ctx, id)
}

func (s *Store) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("is_verified = ? AND verify_code_expiry < ?", false, cutoff).
		Delete(&models.User{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge unverified users: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *Store) AppendMessage(ctx context.Context, userID string, msg *models.Message) error {
	if !validID(userID) {
		return store.ErrNotFound
	}

	msg.UserID = userID
	err := s.db.WithContext(ctx).Create(msg).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID string) ([]models.Message, error) {
	if !validID(userID) {
		return nil, store.ErrNotFound
	}

	msgs := []models.Message{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

func (s *Store) DeleteMessage(ctx context.Context, userID, messageID string) error {
	if !validID(userID) || !validID(messageID) {
		return store.ErrNotFound
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", messageID, userID).
		Delete(&models.Message{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertIdentity(ctx context.Context, userID string, identity *models.AuthIdentity) error {
	if !validID(userID) {
		return store.ErrNotFound
	}

	identity.UserID = userID
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "provider_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "access_token", "refresh_token", "token_expiry", "profile", "updated_at",
		}),
	}).Create(identity).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to upsert identity: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return database.Close(s.db)
}

// validID guards uuid columns so malformed ids read as "not found" instead of
// a driver error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
