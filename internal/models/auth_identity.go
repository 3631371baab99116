package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuthIdentity is an OAuth identity linked to an existing account.
// Tokens are stored sealed by crypto.TokenEncryptor; the store never sees plaintext.
type AuthIdentity struct {
	ID             string         `gorm:"type:uuid;primaryKey" bson:"_id"`
	UserID         string         `gorm:"type:uuid;not null;index" bson:"-"`
	Provider       string         `gorm:"not null;uniqueIndex:idx_auth_identities_provider_user" bson:"provider"` // e.g., "google"
	ProviderUserID string         `gorm:"not null;uniqueIndex:idx_auth_identities_provider_user" bson:"provider_user_id"`
	AccessToken    string         `gorm:"type:text" bson:"access_token"`  // stored encrypted
	RefreshToken   string         `gorm:"type:text" bson:"refresh_token"` // stored encrypted
	TokenExpiry    *time.Time     `bson:"token_expiry,omitempty"`
	Profile        datatypes.JSON `gorm:"type:jsonb" bson:"profile,omitempty"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

// BeforeCreate assigns a uuid when the caller did not.
func (a *AuthIdentity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
