package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account owner. Messages and identities belong exclusively to
// the user: embedded arrays in the document store, cascading child rows in
// the relational one.
type User struct {
	ID                  string    `gorm:"type:uuid;primaryKey" bson:"_id" json:"_id"`
	Username            string    `gorm:"uniqueIndex;not null" bson:"username" json:"username"`
	Email               string    `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash        string    `gorm:"not null" bson:"password_hash" json:"-"`
	IsVerified          bool      `gorm:"not null" bson:"is_verified" json:"isVerified"`
	VerifyCode          string    `gorm:"not null" bson:"verify_code" json:"-"`
	VerifyCodeExpiry    time.Time `gorm:"not null" bson:"verify_code_expiry" json:"-"`
	IsAcceptingMessages bool      `gorm:"not null" bson:"is_accepting_messages" json:"isAcceptingMessages"`
	CreatedAt           time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `bson:"updated_at" json:"updatedAt"`

	// Associations
	Messages   []Message      `gorm:"constraint:OnDelete:CASCADE;" bson:"messages,omitempty" json:"-"`
	Identities []AuthIdentity `gorm:"constraint:OnDelete:CASCADE;" bson:"identities,omitempty" json:"-"`
}

// BeforeCreate assigns a uuid when the caller did not.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// CodeLive reports whether the verification code is still inside its validity window.
func (u *User) CodeLive(now time.Time) bool {
	return now.Before(u.VerifyCodeExpiry)
}
