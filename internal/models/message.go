package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is an anonymous submission owned by a user. It has no edit path.
type Message struct {
	ID        string    `gorm:"type:uuid;primaryKey" bson:"_id" json:"_id"`
	UserID    string    `gorm:"type:uuid;not null;index" bson:"-" json:"-"`
	Content   string    `gorm:"type:text;not null" bson:"content" json:"content"`
	CreatedAt time.Time `gorm:"not null;index" bson:"created_at" json:"createdAt"`
}

// BeforeCreate assigns a uuid when the caller did not.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// SortNewestFirst orders messages by creation time, most recent first.
func SortNewestFirst(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
}
