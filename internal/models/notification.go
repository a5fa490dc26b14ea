package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Notification types are an open set; these cover the events the
// backend itself produces.
const (
	NotificationTypeMention      = "mention"
	NotificationTypeTaskAssigned = "task_assigned"
)

type Notification struct {
	ID      uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Message string    `json:"message" gorm:"not null"`
	Type    string    `json:"type" gorm:"not null"`

	RecipientID uuid.UUID  `json:"recipient_id" gorm:"type:uuid;not null;index"`
	SenderID    *uuid.UUID `json:"sender_id" gorm:"type:uuid"`

	EntityID   *uuid.UUID `json:"entity_id" gorm:"type:uuid"`
	EntityType string     `json:"entity_type"`

	Read bool `json:"read" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"<-:create"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		n.ID = id
	}
	return nil
}
