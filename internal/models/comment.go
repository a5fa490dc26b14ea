package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const MaxCommentLength = 1000

type Comment struct {
	ID      uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Content string    `json:"content" gorm:"not null;size:1000"`

	TaskID   uuid.UUID `json:"task_id" gorm:"type:uuid;not null"`
	AuthorID uuid.UUID `json:"author_id" gorm:"type:uuid;not null"`
	Author   *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`

	MentionedUsers   []User   `json:"mentioned_users,omitempty" gorm:"many2many:comment_mentioned_users;"`
	MentionedClients []Client `json:"mentioned_clients,omitempty" gorm:"many2many:comment_mentioned_clients;"`

	CreatedAt time.Time `json:"created_at" gorm:"<-:create"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		c.ID = id
	}
	return nil
}
