package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID      uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name    string    `json:"name" gorm:"not null"`
	Email   string    `json:"email" gorm:"unique;not null"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
	Company string    `json:"company"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		c.ID = id
	}
	return nil
}
