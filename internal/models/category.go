package models

import (
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string    `json:"name" gorm:"unique;not null"`
	Description string    `json:"description"`

	Tasks []Task `json:"tasks,omitempty" gorm:"many2many:task_categories;"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		c.ID = id
	}
	return nil
}
