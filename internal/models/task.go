package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"

	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description" gorm:"size:1000"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority" gorm:"not null;default:'medium'"`
	Status      string     `json:"status" gorm:"not null;default:'todo'"`
	Cost        float64    `json:"cost"`

	ClientID *uuid.UUID `json:"client_id" gorm:"type:uuid"`
	Client   *Client    `json:"client,omitempty"`

	AssignedUsers []User       `json:"assigned_users,omitempty" gorm:"many2many:task_assignees;"`
	Categories    []Category   `json:"categories,omitempty" gorm:"many2many:task_categories;"`
	Comments      []Comment    `json:"comments,omitempty" gorm:"foreignKey:TaskID"`
	Attachments   []Attachment `json:"attachments,omitempty" gorm:"foreignKey:TaskID"`

	// CreatedAt is assigned on insert and never updated afterwards.
	CreatedAt time.Time `json:"created_at" gorm:"<-:create"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id
	}
	if t.Status == "" {
		t.Status = TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = TaskPriorityMedium
	}
	return nil
}

func IsValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

func IsValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}
