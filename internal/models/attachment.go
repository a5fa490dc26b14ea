package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Attachment struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	FileName  string    `json:"file_name" gorm:"not null"`
	FileType  string    `json:"file_type" gorm:"not null"`
	FilePath  string    `json:"-" gorm:"not null"`
	StorageID string    `json:"storage_id" gorm:"size:36"`
	FileSize  int64     `json:"file_size" gorm:"not null"`

	TaskID     uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	UploaderID uuid.UUID `json:"uploader_id" gorm:"type:uuid;not null"`
	Uploader   *User     `json:"uploader,omitempty" gorm:"foreignKey:UploaderID"`

	UploadedAt time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		a.ID = id
	}
	return nil
}
