package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"crm-manager/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type AttachmentService interface {
	Store(db *gorm.DB, file *multipart.FileHeader, taskID, uploaderID uuid.UUID) (*models.Attachment, error)
	FindByID(db *gorm.DB, id uuid.UUID) (*models.Attachment, error)
	FindByTask(db *gorm.DB, taskID uuid.UUID) ([]models.Attachment, error)
	Delete(db *gorm.DB, id uuid.UUID) error
}

type AttachmentServiceImpl struct {
	uploadDir string
}

func NewAttachmentService(uploadDir string) (*AttachmentServiceImpl, error) {
	absDir, err := filepath.Abs(uploadDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &AttachmentServiceImpl{uploadDir: absDir}, nil
}

func (s *AttachmentServiceImpl) Store(db *gorm.DB, file *multipart.FileHeader, taskID, uploaderID uuid.UUID) (*models.Attachment, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &BadReferenceError{Entity: "task", ID: taskID.String()}
		}
		return nil, err
	}

	var uploader models.User
	if err := db.First(&uploader, "id = ?", uploaderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &BadReferenceError{Entity: "user", ID: uploaderID.String()}
		}
		return nil, err
	}

	originalName := filepath.Base(file.Filename)
	if strings.Contains(originalName, "..") {
		return nil, &ValidationError{Message: "file name contains an invalid path"}
	}

	storageID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	taskDir := filepath.Join(s.uploadDir, taskID.String())
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create task directory: %w", err)
	}

	targetPath := filepath.Join(taskDir, storageID.String()+filepath.Ext(originalName))

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(targetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(targetPath)
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	fileType := file.Header.Get("Content-Type")
	if fileType == "" {
		fileType = "application/octet-stream"
	}

	attachment := models.Attachment{
		FileName:   originalName,
		FileType:   fileType,
		FilePath:   targetPath,
		StorageID:  storageID.String(),
		FileSize:   file.Size,
		TaskID:     taskID,
		UploaderID: uploaderID,
	}

	if err := db.Create(&attachment).Error; err != nil {
		os.Remove(targetPath)
		return nil, err
	}

	return &attachment, nil
}

func (s *AttachmentServiceImpl) FindByID(db *gorm.DB, id uuid.UUID) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := db.Preload("Uploader").First(&attachment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "attachment", ID: id.String()}
		}
		return nil, err
	}
	return &attachment, nil
}

func (s *AttachmentServiceImpl) FindByTask(db *gorm.DB, taskID uuid.UUID) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := db.Preload("Uploader").
		Where("task_id = ?", taskID).
		Order("uploaded_at DESC").
		Find(&attachments).Error
	return attachments, err
}

func (s *AttachmentServiceImpl) Delete(db *gorm.DB, id uuid.UUID) error {
	var attachment models.Attachment
	if err := db.First(&attachment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "attachment", ID: id.String()}
		}
		return err
	}

	if err := db.Delete(&attachment).Error; err != nil {
		return err
	}

	if err := os.Remove(attachment.FilePath); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to remove stored file %s: %v", attachment.FilePath, err)
	}
	return nil
}
