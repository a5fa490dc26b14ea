package services

import (
	"errors"
	"fmt"
	"log"

	"crm-manager/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type NotificationService interface {
	Create(db *gorm.DB, notification models.Notification) (*models.Notification, error)
	NotifyMentions(db *gorm.DB, authorID uuid.UUID, mentionedUserIDs []uuid.UUID, commentID uuid.UUID) int
	NotifyTaskAssigned(db *gorm.DB, taskID uuid.UUID, title string, recipientIDs []uuid.UUID) int
	MarkAsRead(db *gorm.DB, id uuid.UUID) (*models.Notification, error)
	MarkAllAsRead(db *gorm.DB, recipientID uuid.UUID) (int64, error)
	FindByID(db *gorm.DB, id uuid.UUID) (*models.Notification, error)
	FindByRecipient(db *gorm.DB, recipientID uuid.UUID) ([]models.Notification, error)
	FindUnreadByRecipient(db *gorm.DB, recipientID uuid.UUID) ([]models.Notification, error)
	CountUnreadByRecipient(db *gorm.DB, recipientID uuid.UUID) (int64, error)
	Delete(db *gorm.DB, id uuid.UUID) error
}

type NotificationServiceImpl struct{}

func NewNotificationService() *NotificationServiceImpl {
	return &NotificationServiceImpl{}
}

func (s *NotificationServiceImpl) Create(db *gorm.DB, notification models.Notification) (*models.Notification, error) {
	var recipient models.User
	if err := db.First(&recipient, "id = ?", notification.RecipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &BadReferenceError{Entity: "user", ID: notification.RecipientID.String()}
		}
		return nil, err
	}

	if notification.SenderID != nil {
		var sender models.User
		if err := db.First(&sender, "id = ?", *notification.SenderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &BadReferenceError{Entity: "user", ID: notification.SenderID.String()}
			}
			return nil, err
		}
	}

	if err := db.Create(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// NotifyMentions fans out one mention notification per mentioned user,
// skipping the author. Failures are per-recipient: a bad id is logged and
// skipped, it never aborts the remaining fan-out. Returns the number of
// notifications created.
func (s *NotificationServiceImpl) NotifyMentions(db *gorm.DB, authorID uuid.UUID, mentionedUserIDs []uuid.UUID, commentID uuid.UUID) int {
	var author models.User
	if err := db.First(&author, "id = ?", authorID).Error; err != nil {
		log.Printf("mention fan-out aborted, author %s not found: %v", authorID, err)
		return 0
	}

	created := 0
	for _, recipientID := range mentionedUserIDs {
		if recipientID == authorID {
			continue
		}

		var recipient models.User
		if err := db.First(&recipient, "id = ?", recipientID).Error; err != nil {
			log.Printf("skipping mention notification, user %s: %v", recipientID, err)
			continue
		}

		entityID := commentID
		notification := models.Notification{
			Message:     fmt.Sprintf("%s mentioned you in a comment", author.Username),
			Type:        models.NotificationTypeMention,
			RecipientID: recipientID,
			SenderID:    &author.ID,
			EntityID:    &entityID,
			EntityType:  "comment",
		}
		if err := db.Create(&notification).Error; err != nil {
			log.Printf("failed to create mention notification for user %s: %v", recipientID, err)
			continue
		}
		created++
	}
	return created
}

// NotifyTaskAssigned creates one task_assigned notification per recipient.
// Callers are expected to pass only the newly-assigned delta; re-assigning
// an already-assigned user must not reach this method.
func (s *NotificationServiceImpl) NotifyTaskAssigned(db *gorm.DB, taskID uuid.UUID, title string, recipientIDs []uuid.UUID) int {
	created := 0
	for _, recipientID := range recipientIDs {
		entityID := taskID
		notification := models.Notification{
			Message:     fmt.Sprintf("You have been assigned to task: %s", title),
			Type:        models.NotificationTypeTaskAssigned,
			RecipientID: recipientID,
			EntityID:    &entityID,
			EntityType:  "task",
		}
		if err := db.Create(&notification).Error; err != nil {
			log.Printf("failed to create assignment notification for user %s: %v", recipientID, err)
			continue
		}
		created++
	}
	return created
}

// MarkAsRead is idempotent: marking an already-read notification succeeds.
func (s *NotificationServiceImpl) MarkAsRead(db *gorm.DB, id uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := db.First(&notification, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "notification", ID: id.String()}
		}
		return nil, err
	}

	if notification.Read {
		return &notification, nil
	}

	if err := db.Model(&notification).Update("read", true).Error; err != nil {
		return nil, err
	}
	notification.Read = true
	return &notification, nil
}

func (s *NotificationServiceImpl) MarkAllAsRead(db *gorm.DB, recipientID uuid.UUID) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (s *NotificationServiceImpl) FindByID(db *gorm.DB, id uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := db.First(&notification, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "notification", ID: id.String()}
		}
		return nil, err
	}
	return &notification, nil
}

func (s *NotificationServiceImpl) FindByRecipient(db *gorm.DB, recipientID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationServiceImpl) FindUnreadByRecipient(db *gorm.DB, recipientID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.Where("recipient_id = ? AND read = ?", recipientID, false).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationServiceImpl) CountUnreadByRecipient(db *gorm.DB, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (s *NotificationServiceImpl) Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&models.Notification{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Entity: "notification", ID: id.String()}
	}
	return nil
}
