package services

import (
	"fmt"
	"time"

	"crm-manager/backend/internal/cache"
	"crm-manager/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// CachedNotificationService decorates NotificationService with a
// recipient-keyed response cache. Entries live for at most ttl; every
// write affecting a recipient invalidates that recipient's keys, so a
// reader can observe stale data only up to the ttl window.
type CachedNotificationService struct {
	notifications NotificationService
	cache         *cache.RedisCache
	ttl           time.Duration
}

func NewCachedNotificationService(notifications NotificationService, cacheInstance *cache.RedisCache, ttl time.Duration) *CachedNotificationService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedNotificationService{
		notifications: notifications,
		cache:         cacheInstance,
		ttl:           ttl,
	}
}

func listKey(recipientID uuid.UUID) string {
	return fmt.Sprintf("notifications:%s", recipientID)
}

func unreadKey(recipientID uuid.UUID) string {
	return fmt.Sprintf("notifications:unread:%s", recipientID)
}

func unreadCountKey(recipientID uuid.UUID) string {
	return fmt.Sprintf("notifications:unread_count:%s", recipientID)
}

func (s *CachedNotificationService) invalidate(recipientID uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(listKey(recipientID), unreadKey(recipientID), unreadCountKey(recipientID))
}

func (s *CachedNotificationService) Create(db *gorm.DB, notification models.Notification) (*models.Notification, error) {
	created, err := s.notifications.Create(db, notification)
	if err != nil {
		return nil, err
	}
	s.invalidate(created.RecipientID)
	return created, nil
}

func (s *CachedNotificationService) NotifyMentions(db *gorm.DB, authorID uuid.UUID, mentionedUserIDs []uuid.UUID, commentID uuid.UUID) int {
	created := s.notifications.NotifyMentions(db, authorID, mentionedUserIDs, commentID)
	for _, recipientID := range mentionedUserIDs {
		s.invalidate(recipientID)
	}
	return created
}

func (s *CachedNotificationService) NotifyTaskAssigned(db *gorm.DB, taskID uuid.UUID, title string, recipientIDs []uuid.UUID) int {
	created := s.notifications.NotifyTaskAssigned(db, taskID, title, recipientIDs)
	for _, recipientID := range recipientIDs {
		s.invalidate(recipientID)
	}
	return created
}

func (s *CachedNotificationService) MarkAsRead(db *gorm.DB, id uuid.UUID) (*models.Notification, error) {
	notification, err := s.notifications.MarkAsRead(db, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(notification.RecipientID)
	return notification, nil
}

func (s *CachedNotificationService) MarkAllAsRead(db *gorm.DB, recipientID uuid.UUID) (int64, error) {
	affected, err := s.notifications.MarkAllAsRead(db, recipientID)
	if err != nil {
		return 0, err
	}
	s.invalidate(recipientID)
	return affected, nil
}

func (s *CachedNotificationService) FindByID(db *gorm.DB, id uuid.UUID) (*models.Notification, error) {
	return s.notifications.FindByID(db, id)
}

func (s *CachedNotificationService) FindByRecipient(db *gorm.DB, recipientID uuid.UUID) ([]models.Notification, error) {
	key := listKey(recipientID)

	var cached []models.Notification
	if s.cache != nil && s.cache.Get(key, &cached) == nil {
		return cached, nil
	}

	notifications, err := s.notifications.FindByRecipient(db, recipientID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, notifications, s.ttl)
	}
	return notifications, nil
}

func (s *CachedNotificationService) FindUnreadByRecipient(db *gorm.DB, recipientID uuid.UUID) ([]models.Notification, error) {
	key := unreadKey(recipientID)

	var cached []models.Notification
	if s.cache != nil && s.cache.Get(key, &cached) == nil {
		return cached, nil
	}

	notifications, err := s.notifications.FindUnreadByRecipient(db, recipientID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, notifications, s.ttl)
	}
	return notifications, nil
}

func (s *CachedNotificationService) CountUnreadByRecipient(db *gorm.DB, recipientID uuid.UUID) (int64, error) {
	key := unreadCountKey(recipientID)

	var cached int64
	if s.cache != nil && s.cache.Get(key, &cached) == nil {
		return cached, nil
	}

	count, err := s.notifications.CountUnreadByRecipient(db, recipientID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		s.cache.Set(key, count, s.ttl)
	}
	return count, nil
}

// Delete resolves the recipient and removes the row in one transaction,
// so a concurrent delete cannot slip between the lookup and the delete.
func (s *CachedNotificationService) Delete(db *gorm.DB, id uuid.UUID) error {
	var recipientID uuid.UUID
	err := db.Transaction(func(tx *gorm.DB) error {
		notification, err := s.notifications.FindByID(tx, id)
		if err != nil {
			return err
		}
		recipientID = notification.RecipientID
		return s.notifications.Delete(tx, id)
	})
	if err != nil {
		return err
	}

	s.invalidate(recipientID)
	return nil
}
