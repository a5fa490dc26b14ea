package services

import (
	"errors"
	"log"

	"crm-manager/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type CommentInput struct {
	Content            string      `json:"content"`
	TaskID             uuid.UUID   `json:"task_id"`
	AuthorID           uuid.UUID   `json:"author_id"`
	MentionedUserIDs   []uuid.UUID `json:"mentioned_user_ids"`
	MentionedClientIDs []uuid.UUID `json:"mentioned_client_ids"`
}

type CommentService interface {
	Create(db *gorm.DB, input CommentInput) (*models.Comment, error)
	Update(db *gorm.DB, id uuid.UUID, input CommentInput) (*models.Comment, error)
	Delete(db *gorm.DB, id uuid.UUID) error
	DeleteByTask(db *gorm.DB, taskID uuid.UUID) (int64, error)
	FindByID(db *gorm.DB, id uuid.UUID) (*models.Comment, error)
	FindAll(db *gorm.DB) ([]models.Comment, error)
	FindByTask(db *gorm.DB, taskID uuid.UUID) ([]models.Comment, error)
	FindByAuthor(db *gorm.DB, authorID uuid.UUID) ([]models.Comment, error)
}

type CommentServiceImpl struct {
	notifications NotificationService
}

func NewCommentService(notifications NotificationService) *CommentServiceImpl {
	return &CommentServiceImpl{notifications: notifications}
}

func commentQuery(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("MentionedUsers").
		Preload("MentionedClients")
}

func validateCommentContent(content string) error {
	if content == "" {
		return &ValidationError{Message: "comment content is required"}
	}
	if len(content) > models.MaxCommentLength {
		return &ValidationError{Message: "comment content exceeds maximum length"}
	}
	return nil
}

// resolveMentionedUsers is best-effort: an id that cannot be resolved is
// logged and skipped, never failing the surrounding create or update.
// The same policy applies on both paths.
func resolveMentionedUsers(db *gorm.DB, ids []uuid.UUID) []models.User {
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		var user models.User
		if err := db.First(&user, "id = ?", id).Error; err != nil {
			log.Printf("skipping unresolvable mentioned user %s: %v", id, err)
			continue
		}
		users = append(users, user)
	}
	return users
}

func resolveMentionedClients(db *gorm.DB, ids []uuid.UUID) []models.Client {
	clients := make([]models.Client, 0, len(ids))
	for _, id := range ids {
		var client models.Client
		if err := db.First(&client, "id = ?", id).Error; err != nil {
			log.Printf("skipping unresolvable mentioned client %s: %v", id, err)
			continue
		}
		clients = append(clients, client)
	}
	return clients
}

func (s *CommentServiceImpl) Create(db *gorm.DB, input CommentInput) (*models.Comment, error) {
	if err := validateCommentContent(input.Content); err != nil {
		return nil, err
	}

	var task models.Task
	if err := db.First(&task, "id = ?", input.TaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &BadReferenceError{Entity: "task", ID: input.TaskID.String()}
		}
		return nil, err
	}

	var author models.User
	if err := db.First(&author, "id = ?", input.AuthorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &BadReferenceError{Entity: "user", ID: input.AuthorID.String()}
		}
		return nil, err
	}

	mentionedUsers := resolveMentionedUsers(db, input.MentionedUserIDs)
	mentionedClients := resolveMentionedClients(db, input.MentionedClientIDs)

	comment := models.Comment{
		Content:          input.Content,
		TaskID:           task.ID,
		AuthorID:         author.ID,
		MentionedUsers:   mentionedUsers,
		MentionedClients: mentionedClients,
	}

	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}

	if len(mentionedUsers) > 0 {
		recipientIDs := make([]uuid.UUID, 0, len(mentionedUsers))
		for _, user := range mentionedUsers {
			recipientIDs = append(recipientIDs, user.ID)
		}
		s.notifications.NotifyMentions(db, author.ID, recipientIDs, comment.ID)
	}

	return s.FindByID(db, comment.ID)
}

func (s *CommentServiceImpl) Update(db *gorm.DB, id uuid.UUID, input CommentInput) (*models.Comment, error) {
	if err := validateCommentContent(input.Content); err != nil {
		return nil, err
	}

	var existing models.Comment
	if err := commentQuery(db).First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "comment", ID: id.String()}
		}
		return nil, err
	}

	previousMentions := make(map[uuid.UUID]bool, len(existing.MentionedUsers))
	for _, user := range existing.MentionedUsers {
		previousMentions[user.ID] = true
	}

	mentionedUsers := resolveMentionedUsers(db, input.MentionedUserIDs)
	mentionedClients := resolveMentionedClients(db, input.MentionedClientIDs)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&existing).Update("content", input.Content).Error; err != nil {
			return err
		}
		if err := tx.Model(&existing).Association("MentionedUsers").Replace(mentionedUsers); err != nil {
			return err
		}
		return tx.Model(&existing).Association("MentionedClients").Replace(mentionedClients)
	})
	if err != nil {
		return nil, err
	}

	// Only mentions added by this update are notified.
	var newlyMentioned []uuid.UUID
	for _, user := range mentionedUsers {
		if !previousMentions[user.ID] {
			newlyMentioned = append(newlyMentioned, user.ID)
		}
	}
	if len(newlyMentioned) > 0 {
		s.notifications.NotifyMentions(db, existing.AuthorID, newlyMentioned, existing.ID)
	}

	return s.FindByID(db, id)
}

func (s *CommentServiceImpl) Delete(db *gorm.DB, id uuid.UUID) error {
	var comment models.Comment
	if err := db.First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "comment", ID: id.String()}
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM comment_mentioned_users WHERE comment_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM comment_mentioned_clients WHERE comment_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
}

// DeleteByTask removes every comment on a task together with their
// mention rows, and reports how many comments were deleted.
func (s *CommentServiceImpl) DeleteByTask(db *gorm.DB, taskID uuid.UUID) (int64, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, &NotFoundError{Entity: "task", ID: taskID.String()}
		}
		return 0, err
	}

	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []uuid.UUID
		if err := tx.Model(&models.Comment{}).Where("task_id = ?", taskID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) == 0 {
			return nil
		}
		if err := tx.Exec("DELETE FROM comment_mentioned_users WHERE comment_id IN ?", commentIDs).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM comment_mentioned_clients WHERE comment_id IN ?", commentIDs).Error; err != nil {
			return err
		}
		result := tx.Where("task_id = ?", taskID).Delete(&models.Comment{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

func (s *CommentServiceImpl) FindByID(db *gorm.DB, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := commentQuery(db).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "comment", ID: id.String()}
		}
		return nil, err
	}
	return &comment, nil
}

func (s *CommentServiceImpl) FindAll(db *gorm.DB) ([]models.Comment, error) {
	var comments []models.Comment
	err := commentQuery(db).Order("created_at DESC").Find(&comments).Error
	return comments, err
}

func (s *CommentServiceImpl) FindByTask(db *gorm.DB, taskID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := commentQuery(db).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (s *CommentServiceImpl) FindByAuthor(db *gorm.DB, authorID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := commentQuery(db).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}
