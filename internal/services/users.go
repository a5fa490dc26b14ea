package services

import (
	"errors"

	"crm-manager/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserUpdateInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type UserService interface {
	FindByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	FindByUsername(db *gorm.DB, username string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindAll(db *gorm.DB) ([]models.User, error)
	FindByRole(db *gorm.DB, role string) ([]models.User, error)
	Update(db *gorm.DB, id uuid.UUID, input UserUpdateInput) (*models.User, error)
	Delete(db *gorm.DB, id uuid.UUID) error
}

type UserServiceImpl struct{}

func NewUserService() *UserServiceImpl {
	return &UserServiceImpl{}
}

func (s *UserServiceImpl) FindByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: id.String()}
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserServiceImpl) FindByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user"}
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserServiceImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user"}
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserServiceImpl) FindAll(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.Order("username ASC").Find(&users).Error
	return users, err
}

func (s *UserServiceImpl) FindByRole(db *gorm.DB, role string) ([]models.User, error) {
	if !models.IsValidRole(role) {
		return nil, &ValidationError{Message: "invalid role: " + role}
	}
	var users []models.User
	err := db.Where("role = ?", role).Order("username ASC").Find(&users).Error
	return users, err
}

func (s *UserServiceImpl) Update(db *gorm.DB, id uuid.UUID, input UserUpdateInput) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: id.String()}
		}
		return nil, err
	}

	if input.Role != "" && !models.IsValidRole(input.Role) {
		return nil, &ValidationError{Message: "invalid role: " + input.Role}
	}

	if input.Email != "" && input.Email != user.Email {
		var existing models.User
		if err := db.Where("email = ? AND id <> ?", input.Email, id).First(&existing).Error; err == nil {
			return nil, &ConflictError{Field: "email", Message: "email is already in use"}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = input.Email
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.Role != "" {
		user.Role = input.Role
	}

	if err := db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes the user plus everything that would dangle: their
// notifications as recipient, their mention edges, their task
// assignments, and their authored comments. Sender references on other
// users' notifications are nullified rather than deleted.
func (s *UserServiceImpl) Delete(db *gorm.DB, id uuid.UUID) error {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "user", ID: id.String()}
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipient_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Notification{}).Where("sender_id = ?", id).Update("sender_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM comment_mentioned_users WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM task_assignees WHERE user_id = ?", id).Error; err != nil {
			return err
		}

		var commentIDs []uuid.UUID
		if err := tx.Model(&models.Comment{}).Where("author_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Exec("DELETE FROM comment_mentioned_users WHERE comment_id IN ?", commentIDs).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM comment_mentioned_clients WHERE comment_id IN ?", commentIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&user).Error
	})
}
