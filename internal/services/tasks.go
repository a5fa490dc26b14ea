package services

import (
	"errors"
	"time"

	"crm-manager/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskInput struct {
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	DueDate         *time.Time  `json:"due_date"`
	Priority        string      `json:"priority"`
	Status          string      `json:"status"`
	Cost            float64     `json:"cost"`
	ClientID        *uuid.UUID  `json:"client_id"`
	AssignedUserIDs []uuid.UUID `json:"assigned_user_ids"`
	CategoryIDs     []uuid.UUID `json:"category_ids"`
}

type TaskService interface {
	Create(db *gorm.DB, input TaskInput) (*models.Task, error)
	Update(db *gorm.DB, id uuid.UUID, input TaskInput) (*models.Task, error)
	Delete(db *gorm.DB, id uuid.UUID) error
	FindByID(db *gorm.DB, id uuid.UUID) (*models.Task, error)
	FindAll(db *gorm.DB) ([]models.Task, error)
	FindByAssignedUser(db *gorm.DB, userID uuid.UUID) ([]models.Task, error)
	FindByClient(db *gorm.DB, clientID uuid.UUID) ([]models.Task, error)
	FindByStatus(db *gorm.DB, status string) ([]models.Task, error)
	FindByPriority(db *gorm.DB, priority string) ([]models.Task, error)
	FindDueBefore(db *gorm.DB, date time.Time) ([]models.Task, error)
	FindDueAfter(db *gorm.DB, date time.Time) ([]models.Task, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, status string) (*models.Task, error)
	AssignUser(db *gorm.DB, taskID, userID uuid.UUID) (*models.Task, error)
	UnassignUser(db *gorm.DB, taskID, userID uuid.UUID) (*models.Task, error)
}

type TaskServiceImpl struct {
	notifications NotificationService
}

func NewTaskService(notifications NotificationService) *TaskServiceImpl {
	return &TaskServiceImpl{notifications: notifications}
}

func taskQuery(db *gorm.DB) *gorm.DB {
	return db.
		Preload("AssignedUsers").
		Preload("Categories").
		Preload("Client")
}

func (s *TaskServiceImpl) validateInput(input *TaskInput) error {
	if input.Title == "" {
		return &ValidationError{Message: "task title is required"}
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !models.IsValidTaskStatus(input.Status) {
		return &ValidationError{Message: "invalid task status: " + input.Status}
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !models.IsValidTaskPriority(input.Priority) {
		return &ValidationError{Message: "invalid task priority: " + input.Priority}
	}
	return nil
}

func (s *TaskServiceImpl) resolveCategories(db *gorm.DB, ids []uuid.UUID) ([]models.Category, error) {
	categories := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		var category models.Category
		if err := db.First(&category, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &BadReferenceError{Entity: "category", ID: id.String()}
			}
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (s *TaskServiceImpl) resolveUsers(db *gorm.DB, ids []uuid.UUID) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		var user models.User
		if err := db.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &BadReferenceError{Entity: "user", ID: id.String()}
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *TaskServiceImpl) resolveClient(db *gorm.DB, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := db.First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &BadReferenceError{Entity: "client", ID: id.String()}
		}
		return nil, err
	}
	return &client, nil
}

func (s *TaskServiceImpl) Create(db *gorm.DB, input TaskInput) (*models.Task, error) {
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	categories, err := s.resolveCategories(db, input.CategoryIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.resolveUsers(db, input.AssignedUserIDs)
	if err != nil {
		return nil, err
	}

	task := models.Task{
		Title:         input.Title,
		Description:   input.Description,
		DueDate:       input.DueDate,
		Priority:      input.Priority,
		Status:        input.Status,
		Cost:          input.Cost,
		AssignedUsers: users,
		Categories:    categories,
	}

	if input.ClientID != nil {
		client, err := s.resolveClient(db, *input.ClientID)
		if err != nil {
			return nil, err
		}
		task.ClientID = &client.ID
	}

	if err := db.Create(&task).Error; err != nil {
		return nil, err
	}

	// Every assignee on a freshly created task is new; fan-out runs
	// outside the insert and tolerates per-recipient failures.
	if len(users) > 0 {
		recipientIDs := make([]uuid.UUID, 0, len(users))
		for _, user := range users {
			recipientIDs = append(recipientIDs, user.ID)
		}
		s.notifications.NotifyTaskAssigned(db, task.ID, task.Title, recipientIDs)
	}

	return s.FindByID(db, task.ID)
}

func (s *TaskServiceImpl) Update(db *gorm.DB, id uuid.UUID, input TaskInput) (*models.Task, error) {
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	var existing models.Task
	if err := taskQuery(db).First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "task", ID: id.String()}
		}
		return nil, err
	}

	categories, err := s.resolveCategories(db, input.CategoryIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.resolveUsers(db, input.AssignedUserIDs)
	if err != nil {
		return nil, err
	}

	var clientID *uuid.UUID
	if input.ClientID != nil {
		client, err := s.resolveClient(db, *input.ClientID)
		if err != nil {
			return nil, err
		}
		clientID = &client.ID
	}

	currentIDs := make(map[uuid.UUID]bool, len(existing.AssignedUsers))
	for _, user := range existing.AssignedUsers {
		currentIDs[user.ID] = true
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"title":       input.Title,
			"description": input.Description,
			"due_date":    input.DueDate,
			"priority":    input.Priority,
			"status":      input.Status,
			"cost":        input.Cost,
			"client_id":   clientID,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Model(&existing).Association("Categories").Replace(categories); err != nil {
			return err
		}
		return tx.Model(&existing).Association("AssignedUsers").Replace(users)
	})
	if err != nil {
		return nil, err
	}

	// Only the newly-assigned delta is notified; users kept from the
	// previous assignment set are not notified again.
	var newlyAssigned []uuid.UUID
	for _, user := range users {
		if !currentIDs[user.ID] {
			newlyAssigned = append(newlyAssigned, user.ID)
		}
	}
	if len(newlyAssigned) > 0 {
		s.notifications.NotifyTaskAssigned(db, existing.ID, input.Title, newlyAssigned)
	}

	return s.FindByID(db, id)
}

// Delete removes the task together with its owned comments and
// attachments. Cascades are enforced here at the data-access layer;
// notifications referencing the task are deliberately left in place.
func (s *TaskServiceImpl) Delete(db *gorm.DB, id uuid.UUID) error {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "task", ID: id.String()}
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []uuid.UUID
		if err := tx.Model(&models.Comment{}).Where("task_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Exec("DELETE FROM comment_mentioned_users WHERE comment_id IN ?", commentIDs).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM comment_mentioned_clients WHERE comment_id IN ?", commentIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM task_assignees WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM task_categories WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&task).Error
	})
}

func (s *TaskServiceImpl) FindByID(db *gorm.DB, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := taskQuery(db).
		Preload("Comments").
		Preload("Attachments").
		First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "task", ID: id.String()}
		}
		return nil, err
	}
	return &task, nil
}

func (s *TaskServiceImpl) FindAll(db *gorm.DB) ([]models.Task, error) {
	var tasks []models.Task
	err := taskQuery(db).Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

func (s *TaskServiceImpl) FindByAssignedUser(db *gorm.DB, userID uuid.UUID) ([]models.Task, error) {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: userID.String()}
		}
		return nil, err
	}

	var tasks []models.Task
	err := taskQuery(db).
		Joins("JOIN task_assignees ON task_assignees.task_id = tasks.id").
		Where("task_assignees.user_id = ?", userID).
		Find(&tasks).Error
	return tasks, err
}

func (s *TaskServiceImpl) FindByClient(db *gorm.DB, clientID uuid.UUID) ([]models.Task, error) {
	var client models.Client
	if err := db.First(&client, "id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "client", ID: clientID.String()}
		}
		return nil, err
	}

	var tasks []models.Task
	err := taskQuery(db).Where("client_id = ?", clientID).Find(&tasks).Error
	return tasks, err
}

func (s *TaskServiceImpl) FindByStatus(db *gorm.DB, status string) ([]models.Task, error) {
	if !models.IsValidTaskStatus(status) {
		return nil, &ValidationError{Message: "invalid task status: " + status}
	}
	var tasks []models.Task
	err := taskQuery(db).Where("status = ?", status).Find(&tasks).Error
	return tasks, err
}

func (s *TaskServiceImpl) FindByPriority(db *gorm.DB, priority string) ([]models.Task, error) {
	if !models.IsValidTaskPriority(priority) {
		return nil, &ValidationError{Message: "invalid task priority: " + priority}
	}
	var tasks []models.Task
	err := taskQuery(db).Where("priority = ?", priority).Find(&tasks).Error
	return tasks, err
}

func (s *TaskServiceImpl) FindDueBefore(db *gorm.DB, date time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := taskQuery(db).Where("due_date < ?", date).Find(&tasks).Error
	return tasks, err
}

func (s *TaskServiceImpl) FindDueAfter(db *gorm.DB, date time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := taskQuery(db).Where("due_date > ?", date).Find(&tasks).Error
	return tasks, err
}

func (s *TaskServiceImpl) UpdateStatus(db *gorm.DB, id uuid.UUID, status string) (*models.Task, error) {
	if !models.IsValidTaskStatus(status) {
		return nil, &ValidationError{Message: "invalid task status: " + status}
	}

	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "task", ID: id.String()}
		}
		return nil, err
	}

	if err := db.Model(&task).Update("status", status).Error; err != nil {
		return nil, err
	}
	return s.FindByID(db, id)
}

// AssignUser adds a single assignee. Assigning an already-assigned user
// is a no-op and produces no duplicate notification.
func (s *TaskServiceImpl) AssignUser(db *gorm.DB, taskID, userID uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := db.Preload("AssignedUsers").First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "task", ID: taskID.String()}
		}
		return nil, err
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: userID.String()}
		}
		return nil, err
	}

	for _, assigned := range task.AssignedUsers {
		if assigned.ID == userID {
			return s.FindByID(db, taskID)
		}
	}

	if err := db.Model(&task).Association("AssignedUsers").Append(&user); err != nil {
		return nil, err
	}

	s.notifications.NotifyTaskAssigned(db, task.ID, task.Title, []uuid.UUID{userID})

	return s.FindByID(db, taskID)
}

func (s *TaskServiceImpl) UnassignUser(db *gorm.DB, taskID, userID uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := db.Preload("AssignedUsers").First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "task", ID: taskID.String()}
		}
		return nil, err
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: userID.String()}
		}
		return nil, err
	}

	if err := db.Model(&task).Association("AssignedUsers").Delete(&user); err != nil {
		return nil, err
	}

	return s.FindByID(db, taskID)
}
