package services

import (
	"errors"

	"crm-manager/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryService interface {
	Create(db *gorm.DB, input CategoryInput) (*models.Category, error)
	Update(db *gorm.DB, id uuid.UUID, input CategoryInput) (*models.Category, error)
	Delete(db *gorm.DB, id uuid.UUID) error
	FindByID(db *gorm.DB, id uuid.UUID) (*models.Category, error)
	FindAll(db *gorm.DB) ([]models.Category, error)
}

type CategoryServiceImpl struct{}

func NewCategoryService() *CategoryServiceImpl {
	return &CategoryServiceImpl{}
}

func (s *CategoryServiceImpl) Create(db *gorm.DB, input CategoryInput) (*models.Category, error) {
	if input.Name == "" {
		return nil, &ValidationError{Message: "category name is required"}
	}

	var existing models.Category
	if err := db.Where("name = ?", input.Name).First(&existing).Error; err == nil {
		return nil, &ConflictError{Field: "name", Message: "a category with this name already exists"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := models.Category{
		Name:        input.Name,
		Description: input.Description,
	}
	if err := db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryServiceImpl) Update(db *gorm.DB, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	var category models.Category
	if err := db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "category", ID: id.String()}
		}
		return nil, err
	}

	if input.Name != "" && input.Name != category.Name {
		var existing models.Category
		if err := db.Where("name = ? AND id <> ?", input.Name, id).First(&existing).Error; err == nil {
			return nil, &ConflictError{Field: "name", Message: "a category with this name already exists"}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		category.Name = input.Name
	}
	category.Description = input.Description

	if err := db.Save(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryServiceImpl) Delete(db *gorm.DB, id uuid.UUID) error {
	var category models.Category
	if err := db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "category", ID: id.String()}
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
}

func (s *CategoryServiceImpl) FindByID(db *gorm.DB, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "category", ID: id.String()}
		}
		return nil, err
	}
	return &category, nil
}

func (s *CategoryServiceImpl) FindAll(db *gorm.DB) ([]models.Category, error) {
	var categories []models.Category
	err := db.Order("name ASC").Find(&categories).Error
	return categories, err
}
