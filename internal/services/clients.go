package services

import (
	"errors"

	"crm-manager/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Company string `json:"company"`
}

type ClientService interface {
	Create(db *gorm.DB, input ClientInput) (*models.Client, error)
	Update(db *gorm.DB, id uuid.UUID, input ClientInput) (*models.Client, error)
	Delete(db *gorm.DB, id uuid.UUID) error
	FindByID(db *gorm.DB, id uuid.UUID) (*models.Client, error)
	FindByEmail(db *gorm.DB, email string) (*models.Client, error)
	FindAll(db *gorm.DB) ([]models.Client, error)
}

type ClientServiceImpl struct{}

func NewClientService() *ClientServiceImpl {
	return &ClientServiceImpl{}
}

func (s *ClientServiceImpl) Create(db *gorm.DB, input ClientInput) (*models.Client, error) {
	if input.Name == "" {
		return nil, &ValidationError{Message: "client name is required"}
	}
	if input.Email == "" {
		return nil, &ValidationError{Message: "client email is required"}
	}

	var existing models.Client
	if err := db.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return nil, &ConflictError{Field: "email", Message: "a client with this email already exists"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	client := models.Client{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
		Company: input.Company,
	}
	if err := db.Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *ClientServiceImpl) Update(db *gorm.DB, id uuid.UUID, input ClientInput) (*models.Client, error) {
	var client models.Client
	if err := db.First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "client", ID: id.String()}
		}
		return nil, err
	}

	if input.Email != "" && input.Email != client.Email {
		var existing models.Client
		if err := db.Where("email = ? AND id <> ?", input.Email, id).First(&existing).Error; err == nil {
			return nil, &ConflictError{Field: "email", Message: "a client with this email already exists"}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		client.Email = input.Email
	}

	if input.Name != "" {
		client.Name = input.Name
	}
	client.Phone = input.Phone
	client.Address = input.Address
	client.Company = input.Company

	if err := db.Save(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *ClientServiceImpl) Delete(db *gorm.DB, id uuid.UUID) error {
	var client models.Client
	if err := db.First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "client", ID: id.String()}
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM comment_mentioned_clients WHERE client_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("client_id = ?", id).Update("client_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&client).Error
	})
}

func (s *ClientServiceImpl) FindByID(db *gorm.DB, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := db.First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "client", ID: id.String()}
		}
		return nil, err
	}
	return &client, nil
}

func (s *ClientServiceImpl) FindByEmail(db *gorm.DB, email string) (*models.Client, error) {
	var client models.Client
	if err := db.First(&client, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "client"}
		}
		return nil, err
	}
	return &client, nil
}

func (s *ClientServiceImpl) FindAll(db *gorm.DB) ([]models.Client, error) {
	var clients []models.Client
	err := db.Order("name ASC").Find(&clients).Error
	return clients, err
}
