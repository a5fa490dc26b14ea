package services_test

import (
	"testing"

	"crm-manager/backend/internal/models"
	"crm-manager/backend/internal/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repositories.OpenTestDB()
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "not-a-real-hash",
		FirstName: "Test",
		LastName:  "User",
		Role:      models.RoleDeveloper,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createClient(t *testing.T, db *gorm.DB, name, email string) *models.Client {
	t.Helper()
	client := &models.Client{Name: name, Email: email}
	require.NoError(t, db.Create(client).Error)
	return client
}

func createCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}

func createTask(t *testing.T, db *gorm.DB, title string) *models.Task {
	t.Helper()
	task := &models.Task{Title: title}
	require.NoError(t, db.Create(task).Error)
	return task
}
