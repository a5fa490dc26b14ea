package httperr_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"crm-manager/backend/internal/httperr"
	"crm-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func respondWith(t *testing.T, err error) (*httptest.ResponseRecorder, httperr.APIError) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	httperr.Respond(c, err)

	var body httperr.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRespondNotFound(t *testing.T) {
	w, body := respondWith(t, &services.NotFoundError{Entity: "task", ID: "abc"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Contains(t, body.Message, "task not found")
	assert.False(t, body.Timestamp.IsZero())
}

func TestRespondGormNotFound(t *testing.T) {
	w, _ := respondWith(t, gorm.ErrRecordNotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRespondConflictCarriesFieldErrors(t *testing.T) {
	w, body := respondWith(t, &services.ConflictError{Field: "email", Message: "email already exists"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "validation failed", body.Message)
	require.NotNil(t, body.FieldErrors)
	assert.Equal(t, "email already exists", body.FieldErrors["email"])
}

func TestRespondBadReference(t *testing.T) {
	w, body := respondWith(t, &services.BadReferenceError{Entity: "user", ID: "abc"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body.Message, "referenced user not found")
}

func TestRespondValidation(t *testing.T) {
	w, body := respondWith(t, &services.ValidationError{Message: "task title is required"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "task title is required", body.Message)
}

func TestRespondInvalidCredentials(t *testing.T) {
	w, _ := respondWith(t, services.ErrInvalidCredentials)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRespondUnknownErrorHidesDetails(t *testing.T) {
	w, body := respondWith(t, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "an internal error occurred", body.Message)
	assert.NotContains(t, body.Message, "pq:")
}

func TestWithField(t *testing.T) {
	err := httperr.New(http.StatusBadRequest, "validation failed").
		WithField("title", "required").
		WithField("status", "invalid")

	assert.Len(t, err.FieldErrors, 2)
	assert.Equal(t, "required", err.FieldErrors["title"])
}
