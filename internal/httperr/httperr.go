package httperr

import (
	"errors"
	"log"
	"net/http"
	"time"

	"crm-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// APIError is the uniform error envelope every endpoint returns.
type APIError struct {
	Status      int               `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

func New(status int, message string) APIError {
	return APIError{
		Status:    status,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e APIError) WithField(field, message string) APIError {
	if e.FieldErrors == nil {
		e.FieldErrors = map[string]string{}
	}
	e.FieldErrors[field] = message
	return e
}

// Respond maps service errors onto response codes so individual
// handlers never format error bodies themselves.
func Respond(c *gin.Context, err error) {
	var notFound *services.NotFoundError
	var conflict *services.ConflictError
	var badRef *services.BadReferenceError
	var validation *services.ValidationError

	switch {
	case errors.As(err, &notFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, New(http.StatusNotFound, err.Error()))
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, New(http.StatusConflict, "validation failed").WithField(conflict.Field, conflict.Message))
	case errors.As(err, &badRef):
		c.JSON(http.StatusBadRequest, New(http.StatusBadRequest, err.Error()))
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, New(http.StatusBadRequest, err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, New(http.StatusUnauthorized, err.Error()))
	default:
		log.Printf("unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, New(http.StatusInternalServerError, "an internal error occurred"))
	}
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, New(http.StatusBadRequest, message))
}

func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, New(http.StatusUnauthorized, message))
}
