package handlers

import (
	"net/http"

	"crm-manager/backend/internal/httperr"
	"crm-manager/backend/internal/models"
	"crm-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	db                  *gorm.DB
	notificationService services.NotificationService
}

func NewNotificationHandler(db *gorm.DB, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{db: db, notificationService: notificationService}
}

type NotificationInput struct {
	Message     string     `json:"message" binding:"required"`
	Type        string     `json:"type" binding:"required"`
	RecipientID uuid.UUID  `json:"recipient_id" binding:"required"`
	SenderID    *uuid.UUID `json:"sender_id"`
	EntityID    *uuid.UUID `json:"entity_id"`
	EntityType  string     `json:"entity_type"`
}

func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var input NotificationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	notification, err := h.notificationService.Create(h.db, models.Notification{
		Message:     input.Message,
		Type:        input.Type,
		RecipientID: input.RecipientID,
		SenderID:    input.SenderID,
		EntityID:    input.EntityID,
		EntityType:  input.EntityType,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, notification)
}

func (h *NotificationHandler) GetNotificationsByUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	notifications, err := h.notificationService.FindByRecipient(h.db, userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) GetUnreadNotificationsByUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	notifications, err := h.notificationService.FindUnreadByRecipient(h.db, userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	count, err := h.notificationService.CountUnreadByRecipient(h.db, userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	notification, err := h.notificationService.MarkAsRead(h.db, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, notification)
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	affected, err := h.notificationService.MarkAllAsRead(h.db, userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_read": affected})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.Delete(h.db, id); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
