package handlers

import (
	"net/http"

	"crm-manager/backend/internal/httperr"
	"crm-manager/backend/internal/middleware"
	"crm-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type AttachmentHandler struct {
	db                *gorm.DB
	attachmentService services.AttachmentService
}

func NewAttachmentHandler(db *gorm.DB, attachmentService services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{db: db, attachmentService: attachmentService}
}

func (h *AttachmentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		httperr.BadRequest(c, "file form field is required")
		return
	}

	taskID, err := uuid.FromString(c.PostForm("task_id"))
	if err != nil {
		httperr.BadRequest(c, "invalid task_id form field")
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		httperr.Unauthorized(c, "authentication required")
		return
	}

	attachment, err := h.attachmentService.Store(h.db, file, taskID, user.ID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

func (h *AttachmentHandler) GetAttachmentByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	attachment, err := h.attachmentService.FindByID(h.db, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, attachment)
}

func (h *AttachmentHandler) Download(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	attachment, err := h.attachmentService.FindByID(h.db, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.Header("Content-Type", attachment.FileType)
	c.FileAttachment(attachment.FilePath, attachment.FileName)
}

func (h *AttachmentHandler) GetAttachmentsByTask(c *gin.Context) {
	taskID, ok := parseUUIDParam(c, "taskId")
	if !ok {
		return
	}
	attachments, err := h.attachmentService.FindByTask(h.db, taskID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, attachments)
}

func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.attachmentService.Delete(h.db, id); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
