package handlers

import (
	"net/http"

	"crm-manager/backend/internal/httperr"
	"crm-manager/backend/internal/middleware"
	"crm-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommentHandler struct {
	db             *gorm.DB
	commentService services.CommentService
}

func NewCommentHandler(db *gorm.DB, commentService services.CommentService) *CommentHandler {
	return &CommentHandler{db: db, commentService: commentService}
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	var input services.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	// The authenticated caller is the author; the body cannot speak
	// for someone else.
	if user, ok := middleware.CurrentUser(c); ok {
		input.AuthorID = user.ID
	}

	comment, err := h.commentService.Create(h.db, input)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var input services.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	comment, err := h.commentService.Update(h.db, id, input)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.commentService.Delete(h.db, id); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *CommentHandler) DeleteCommentsByTask(c *gin.Context) {
	taskID, ok := parseUUIDParam(c, "taskId")
	if !ok {
		return
	}
	deleted, err := h.commentService.DeleteByTask(h.db, taskID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *CommentHandler) GetComments(c *gin.Context) {
	comments, err := h.commentService.FindAll(h.db)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) GetCommentByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	comment, err := h.commentService.FindByID(h.db, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) GetCommentsByTask(c *gin.Context) {
	taskID, ok := parseUUIDParam(c, "taskId")
	if !ok {
		return
	}
	comments, err := h.commentService.FindByTask(h.db, taskID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) GetCommentsByAuthor(c *gin.Context) {
	authorID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	comments, err := h.commentService.FindByAuthor(h.db, authorID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}
