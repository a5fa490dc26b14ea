package handlers

import (
	"net/http"
	"time"

	"crm-manager/backend/internal/httperr"
	"crm-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var input services.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	task, err := h.taskService.Create(h.db, input)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var input services.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	task, err := h.taskService.Update(h.db, id, input)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.taskService.Delete(h.db, id); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	tasks, err := h.taskService.FindAll(h.db)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.taskService.FindByID(h.db, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTasksByUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	tasks, err := h.taskService.FindByAssignedUser(h.db, userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTasksByClient(c *gin.Context) {
	clientID, ok := parseUUIDParam(c, "clientId")
	if !ok {
		return
	}
	tasks, err := h.taskService.FindByClient(h.db, clientID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTasksByStatus(c *gin.Context) {
	tasks, err := h.taskService.FindByStatus(h.db, c.Param("status"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTasksByPriority(c *gin.Context) {
	tasks, err := h.taskService.FindByPriority(h.db, c.Param("priority"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func parseDateQuery(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httperr.BadRequest(c, "invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func (h *TaskHandler) GetTasksDueBefore(c *gin.Context) {
	date, ok := parseDateQuery(c)
	if !ok {
		return
	}
	tasks, err := h.taskService.FindDueBefore(h.db, date)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTasksDueAfter(c *gin.Context) {
	date, ok := parseDateQuery(c)
	if !ok {
		return
	}
	tasks, err := h.taskService.FindDueAfter(h.db, date)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	task, err := h.taskService.UpdateStatus(h.db, id, body.Status)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) AssignUser(c *gin.Context) {
	taskID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}

	task, err := h.taskService.AssignUser(h.db, taskID, userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UnassignUser(c *gin.Context) {
	taskID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}

	task, err := h.taskService.UnassignUser(h.db, taskID, userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
