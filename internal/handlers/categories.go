package handlers

import (
	"net/http"

	"crm-manager/backend/internal/httperr"
	"crm-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryHandler struct {
	db              *gorm.DB
	categoryService services.CategoryService
}

func NewCategoryHandler(db *gorm.DB, categoryService services.CategoryService) *CategoryHandler {
	return &CategoryHandler{db: db, categoryService: categoryService}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	category, err := h.categoryService.Create(h.db, input)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	category, err := h.categoryService.Update(h.db, id, input)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.categoryService.Delete(h.db, id); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.categoryService.FindAll(h.db)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	category, err := h.categoryService.FindByID(h.db, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}
