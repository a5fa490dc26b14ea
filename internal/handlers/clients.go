package handlers

import (
	"errors"
	"net/http"

	"crm-manager/backend/internal/httperr"
	"crm-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ClientHandler struct {
	db            *gorm.DB
	clientService services.ClientService
}

func NewClientHandler(db *gorm.DB, clientService services.ClientService) *ClientHandler {
	return &ClientHandler{db: db, clientService: clientService}
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	var input services.ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	client, err := h.clientService.Create(h.db, input)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var input services.ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.BadRequest(c, "invalid request format")
		return
	}

	client, err := h.clientService.Update(h.db, id, input)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.clientService.Delete(h.db, id); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *ClientHandler) GetClients(c *gin.Context) {
	clients, err := h.clientService.FindAll(h.db)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *ClientHandler) GetClientByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	client, err := h.clientService.FindByID(h.db, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) GetClientByEmail(c *gin.Context) {
	client, err := h.clientService.FindByEmail(h.db, c.Param("email"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// CheckClientEmail reports whether a client with the given email exists,
// without returning the client itself.
func (h *ClientHandler) CheckClientEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		httperr.BadRequest(c, "email query parameter is required")
		return
	}

	_, err := h.clientService.FindByEmail(h.db, email)
	if err != nil {
		var notFound *services.NotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusOK, gin.H{"exists": false})
			return
		}
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true})
}
