package handlers

import (
	"crm-manager/backend/internal/httperr"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		httperr.BadRequest(c, "invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}
