package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/interface/http/response"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметр с указанным именем является валидным UUID.
// Использование: group.POST("/listings/:id/approve", UUIDValidator("id"), handler.Approve)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		if idStr == "" {
			response.Abort(c, http.StatusBadRequest, apperror.ErrCodeValidation, "параметр "+paramName+" обязателен")
			return
		}

		if _, err := uuid.Parse(idStr); err != nil {
			response.Abort(c, http.StatusBadRequest, apperror.ErrCodeValidation, "параметр "+paramName+" должен быть валидным UUID")
			return
		}

		c.Next()
	}
}
