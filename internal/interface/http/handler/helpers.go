package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/http/middleware"
	"github.com/ignatzorin/market-moderation/internal/interface/http/response"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

// currentActor достаёт вызывающего из контекста; при отсутствии пишет 401.
func currentActor(c *gin.Context) (valueobject.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Unauthorized(c, "требуется авторизация")
		return valueobject.Actor{}, false
	}
	return actor, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.Validation("некорректный ID"))
		return uuid.Nil, false
	}
	return id, true
}

// parseIntQuery возвращает defaultValue для пустого параметра и ошибку валидации для нечислового.
func parseIntQuery(c *gin.Context, key string, defaultValue int) (int, error) {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, apperror.Validation("параметр " + key + " должен быть целым числом")
	}

	return value, nil
}

// parseWindow разбирает skip/limit. Нули означают значения по умолчанию пагинатора.
func parseWindow(c *gin.Context) (skip, limit int, ok bool) {
	skip, err := parseIntQuery(c, "skip", 0)
	if err != nil {
		response.Error(c, err)
		return 0, 0, false
	}
	limit, err = parseIntQuery(c, "limit", 0)
	if err != nil {
		response.Error(c, err)
		return 0, 0, false
	}
	return skip, limit, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, apperror.Validation("некорректный запрос: "+err.Error()))
		return false
	}
	return true
}

// bindOptionalJSON допускает пустое тело запроса.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, req)
}
