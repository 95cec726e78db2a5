package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/interface/http/response"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
	"github.com/ignatzorin/market-moderation/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
	ContextActorKey  = "actor"
)

// AuthMiddleware проверяет JWT access токен и кладёт в контекст вызывающего.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Abort(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, "требуется авторизация")
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		actor, err := tokens.ParseAccess(raw)
		if err != nil || actor.ID == uuid.Nil {
			response.Abort(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, "токен невалиден")
			return
		}

		c.Set(ContextUserIDKey, actor.ID)
		c.Set(ContextRoleKey, string(actor.Role))
		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// RequireRole пропускает только перечисленные роли.
func RequireRole(roles ...valueobject.Role) gin.HandlerFunc {
	allowed := make(map[valueobject.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, "требуется авторизация")
			return
		}
		if !allowed[actor.Role] {
			response.Abort(c, http.StatusForbidden, apperror.ErrCodeForbidden, "недостаточно прав")
			return
		}
		c.Next()
	}
}

// ActorFromContext возвращает вызывающего, установленного AuthMiddleware.
func ActorFromContext(c *gin.Context) (valueobject.Actor, bool) {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return valueobject.Actor{}, false
	}
	actor, ok := value.(valueobject.Actor)
	return actor, ok
}
