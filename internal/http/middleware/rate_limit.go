package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/ignatzorin/market-moderation/internal/interface/http/response"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

// NewRateLimitStore возвращает общее для всех экземпляров хранилище счётчиков в Redis,
// либо память процесса, если Redis не настроен.
func NewRateLimitStore(client redis.UniversalClient) (limiter.Store, error) {
	if client == nil {
		return memory.NewStore(), nil
	}
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "market_rate_limit",
	})
}

// RateLimitMiddleware создаёт middleware для ограничения количества запросов.
// Ключ - пользователь из токена, для анонимных запросов - IP.
// По умолчанию: 10 запросов в минуту.
func RateLimitMiddleware(store limiter.Store, limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}
	if store == nil {
		store = memory.NewStore()
	}

	rate := limiter.Rate{
		Period: period,
		Limit:  limit,
	}
	instance := limiter.New(store, rate)

	return func(c *gin.Context) {
		key := c.ClientIP()
		if actor, ok := ActorFromContext(c); ok {
			key = "user:" + actor.ID.String()
		}

		context, err := instance.Get(c, key)
		if err != nil {
			response.Abort(c, http.StatusInternalServerError, apperror.ErrCodeInternal, "внутренняя ошибка сервера")
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", context.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", context.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", context.Reset))

		if context.Reached {
			response.Abort(c, http.StatusTooManyRequests, apperror.ErrCodeRateLimited, "слишком много запросов, попробуйте позже")
			return
		}

		c.Next()
	}
}
