package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/http/middleware"
	"github.com/ignatzorin/market-moderation/internal/interface/http/handler"
	"github.com/ignatzorin/market-moderation/internal/metrics"
	"github.com/ignatzorin/market-moderation/internal/service"
)

// Options - параметры HTTP слоя, не зависящие от обработчиков.
type Options struct {
	Env             string
	AllowedOrigins  []string
	RateLimitStore  limiter.Store
	RateLimitLimit  int64
	RateLimitPeriod time.Duration
	MediaPath       string
}

func SetupRouter(
	opts Options,
	tokenManager *service.TokenManager,
	m *metrics.Metrics,
	healthHandler *handler.HealthHandler,
	listingHandler *handler.ListingHandler,
	moderationHandler *handler.ModerationHandler,
	reportHandler *handler.ReportHandler,
	internalHandler *handler.InternalHandler,
	wsHandler *handler.WSHandler,
) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.MetricsMiddleware(m))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	if opts.MediaPath != "" {
		r.Static("/media", opts.MediaPath)
	}

	api := r.Group("/api")

	if wsHandler != nil {
		// токен в query, проверяется самим обработчиком
		api.GET("/ws", wsHandler.Handle)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokenManager))

	listings := protected.Group("/listings")
	{
		listings.POST("", middleware.RequireRole(valueobject.RoleSeller, valueobject.RoleUser), listingHandler.Create)
		listings.GET("/my", listingHandler.ListMy)
		listings.GET("/my/counts", listingHandler.MyCounts)
		listings.GET("/:id", middleware.UUIDValidator("id"), listingHandler.Get)
		listings.PUT("/:id/resubmit", middleware.UUIDValidator("id"), listingHandler.Resubmit)
		listings.POST("/:id/deactivate", middleware.UUIDValidator("id"), listingHandler.Deactivate)
		listings.POST("/:id/reactivate", middleware.UUIDValidator("id"), listingHandler.Reactivate)
		listings.POST("/:id/images", middleware.UUIDValidator("id"), listingHandler.UploadImage)
	}

	reports := protected.Group("/reports")
	{
		reports.POST("", middleware.RateLimitMiddleware(opts.RateLimitStore, opts.RateLimitLimit, opts.RateLimitPeriod), reportHandler.Create)
		reports.GET("/my", reportHandler.ListMy)
	}

	moderation := protected.Group("/moderation")
	moderation.Use(middleware.RequireRole(valueobject.RoleModerator, valueobject.RoleAdmin))
	{
		moderation.GET("/queue", moderationHandler.Queue)
		moderation.GET("/listings/:id", middleware.UUIDValidator("id"), moderationHandler.GetListing)
		moderation.POST("/listings/:id/approve", middleware.UUIDValidator("id"), moderationHandler.Approve)
		moderation.POST("/listings/:id/reject", middleware.UUIDValidator("id"), moderationHandler.Reject)

		moderation.GET("/reports", moderationHandler.Reports)
		moderation.GET("/reports/stats", moderationHandler.ReportStats)
		moderation.POST("/reports/:id/resolve", middleware.UUIDValidator("id"), moderationHandler.ResolveReport)
		moderation.POST("/reports/:id/dismiss", middleware.UUIDValidator("id"), moderationHandler.DismissReport)
	}

	internal := protected.Group("/internal")
	internal.Use(middleware.RequireRole(valueobject.RoleSystem))
	{
		internal.POST("/listings/:id/sales", middleware.UUIDValidator("id"), internalHandler.RecordSale)
	}

	return r
}
