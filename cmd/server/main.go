package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/market-moderation/internal/config"
	"github.com/ignatzorin/market-moderation/internal/db"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/goroutine"
	httpRouter "github.com/ignatzorin/market-moderation/internal/http/router"
	"github.com/ignatzorin/market-moderation/internal/http/middleware"
	"github.com/ignatzorin/market-moderation/internal/infrastructure/events"
	"github.com/ignatzorin/market-moderation/internal/infrastructure/memory"
	"github.com/ignatzorin/market-moderation/internal/infrastructure/persistence"
	"github.com/ignatzorin/market-moderation/internal/interface/http/handler"
	"github.com/ignatzorin/market-moderation/internal/logger"
	"github.com/ignatzorin/market-moderation/internal/metrics"
	"github.com/ignatzorin/market-moderation/internal/pkg/keylock"
	"github.com/ignatzorin/market-moderation/internal/pkg/pagination"
	"github.com/ignatzorin/market-moderation/internal/service"
	"github.com/ignatzorin/market-moderation/internal/storage"
	"github.com/ignatzorin/market-moderation/internal/usecase/listing"
	"github.com/ignatzorin/market-moderation/internal/usecase/moderation"
	"github.com/ignatzorin/market-moderation/internal/usecase/report"
	"github.com/ignatzorin/market-moderation/internal/usecase/stats"
	"github.com/ignatzorin/market-moderation/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Хранилища.
	var (
		listingRepo repository.ListingRepository
		reportRepo  repository.ReportRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Log.Warn("main: используется хранилище в памяти, данные не сохраняются между запусками")
		listingRepo = memory.NewListingStore()
		reportRepo = memory.NewReportStore()
	default:
		dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.DefaultPoolConfig())
		if err != nil {
			logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
			logger.Log.Fatalf("main: ошибка миграций: %v", err)
		}
		listingRepo = persistence.NewListingRepositoryAdapter(dbConn)
		reportRepo = persistence.NewReportRepositoryAdapter(dbConn)
	}

	redisClient, err := db.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Fatalf("main: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	appMetrics := metrics.New()

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Вебсокеты и события.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo(hub.Run)

	publishers := []events.Publisher{events.NewHubPublisher(hub)}
	if redisClient != nil {
		publishers = append(publishers, events.NewRedisPublisher(redisClient, cfg.EventsChannel))
	}
	publisher := events.NewFanout(2*time.Second, publishers...)

	// Use cases.
	locks := keylock.New()
	policy := pagination.Policy{DefaultLimit: cfg.QueueDefaultLimit, MaxLimit: cfg.QueueMaxLimit}
	engine := listing.NewEngine(listingRepo, locks,
		listing.WithPublisher(publisher),
		listing.WithMetrics(appMetrics),
	)

	detailUC := moderation.NewGetListingDetailUseCase(listingRepo)
	listReportsUC := report.NewListReportsUseCase(reportRepo, policy)

	listingHandler := handler.NewListingHandler(
		listing.NewCreateListingUseCase(listingRepo, publisher),
		listing.NewResubmitListingUseCase(engine),
		listing.NewDeactivateListingUseCase(engine),
		listing.NewReactivateListingUseCase(engine),
		listing.NewListMyListingsUseCase(listingRepo, policy),
		stats.NewGetListingCountsUseCase(listingRepo),
		detailUC,
		listing.NewAddListingImageUseCase(listingRepo, photoStorage),
		photoStorage.MaxUploadBytes(),
	)
	moderationHandler := handler.NewModerationHandler(
		moderation.NewListQueueUseCase(listingRepo, policy),
		detailUC,
		moderation.NewApproveListingUseCase(engine),
		moderation.NewRejectListingUseCase(engine),
		listReportsUC,
		report.NewGetReportStatsUseCase(reportRepo),
		report.NewDecideReportUseCase(reportRepo, engine, keylock.New(), publisher, appMetrics),
	)
	reportHandler := handler.NewReportHandler(report.NewCreateReportUseCase(reportRepo, listingRepo, publisher), listReportsUC)
	internalHandler := handler.NewInternalHandler(listing.NewRecordSaleUseCase(engine))
	wsHandler := handler.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins)

	checks := map[string]handler.Pinger{"store": listingRepo}
	if redisClient != nil {
		checks["redis"] = redisPinger(redisClient)
	}
	healthHandler := handler.NewHealthHandler(checks)

	rateStore, err := middleware.NewRateLimitStore(redisUniversal(redisClient))
	if err != nil {
		logger.Log.Fatalf("main: не удалось создать хранилище лимитов: %v", err)
	}

	// Роутер.
	router := httpRouter.SetupRouter(
		httpRouter.Options{
			Env:             cfg.Env,
			AllowedOrigins:  cfg.AllowedOrigins,
			RateLimitStore:  rateStore,
			RateLimitLimit:  cfg.RateLimitLimit,
			RateLimitPeriod: cfg.RateLimitPeriod,
			MediaPath:       cfg.MediaStoragePath,
		},
		tokenManager,
		appMetrics,
		healthHandler,
		listingHandler,
		moderationHandler,
		reportHandler,
		internalHandler,
		wsHandler,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	})

	logger.Log.Infof("main: HTTP сервер запущен на порту %s (хранилище: %s)", cfg.HTTPPort, cfg.StoreDriver)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// redisUniversal возвращает nil-интерфейс для отсутствующего клиента,
// чтобы не получить интерфейс с nil указателем внутри.
func redisUniversal(client *redis.Client) redis.UniversalClient {
	if client == nil {
		return nil
	}
	return client
}

func redisPinger(client *redis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
