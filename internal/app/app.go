package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	config "github.com/stockpilot/go-backend/internal/cfg"
	v1Http "github.com/stockpilot/go-backend/internal/delivery/v1/http"
	"github.com/stockpilot/go-backend/internal/infrastructure/kafka"
	minioInfra "github.com/stockpilot/go-backend/internal/infrastructure/minio"
	s3Repo "github.com/stockpilot/go-backend/internal/repository/minio"
	"github.com/stockpilot/go-backend/internal/repository/pgdb"
	pgdbConv "github.com/stockpilot/go-backend/internal/repository/pgdb/converter"
	"github.com/stockpilot/go-backend/internal/repository/redis"
	redisConv "github.com/stockpilot/go-backend/internal/repository/redis/converter"
	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/pkg/clients"
	"github.com/stockpilot/go-backend/pkg/closer"
	"github.com/stockpilot/go-backend/pkg/e"
	"github.com/stockpilot/go-backend/pkg/logger"
	"github.com/stockpilot/go-backend/pkg/postgres"
)

const (
	shutdownTimeout    = 10 * time.Second
	ensureTopicTimeout = 10 * time.Second
)

// App собирает зависимости приложения и управляет их жизненным циклом.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	closer      *closer.Closer
	httpSrv     *v1Http.Server
	imagesInfra *minioInfra.ImagesInfrastructure
	cancelBg    context.CancelFunc
}

// NewApp инициализирует все зависимости в порядке: БД и миграции,
// MinIO, Redis, Kafka, usecase-слой, HTTP. Закрытие регистрируется
// в closer и выполняется в обратном порядке.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(0)

	// Контекст фоновых работ: компенсирующая очистка MinIO, outbox-воркер.
	bgCtx, cancelBg := context.WithCancel(context.Background())

	db, err := initPGDB(log, cfg)
	if err != nil {
		cancelBg()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		db.Close()
		log.Infof("database connection closed")
		return nil
	})

	prConv := pgdbConv.NewProductConverterImpl()
	outboxConv := pgdbConv.NewOutboxEventConverterImpl()
	cacheConv := redisConv.NewProductConverterImpl()

	productRepo := pgdb.NewProductRepo(db.Pool, prConv)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		cancelBg()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		minioCancel()
		cancelBg()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	minioCancel()

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)
	imagesInfra := minioInfra.NewImagesInfrastructure(imageRepo, cfg.Minio, log, bgCtx)
	cl.Add(func(ctx context.Context) error {
		return imagesInfra.WaitForCleanup(ctx)
	})

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		cancelBg()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cacheRepo := redis.NewCacheRepo(redisClient.Client, cacheConv, cfg.Redis)
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		cancelBg()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(ensureTopicTimeout); err != nil {
		cancelBg()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	outboxWorker := kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)
	outboxWorker.Start(bgCtx)
	cl.Add(func(ctx context.Context) error {
		outboxWorker.Stop()
		log.Infof("outbox worker stopped")
		return nil
	})

	productUC := usecase.NewProductUC(productRepo, outboxRepo, cacheRepo, db.Pool, log)
	statsUC := usecase.NewStatsUC(productRepo, log)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(productUC, statsUC, imagesInfra, cfg.Minio)

	httpSrv := v1Http.NewServer(r, cfg.Http)
	cl.Add(func(ctx context.Context) error {
		return httpSrv.Stop(ctx)
	})

	return &App{
		cfg:         cfg,
		logger:      log,
		closer:      cl,
		httpSrv:     httpSrv,
		imagesInfra: imagesInfra,
		cancelBg:    cancelBg,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до сигнала завершения
// либо фатальной ошибки сервера.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("shutdown finished with errors: %v", err)
	}
	a.cancelBg()

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
