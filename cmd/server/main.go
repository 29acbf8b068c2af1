package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcAdapter "github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/grpc"
	httpAdapter "github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/http"
	natsAdapter "github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/repository/cache"
	mongoRepo "github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/repository/mongodb"
	pgRepo "github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/repository/postgres"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/usecase"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/tracer"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "lostfound-service"

// stores groups the repositories of whichever backend STORAGE_DRIVER selects.
type stores struct {
	listings domain.ListingRepository
	messages domain.MessageRepository
	users    domain.UserRepository
	tx       domain.Transactor
	close    func()
}

func openMongo(cfg *config.Config, log *logger.Logger) (*stores, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongoRepo.NewMongoDBConnection(ctx, cfg.MongoURI, 10*time.Second)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)
	if err := mongoRepo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	log.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	return &stores{
		listings: mongoRepo.NewListingRepository(db),
		messages: mongoRepo.NewMessageRepository(db),
		users:    mongoRepo.NewUserRepository(db),
		tx:       mongoRepo.NewTransactor(client),
		close: func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("Error disconnecting from MongoDB", zap.Error(err))
			}
		},
	}, nil
}

func openPostgres(cfg *config.Config, log *logger.Logger) (*stores, error) {
	db, err := pgRepo.Open(cfg.PostgresDSN, log)
	if err != nil {
		return nil, err
	}
	if err := pgRepo.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("Connected to PostgreSQL")

	return &stores{
		listings: pgRepo.NewListingRepository(db),
		messages: pgRepo.NewMessageRepository(db),
		users:    pgRepo.NewUserRepository(db),
		tx:       pgRepo.NewTransactor(db),
		close: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("Application starting...", zap.String("service_name", serviceName))

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	var st *stores
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		st, err = openPostgres(cfg, appLogger)
	default:
		st, err = openMongo(cfg, appLogger)
	}
	if err != nil {
		appLogger.Fatal("Failed to open storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer st.close()

	// Cache, events and mail are optional. Leave the interfaces nil when unavailable.
	var listingCache usecase.ListingCache
	if cfg.RedisAddress != "" {
		rdb, err := cache.NewRedisClient(context.Background(), cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB, appLogger)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without listing cache", zap.Error(err))
		} else {
			defer rdb.Close()
			listingCache = cache.NewListingCache(rdb, cfg.ListingCacheTTL, appLogger)
		}
	}

	var events usecase.EventPublisher
	if cfg.NATSURL != "" {
		publisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, serviceName)
		if err != nil {
			appLogger.Warn("NATS unavailable, domain events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	var notifier usecase.Notifier
	if cfg.SMTPHost != "" {
		m, err := mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Sender:   cfg.SMTPSender,
		}, appLogger)
		if err != nil {
			appLogger.Warn("Mailer misconfigured, owner notifications disabled", zap.Error(err))
		} else {
			notifier = m
		}
	}

	mediaCtx, cancelMedia := context.WithTimeout(context.Background(), cfg.MediaTimeout)
	mediaStore, err := s3.NewS3Storage(mediaCtx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, appLogger)
	cancelMedia()
	if err != nil {
		appLogger.Fatal("Failed to initialize media storage", zap.Error(err))
	}

	reputationUC := usecase.NewReputationUsecase(st.users, cfg.TrustScoreIncrement, appLogger, cfg.StoreTimeout)
	listingUC := usecase.NewListingUsecase(st.listings, st.users, listingCache, events, appLogger, cfg.StoreTimeout)
	messageUC := usecase.NewMessageUsecase(st.tx, st.listings, st.messages, st.users, reputationUC, listingCache, events, notifier, appLogger, cfg.StoreTimeout)
	mediaUC := usecase.NewMediaUsecase(mediaStore, cfg.MaxImageBytes, cfg.MediaTimeout, appLogger)

	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)
	go func() {
		if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Prometheus metrics server failed", zap.Error(err))
		}
	}()

	handler := httpAdapter.NewHandler(listingUC, messageUC, reputationUC, mediaUC, metricsManager, appLogger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpAdapter.NewRouter(handler, cfg.JWTSecret, appLogger, metricsManager),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		appLogger.Fatal("Failed to listen for gRPC", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}
	ops := grpcAdapter.NewOpsServer(serviceName, appLogger)
	go func() {
		appLogger.Info("Starting gRPC ops server", zap.String("port", cfg.GRPCPort))
		if err := ops.Server.Serve(lis); err != nil {
			appLogger.Error("gRPC server stopped with error", zap.Error(err))
		}
	}()
	ops.MarkServing(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ops.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Application shutting down...")
}
