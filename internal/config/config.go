package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName           string `mapstructure:"SERVICE_NAME"`
	HTTPPort              string `mapstructure:"HTTP_PORT"`
	GRPCPort              string `mapstructure:"GRPC_PORT"`
	PrometheusMetricsPort string `mapstructure:"PROMETHEUS_METRICS_PORT"`

	StorageDriver  string `mapstructure:"STORAGE_DRIVER"`
	MongoURI       string `mapstructure:"MONGO_URI"`
	MongoDatabase  string `mapstructure:"MONGO_DATABASE"`
	PostgresDSN    string `mapstructure:"POSTGRES_DSN"`
	RedisAddress   string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	NATSURL        string `mapstructure:"NATS_URL"`
	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPSender   string `mapstructure:"SMTP_SENDER"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	StoreTimeout        time.Duration `mapstructure:"STORE_TIMEOUT"`
	MediaTimeout        time.Duration `mapstructure:"MEDIA_TIMEOUT"`
	ListingCacheTTL     time.Duration `mapstructure:"LISTING_CACHE_TTL"`
	ShutdownTimeout     time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	TrustScoreIncrement int64         `mapstructure:"TRUST_SCORE_INCREMENT"`
	MaxImageBytes       int64         `mapstructure:"MAX_IMAGE_BYTES"`

	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "lostfound-service")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("GRPC_PORT", "50056")
	v.SetDefault("PROMETHEUS_METRICS_PORT", "9096")

	v.SetDefault("STORAGE_DRIVER", StorageMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MONGO_DATABASE", "lostfound")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "lostfound-images")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_SENDER", "")

	v.SetDefault("JWT_SECRET", "")

	v.SetDefault("STORE_TIMEOUT", "3s")
	v.SetDefault("MEDIA_TIMEOUT", "10s")
	v.SetDefault("LISTING_CACHE_TTL", "5m")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("TRUST_SCORE_INCREMENT", 10)
	v.SetDefault("MAX_IMAGE_BYTES", 10<<20)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

// LoadConfig reads configuration from environment variables. godotenv is applied by main beforehand.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("grpc_port", cfg.GRPCPort),
		zap.String("storage_driver", cfg.StorageDriver),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.Bool("postgres_dsn_present", cfg.PostgresDSN != ""),
		zap.String("redis_address", cfg.RedisAddress),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("minio_endpoint", cfg.MinioEndpoint),
		zap.Bool("smtp_enabled", cfg.SMTPHost != ""),
		zap.Duration("store_timeout", cfg.StoreTimeout),
		zap.Duration("listing_cache_ttl", cfg.ListingCacheTTL),
		zap.Int64("trust_score_increment", cfg.TrustScoreIncrement),
		zap.String("otel_endpoint", cfg.OTExporterOTLPEndpoint),
	)

	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StorageDriver {
	case StorageMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DATABASE are required for the mongo storage driver"))
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	if c.StoreTimeout <= 0 || c.MediaTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT and MEDIA_TIMEOUT must be positive"))
	}
	if c.MaxImageBytes <= 0 {
		errs = append(errs, errors.New("MAX_IMAGE_BYTES must be positive"))
	}
	return errors.Join(errs...)
}
