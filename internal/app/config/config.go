package config

import (
	"aegis-service/internal/pkg/utils"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		MongoDB: MongoDB{
			Port:        utils.GetEnvString("MONGODB_PORT", "27017"),
			Host:        utils.GetEnvString("MONGODB_HOST", "localhost"),
			Username:    utils.GetEnvString("MONGODB_USERNAME", "defaultUsername"),
			Password:    utils.GetEnvString("MONGODB_PASSWORD", "defaultPassword"),
			AegisDbName: utils.GetEnvString("MONGODB_AEGIS_DB_NAME", "aegis"),
		},
		PostgresDB: PostgresDB{
			Host:         utils.GetEnvString("POSTGRES_HOST", "localhost"),
			Port:         utils.GetEnvString("POSTGRES_PORT", "5432"),
			Username:     utils.GetEnvString("POSTGRES_USERNAME", "defaultUsername"),
			Password:     utils.GetEnvString("POSTGRES_PASSWORD", "defaultPassword"),
			DBName:       utils.GetEnvString("POSTGRES_DB_NAME", "aegis_audit"),
			MaxOpenConns: utils.GetEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns: utils.GetEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
		},
		Redis: Redis{
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", "customRedisPass"),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
		RabbitMQ: RabbitMQ{
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "defaultPassword"),
		},
		Minio: Minio{
			Port:     utils.GetEnvString("MINIO_PORT", "9000"),
			Host:     utils.GetEnvString("MINIO_HOST", "localhost"),
			Username: utils.GetEnvString("MINIO_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("MINIO_PASSWORD", "defaultPassword"),
			UseSSL:   utils.GetEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:                        utils.GetEnvString("APP_ENV", "development"),
			Port:                       utils.GetEnvString("APP_PORT", ":8080"),
			Version:                    utils.GetEnvString("APP_VERSION", "v1.0"),
			Address:                    utils.GetEnvString("APP_ADDRESS", "localhost"),
			Timezone:                   utils.GetEnvString("APP_TIMEZONE", "UTC"),
			EndpointPrefix:             utils.GetEnvString("APP_ENDPOINT_PREFIX", "/api/v1"),
			MaxRequests:                utils.GetEnvInt("APP_MAX_REQUEST", 10),
			ShutdownTimeoutInSeconds:   utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT_IN_SECONDS", 10),
			RequestBodyLimitInMegabyte: utils.GetEnvInt("APP_REQUEST_BODY_LIMIT_IN_MEGABYTE", 2),
			PartnerAPIKeyRateLimit:     utils.GetEnvInt("APP_PARTNER_API_KEY_RATE_LIMIT", 50),
		},
		JWT: AppJWT{
			Secret:        utils.GetEnvString("JWT_SECRET", "anyjwt"),
			ExpTimeInHour: utils.GetEnvInt("JWT_EXP_TIME_IN_HOUR", 24),
		},
		Minio: AppMinio{
			ArchiveBucketName:                   utils.GetEnvString("APP_MINIO_ARCHIVE_BUCKET_NAME", "aegis-screening-archive"),
			PreSignedUrlObjectExpiryTimeInHours: utils.GetEnvInt("APP_MINIO_PRESIGNED_URL_EXPIRY_TIME_IN_HOURS", 24),
		},
		RabbitMQ: AppRabbitMQ{
			PrefetchCount: utils.GetEnvInt("APP_RABBITMQ_PREFETCH_COUNT", 10),
		},
		VerificationCode: AppVerificationCode{
			DefaultExpiryTimeInHours: utils.GetEnvInt("APP_VERIFICATION_CODE_DEFAULT_EXPIRY_TIME_IN_HOURS", 72),
		},
		Sweeper: AppSweeper{
			IntervalInMinutes: utils.GetEnvInt("APP_SWEEPER_INTERVAL_IN_MINUTES", 15),
			LockTTLInSeconds:  utils.GetEnvInt("APP_SWEEPER_LOCK_TTL_IN_SECONDS", 60),
		},
		Archive: AppArchive{
			WorkerIntervalInSeconds: utils.GetEnvInt("APP_ARCHIVE_WORKER_INTERVAL_IN_SECONDS", 30),
			BatchSize:               utils.GetEnvInt("APP_ARCHIVE_BATCH_SIZE", 10),
			MaxRetryCount:           utils.GetEnvInt("APP_ARCHIVE_MAX_RETRY_COUNT", 5),
		},
	}
}
