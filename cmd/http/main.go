package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aegis-service/cmd/migration"
	"aegis-service/internal/app/config"
	"aegis-service/internal/app/delivery/http/controllers"
	"aegis-service/internal/app/delivery/http/middlewares"
	"aegis-service/internal/app/delivery/http/routers"
	"aegis-service/internal/app/drivers/database"
	"aegis-service/internal/app/drivers/logger"
	"aegis-service/internal/app/drivers/messaging"
	"aegis-service/internal/app/drivers/storage"
	"aegis-service/internal/app/services/core/audits"
	"aegis-service/internal/app/services/core/partners"
	"aegis-service/internal/app/services/core/programs"
	"aegis-service/internal/app/services/core/questionnaires"
	"aegis-service/internal/app/services/core/screenings"
	verificationCodes "aegis-service/internal/app/services/core/verification_codes"
	"aegis-service/internal/app/services/shared/eventqueue"
	"aegis-service/internal/app/services/shared/locker"
	"aegis-service/internal/app/services/shared/ratelimiter"
	redisRepo "aegis-service/internal/app/services/shared/redis"
	"aegis-service/internal/app/services/shared/sessions"
	minioStorage "aegis-service/internal/app/services/shared/storage"
	"aegis-service/internal/pkg/constvars"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	startupLog := logger.NewLogrusLogger(internalConfig)

	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		startupLog.Fatalf("Error loading location: %v", err)
	}
	time.Local = location

	zapLogger := logger.NewZapLogger(driverConfig, internalConfig)

	mongoDB := database.NewMongoDB(driverConfig)
	postgresDB := database.NewPostgresDB(driverConfig)
	redisClient := database.NewRedisClient(driverConfig)
	rabbitMQ := messaging.NewRabbitMQ(driverConfig)
	minioClient := storage.NewMinio(driverConfig, internalConfig)

	migration.Run(postgresDB)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureAegisIndexes(indexCtx, mongoDB, driverConfig.MongoDB.AegisDbName); err != nil {
		startupLog.Fatalf("Error ensuring mongo indexes: %v", err)
	}
	cancelIndexes()

	chiRouter := chi.NewRouter()

	bootstrap := &config.Bootstrap{
		Router:         chiRouter,
		MongoDB:        mongoDB,
		PostgresDB:     postgresDB,
		Redis:          redisClient,
		Minio:          minioClient,
		Logger:         zapLogger,
		RabbitMQ:       rabbitMQ,
		DriverConfig:   driverConfig,
		InternalConfig: internalConfig,
	}

	if err := bootstrapingTheApp(bootstrap); err != nil {
		startupLog.Fatalf("Error bootstrapping the application: %v", err)
	}

	server := &http.Server{
		Addr:    internalConfig.App.Port,
		Handler: chiRouter,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			startupLog.Fatalf("Server failed to start: %v", err)
		}
	}()
	startupLog.Printf("Server listening on %s", internalConfig.App.Port)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	logrus.Println("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeoutInSeconds),
	)
	defer cancel()

	// Shutdown the server
	err = server.Shutdown(shutdownCtx)
	if err != nil {
		startupLog.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := bootstrap.Shutdown(shutdownCtx); err != nil {
		startupLog.Fatalf("Error shutting down application resources: %v", err)
	}

	startupLog.Println("Server exiting")
}

func bootstrapingTheApp(bootstrap *config.Bootstrap) error {
	// Shared services
	redisRepository := redisRepo.NewRedisRepository(bootstrap.Redis)
	lockerService := locker.NewLockService(redisRepository, bootstrap.Logger)
	sessionTokenService := sessions.NewSessionTokenService(bootstrap.InternalConfig, bootstrap.Logger)
	objectStorage := minioStorage.NewMinioStorage(bootstrap.Minio)

	domainEventQueue, err := eventqueue.NewService(
		bootstrap.RabbitMQ,
		bootstrap.Logger,
		bootstrap.InternalConfig.RabbitMQ.PrefetchCount,
		eventqueue.DomainEventQueueName,
		eventqueue.DomainEventDLQName,
	)
	if err != nil {
		return err
	}

	archiveQueue, err := eventqueue.NewService(
		bootstrap.RabbitMQ,
		bootstrap.Logger,
		bootstrap.InternalConfig.RabbitMQ.PrefetchCount,
		eventqueue.ArchiveQueueName,
		eventqueue.ArchiveDLQName,
	)
	if err != nil {
		return err
	}

	// Audit
	auditPostgresRepository := audits.NewAuditPostgresRepository(bootstrap.PostgresDB)
	auditUsecase := audits.NewAuditUsecase(auditPostgresRepository, bootstrap.Logger)

	// Repositories
	dbName := bootstrap.DriverConfig.MongoDB.AegisDbName
	programRepository := programs.NewProgramMongoRepository(bootstrap.MongoDB, dbName)
	questionnaireVersionRepository := questionnaires.NewQuestionnaireVersionMongoRepository(bootstrap.MongoDB, dbName)
	screeningSessionRepository := screenings.NewScreeningSessionMongoRepository(bootstrap.MongoDB, dbName)
	verificationCodeRepository := verificationCodes.NewVerificationCodeMongoRepository(bootstrap.MongoDB, dbName)
	partnerRepository := partners.NewPartnerMongoRepository(bootstrap.MongoDB, dbName)

	// Usecases
	questionnaireUsecase := questionnaires.NewQuestionnaireUsecase(
		questionnaireVersionRepository,
		programRepository,
		redisRepository,
		auditUsecase,
		bootstrap.Logger,
	)
	programUsecase := programs.NewProgramUsecase(
		programRepository,
		questionnaireVersionRepository,
		redisRepository,
		auditUsecase,
		bootstrap.Logger,
	)
	screeningUsecase := screenings.NewScreeningUsecase(
		screeningSessionRepository,
		questionnaireVersionRepository,
		questionnaireUsecase,
		sessionTokenService,
		auditUsecase,
		domainEventQueue,
		archiveQueue,
		bootstrap.Logger,
	)
	verificationCodeUsecase := verificationCodes.NewVerificationCodeUsecase(
		verificationCodeRepository,
		screeningSessionRepository,
		auditUsecase,
		domainEventQueue,
		bootstrap.InternalConfig,
		bootstrap.Logger,
	)
	partnerUsecase := partners.NewPartnerUsecase(
		partnerRepository,
		redisRepository,
		auditUsecase,
		bootstrap.Logger,
	)

	// Controllers
	screeningController := controllers.NewScreeningController(bootstrap.Logger, screeningUsecase)
	verificationCodeController := controllers.NewVerificationCodeController(bootstrap.Logger, verificationCodeUsecase)
	programController := controllers.NewProgramController(bootstrap.Logger, programUsecase)
	questionnaireController := controllers.NewQuestionnaireController(bootstrap.Logger, questionnaireUsecase)
	partnerController := controllers.NewPartnerController(bootstrap.Logger, partnerUsecase)

	// Middlewares
	partnerQuota := ratelimiter.NewResourceLimiter(
		redisRepository,
		bootstrap.Logger,
		constvars.RedisKeyPartnerQuotaGroup,
		bootstrap.InternalConfig.App.PartnerAPIKeyRateLimit*60,
		time.Minute,
	)
	mw := middlewares.NewMiddlewares(
		bootstrap.Logger,
		bootstrap.InternalConfig,
		partnerUsecase,
		sessionTokenService,
		partnerQuota,
	)
	redemptionLimiter := middlewares.NewBruteForceLimiter(
		bootstrap.Logger,
		bootstrap.InternalConfig.App.MaxRequests,
		time.Second,
		5*time.Minute,
	)

	// Background workers
	workerCtx := context.Background()
	expirySweeper := verificationCodes.NewExpirySweeper(
		bootstrap.Logger,
		bootstrap.InternalConfig,
		lockerService,
		verificationCodeUsecase,
		verificationCodeRepository,
	)
	stopSweeper := expirySweeper.Start(workerCtx)

	archiveWorker := screenings.NewArchiveWorker(
		bootstrap.Logger,
		bootstrap.InternalConfig,
		lockerService,
		archiveQueue,
		objectStorage,
	)
	stopArchive := archiveWorker.Start(workerCtx)

	bootstrap.WorkerStop = func() {
		stopSweeper()
		stopArchive()
	}

	routers.SetupRoutes(
		bootstrap.Router,
		bootstrap.InternalConfig,
		mw,
		redemptionLimiter,
		screeningController,
		verificationCodeController,
		programController,
		questionnaireController,
		partnerController,
	)

	return nil
}
