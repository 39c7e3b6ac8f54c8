package config

type InternalConfig struct {
	App              App
	JWT              AppJWT
	Minio            AppMinio
	RabbitMQ         AppRabbitMQ
	VerificationCode AppVerificationCode
	Sweeper          AppSweeper
	Archive          AppArchive
}

type App struct {
	Env                        string
	Port                       string
	Version                    string
	Address                    string
	Timezone                   string
	EndpointPrefix             string
	MaxRequests                int
	ShutdownTimeoutInSeconds   int
	RequestBodyLimitInMegabyte int
	// PartnerAPIKeyRateLimit is requests per second for key-authenticated
	// partner traffic; unauthenticated traffic uses MaxRequests.
	PartnerAPIKeyRateLimit int
}

type AppJWT struct {
	Secret        string
	ExpTimeInHour int
}

type AppMinio struct {
	ArchiveBucketName                   string
	PreSignedUrlObjectExpiryTimeInHours int
}

type AppRabbitMQ struct {
	PrefetchCount int
}

type AppVerificationCode struct {
	// DefaultExpiryTimeInHours applies when an issue request leaves the
	// expiry unset. An explicit zero in the request is honored as-is.
	DefaultExpiryTimeInHours int
}

type AppSweeper struct {
	IntervalInMinutes int
	LockTTLInSeconds  int
}

type AppArchive struct {
	WorkerIntervalInSeconds int
	BatchSize               int
	// MaxRetryCount moves an archive job to the dead-letter queue once its
	// failed count reaches this value.
	MaxRetryCount int
}
