package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Oracle  OracleConfig
	Chain   ChainConfig
	GCP     GCPConfig
	PubSub  PubSubConfig
	Outbox  OutboxConfig
	Feature FeatureFlagsConfig

	RateLimit RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MINTMOTION_APP_ENV" required:"true"`
	Port         string `envconfig:"MINTMOTION_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MINTMOTION_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MINTMOTION_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MINTMOTION_DB_DSN"`
	Driver string `envconfig:"MINTMOTION_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MINTMOTION_DB_HOST"`
	LegacyPort     int    `envconfig:"MINTMOTION_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MINTMOTION_DB_USER"`
	LegacyPassword string `envconfig:"MINTMOTION_DB_PASSWORD"`
	LegacyName     string `envconfig:"MINTMOTION_DB_NAME"`
	LegacySSLMode  string `envconfig:"MINTMOTION_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MINTMOTION_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MINTMOTION_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MINTMOTION_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MINTMOTION_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MINTMOTION_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MINTMOTION_REDIS_ADDR"`
	Password     string        `envconfig:"MINTMOTION_REDIS_PASSWORD"`
	DB           int           `envconfig:"MINTMOTION_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MINTMOTION_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MINTMOTION_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MINTMOTION_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MINTMOTION_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MINTMOTION_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MINTMOTION_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MINTMOTION_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MINTMOTION_JWT_EXPIRATION_MINUTES" default:"60"`
}

type OracleConfig struct {
	BaseURL  string        `envconfig:"MINTMOTION_ORACLE_BASE_URL" default:"https://api.coingecko.com/api/v3"`
	APIKey   string        `envconfig:"MINTMOTION_ORACLE_API_KEY"`
	CacheTTL time.Duration `envconfig:"MINTMOTION_ORACLE_CACHE_TTL" default:"60s"`
}

type ChainConfig struct {
	RPCURL           string        `envconfig:"MINTMOTION_CHAIN_RPC_URL" required:"true"`
	MinConfirmations uint64        `envconfig:"MINTMOTION_CHAIN_MIN_CONFIRMATIONS" default:"1"`
	ReceiptPoll      time.Duration `envconfig:"MINTMOTION_CHAIN_RECEIPT_POLL" default:"3s"`
	PaymentGuardTTL  time.Duration `envconfig:"MINTMOTION_CHAIN_PAYMENT_GUARD_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MINTMOTION_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MINTMOTION_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MINTMOTION_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"MINTMOTION_PUBSUB_DOMAIN_TOPIC" required:"true"`
	RenderSubscription string `envconfig:"MINTMOTION_PUBSUB_RENDER_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"MINTMOTION_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"MINTMOTION_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"MINTMOTION_OUTBOX_MAX_ATTEMPTS" default:"10"`
	ProcessedTTL   time.Duration `envconfig:"MINTMOTION_OUTBOX_PROCESSED_TTL" default:"168h"`
}

type RateLimitConfig struct {
	LoginWindow  time.Duration `envconfig:"MINTMOTION_RATELIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit int           `envconfig:"MINTMOTION_RATELIMIT_LOGIN_IP_LIMIT" default:"10"`
	QuoteWindow  time.Duration `envconfig:"MINTMOTION_RATELIMIT_QUOTE_WINDOW" default:"1m"`
	QuoteIPLimit int           `envconfig:"MINTMOTION_RATELIMIT_QUOTE_IP_LIMIT" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MINTMOTION_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MINTMOTION_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
