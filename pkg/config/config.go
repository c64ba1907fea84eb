package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
	Storage       StorageConfig
	GCP           GCPConfig
	GCS           GCSConfig
	S3            S3Config
	MercadoPago   MercadoPagoConfig
	Email         EmailConfig
	Shop          ShopConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PETFOOD_APP_ENV" required:"true"`
	Port         string `envconfig:"PETFOOD_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PETFOOD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PETFOOD_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"PETFOOD_LOG_FORMAT" default:"json"`
	BackendURL   string `envconfig:"NEXT_PUBLIC_BACKEND_URL" required:"true"`
	FrontendURL  string `envconfig:"NEXT_PUBLIC_FRONTEND_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"PETFOOD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DATABASE_URL"`
	Driver string `envconfig:"PETFOOD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PETFOOD_DB_HOST"`
	LegacyPort     int    `envconfig:"PETFOOD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PETFOOD_DB_USER"`
	LegacyPassword string `envconfig:"PETFOOD_DB_PASSWORD"`
	LegacyName     string `envconfig:"PETFOOD_DB_NAME"`
	LegacySSLMode  string `envconfig:"PETFOOD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PETFOOD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PETFOOD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PETFOOD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PETFOOD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PETFOOD_REDIS_URL"`
	Address      string        `envconfig:"PETFOOD_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"PETFOOD_REDIS_PASSWORD"`
	DB           int           `envconfig:"PETFOOD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PETFOOD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PETFOOD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PETFOOD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PETFOOD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PETFOOD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" required:"true"`
	Issuer string `envconfig:"PETFOOD_JWT_ISSUER" default:"petfood-api"`
	// Access tokens live seven days.
	ExpirationMinutes      int `envconfig:"PETFOOD_JWT_EXPIRATION_MINUTES" default:"10080"`
	RefreshTokenTTLMinutes int `envconfig:"PETFOOD_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PETFOOD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PETFOOD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PETFOOD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PETFOOD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PETFOOD_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PETFOOD_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PETFOOD_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PETFOOD_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PETFOOD_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PETFOOD_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PETFOOD_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type RateLimitConfig struct {
	Disabled bool          `envconfig:"PETFOOD_RATE_LIMIT_DISABLED" default:"false"`
	Requests int           `envconfig:"PETFOOD_RATE_LIMIT_REQUESTS" default:"120"`
	Window   time.Duration `envconfig:"PETFOOD_RATE_LIMIT_WINDOW" default:"1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PETFOOD_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PETFOOD_AUTO_MIGRATE" default:"false"`
}

type StorageConfig struct {
	Provider     string `envconfig:"PETFOOD_STORAGE_PROVIDER" default:"gcs"`
	ObjectPrefix string `envconfig:"PETFOOD_STORAGE_OBJECT_PREFIX" default:"productos"`
	MaxUploadMB  int    `envconfig:"PETFOOD_MAX_UPLOAD_MB" default:"10"`
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case StorageProviderGCS, StorageProviderS3:
		return nil
	default:
		return fmt.Errorf("unsupported storage provider %q", s.Provider)
	}
}

// MaxUploadBytes returns the per-request multipart ceiling.
func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PETFOOD_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PETFOOD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PETFOOD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"PETFOOD_GCS_BUCKET_NAME"`
	PublicHost string `envconfig:"PETFOOD_GCS_PUBLIC_HOST" default:"https://storage.googleapis.com"`
}

type S3Config struct {
	Bucket     string `envconfig:"PETFOOD_S3_BUCKET"`
	Region     string `envconfig:"PETFOOD_S3_REGION" default:"us-east-1"`
	PublicBase string `envconfig:"PETFOOD_S3_PUBLIC_BASE_URL"`
	Endpoint   string `envconfig:"PETFOOD_S3_ENDPOINT"`
	AccessKey  string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretKey  string `envconfig:"AWS_SECRET_ACCESS_KEY"`
}

type MercadoPagoConfig struct {
	AccessToken   string        `envconfig:"MP_ACCESS_TOKEN" required:"true"`
	WebhookSecret string        `envconfig:"MP_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"PETFOOD_MP_BASE_URL" default:"https://api.mercadopago.com"`
	Timeout       time.Duration `envconfig:"PETFOOD_MP_TIMEOUT" default:"10s"`
	PreferenceTTL time.Duration `envconfig:"PETFOOD_MP_PREFERENCE_TTL" default:"24h"`
	DedupTTL      time.Duration `envconfig:"PETFOOD_MP_WEBHOOK_DEDUP_TTL" default:"168h"`
	Sandbox       bool          `envconfig:"PETFOOD_MP_SANDBOX" default:"false"`
}

type EmailConfig struct {
	User         string  `envconfig:"EMAIL_USER"`
	Password     string  `envconfig:"EMAIL_PASS"`
	Host         string  `envconfig:"PETFOOD_SMTP_HOST" default:"smtp.gmail.com"`
	Port         int     `envconfig:"PETFOOD_SMTP_PORT" default:"587"`
	From         string  `envconfig:"PETFOOD_EMAIL_FROM"`
	ContactInbox string  `envconfig:"PETFOOD_CONTACT_INBOX"`
	RatePerSec   float64 `envconfig:"PETFOOD_EMAIL_RATE_PER_SEC" default:"2"`
}

// Sender returns the From address, falling back to the SMTP user.
func (e EmailConfig) Sender() string {
	if strings.TrimSpace(e.From) != "" {
		return e.From
	}
	return e.User
}

// Inbox returns the address that receives contact form messages.
func (e EmailConfig) Inbox() string {
	if strings.TrimSpace(e.ContactInbox) != "" {
		return e.ContactInbox
	}
	return e.User
}

type ShopConfig struct {
	Currency              string   `envconfig:"PETFOOD_CURRENCY" default:"MXN"`
	FreeShippingThreshold string   `envconfig:"PETFOOD_FREE_SHIPPING_THRESHOLD" default:"999"`
	ShippingFee           string   `envconfig:"PETFOOD_SHIPPING_FEE" default:"199"`
	AdminEmailDomain      string   `envconfig:"PETFOOD_ADMIN_EMAIL_DOMAIN" default:"petfood.mx"`
	AdminRoles            []string `envconfig:"PETFOOD_ADMIN_ROLES" default:"Director,Supervisor"`
}

// ShippingRule parses the shipping threshold and fee.
func (s ShopConfig) ShippingRule() (threshold, fee decimal.Decimal, err error) {
	threshold, err = decimal.NewFromString(strings.TrimSpace(s.FreeShippingThreshold))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parsing free shipping threshold: %w", err)
	}
	fee, err = decimal.NewFromString(strings.TrimSpace(s.ShippingFee))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parsing shipping fee: %w", err)
	}
	return threshold, fee, nil
}

type CronConfig struct {
	Secret         string        `envconfig:"CRON_SECRET"`
	Interval       time.Duration `envconfig:"PETFOOD_CRON_INTERVAL" default:"1h"`
	ExpiredMaxAge  time.Duration `envconfig:"PETFOOD_CRON_EXPIRED_MAX_AGE" default:"24h"`
	RejectedMaxAge time.Duration `envconfig:"PETFOOD_CRON_REJECTED_MAX_AGE" default:"3h"`
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
