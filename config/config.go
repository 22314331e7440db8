package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	goval "github.com/go-passwd/validator"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	StorageLocal = "local"
	StorageS3    = "s3"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Debug           bool          `envconfig:"debug"`
	Env             string        `envconfig:"env" default:"development"`
	Port            int           `envconfig:"port" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"shutdown_timeout" default:"10s"`

	DBDriver          string        `envconfig:"db_driver" default:"postgres"`
	DatabaseURL       string        `envconfig:"database_url"`
	PostgresHost      string        `envconfig:"postgres_host"`
	PostgresUser      string        `envconfig:"postgres_user"`
	PostgresDB        string        `envconfig:"postgres_db"`
	PostgresPort      int           `envconfig:"postgres_port" default:"5432"`
	PostgresPassword  string        `envconfig:"postgres_password"`
	PostgresSSLMode   string        `envconfig:"postgres_sslmode" default:"disable"`
	DBMaxOpenConns    int           `envconfig:"db_max_open_conns" default:"10"`
	DBMaxIdleConns    int           `envconfig:"db_max_idle_conns" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"db_conn_max_lifetime" default:"280s"`
	DBConnMaxIdleTime time.Duration `envconfig:"db_conn_max_idle_time" default:"60s"`

	StorageDriver      string   `envconfig:"storage_driver" default:"local"`
	UploadDir          string   `envconfig:"upload_dir" default:"./static/uploads"`
	UploadsRoute       string   `envconfig:"uploads_route" default:"/static/uploads"`
	PublicBaseURL      string   `envconfig:"public_base_url" default:"http://localhost:8080/static/uploads"`
	AllowedExtensions  []string `envconfig:"allowed_extensions" default:"png,jpg,jpeg,gif,webp"`
	MaxUploadBytes     int64    `envconfig:"max_upload_bytes" default:"33554432"`
	StripImageMetadata bool     `envconfig:"strip_image_metadata"`
	AWSRegion          string   `envconfig:"aws_region"`
	AWSBucket          string   `envconfig:"aws_bucket"`
	AWSAccessKeyID     string   `envconfig:"aws_access_key_id"`
	AWSSecretAccessKey string   `envconfig:"aws_secret_access_key"`
	S3Prefix           string   `envconfig:"s3_prefix" default:"uploads"`
	S3PublicBaseURL    string   `envconfig:"s3_public_base_url"`

	AdminHeader    string `envconfig:"admin_header" default:"x-admin-token"`
	AdminToken     string `envconfig:"admin_token"`
	AdminTokenHash string `envconfig:"admin_token_hash"`

	RateLimitBackend string        `envconfig:"rate_limit_backend" default:"memory"`
	RateLimitDaily   uint          `envconfig:"rate_limit_daily" default:"2000"`
	RateLimitHourly  uint          `envconfig:"rate_limit_hourly" default:"500"`
	CreateLimit      uint          `envconfig:"create_limit" default:"1"`
	CreateWindow     time.Duration `envconfig:"create_window" default:"20m"`
	RedisURL         string        `envconfig:"redis_url"`
	TrustedProxies   []string      `envconfig:"trusted_proxies" default:"127.0.0.1"`

	AllowedOrigins []string `envconfig:"allowed_origins" default:"*"`
	MaxPerPage     int      `envconfig:"max_per_page" default:"100"`
	SentryDSN      string   `envconfig:"sentry_dsn"`

	LogLevel      string `envconfig:"log_level" default:"INFO"`
	LogFile       string `envconfig:"log_file"`
	LogJSON       bool   `envconfig:"log_json"`
	LogNoColor    bool   `envconfig:"log_no_color"`
	LogMaxSize    int    `envconfig:"log_max_size" default:"128"`
	LogMaxBackups int    `envconfig:"log_max_backups" default:"5"`
	LogMaxAge     int    `envconfig:"log_max_age" default:"16"`
	LogCompress   bool   `envconfig:"log_compress"`
}

// Load reads the configuration from the environment. Outside release mode a
// .env file (or the one passed in envFile) is loaded first.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = "./.env"
	}
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("reportes", c)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks combinations envconfig cannot express on its own.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" && (c.PostgresHost == "" || c.PostgresUser == "" || c.PostgresDB == "") {
			return errors.New("database_url or postgres_host/postgres_user/postgres_db must be set")
		}
	case DriverSQLite:
		if c.DatabaseURL == "" {
			return errors.New("database_url must point at a sqlite file")
		}
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}

	switch c.StorageDriver {
	case StorageLocal:
		if c.UploadDir == "" {
			return errors.New("upload_dir is required for local storage")
		}
	case StorageS3:
		if c.AWSBucket == "" || c.AWSRegion == "" {
			return errors.New("aws_bucket and aws_region are required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage_driver %q", c.StorageDriver)
	}

	switch c.RateLimitBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("redis_url is required when rate_limit_backend=redis")
		}
	default:
		return fmt.Errorf("unsupported rate_limit_backend %q", c.RateLimitBackend)
	}

	if c.AdminTokenHash == "" {
		if err := ValidateAdminToken(c.AdminToken); err != nil {
			return errors.Wrap(err, "admin_token")
		}
	}
	if len(c.AllowedExtensions) == 0 {
		return errors.New("allowed_extensions cannot be empty")
	}
	if c.CreateLimit == 0 || c.CreateWindow <= 0 {
		return errors.New("create_limit and create_window must be positive")
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
	c.S3PublicBaseURL = strings.TrimRight(c.S3PublicBaseURL, "/")
	return nil
}

// ValidateAdminToken rejects shared secrets that are trivially guessable.
func ValidateAdminToken(token string) error {
	v := goval.New(
		goval.MinLength(8, errors.New("must be at least 8 characters")),
		goval.MaxLength(256, errors.New("cannot be more than 256 characters")),
	)
	return v.Validate(token)
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// PostgresDSN builds the connection string from the discrete postgres settings
// when DATABASE_URL is not provided.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode)
}
