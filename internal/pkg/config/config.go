// internal/pkg/config/config.go
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequiredConfig marks a required setting that was not provided
var ErrMissingRequiredConfig = errors.New("missing required configuration")

const defaultDevSecret = "development-secret-change-in-production"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Asynq     AsynqConfig
	AWS       AWSConfig
	Storage   StorageConfig
	Security  SecurityConfig
	Server    ServerConfig
	Inventory InventoryConfig
	Notify    NotifyConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `required:"true"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string `required:"true"`
	User               string `required:"true"`
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
	AutoMigrate        bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string `required:"true"`
	Port         string `required:"true"`
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	TTL          time.Duration
}

// Addr joins host and port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
	CleanupCron     string
	MetricsAddr     string // worker /metrics listener; empty disables it
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // localstack or MinIO in development
	UsePathStyle    bool
	SecretName      string // Secrets Manager entry holding JWT_SECRET and DB_PASSWORD
}

// StorageConfig selects where uploads and reports are kept
type StorageConfig struct {
	Driver          string // s3 or local
	LocalDir        string
	TempDir         string
	MaxUploadMB     int
	ExportRetention time.Duration
	ImportRetention time.Duration
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	JWTSecret         string `required:"true"`
	JWTExpiration     time.Duration
	JWTIssuer         string
	BcryptCost        int
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
	RequestIDHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
	EnableMetrics   bool
}

// InventoryConfig holds stock alerting settings
type InventoryConfig struct {
	LowStockThreshold int
}

// NotifyConfig holds the SMTP relay used for stock alerts.
// An empty SMTPHost logs alerts instead of mailing them.
type NotifyConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	From         string
}

// Load reads configuration from the environment (and .env in development)
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v, env)

	cfg := fromViper(v, env)

	if cfg.AWS.SecretName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sm, err := NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.AWS.SecretName, logger)
		if err != nil {
			return nil, err
		}
		if err := ApplySecrets(ctx, cfg, sm); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func fromViper(v *viper.Viper, env string) *Config {
	return &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Environment: env,
			Version:     v.GetString("app.version"),
			LogLevel:    v.GetString("log.level"),
			LogFormat:   v.GetString("log.format"),
			Debug:       v.GetBool("app.debug"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("db.host"),
			Port:               v.GetString("db.port"),
			User:               v.GetString("db.user"),
			Password:           v.GetString("db.password"),
			Name:               v.GetString("db.name"),
			SSLMode:            v.GetString("db.ssl.mode"),
			MaxConnections:     v.GetInt32("db.max.connections"),
			MinConnections:     v.GetInt32("db.min.connections"),
			MaxConnLifetime:    v.GetDuration("db.connection.lifetime"),
			MaxConnIdleTime:    v.GetDuration("db.idle.time"),
			HealthCheckPeriod:  v.GetDuration("db.health.check.period"),
			ConnectTimeout:     v.GetDuration("db.connect.timeout"),
			EnableQueryLogging: v.GetBool("db.query.logging"),
			AutoMigrate:        v.GetBool("db.auto.migrate"),
		},
		Redis: RedisConfig{
			Host:         v.GetString("redis.host"),
			Port:         v.GetString("redis.port"),
			Password:     v.GetString("redis.password"),
			DB:           v.GetInt("redis.db"),
			MaxRetries:   v.GetInt("redis.max.retries"),
			DialTimeout:  v.GetDuration("redis.dial.timeout"),
			ReadTimeout:  v.GetDuration("redis.read.timeout"),
			WriteTimeout: v.GetDuration("redis.write.timeout"),
			PoolSize:     v.GetInt("redis.pool.size"),
			MinIdleConns: v.GetInt("redis.min.idle.conns"),
			TTL:          v.GetDuration("redis.ttl"),
		},
		Asynq: AsynqConfig{
			RedisDB:         v.GetInt("asynq.redis.db"),
			Concurrency:     v.GetInt("asynq.concurrency"),
			Queues:          parseQueues(v.GetString("asynq.queues")),
			StrictPriority:  v.GetBool("asynq.strict.priority"),
			RetryMax:        v.GetInt("asynq.retry.max"),
			ShutdownTimeout: v.GetDuration("asynq.shutdown.timeout"),
			CleanupCron:     v.GetString("asynq.cleanup.cron"),
			MetricsAddr:     v.GetString("asynq.metrics.addr"),
		},
		AWS: AWSConfig{
			Region:          v.GetString("aws.region"),
			AccessKeyID:     v.GetString("aws.access.key.id"),
			SecretAccessKey: v.GetString("aws.secret.access.key"),
			S3Bucket:        v.GetString("aws.s3.bucket"),
			S3Endpoint:      v.GetString("aws.s3.endpoint"),
			UsePathStyle:    v.GetBool("aws.s3.path.style"),
			SecretName:      v.GetString("aws.secret.name"),
		},
		Storage: StorageConfig{
			Driver:          v.GetString("storage.driver"),
			LocalDir:        v.GetString("storage.local.dir"),
			TempDir:         v.GetString("temp.dir"),
			MaxUploadMB:     v.GetInt("storage.max.upload.mb"),
			ExportRetention: v.GetDuration("storage.export.retention"),
			ImportRetention: v.GetDuration("storage.import.retention"),
		},
		Security: SecurityConfig{
			JWTSecret:         v.GetString("jwt.secret"),
			JWTExpiration:     v.GetDuration("jwt.expiration"),
			JWTIssuer:         v.GetString("jwt.issuer"),
			BcryptCost:        v.GetInt("bcrypt.cost"),
			RateLimitRequests: v.GetInt("rate.limit.requests"),
			RateLimitDuration: v.GetDuration("rate.limit.duration"),
			AllowedOrigins:    splitList(v.GetString("allowed.origins")),
			SecureHeaders:     v.GetBool("secure.headers"),
			RequestIDHeader:   v.GetString("request.id.header"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetString("server.port"),
			ReadTimeout:     v.GetDuration("server.read.timeout"),
			WriteTimeout:    v.GetDuration("server.write.timeout"),
			IdleTimeout:     v.GetDuration("server.idle.timeout"),
			RequestTimeout:  v.GetDuration("server.request.timeout"),
			MaxHeaderBytes:  v.GetInt("server.max.header.bytes"),
			GracefulTimeout: v.GetDuration("server.graceful.timeout"),
			EnableMetrics:   v.GetBool("enable.metrics"),
		},
		Inventory: InventoryConfig{
			LowStockThreshold: v.GetInt("inventory.low.stock.threshold"),
		},
		Notify: NotifyConfig{
			SMTPHost:     v.GetString("smtp.host"),
			SMTPPort:     v.GetInt("smtp.port"),
			SMTPUser:     v.GetString("smtp.user"),
			SMTPPassword: v.GetString("smtp.password"),
			From:         v.GetString("smtp.from"),
		},
	}
}

// setDefaults registers every key so AutomaticEnv can resolve it.
// Key "db.max.connections" reads DB_MAX_CONNECTIONS.
func setDefaults(v *viper.Viper, env string) {
	dev := env == "development" || env == "local"
	prod := env == "production"

	v.SetDefault("app.name", "stockledger-api")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.debug", dev)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "stockledger")
	v.SetDefault("db.password", "stockledger_dev")
	v.SetDefault("db.name", "stockledger")
	v.SetDefault("db.ssl.mode", "disable")
	v.SetDefault("db.max.connections", 25)
	v.SetDefault("db.min.connections", 5)
	v.SetDefault("db.connection.lifetime", time.Hour)
	v.SetDefault("db.idle.time", 30*time.Minute)
	v.SetDefault("db.health.check.period", time.Minute)
	v.SetDefault("db.connect.timeout", 10*time.Second)
	v.SetDefault("db.query.logging", dev)
	v.SetDefault("db.auto.migrate", !prod)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max.retries", 3)
	v.SetDefault("redis.dial.timeout", 5*time.Second)
	v.SetDefault("redis.read.timeout", 3*time.Second)
	v.SetDefault("redis.write.timeout", 3*time.Second)
	v.SetDefault("redis.pool.size", 10)
	v.SetDefault("redis.min.idle.conns", 2)
	v.SetDefault("redis.ttl", time.Hour)

	v.SetDefault("asynq.redis.db", 1)
	v.SetDefault("asynq.concurrency", 10)
	v.SetDefault("asynq.queues", "critical:6,default:3,low:1")
	v.SetDefault("asynq.strict.priority", false)
	v.SetDefault("asynq.retry.max", 3)
	v.SetDefault("asynq.shutdown.timeout", 30*time.Second)
	v.SetDefault("asynq.cleanup.cron", "0 3 * * *")
	v.SetDefault("asynq.metrics.addr", ":9091")

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.access.key.id", "")
	v.SetDefault("aws.secret.access.key", "")
	v.SetDefault("aws.s3.bucket", "stockledger-files")
	v.SetDefault("aws.s3.endpoint", "")
	v.SetDefault("aws.s3.path.style", dev)
	v.SetDefault("aws.secret.name", "")

	v.SetDefault("storage.driver", "s3")
	v.SetDefault("storage.local.dir", "./data/files")
	v.SetDefault("temp.dir", os.TempDir())
	v.SetDefault("storage.max.upload.mb", 20)
	v.SetDefault("storage.export.retention", 7*24*time.Hour)
	v.SetDefault("storage.import.retention", 30*24*time.Hour)

	if prod {
		v.SetDefault("jwt.secret", "")
	} else {
		v.SetDefault("jwt.secret", defaultDevSecret)
	}
	v.SetDefault("jwt.expiration", 2*time.Hour)
	v.SetDefault("jwt.issuer", "stockledger")
	v.SetDefault("bcrypt.cost", 10)
	v.SetDefault("rate.limit.requests", 100)
	v.SetDefault("rate.limit.duration", time.Minute)
	v.SetDefault("allowed.origins", "*")
	v.SetDefault("secure.headers", prod)
	v.SetDefault("request.id.header", "X-Request-ID")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read.timeout", 15*time.Second)
	v.SetDefault("server.write.timeout", 30*time.Second)
	v.SetDefault("server.idle.timeout", 60*time.Second)
	v.SetDefault("server.request.timeout", 20*time.Second)
	v.SetDefault("server.max.header.bytes", 1<<20)
	v.SetDefault("server.graceful.timeout", 30*time.Second)
	v.SetDefault("enable.metrics", true)

	v.SetDefault("inventory.low.stock.threshold", 3)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "alerts@stockledger.local")
}

// Validate runs the validators that apply to the environment
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{}, &SecurityValidator{})
	}
	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err == nil && name != "" {
			queues[name] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
