// test/helpers/helpers.go
package helpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ammerola/stockledger-be/internal/adapters/db"
	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/pkg/config"
)

// TestPassword is the plain-text password behind every CreateTestUser hash
const TestPassword = "secret-pass"

// TestJWTSecret signs tokens in handler and e2e tests
const TestJWTSecret = "test-secret-0123456789abcdef0123456789"

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// SetupTestDB starts a PostgreSQL container and applies the embedded migrations
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_stockledger",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := db.DefaultConfig()
	dbConfig.Host = "localhost"
	dbConfig.Port = resource.GetPort("5432/tcp")
	dbConfig.User = "test"
	dbConfig.Password = "test"
	dbConfig.Database = "test_stockledger"
	dbConfig.SSLMode = "disable"
	dbConfig.MaxConnections = 20
	dbConfig.MinConnections = 1
	dbConfig.EnableQueryLogging = testing.Verbose()

	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	err = db.RunMigrationsWithRetry(context.Background(), &db.MigrationConfig{
		DatabaseURL: dbConfig.URL(),
		UseEmbedded: true,
	}, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-memory Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{Client: client, Server: mr}
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "test",
			Password:       "test",
			Name:           "test_stockledger",
			SSLMode:        "disable",
			MaxConnections: 10,
			MinConnections: 2,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Asynq: config.AsynqConfig{
			Concurrency: 2,
			Queues:      map[string]int{"critical": 6, "default": 3, "low": 1},
			RetryMax:    1,
		},
		Storage: config.StorageConfig{
			Driver:          "local",
			LocalDir:        os.TempDir(),
			TempDir:         os.TempDir(),
			MaxUploadMB:     5,
			ExportRetention: time.Hour,
			ImportRetention: time.Hour,
		},
		Security: config.SecurityConfig{
			JWTSecret:         TestJWTSecret,
			JWTExpiration:     2 * time.Hour,
			JWTIssuer:         "stockledger-test",
			BcryptCost:        bcrypt.MinCost,
			RateLimitRequests: 1000,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			RequestIDHeader:   "X-Request-ID",
		},
		Server: config.ServerConfig{
			Host:           "localhost",
			Port:           "8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Inventory: config.InventoryConfig{LowStockThreshold: 3},
	}
}

// CreateTestUser builds an enabled user whose password is TestPassword
func CreateTestUser(overrides ...func(*domain.User)) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New()
	user := &domain.User{
		ID:           id,
		FirstName:    "Test",
		LastName:     "User",
		Email:        fmt.Sprintf("user-%s@example.com", id.String()[:8]),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Enabled:      true,
		JoinedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateTestProduct builds an active product with five units on hand
func CreateTestProduct(ownerID uuid.UUID, overrides ...func(*domain.StockItem)) *domain.StockItem {
	now := time.Now().UTC().Truncate(time.Microsecond)
	item := &domain.StockItem{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Kind:    domain.KindProduct,
		Name:    "Widget",
		State:   domain.StateActive,
		Product: &domain.ProductDetails{
			PurchasePrice: decimal.NewFromInt(4),
			SalePrice:     decimal.NewFromInt(10),
			Quantity:      5,
		},
		RegisteredAt: now,
		UpdatedAt:    now,
	}

	for _, override := range overrides {
		override(item)
	}
	return item
}

// CreateTestService builds an active service costing 100
func CreateTestService(ownerID uuid.UUID, overrides ...func(*domain.StockItem)) *domain.StockItem {
	now := time.Now().UTC().Truncate(time.Microsecond)
	item := &domain.StockItem{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Kind:    domain.KindService,
		Name:    "Consulting",
		State:   domain.StateActive,
		Service: &domain.ServiceDetails{
			Description: "One hour of consulting",
			Cost:        decimal.NewFromInt(100),
		},
		RegisteredAt: now,
		UpdatedAt:    now,
	}

	for _, override := range overrides {
		override(item)
	}
	return item
}

// SeedUser inserts a fresh user and returns it
func SeedUser(t *testing.T, pool *pgxpool.Pool, overrides ...func(*domain.User)) *domain.User {
	t.Helper()

	user := CreateTestUser(overrides...)
	err := db.NewUserRepository(pool, TestLogger()).Create(context.Background(), user)
	require.NoError(t, err, "Failed to seed user")
	return user
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	for _, table := range []string{"sale_items", "sales", "stock_items", "users"} {
		_, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// CreateTempFile creates a temporary file for testing
func CreateTempFile(t *testing.T, content []byte, extension string) string {
	t.Helper()

	file, err := os.CreateTemp(t.TempDir(), fmt.Sprintf("test-*%s", extension))
	require.NoError(t, err, "Failed to create temp file")

	_, err = file.Write(content)
	require.NoError(t, err, "Failed to write to temp file")
	require.NoError(t, file.Close())

	return file.Name()
}
