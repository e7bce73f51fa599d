// internal/pkg/config/config_test.go
package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestViper(env string) *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v, env)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "stockledger-api", cfg.App.Name)
	assert.Equal(t, 2*time.Hour, cfg.Security.JWTExpiration)
	assert.Equal(t, map[string]int{"critical": 6, "default": 3, "low": 1}, cfg.Asynq.Queues)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Inventory.LowStockThreshold)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_MAX_CONNECTIONS", "40")
	t.Setenv("JWT_EXPIRATION", "30m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORAGE_DRIVER", "local")
	t.Setenv("INVENTORY_LOW_STOCK_THRESHOLD", "7")

	cfg, err := Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, int32(40), cfg.Database.MaxConnections)
	assert.Equal(t, 30*time.Minute, cfg.Security.JWTExpiration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, 7, cfg.Inventory.LowStockThreshold)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load(discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredConfig)
}

func TestValidators(t *testing.T) {
	base := func() *Config {
		v := newTestViper("test")
		return fromViper(v, "test")
	}

	tests := []struct {
		name          string
		mutate        func(c *Config)
		validator     Validator
		expectedError error
		errorContains string
	}{
		{
			name:      "basic_accepts_defaults",
			mutate:    func(*Config) {},
			validator: &BasicValidator{},
		},
		{
			name:          "basic_requires_database_host",
			mutate:        func(c *Config) { c.Database.Host = "" },
			validator:     &BasicValidator{},
			expectedError: ErrMissingRequiredConfig,
		},
		{
			name:          "basic_rejects_unknown_storage_driver",
			mutate:        func(c *Config) { c.Storage.Driver = "ftp" },
			validator:     &BasicValidator{},
			errorContains: "unknown storage driver",
		},
		{
			name:          "production_rejects_default_secret",
			mutate:        func(c *Config) { c.Database.SSLMode = "require"; c.Security.SecureHeaders = true },
			validator:     &ProductionValidator{},
			errorContains: "default JWT secret",
		},
		{
			name:          "security_rejects_short_secret",
			mutate:        func(c *Config) { c.Security.JWTSecret = "short" },
			validator:     &SecurityValidator{},
			errorContains: "at least 32 characters",
		},
		{
			name: "security_rejects_wildcard_origin_in_production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
			},
			validator:     &SecurityValidator{},
			errorContains: "wildcard origin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := tt.validator.Validate(cfg)
			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.errorContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

type staticSecrets map[string]string

func (s staticSecrets) GetSecrets(_ context.Context, keys []string) (map[string]string, error) {
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := s[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func TestApplySecrets(t *testing.T) {
	cfg := fromViper(newTestViper("test"), "test")

	err := ApplySecrets(context.Background(), cfg, staticSecrets{
		SecretJWT:        "from-secrets-manager",
		SecretDBPassword: "db-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "from-secrets-manager", cfg.Security.JWTSecret)
	assert.Equal(t, "db-pass", cfg.Database.Password)
}

type fakeSecretsClient struct {
	calls  int
	secret string
	err    error
}

func (f *fakeSecretsClient) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{Name: in.SecretId, SecretString: aws.String(f.secret)}, nil
}

func TestAWSSecretsManager_CachesSecret(t *testing.T) {
	client := &fakeSecretsClient{secret: `{"JWT_SECRET":"s3cr3t","DB_PASSWORD":"pw"}`}
	sm := newAWSSecretsManager(client, "stockledger/prod", discardLogger())

	got, err := sm.GetSecrets(context.Background(), []string{SecretJWT})
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got[SecretJWT])

	got, err = sm.GetSecrets(context.Background(), []string{SecretDBPassword, "MISSING"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{SecretDBPassword: "pw"}, got)
	assert.Equal(t, 1, client.calls)
}

func TestAWSSecretsManager_Errors(t *testing.T) {
	sm := newAWSSecretsManager(&fakeSecretsClient{err: errors.New("access denied")}, "x", discardLogger())
	_, err := sm.GetSecrets(context.Background(), []string{SecretJWT})
	assert.ErrorContains(t, err, "failed to get secret value")

	sm = newAWSSecretsManager(&fakeSecretsClient{secret: "not json"}, "x", discardLogger())
	_, err = sm.GetSecrets(context.Background(), []string{SecretJWT})
	assert.ErrorContains(t, err, "failed to parse secret JSON")
}

func TestParseQueues(t *testing.T) {
	assert.Equal(t, map[string]int{"critical": 6, "low": 1}, parseQueues("critical:6, low:1, broken"))
	assert.Equal(t, map[string]int{"default": 1}, parseQueues(""))
}
