package bootstrap_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger-be/internal/adapters/storage"
	"github.com/ammerola/stockledger-be/internal/pkg/bootstrap"
	"github.com/ammerola/stockledger-be/test/helpers"
)

func TestStorage(t *testing.T) {
	tests := []struct {
		name          string
		driver        string
		errorContains string
	}{
		{name: "default_is_local", driver: ""},
		{name: "explicit_local", driver: "local"},
		{name: "unknown_driver", driver: "ftp", errorContains: `unknown storage driver "ftp"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := helpers.LoadTestConfig()
			cfg.Storage.Driver = tt.driver
			cfg.Storage.LocalDir = t.TempDir()

			store, err := bootstrap.Storage(context.Background(), cfg, helpers.TestLogger())
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.Nil(t, store)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, &storage.LocalStorage{}, store)
		})
	}
}

func TestAsynqRedis(t *testing.T) {
	cfg := helpers.LoadTestConfig()
	cfg.Redis.Password = "pw"
	cfg.Asynq.RedisDB = 4

	opt := bootstrap.AsynqRedis(cfg)
	assert.Equal(t, "localhost:6379", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 4, opt.DB)
}

func TestRedis_Unreachable(t *testing.T) {
	cfg := helpers.LoadTestConfig()
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = "1"

	client, err := bootstrap.Redis(context.Background(), cfg, helpers.TestLogger())
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}
