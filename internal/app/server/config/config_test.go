package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid local",
			cfg: Config{
				Env:  EnvLocal,
				DB:   db{DatabaseURI: "postgres://localhost/wellnest"},
				Auth: auth{Secret: defaultSecret},
			},
		},
		{
			name:    "missing database",
			cfg:     Config{Env: EnvLocal, Auth: auth{Secret: "s"}},
			wantErr: true,
		},
		{
			name: "default secret in prod",
			cfg: Config{
				Env:  EnvProd,
				DB:   db{DatabaseURI: "postgres://db/wellnest"},
				Auth: auth{Secret: defaultSecret},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_validateAuth(t *testing.T) {
	cfg := Config{Env: EnvLocal, Auth: auth{Secret: "s"}}
	assert.NoError(t, cfg.validateAuth())

	cfg.Auth.Secret = ""
	assert.Error(t, cfg.validateAuth())
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://localhost/wellnest")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TOKEN_TTL", "1h")

	cfg := load()

	assert.Equal(t, "postgres://localhost/wellnest", cfg.DB.DatabaseURI)
	assert.Equal(t, defaultMigrations, cfg.DB.Migrations)
	assert.Equal(t, defaultRunAddress, cfg.Server.RunAddress)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Ledger.RedisURL)
	assert.Equal(t, 168*time.Hour, cfg.Ledger.TTL)
}
