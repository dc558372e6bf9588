package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "storefront", cfg.Mongo.Database)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.Orders.StrictTransitions)
	assert.False(t, cfg.Orders.EnforceOwnership)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":               "s3cret",
		"TOKEN_TTL":                "90m",
		"STORE_DRIVER":             "memory",
		"REDIS_ADDR":               "redis:6379",
		"ORDER_STRICT_TRANSITIONS": "true",
		"ADMIN_EMAIL":              "root@example.com",
		"ADMIN_PASSWORD":           "change-me-now",
	}))
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Orders.StrictTransitions)
	assert.Equal(t, "Administrator", cfg.Admin.FullName)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":       {},
		"unknown store":        {"JWT_SECRET": "s", "STORE_DRIVER": "postgres"},
		"cheap bcrypt":         {"JWT_SECRET": "s", "BCRYPT_COST": "4"},
		"admin without password": {"JWT_SECRET": "s", "ADMIN_EMAIL": "root@example.com"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(env))
			assert.Error(t, err)
		})
	}
}
