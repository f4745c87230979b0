package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		"DB_USER":    "efarm",
		"DB_NAME":    "efarm",
		"JWT_SECRET": "0123456789abcdef0123456789abcdef",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(lookupFrom(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.True(t, cfg.OrderAtomic)
	assert.False(t, cfg.Production())

	user, pass := cfg.AdminCredentials()
	assert.Equal(t, "efarm", user)
	assert.Empty(t, pass)
}

func TestLoadRequiresSecret(t *testing.T) {
	env := baseEnv()
	delete(env, "JWT_SECRET")
	_, err := load(lookupFrom(env))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsShortSecret(t *testing.T) {
	env := baseEnv()
	env["JWT_SECRET"] = "short"
	_, err := load(lookupFrom(env))
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["APP_ENV"] = "production"
	env["ORDER_ATOMIC"] = "false"
	env["SESSION_TTL"] = "30m"
	env["DB_ADMIN_USER"] = "root"
	env["DB_ADMIN_PASS"] = "secret"

	cfg, err := load(lookupFrom(env))
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.False(t, cfg.OrderAtomic)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)

	user, pass := cfg.AdminCredentials()
	assert.Equal(t, "root", user)
	assert.Equal(t, "secret", pass)
}

func TestLoadInvalidInt(t *testing.T) {
	env := baseEnv()
	env["BCRYPT_COST"] = "ten"
	_, err := load(lookupFrom(env))
	assert.Error(t, err)
}

func TestLoadInvalidBool(t *testing.T) {
	env := baseEnv()
	env["ORDER_ATOMIC"] = "flase"
	_, err := load(lookupFrom(env))
	assert.ErrorContains(t, err, "ORDER_ATOMIC")

	env["ORDER_ATOMIC"] = "Off"
	cfg, err := load(lookupFrom(env))
	require.NoError(t, err)
	assert.False(t, cfg.OrderAtomic)
}
