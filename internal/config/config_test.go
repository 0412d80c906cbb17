package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAuthMode(t *testing.T) {
	for raw, want := range map[string]AuthMode{
		"totp":    ModeTOTP,
		"SMS":     ModeSMS,
		" oauth ": ModeOAuth,
	} {
		mode, err := ParseAuthMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, mode)
	}

	_, err := ParseAuthMode("ldap")
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeTOTP, cfg.AuthMode)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, 1, cfg.TOTPSkew)
	assert.Equal(t, "246810", cfg.DemoCode)
	assert.Equal(t, "forseti", cfg.DefaultAdminUsername)
	assert.False(t, cfg.DemoMode)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_MODE", "sms")
	t.Setenv("SMS_ACCOUNT_SID", "AC123")
	t.Setenv("SMS_AUTH_TOKEN", "tok")
	t.Setenv("CHALLENGE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeSMS, cfg.AuthMode)
	assert.Equal(t, "90s", cfg.ChallengeTTL.String())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("sms mode requires provider credentials", func(t *testing.T) {
		cfg := base()
		cfg.AuthMode = ModeSMS
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SMS_ACCOUNT_SID")
	})

	t.Run("oauth mode requires provider and state secret", func(t *testing.T) {
		cfg := base()
		cfg.AuthMode = ModeOAuth
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OAuth provider")
		assert.Contains(t, err.Error(), "OAUTH_STATE_SECRET")
	})

	t.Run("demo mode requires sqlite", func(t *testing.T) {
		cfg := base()
		cfg.DemoMode = true
		cfg.DatabaseURL = "postgres://localhost/flowd"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
	})

	t.Run("skew bounds", func(t *testing.T) {
		cfg := base()
		cfg.TOTPSkew = 9
		assert.Error(t, cfg.Validate())
	})

	t.Run("trace sample ratio bounds", func(t *testing.T) {
		cfg := base()
		cfg.OTELTraceSampleRatio = 1.5
		assert.Error(t, cfg.Validate())
	})
}

func TestSQLiteHelpers(t *testing.T) {
	assert.True(t, IsSQLiteURL("file:flowd.sqlite"))
	assert.True(t, IsSQLiteURL("flowd.sqlite"))
	assert.False(t, IsSQLiteURL("postgres://localhost/flowd"))
	assert.False(t, IsSQLiteURL("host=localhost user=flowd"))

	assert.Equal(t, "flowd.sqlite", SQLitePath("file:flowd.sqlite?cache=shared"))
	assert.Equal(t, "flowd.sqlite", SQLitePath("flowd.sqlite"))
}
