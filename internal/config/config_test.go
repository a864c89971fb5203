package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "paywall_variant", cfg.CookieName)
	assert.Equal(t, "50,50", cfg.Distribution)
	assert.Equal(t, "paywall-container", cfg.Container)
	assert.Equal(t, 30*24*time.Hour, cfg.Expiration())
	assert.Equal(t, []string{"a", "b", "c", "d"}, cfg.Variants)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.APIURL)
	assert.NoError(t, cfg.Validate())
}

func TestLocalURL(t *testing.T) {
	cfg := Config{Port: 9090}
	assert.Equal(t, "http://localhost:9090", cfg.LocalURL())

	cfg.APIURL = "https://collector.example.com/"
	assert.Equal(t, "https://collector.example.com", cfg.LocalURL())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PAYWALL_DISTRIBUTION", "25,25,25,25")
	t.Setenv("PAYWALL_CONTAINER", "#paywall")
	t.Setenv("PAYWALL_EXPIRATION_DAYS", "7")
	t.Setenv("PAYWALL_VARIANTS", "x,y")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "25,25,25,25", cfg.Distribution)
	assert.Equal(t, "paywall", cfg.Container)
	assert.Equal(t, 7*24*time.Hour, cfg.Expiration())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "whsec_test", cfg.StripeWebhookSecret)

	set, err := cfg.VariantSet()
	require.NoError(t, err)
	assert.Equal(t, "x,y", set.String())
}

func TestLoad_BadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	bad := cfg
	bad.Port = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.ExpirationDays = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Variants = []string{"a", "a"}
	assert.Error(t, bad.Validate())
}
