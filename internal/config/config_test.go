package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_PORT", "MIN_DONATION_AMOUNT", "MAX_DONATION_AMOUNT",
		"DONATION_MILESTONES", "QUEUE_CONCURRENCY", "QUEUE_MAX_RETRY",
		"QUEUE_RETRY_BASE", "CACHE_TTL", "ACCESS_TOKEN_TTL",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.True(t, cfg.MinDonationAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, cfg.MaxDonationAmount.Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, []int64{2, 5, 10, 25, 50, 100}, cfg.Milestones)
	assert.Equal(t, 5, cfg.QueueConcurrency)
	assert.Equal(t, 3, cfg.QueueMaxRetry)
	assert.Equal(t, time.Second, cfg.QueueRetryBase)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("MIN_DONATION_AMOUNT", "50.50")
	t.Setenv("DONATION_MILESTONES", "1, 3, 7")
	t.Setenv("QUEUE_RETRY_BASE", "250ms")
	t.Setenv("QUEUE_CONCURRENCY", "20")

	cfg := LoadConfig()
	assert.True(t, cfg.MinDonationAmount.Equal(decimal.RequireFromString("50.50")))
	assert.Equal(t, []int64{1, 3, 7}, cfg.Milestones)
	assert.Equal(t, 250*time.Millisecond, cfg.QueueRetryBase)
	assert.Equal(t, 20, cfg.QueueConcurrency)
}

func TestLoadConfigIgnoresGarbage(t *testing.T) {
	t.Setenv("QUEUE_CONCURRENCY", "-4")
	t.Setenv("DONATION_MILESTONES", "a,b,")
	t.Setenv("QUEUE_RETRY_BASE", "soon")

	cfg := LoadConfig()
	assert.Equal(t, 5, cfg.QueueConcurrency)
	assert.Equal(t, []int64{2, 5, 10, 25, 50, 100}, cfg.Milestones)
	assert.Equal(t, time.Second, cfg.QueueRetryBase)
}
