package config_test

import (
	"testing"
	"time"

	"trendpost/internal/pkg/config"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvString(t *testing.T) {
	t.Run("unset returns default", func(t *testing.T) {
		assert.Equal(t, "fallback", config.LoadEnvString("TP_TEST_UNSET", "fallback"))
	})

	t.Run("set returns value", func(t *testing.T) {
		t.Setenv("TP_TEST_STR", "value")
		assert.Equal(t, "value", config.LoadEnvString("TP_TEST_STR", "fallback"))
	})
}

func TestLoadEnvWithFallback(t *testing.T) {
	failing := func(string) error { return assert.AnError }

	t.Run("valid value passes", func(t *testing.T) {
		t.Setenv("TP_TEST_TZ", "UTC")
		res := config.LoadEnvWithFallback("TP_TEST_TZ", "Asia/Kolkata", config.ValidateTimezone)
		assert.Equal(t, "UTC", res.Value)
		assert.False(t, res.FallbackApplied)
		assert.Empty(t, res.Warnings)
	})

	t.Run("invalid value falls back with warning", func(t *testing.T) {
		t.Setenv("TP_TEST_TZ", "not/a/zone")
		res := config.LoadEnvWithFallback("TP_TEST_TZ", "Asia/Kolkata", config.ValidateTimezone)
		assert.Equal(t, "Asia/Kolkata", res.Value)
		assert.True(t, res.FallbackApplied)
		assert.Len(t, res.Warnings, 1)
	})

	t.Run("unset skips validation", func(t *testing.T) {
		res := config.LoadEnvWithFallback("TP_TEST_TZ_UNSET", "default", failing)
		assert.Equal(t, "default", res.Value)
		assert.False(t, res.FallbackApplied)
	})
}

func TestLoadEnvDuration(t *testing.T) {
	t.Run("parses duration", func(t *testing.T) {
		t.Setenv("TP_TEST_DUR", "90s")
		res := config.LoadEnvDuration("TP_TEST_DUR", time.Minute, config.ValidatePositiveDuration)
		assert.Equal(t, 90*time.Second, res.Value)
	})

	t.Run("garbage falls back", func(t *testing.T) {
		t.Setenv("TP_TEST_DUR", "ninety seconds")
		res := config.LoadEnvDuration("TP_TEST_DUR", time.Minute, nil)
		assert.Equal(t, time.Minute, res.Value)
		assert.True(t, res.FallbackApplied)
	})

	t.Run("validator rejects", func(t *testing.T) {
		t.Setenv("TP_TEST_DUR", "-5s")
		res := config.LoadEnvDuration("TP_TEST_DUR", time.Minute, config.ValidatePositiveDuration)
		assert.Equal(t, time.Minute, res.Value)
		assert.True(t, res.FallbackApplied)
	})
}

func TestLoadEnvInt(t *testing.T) {
	t.Run("parses int with range check", func(t *testing.T) {
		t.Setenv("TP_TEST_INT", "9095")
		res := config.LoadEnvInt("TP_TEST_INT", 9091, config.ValidatePort)
		assert.Equal(t, 9095, res.Value)
	})

	t.Run("out of range falls back", func(t *testing.T) {
		t.Setenv("TP_TEST_INT", "80")
		res := config.LoadEnvInt("TP_TEST_INT", 9091, config.ValidatePort)
		assert.Equal(t, 9091, res.Value)
		assert.True(t, res.FallbackApplied)
	})
}

func TestLoadEnvBool(t *testing.T) {
	t.Run("parses true", func(t *testing.T) {
		t.Setenv("TP_TEST_BOOL", "true")
		res := config.LoadEnvBool("TP_TEST_BOOL", false)
		assert.Equal(t, true, res.Value)
	})

	t.Run("garbage falls back", func(t *testing.T) {
		t.Setenv("TP_TEST_BOOL", "yep")
		res := config.LoadEnvBool("TP_TEST_BOOL", false)
		assert.Equal(t, false, res.Value)
		assert.True(t, res.FallbackApplied)
	})
}

func TestValidators(t *testing.T) {
	assert.NoError(t, config.ValidateTimezone("Asia/Kolkata"))
	assert.Error(t, config.ValidateTimezone(""))
	assert.Error(t, config.ValidateTimezone("+05:30"))

	assert.NoError(t, config.ValidateIntRange(5, 1, 10))
	assert.Error(t, config.ValidateIntRange(0, 1, 10))

	assert.NoError(t, config.ValidateDuration(time.Minute, time.Second, time.Hour))
	assert.Error(t, config.ValidateDuration(time.Hour*2, time.Second, time.Hour))

	assert.NoError(t, config.ValidatePort(9091))
	assert.Error(t, config.ValidatePort(443))
	assert.Error(t, config.ValidatePort(70000))
}
