package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("CORRETAJE_TEST_INT", "45")
	assert.Equal(t, 45, getEnvAsInt("CORRETAJE_TEST_INT", 30))

	t.Setenv("CORRETAJE_TEST_INT", "not-a-number")
	assert.Equal(t, 30, getEnvAsInt("CORRETAJE_TEST_INT", 30))

	assert.Equal(t, 30, getEnvAsInt("CORRETAJE_TEST_INT_UNSET", 30))
}

func TestLoadConfigDefaults(t *testing.T) {
	LoadConfig()

	assert.Equal(t, "8080", Cfg.Port)
	assert.Equal(t, 30, Cfg.RateLimitBurst)
	assert.NotZero(t, Cfg.ReportCacheTTL)
}
