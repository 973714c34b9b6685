package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Store.RequestsPerMinute)
	assert.Equal(t, 3, cfg.Store.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Store.RequestTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Store.RequestPause)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "top-free", cfg.Analysis.Chart)
	assert.Equal(t, 60, cfg.Analysis.NewAppDays)
	assert.Equal(t, DefaultCountries, cfg.Analysis.Countries)
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.False(t, cfg.Proxy.Enabled)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_REQUESTS_PER_MINUTE", "12")
	t.Setenv("STORE_REQUEST_TIMEOUT", "3s")
	t.Setenv("ANALYSIS_COUNTRIES", "us, gb,,tr")
	t.Setenv("PROXY_LIST", "http://10.0.0.1:8080")
	t.Setenv("CACHE_BACKEND", "lru")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Store.RequestsPerMinute)
	assert.Equal(t, 3*time.Second, cfg.Store.RequestTimeout)
	assert.Equal(t, []string{"us", "gb", "tr"}, cfg.Analysis.Countries)
	assert.Equal(t, []string{"http://10.0.0.1:8080"}, cfg.Proxy.Static)
	assert.Equal(t, "lru", cfg.Cache.Backend)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")
	_, err := Load()
	assert.Error(t, err)

	os.Unsetenv("CACHE_BACKEND")
	t.Setenv("ANALYSIS_WORKERS", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestRedisAddrAndDSN(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.RedisAddr())

	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "aso", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=aso sslmode=disable", d.DatabaseDSN())
}
