package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "agrolink")
	t.Setenv("DB_NAME", "agrolink")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "ሀ", cfg.SMS.Trigger)
	assert.Equal(t, 3, cfg.SMS.AttemptLimit)
	assert.Equal(t, 24*time.Hour, cfg.SMS.AttemptWindow)
	assert.Equal(t, 5*time.Minute, cfg.SMS.OTPTTL)
	assert.Equal(t, 10*time.Second, cfg.SMS.SendTimeout)
	assert.Equal(t, "memory", cfg.Lock.Backend)
	assert.Equal(t, "", cfg.Storage.Backend)
	assert.Equal(t, time.Hour, cfg.Worker.PurgeInterval)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Equal(t, 5, cfg.DB.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, 5, cfg.DB.ConnectAttempts)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REGISTRATION_ATTEMPT_LIMIT", "5")
	t.Setenv("REGISTRATION_ATTEMPT_WINDOW", "1h")
	t.Setenv("LOCK_BACKEND", "REDIS")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://agrolink.et, ,https://admin.agrolink.et")
	t.Setenv("DB_MAX_OPEN_CONNS", "10")
	t.Setenv("DB_CONNECT_ATTEMPTS", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.SMS.AttemptLimit)
	assert.Equal(t, time.Hour, cfg.SMS.AttemptWindow)
	assert.Equal(t, "redis", cfg.Lock.Backend)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.True(t, cfg.Minio.UseSSL)
	assert.Equal(t, []string{"https://agrolink.et", "https://admin.agrolink.et"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.DB.MaxOpenConns)
	assert.Equal(t, 1, cfg.DB.ConnectAttempts)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"bad duration", map[string]string{"OTP_TTL": "five minutes"}},
		{"unknown lock backend", map[string]string{"LOCK_BACKEND": "etcd"}},
		{"unknown storage backend", map[string]string{"STORAGE_BACKEND": "gcs"}},
		{"signature required without secret", map[string]string{"SMS_REQUIRE_SIGNATURE": "true"}},
		{"zero attempt limit", map[string]string{"REGISTRATION_ATTEMPT_LIMIT": "0"}},
		{"idle above open conns", map[string]string{"DB_MAX_OPEN_CONNS": "2", "DB_MAX_IDLE_CONNS": "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "agro", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/agro?sslmode=disable", d.DatabaseURL())
}
