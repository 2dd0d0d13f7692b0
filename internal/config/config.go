package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port        string
	Env         string
	JWTSecret   string
	CORSOrigins []string

	DB       DatabaseConfig
	Redis    RedisConfig
	Lock     LockConfig
	TextBee  TextBeeConfig
	SMS      SMSConfig
	ImageGen ImageGenConfig
	Storage  StorageConfig
	S3       S3Config
	Minio    MinioConfig
	AMQP     AMQPConfig
	Worker   WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectAttempts int
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// LockConfig selects how state transitions are serialized per phone number.
type LockConfig struct {
	Backend string // memory | redis
	TTL     time.Duration
}

// TextBeeConfig contains credentials for the TextBee SMS gateway.
type TextBeeConfig struct {
	BaseURL       string
	APIKey        string
	DeviceID      string
	SigningSecret string
}

// SMSConfig tunes the inbound SMS registration flow.
type SMSConfig struct {
	Trigger          string
	RequireSignature bool
	SendTimeout      time.Duration
	AttemptLimit     int
	AttemptWindow    time.Duration
	OTPResendLimit   int
	OTPTTL           time.Duration
}

// ImageGenConfig contains the image-generation API settings.
type ImageGenConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// StorageConfig selects the object storage backend for generated images.
type StorageConfig struct {
	Backend string // s3 | minio | "" (disabled)
}

// S3Config contains AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	PublicURL       string
	AccessKeyID     string
	SecretAccessKey string
}

// MinioConfig contains MinIO configuration
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// AMQPConfig contains RabbitMQ settings for product events. Empty URL disables publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	ImageInterval    time.Duration
	ImageMaxAttempts int
	ImageQueueSize   int
	ImageJobTimeout  time.Duration
	PurgeInterval    time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "5000")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.CORSOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),

		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// TextBee
	cfg.TextBee = TextBeeConfig{
		BaseURL:       getEnv("TEXTBEE_BASE_URL", "https://api.textbee.dev/api/v1"),
		APIKey:        getEnv("TEXTBEE_API_KEY", ""),
		DeviceID:      getEnv("TEXTBEE_DEVICE_ID", ""),
		SigningSecret: getEnv("TEXTBEE_SIGNING_SECRET", ""),
	}

	// Image generation
	cfg.ImageGen = ImageGenConfig{
		BaseURL: getEnv("IMAGEGEN_BASE_URL", ""),
		APIKey:  getEnv("IMAGEGEN_API_KEY", ""),
		Model:   getEnv("IMAGEGEN_MODEL", "imagen-3.0-generate-002"),
	}

	cfg.Storage = StorageConfig{Backend: strings.ToLower(getEnv("STORAGE_BACKEND", ""))}

	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "eu-central-1"),
		Bucket:          getEnv("S3_BUCKET", "agrolink-products"),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		PublicURL:       getEnv("S3_PUBLIC_URL", ""),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	cfg.Minio = MinioConfig{
		Endpoint:  getEnv("MINIO_ENDPOINT", "minio:9000"),
		AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		SecretKey: getEnv("MINIO_SECRET_KEY", ""),
		Bucket:    getEnv("MINIO_BUCKET", "agrolink-products"),
		UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
	}

	cfg.AMQP = AMQPConfig{
		URL:      getEnv("AMQP_URL", ""),
		Exchange: getEnv("AMQP_EXCHANGE", "agrolink.events"),
	}

	cfg.Lock = LockConfig{Backend: strings.ToLower(getEnv("LOCK_BACKEND", "memory"))}

	cfg.SMS = SMSConfig{
		Trigger:          getEnv("SMS_TRIGGER", "ሀ"),
		RequireSignature: getEnvBool("SMS_REQUIRE_SIGNATURE", false),
		AttemptLimit:     getEnvInt("REGISTRATION_ATTEMPT_LIMIT", 3),
		OTPResendLimit:   getEnvInt("OTP_RESEND_LIMIT", 5),
	}

	cfg.Worker = WorkerConfig{
		ImageMaxAttempts: getEnvInt("IMAGE_MAX_ATTEMPTS", 3),
		ImageQueueSize:   getEnvInt("IMAGE_QUEUE_SIZE", 256),
	}

	// Durations
	var err error
	if cfg.DB.ConnMaxLifetime, err = parseDurationEnv("DB_CONN_MAX_LIFETIME", "5m"); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	if cfg.Lock.TTL, err = parseDurationEnv("LOCK_TTL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}
	if cfg.SMS.SendTimeout, err = parseDurationEnv("SMS_SEND_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid SMS_SEND_TIMEOUT: %w", err)
	}
	if cfg.SMS.AttemptWindow, err = parseDurationEnv("REGISTRATION_ATTEMPT_WINDOW", "24h"); err != nil {
		return nil, fmt.Errorf("invalid REGISTRATION_ATTEMPT_WINDOW: %w", err)
	}
	if cfg.SMS.OTPTTL, err = parseDurationEnv("OTP_TTL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid OTP_TTL: %w", err)
	}
	if cfg.ImageGen.Timeout, err = parseDurationEnv("IMAGEGEN_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid IMAGEGEN_TIMEOUT: %w", err)
	}
	if cfg.Worker.ImageInterval, err = parseDurationEnv("IMAGE_WORKER_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid IMAGE_WORKER_INTERVAL: %w", err)
	}
	if cfg.Worker.ImageJobTimeout, err = parseDurationEnv("IMAGE_JOB_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid IMAGE_JOB_TIMEOUT: %w", err)
	}
	if cfg.Worker.PurgeInterval, err = parseDurationEnv("ATTEMPT_PURGE_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid ATTEMPT_PURGE_INTERVAL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
		return errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if c.DB.MaxOpenConns <= 0 || c.DB.MaxIdleConns < 0 || c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		return errors.New("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS, which must be positive")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set for admin authentication")
	}
	if strings.TrimSpace(c.SMS.Trigger) == "" {
		return errors.New("SMS_TRIGGER must not be empty")
	}
	if c.SMS.AttemptLimit <= 0 {
		return errors.New("REGISTRATION_ATTEMPT_LIMIT must be positive")
	}
	if c.SMS.OTPResendLimit <= 0 {
		return errors.New("OTP_RESEND_LIMIT must be positive")
	}
	if c.SMS.RequireSignature && c.TextBee.SigningSecret == "" {
		return errors.New("SMS_REQUIRE_SIGNATURE is set but TEXTBEE_SIGNING_SECRET is empty")
	}
	switch c.Lock.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.Lock.Backend)
	}
	switch c.Storage.Backend {
	case "", "s3", "minio":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

// DatabaseURL renders the connection string used by golang-migrate.
func (d DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Name, d.SSLMode)
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// splitList parses a comma separated env value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
