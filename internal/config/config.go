package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	pkglogger "github.com/blackbox-chat/blackbox-backend/pkg/logger"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override (BB_SERVER_PORT, BB_JWT_SECRET, ...)
const EnvPrefix = "BB_"

const devSecret = "dev-secret"

// Config is the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Database  DatabaseConfig  `yaml:"database" envPrefix:"DB_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	NATS      NATSConfig      `yaml:"nats" envPrefix:"NATS_"`
	JWT       JWTConfig       `yaml:"jwt" envPrefix:"JWT_"`
	Privacy   PrivacyConfig   `yaml:"privacy" envPrefix:"PRIVACY_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Delivery  DeliveryConfig  `yaml:"delivery" envPrefix:"DELIVERY_"`
	CORS      CORSConfig      `yaml:"cors" envPrefix:"CORS_"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	Seed      SeedConfig      `yaml:"seed" envPrefix:"SEED_"`
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port int    `yaml:"port" env:"PORT"`
	Mode string `yaml:"mode" env:"MODE"` // development | production
}

// DatabaseConfig 데이터베이스 설정
type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DRIVER"` // mysql | postgres | sqlite
	DSN             string `yaml:"dsn" env:"DSN"`
	Host            string `yaml:"host" env:"HOST"`
	Port            int    `yaml:"port" env:"PORT"`
	User            string `yaml:"user" env:"USER"`
	Password        string `yaml:"password" env:"PASSWORD"`
	DBName          string `yaml:"dbname" env:"NAME"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"` // seconds
	LogQueries      bool   `yaml:"log_queries" env:"LOG_QUERIES"`
}

// RedisConfig Redis 설정
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	PoolSize int    `yaml:"pool_size" env:"POOL_SIZE"`
}

// NATSConfig NATS 설정 (delivery.broker = nats 일 때 사용)
type NATSConfig struct {
	URL     string `yaml:"url" env:"URL"`
	Subject string `yaml:"subject" env:"SUBJECT"`
}

// JWTConfig bb_token 세션 토큰 설정
type JWTConfig struct {
	Secret     string        `yaml:"secret" env:"SECRET"`
	ExpiresIn  time.Duration `yaml:"expires_in" env:"EXPIRES_IN"`
	CookieName string        `yaml:"cookie_name" env:"COOKIE_NAME"`
	Secure     bool          `yaml:"secure_cookie" env:"SECURE_COOKIE"`
}

// PrivacyConfig public id HMAC 설정
type PrivacyConfig struct {
	HMACSecret string `yaml:"hmac_secret" env:"HMAC_SECRET"`
	MemoCache  bool   `yaml:"memo_cache" env:"MEMO_CACHE"`
}

// StorageConfig S3 호환 스토리지 설정
type StorageConfig struct {
	Enabled         bool   `yaml:"enabled" env:"ENABLED"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"`
	Region          string `yaml:"region" env:"REGION"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	Bucket          string `yaml:"bucket" env:"BUCKET"`
	CDNURL          string `yaml:"cdn_url" env:"CDN_URL"`
	BasePath        string `yaml:"base_path" env:"BASE_PATH"`
	ForcePathStyle  bool   `yaml:"force_path_style" env:"FORCE_PATH_STYLE"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
}

// DeliveryConfig 실시간 전달 설정
type DeliveryConfig struct {
	Broker         string        `yaml:"broker" env:"BROKER"` // redis | nats | none
	PollInterval   time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	TypingTimeout  time.Duration `yaml:"typing_timeout" env:"TYPING_TIMEOUT"`
	TypingThrottle time.Duration `yaml:"typing_throttle" env:"TYPING_THROTTLE"`
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins" env:"ALLOW_ORIGINS"`
}

// RateLimitConfig 요청 제한 설정
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
	LoginPerMinute    int `yaml:"login_per_minute" env:"LOGIN_PER_MINUTE"`
}

// SeedConfig 최초 관리자 계정 (profiles 테이블이 비어있을 때만 생성)
type SeedConfig struct {
	AdminUsername string `yaml:"admin_username" env:"ADMIN_USERNAME"`
	AdminPassword string `yaml:"admin_password" env:"ADMIN_PASSWORD"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Mode: "development"},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "blackbox.db",
			MaxIdleConns:    5,
			MaxOpenConns:    20,
			ConnMaxLifetime: 300,
		},
		Redis:    RedisConfig{Host: "localhost", Port: 6379, PoolSize: 10},
		NATS:     NATSConfig{URL: "nats://127.0.0.1:4222", Subject: "blackbox.events"},
		JWT:      JWTConfig{Secret: devSecret, ExpiresIn: 7 * 24 * time.Hour, CookieName: "bb_token"},
		Privacy:  PrivacyConfig{HMACSecret: devSecret, MemoCache: true},
		Storage:  StorageConfig{Region: "auto", Bucket: "blackboxbucket", MaxUploadBytes: 20 << 20},
		Delivery: DeliveryConfig{
			Broker:         "redis",
			PollInterval:   2 * time.Second,
			TypingTimeout:  3 * time.Second,
			TypingThrottle: time.Second,
		},
		CORS:      CORSConfig{AllowOrigins: "http://localhost:3000"},
		RateLimit: RateLimitConfig{RequestsPerMinute: 240, LoginPerMinute: 10},
	}
}

// Load reads the YAML file at path (missing file → defaults) and applies BB_* env overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		pkglogger.Warn("config file %s not found, using defaults", path)
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Delivery.Broker {
	case "redis", "nats", "none", "":
	default:
		return fmt.Errorf("unsupported delivery broker %q", c.Delivery.Broker)
	}
	if c.Delivery.PollInterval < 2*time.Second || c.Delivery.PollInterval > 5*time.Second {
		return fmt.Errorf("delivery.poll_interval must be between 2s and 5s, got %s", c.Delivery.PollInterval)
	}
	if !c.IsDevelopment() && (weakSecret(c.JWT.Secret) || weakSecret(c.Privacy.HMACSecret)) {
		return errors.New("jwt.secret and privacy.hmac_secret must be set outside development")
	}
	return nil
}

func weakSecret(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == devSecret
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Mode == "development" || c.Server.Mode == "dev" || c.Server.Mode == "debug"
}

// GetDSN returns the driver specific DSN. An explicit dsn wins.
func (d *DatabaseConfig) GetDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			d.Host, d.Port, d.User, d.Password, d.DBName)
	default:
		return d.DBName
	}
}

// AllowedOrigins splits the comma separated CORS origin list
func (c *CORSConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LogResolved prints the effective configuration with secrets masked
func LogResolved(cfg *Config) {
	pkglogger.GetLogger().Info().
		Int("port", cfg.Server.Port).
		Str("mode", cfg.Server.Mode).
		Str("db_driver", cfg.Database.Driver).
		Bool("redis", cfg.Redis.Enabled).
		Str("broker", cfg.Delivery.Broker).
		Bool("storage", cfg.Storage.Enabled).
		Str("jwt_secret", mask(cfg.JWT.Secret)).
		Str("hmac_secret", mask(cfg.Privacy.HMACSecret)).
		Dur("poll_interval", cfg.Delivery.PollInterval).
		Msg("config resolved")
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
