package config

import (
	"strings"
	"time"
)

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	ImageKit  ImageKitConfig  `yaml:"imagekit"`
	Stats     StatsConfig     `yaml:"stats"`
	CORS      CORSConfig      `yaml:"cors"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	Env             string        `yaml:"env"              env:"APP_ENV"                 env-default:"development"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func (c ServerConfig) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// StorageConfig picks the repository implementation.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mongo"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri"             env:"MONGODB_URI"`
	Database       string        `yaml:"database"        env:"MONGODB_DATABASE"        env-default:"cleanstreet"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"MONGODB_CONNECT_TIMEOUT" env-default:"10s"`
}

// RedisConfig is optional. With no address the rate limiter and stats cache
// are disabled.
type RedisConfig struct {
	Address  string `yaml:"address"  env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB" env-default:"0"`
}

func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"         env:"JWT_SECRET"              env-required:"true"`
	JWTIssuer        string        `yaml:"jwt_issuer"         env:"JWT_ISSUER"              env-default:"cleanstreet"`
	TokenTTL         time.Duration `yaml:"token_ttl"          env:"JWT_TTL"                 env-default:"24h"`
	CookieName       string        `yaml:"cookie_name"        env:"AUTH_COOKIE_NAME"        env-default:"auth_token"`
	CookieDomain     string        `yaml:"cookie_domain"      env:"AUTH_COOKIE_DOMAIN"`
	CookieSecure     bool          `yaml:"cookie_secure"      env:"AUTH_COOKIE_SECURE"      env-default:"false"`
	AllowAdminSignup bool          `yaml:"allow_admin_signup" env:"AUTH_ALLOW_ADMIN_SIGNUP" env-default:"false"`
}

// RateLimitConfig bounds how many issues one user may file per window.
type RateLimitConfig struct {
	IssuesPerWindow int           `yaml:"issues_per_window" env:"ISSUE_RATE_LIMIT"            env-default:"10"`
	Window          time.Duration `yaml:"window"            env:"ISSUE_RATE_WINDOW"           env-default:"24h"`
	KeyPrefix       string        `yaml:"key_prefix"        env:"REDIS_QUEUE_FOR_ISSUE_LIMIT" env-default:"issue_limit"`
}

type ImageKitConfig struct {
	PublicKey   string        `yaml:"public_key"   env:"IMAGEKIT_PUBLIC_KEY"`
	PrivateKey  string        `yaml:"private_key"  env:"IMAGEKIT_PRIVATE_KEY"`
	URLEndpoint string        `yaml:"url_endpoint" env:"IMAGEKIT_URL_ENDPOINT"`
	TokenTTL    time.Duration `yaml:"token_ttl"    env:"IMAGEKIT_TOKEN_TTL" env-default:"30m"`
}

type StatsConfig struct {
	CacheKey string        `yaml:"cache_key" env:"STATS_CACHE_KEY" env-default:"cleanstreet:stats"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"STATS_CACHE_TTL" env-default:"1m"`
}

type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:5173"`
}

// Origins splits AllowedOrigins on commas.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
