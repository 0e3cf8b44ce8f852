package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Log       LogConfig
	Store     StoreConfig
	Catalog   CatalogConfig
	Search    SearchConfig
	Downloads DownloadsConfig
	Analytics AnalyticsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig secures the admin catalog endpoints. The portal has a single
// configured admin account; visitors stay anonymous.
type AuthConfig struct {
	JWTSecret         string
	JWTExpiration     time.Duration
	AdminEmail        string
	AdminPasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig governs the namespaced key-value store.
type StoreConfig struct {
	Namespace  string
	DefaultTTL time.Duration
}

// CatalogConfig tunes the resource catalog and its read cache.
type CatalogConfig struct {
	CacheTTL     time.Duration
	MaxPageSize  int
	FavoritesKey string
}

// SearchConfig bounds search behaviour.
type SearchConfig struct {
	SuggestionLimit   int
	RecentSearchesCap int
}

// DownloadsConfig controls the download manager.
type DownloadsConfig struct {
	StorageDir      string
	MaxRetries      int
	RetryBaseDelay  time.Duration
	BatchDelay      time.Duration
	ProbeTimeout    time.Duration
	HistoryCap      int
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// AnalyticsConfig governs the event tracker and collector.
type AnalyticsConfig struct {
	Enabled       bool
	Endpoint      string
	FlushInterval time.Duration
	BatchSize     int
	SessionTTL    time.Duration
	SendTimeout   time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTExpiration:     parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		AdminEmail:        v.GetString("ADMIN_EMAIL"),
		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Store = StoreConfig{
		Namespace:  v.GetString("STORE_NAMESPACE"),
		DefaultTTL: parseDuration(v.GetString("STORE_DEFAULT_TTL"), 0),
	}

	cfg.Catalog = CatalogConfig{
		CacheTTL:     parseDuration(v.GetString("CATALOG_CACHE_TTL"), 10*time.Minute),
		MaxPageSize:  v.GetInt("CATALOG_MAX_PAGE_SIZE"),
		FavoritesKey: v.GetString("CATALOG_FAVORITES_KEY"),
	}

	cfg.Search = SearchConfig{
		SuggestionLimit:   v.GetInt("SEARCH_SUGGESTION_LIMIT"),
		RecentSearchesCap: v.GetInt("SEARCH_RECENT_CAP"),
	}

	cfg.Downloads = DownloadsConfig{
		StorageDir:      v.GetString("DOWNLOADS_STORAGE_DIR"),
		MaxRetries:      v.GetInt("DOWNLOADS_MAX_RETRIES"),
		RetryBaseDelay:  parseDuration(v.GetString("DOWNLOADS_RETRY_BASE_DELAY"), 500*time.Millisecond),
		BatchDelay:      parseDuration(v.GetString("DOWNLOADS_BATCH_DELAY"), 500*time.Millisecond),
		ProbeTimeout:    parseDuration(v.GetString("DOWNLOADS_PROBE_TIMEOUT"), 5*time.Second),
		HistoryCap:      v.GetInt("DOWNLOADS_HISTORY_CAP"),
		SignedURLSecret: v.GetString("DOWNLOADS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("DOWNLOADS_SIGNED_URL_TTL"), 30*time.Minute),
	}

	cfg.Analytics = AnalyticsConfig{
		Enabled:       v.GetBool("ENABLE_ANALYTICS"),
		Endpoint:      v.GetString("ANALYTICS_ENDPOINT"),
		FlushInterval: parseDuration(v.GetString("ANALYTICS_FLUSH_INTERVAL"), 30*time.Second),
		BatchSize:     v.GetInt("ANALYTICS_BATCH_SIZE"),
		SessionTTL:    parseDuration(v.GetString("ANALYTICS_SESSION_TTL"), 4*time.Hour),
		SendTimeout:   parseDuration(v.GetString("ANALYTICS_SEND_TIMEOUT"), 5*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "edu_resource_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("ADMIN_EMAIL", "admin@localhost")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORE_NAMESPACE", "eduportal")
	v.SetDefault("STORE_DEFAULT_TTL", "0")

	v.SetDefault("CATALOG_CACHE_TTL", "10m")
	v.SetDefault("CATALOG_MAX_PAGE_SIZE", 100)
	v.SetDefault("CATALOG_FAVORITES_KEY", "favorites")

	v.SetDefault("SEARCH_SUGGESTION_LIMIT", 10)
	v.SetDefault("SEARCH_RECENT_CAP", 50)

	v.SetDefault("DOWNLOADS_STORAGE_DIR", "./downloads")
	v.SetDefault("DOWNLOADS_MAX_RETRIES", 3)
	v.SetDefault("DOWNLOADS_RETRY_BASE_DELAY", "500ms")
	v.SetDefault("DOWNLOADS_BATCH_DELAY", "500ms")
	v.SetDefault("DOWNLOADS_PROBE_TIMEOUT", "5s")
	v.SetDefault("DOWNLOADS_HISTORY_CAP", 1000)
	v.SetDefault("DOWNLOADS_SIGNED_URL_SECRET", "dev_downloads_secret")
	v.SetDefault("DOWNLOADS_SIGNED_URL_TTL", "30m")

	v.SetDefault("ENABLE_ANALYTICS", true)
	v.SetDefault("ANALYTICS_ENDPOINT", "")
	v.SetDefault("ANALYTICS_FLUSH_INTERVAL", "30s")
	v.SetDefault("ANALYTICS_BATCH_SIZE", 20)
	v.SetDefault("ANALYTICS_SESSION_TTL", "4h")
	v.SetDefault("ANALYTICS_SEND_TIMEOUT", "5s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
