package config

import (
	"errors"
	"io/fs"
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
	CORS      CORSConfig
	Log       LogConfig
	Admin     AdminConfig
	Relay     RelayConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Exports   ExportsConfig
}

// DatabaseConfig points at Postgres. URL, when set, wins over the discrete
// fields.
type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig points at Redis. URL, when set, wins over the discrete fields.
type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AdminConfig holds the shared secret guarding admin routes.
type AdminConfig struct {
	Token      string
	CookieName string
	CookieTTL  time.Duration
}

// RelayConfig is the raw relay configuration as read from the environment.
// It is parsed into relay.Settings at startup.
type RelayConfig struct {
	EndpointURL      string
	Mode             string
	PayloadMode      string
	ContentType      string
	TwoStage         bool
	FieldMapJSON     string
	StaticFieldsJSON string
	HeadersJSON      string
	OperatorEmail    string
	RequestTimeout   time.Duration
}

// NotifyConfig selects and configures the new-submission email transport.
type NotifyConfig struct {
	Transport     string
	To            string
	From          string
	AWSRegion     string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPSecure    string
	PublicBaseURL string
}

// RateLimitConfig throttles the public intake endpoint per client IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// CacheConfig toggles the submission detail cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ExportsConfig bounds admin exports.
type ExportsConfig struct {
	MaxRows int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:          strings.TrimSpace(v.GetString("DATABASE_URL")),
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
		Enabled:  v.GetBool("ENABLE_REDIS"),
		URL:      strings.TrimSpace(v.GetString("REDIS_URL")),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Admin = AdminConfig{
		Token:      v.GetString("ADMIN_TOKEN"),
		CookieName: v.GetString("ADMIN_COOKIE_NAME"),
		CookieTTL:  parseDuration(v.GetString("ADMIN_COOKIE_TTL"), 14*24*time.Hour),
	}

	operatorEmail := firstNonEmpty(
		v.GetString("RELAY_OPERATOR_EMAIL"),
		v.GetString("INJECTED_EMAIL"),
		v.GetString("RELAY_EMAIL"),
	)
	cfg.Relay = RelayConfig{
		EndpointURL:      v.GetString("LENDER_ENDPOINT_URL"),
		Mode:             v.GetString("RELAY_MODE"),
		PayloadMode:      v.GetString("LENDER_PAYLOAD_MODE"),
		ContentType:      v.GetString("LENDER_CONTENT_TYPE"),
		TwoStage:         strings.EqualFold(strings.TrimSpace(v.GetString("LENDER_TWO_STAGE")), "true"),
		FieldMapJSON:     v.GetString("LENDER_FIELD_MAP_JSON"),
		StaticFieldsJSON: v.GetString("LENDER_STATIC_FIELDS_JSON"),
		HeadersJSON:      v.GetString("LENDER_HEADERS_JSON"),
		OperatorEmail:    strings.TrimSpace(operatorEmail),
		RequestTimeout:   parseDuration(v.GetString("LENDER_REQUEST_TIMEOUT"), 0),
	}

	cfg.Notify = NotifyConfig{
		Transport:     strings.ToLower(v.GetString("NOTIFY_TRANSPORT")),
		To:            v.GetString("SUBMISSION_NOTIFY_TO"),
		From:          v.GetString("SUBMISSION_NOTIFY_FROM"),
		AWSRegion:     v.GetString("AWS_REGION"),
		SMTPHost:      v.GetString("SMTP_HOST"),
		SMTPPort:      v.GetInt("SMTP_PORT"),
		SMTPUser:      v.GetString("SMTP_USER"),
		SMTPPassword:  v.GetString("SMTP_PASS"),
		SMTPSecure:    strings.ToLower(v.GetString("SMTP_SECURE")),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
	}

	cfg.RateLimit = RateLimitConfig{
		Requests: v.GetInt("INTAKE_RATE_LIMIT"),
		Window:   parseDuration(v.GetString("INTAKE_RATE_WINDOW"), time.Minute),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_SUBMISSION_CACHE"),
		TTL:     parseDuration(v.GetString("SUBMISSION_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		MaxRows: v.GetInt("EXPORT_MAX_ROWS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lender_intake")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ADMIN_TOKEN", "")
	v.SetDefault("ADMIN_COOKIE_NAME", "admin_token")
	v.SetDefault("ADMIN_COOKIE_TTL", "336h")

	v.SetDefault("LENDER_ENDPOINT_URL", "")
	v.SetDefault("RELAY_MODE", "preview")
	v.SetDefault("LENDER_PAYLOAD_MODE", "flat")
	v.SetDefault("LENDER_CONTENT_TYPE", "form")
	v.SetDefault("LENDER_TWO_STAGE", "false")
	v.SetDefault("LENDER_FIELD_MAP_JSON", "")
	v.SetDefault("LENDER_STATIC_FIELDS_JSON", "")
	v.SetDefault("LENDER_HEADERS_JSON", "")
	v.SetDefault("RELAY_OPERATOR_EMAIL", "")
	v.SetDefault("INJECTED_EMAIL", "")
	v.SetDefault("RELAY_EMAIL", "")
	v.SetDefault("LENDER_REQUEST_TIMEOUT", "")

	v.SetDefault("NOTIFY_TRANSPORT", "ses")
	v.SetDefault("SUBMISSION_NOTIFY_TO", "")
	v.SetDefault("SUBMISSION_NOTIFY_FROM", "")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_SECURE", "")
	v.SetDefault("PUBLIC_BASE_URL", "")

	v.SetDefault("INTAKE_RATE_LIMIT", 20)
	v.SetDefault("INTAKE_RATE_WINDOW", "1m")

	v.SetDefault("ENABLE_SUBMISSION_CACHE", false)
	v.SetDefault("SUBMISSION_CACHE_TTL", "2m")

	v.SetDefault("EXPORT_MAX_ROWS", 500)
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

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
