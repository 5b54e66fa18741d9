package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr         = ":8080"
	defaultDatabaseURL      = "file:properforms.db?_pragma=foreign_keys(1)"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultFileSecret       = "change-me-file-secret"
	defaultJWTAccessTTL     = "12h"
	defaultNonceTTL         = "12h"
	defaultFormCacheTTL     = "10m"
	defaultIntegrationTTL   = "10s"
	defaultCaptchaTimeout   = "30s"
	defaultDraftMaxAge      = "24h"
	defaultUploadExtensions = "jpg,jpeg,png,gif,pdf,doc,docx,ppt,pptx,odt,xls,xlsx,txt,csv,zip"
	defaultSMTPPort         = "587"
	defaultPublicBaseURL    = "http://localhost:8080"
	defaultExportPageSize   = "100"
	defaultCaptchaRequired  = "false"
	defaultSMTPNoTLS        = "false"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	DatabaseURL   string
	PublicBaseURL string

	JWTSecret    string
	JWTAccessTTL time.Duration
	NonceTTL     time.Duration

	FileSecret         string
	UploadExtensions   []string
	DraftMaxAge        time.Duration
	FormCacheTTL       time.Duration
	IntegrationTimeout time.Duration
	ExportPageSize     int

	CaptchaSecret    string
	CaptchaVerifyURL string
	CaptchaTimeout   time.Duration
	CaptchaRequired  bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPNoTLS    bool
	MailFrom     string

	CORSAllowedOrigins []string
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("PUBLIC_BASE_URL", defaultPublicBaseURL)), "/")
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.FileSecret = strings.TrimSpace(getEnv("FILE_ENCRYPTION_SECRET", defaultFileSecret))
	cfg.UploadExtensions = splitList(getEnv("UPLOAD_DEFAULT_EXTENSIONS", defaultUploadExtensions))

	var err error
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL); err != nil {
		return nil, err
	}
	if cfg.NonceTTL, err = parseDurationEnv("NONCE_TTL", defaultNonceTTL); err != nil {
		return nil, err
	}
	if cfg.FormCacheTTL, err = parseDurationEnv("FORM_CACHE_TTL", defaultFormCacheTTL); err != nil {
		return nil, err
	}
	if cfg.IntegrationTimeout, err = parseDurationEnv("INTEGRATION_TIMEOUT", defaultIntegrationTTL); err != nil {
		return nil, err
	}
	if cfg.CaptchaTimeout, err = parseDurationEnv("CAPTCHA_TIMEOUT", defaultCaptchaTimeout); err != nil {
		return nil, err
	}
	if cfg.DraftMaxAge, err = parseDurationEnv("DRAFT_MAX_AGE", defaultDraftMaxAge); err != nil {
		return nil, err
	}
	if cfg.ExportPageSize, err = parseIntEnv("EXPORT_PAGE_SIZE", defaultExportPageSize); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = parseIntEnv("SMTP_PORT", defaultSMTPPort); err != nil {
		return nil, err
	}

	cfg.CaptchaSecret = strings.TrimSpace(os.Getenv("CAPTCHA_SECRET"))
	cfg.CaptchaVerifyURL = strings.TrimSpace(os.Getenv("CAPTCHA_VERIFY_URL"))
	cfg.CaptchaRequired = parseBoolEnv("CAPTCHA_REQUIRED", defaultCaptchaRequired)

	cfg.SMTPHost = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	cfg.SMTPUsername = strings.TrimSpace(os.Getenv("SMTP_USERNAME"))
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPNoTLS = parseBoolEnv("SMTP_NO_TLS", defaultSMTPNoTLS)
	cfg.MailFrom = strings.TrimSpace(getEnv("MAIL_FROM", "forms@localhost"))

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.NonceTTL <= 0 {
		return fmt.Errorf("NONCE_TTL must be > 0")
	}
	if cfg.FormCacheTTL <= 0 {
		return fmt.Errorf("FORM_CACHE_TTL must be > 0")
	}
	if cfg.DraftMaxAge <= 0 {
		return fmt.Errorf("DRAFT_MAX_AGE must be > 0")
	}
	if cfg.ExportPageSize <= 0 {
		return fmt.Errorf("EXPORT_PAGE_SIZE must be > 0")
	}
	if len(cfg.UploadExtensions) == 0 {
		return fmt.Errorf("UPLOAD_DEFAULT_EXTENSIONS must list at least one extension")
	}
	if cfg.CaptchaRequired && cfg.CaptchaSecret == "" {
		return fmt.Errorf("CAPTCHA_SECRET must be set when CAPTCHA_REQUIRED=true")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.FileSecret, defaultFileSecret) {
			return fmt.Errorf("in prod/release FILE_ENCRYPTION_SECRET must be set and not default")
		}
		if cfg.JWTSecret == cfg.FileSecret {
			return fmt.Errorf("JWT_SECRET and FILE_ENCRYPTION_SECRET must differ")
		}
	}

	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
