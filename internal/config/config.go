package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthMode selects the single verification strategy a deployment runs.
// Exactly one mode is active; it is resolved once at startup and injected
// into the components that need it.
type AuthMode string

const (
	ModeTOTP  AuthMode = "totp"
	ModeSMS   AuthMode = "sms"
	ModeOAuth AuthMode = "oauth"
)

func ParseAuthMode(v string) (AuthMode, error) {
	switch AuthMode(strings.ToLower(strings.TrimSpace(v))) {
	case ModeTOTP:
		return ModeTOTP, nil
	case ModeSMS:
		return ModeSMS, nil
	case ModeOAuth:
		return ModeOAuth, nil
	default:
		return "", fmt.Errorf("unknown auth mode %q", v)
	}
}

// OAuthProviderConfig is the startup-time registration of one external
// identity provider. The registry is built once in Load and never mutated.
type OAuthProviderConfig struct {
	Name         string
	DisplayName  string
	ClientID     string
	ClientSecret string
	// IssuerURL configures a generic OIDC provider; the authorize, token
	// and userinfo endpoints are derived from it. Empty for the built-in
	// providers, which carry well-known endpoints.
	IssuerURL string
}

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	AuthMode AuthMode

	SessionTTL     time.Duration
	SessionBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	TOTPIssuer string
	TOTPSkew   int

	SMSProviderBaseURL string
	SMSAccountSID      string
	SMSAuthToken       string
	SMSChannel         string
	ChallengeTTL       time.Duration
	ProviderTimeout    time.Duration

	OAuthProviders   []OAuthProviderConfig
	OAuthRedirectURL string
	OAuthStateSecret string
	OAuthForceUpdate bool

	DemoMode        bool
	DemoCode        string
	DemoResetMaxAge time.Duration

	DefaultAdminUsername string

	OTELServiceName          string
	OTELExporterOTLPEndpoint string
	OTELExporterOTLPInsecure bool
	OTELMetricsEnabled       bool
	OTELLogsEnabled          bool
	OTELTracesEnabled        bool
	OTELTraceSampleRatio     float64
	OTELLogLevel             string
}

func Load() (*Config, error) {
	mode, err := ParseAuthMode(getEnv("AUTH_MODE", string(ModeTOTP)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:flowd.sqlite"),

		AuthMode: mode,

		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),

		TOTPIssuer: getEnv("TOTP_ISSUER", "Forseti Flow"),
		TOTPSkew:   getEnvInt("TOTP_SKEW", 1),

		SMSProviderBaseURL: getEnv("SMS_PROVIDER_BASE_URL", "https://verify.twilio.com/v2"),
		SMSAccountSID:      os.Getenv("SMS_ACCOUNT_SID"),
		SMSAuthToken:       os.Getenv("SMS_AUTH_TOKEN"),
		SMSChannel:         strings.ToLower(getEnv("SMS_CHANNEL", "sms")),

		OAuthRedirectURL: getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/api/v1/auth/oauth"),
		OAuthStateSecret: os.Getenv("OAUTH_STATE_SECRET"),
		OAuthForceUpdate: getEnvBool("AUTH_OAUTH_FORCE_UPDATE", false),

		DemoMode: getEnvBool("DEMO_MODE", false),
		DemoCode: strings.TrimSpace(getEnv("DEMO_TOTP_CODE", "246810")),

		DefaultAdminUsername: getEnv("DEFAULT_ADMIN_USERNAME", "forseti"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "flowd"),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", false),
		OTELTracesEnabled:        getEnvBool("OTEL_TRACES_ENABLED", false),
		OTELTraceSampleRatio:     getEnvFloat("OTEL_TRACE_SAMPLE_RATIO", 1),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = sessionTTL

	challengeTTL, err := time.ParseDuration(getEnv("CHALLENGE_TTL", "300s"))
	if err != nil {
		return nil, fmt.Errorf("parse CHALLENGE_TTL: %w", err)
	}
	cfg.ChallengeTTL = challengeTTL

	providerTimeout, err := time.ParseDuration(getEnv("PROVIDER_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse PROVIDER_TIMEOUT: %w", err)
	}
	cfg.ProviderTimeout = providerTimeout

	resetMaxAge, err := time.ParseDuration(getEnv("DEMO_RESET_MAX_AGE", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse DEMO_RESET_MAX_AGE: %w", err)
	}
	cfg.DemoResetMaxAge = resetMaxAge

	cfg.OAuthProviders = loadOAuthProviders()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadOAuthProviders registers every provider whose credentials are present.
// The result is fixed for the lifetime of the process.
func loadOAuthProviders() []OAuthProviderConfig {
	specs := []struct {
		name, display, idEnv, secretEnv string
	}{
		{"google", "Google", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET"},
		{"microsoft", "Microsoft", "MICROSOFT_CLIENT_ID", "MICROSOFT_CLIENT_SECRET"},
	}
	var out []OAuthProviderConfig
	for _, s := range specs {
		id := os.Getenv(s.idEnv)
		secret := os.Getenv(s.secretEnv)
		if id == "" || secret == "" {
			continue
		}
		out = append(out, OAuthProviderConfig{Name: s.name, DisplayName: s.display, ClientID: id, ClientSecret: secret})
	}
	if issuer := strings.TrimRight(os.Getenv("OIDC_ISSUER_URL"), "/"); issuer != "" {
		id := os.Getenv("OIDC_CLIENT_ID")
		secret := os.Getenv("OIDC_CLIENT_SECRET")
		if id != "" && secret != "" {
			out = append(out, OAuthProviderConfig{
				Name:         "oidc",
				DisplayName:  getEnv("OIDC_DISPLAY_NAME", "Single Sign-On"),
				ClientID:     id,
				ClientSecret: secret,
				IssuerURL:    issuer,
			})
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, "SESSION_TTL must be > 0")
	}
	if c.ChallengeTTL <= 0 {
		errs = append(errs, "CHALLENGE_TTL must be > 0")
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, "PROVIDER_TIMEOUT must be > 0")
	}
	if c.SessionBackend != "memory" && c.SessionBackend != "redis" {
		errs = append(errs, "SESSION_BACKEND must be memory or redis")
	}
	if c.SessionBackend == "redis" && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when SESSION_BACKEND=redis")
	}
	if c.AuthMode == ModeSMS {
		if c.SMSAccountSID == "" || c.SMSAuthToken == "" {
			errs = append(errs, "SMS_ACCOUNT_SID and SMS_AUTH_TOKEN are required when AUTH_MODE=sms")
		}
		if c.SMSChannel != "sms" && c.SMSChannel != "call" {
			errs = append(errs, "SMS_CHANNEL must be sms or call")
		}
	}
	if c.AuthMode == ModeOAuth {
		if len(c.OAuthProviders) == 0 {
			errs = append(errs, "at least one OAuth provider must be configured when AUTH_MODE=oauth")
		}
		if len(c.OAuthStateSecret) < 16 {
			errs = append(errs, "OAUTH_STATE_SECRET must be at least 16 chars when AUTH_MODE=oauth")
		}
	}
	if c.DemoMode {
		if !IsSQLiteURL(c.DatabaseURL) {
			errs = append(errs, "DEMO_MODE requires a sqlite DATABASE_URL (the reset deletes the database file)")
		}
		if c.DemoCode == "" {
			errs = append(errs, "DEMO_TOTP_CODE must not be empty when DEMO_MODE=true")
		}
	}
	if c.TOTPSkew < 0 || c.TOTPSkew > 4 {
		errs = append(errs, "TOTP_SKEW must be between 0 and 4")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.OTELTraceSampleRatio < 0 || c.OTELTraceSampleRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLE_RATIO must be between 0 and 1")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// IsSQLiteURL reports whether the DSN points at a sqlite file rather than a
// network database.
func IsSQLiteURL(dsn string) bool {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return false
	}
	return true
}

// SQLitePath extracts the filesystem path from a sqlite DSN.
func SQLitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

func isValidLogLevel(v string) bool {
	switch v {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
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

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
