package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment
// variables. Provider credentials stay optional here: a missing key only
// matters once a request targets that provider, and the failure then lands
// in the job status instead of blocking startup.
type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	OutputDir      string

	GigaChatAuthKey string
	GigaChatScope   string
	GigaChatModel   string

	ProxyAPIKey   string
	ProxyAPIModel string

	OpenRouterAPIKey string
	OpenRouterModel  string

	EnhancerMaxLength int

	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	HTTPShutdownTimeout time.Duration
	RateLimitPerMin     int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    splitList(os.Getenv("ALLOWED_ORIGINS")),
		OutputDir:         getEnv("OUTPUT_DIR", "generated_images"),
		GigaChatAuthKey:   os.Getenv("GIGACHAT_AUTH_KEY"),
		GigaChatScope:     getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
		GigaChatModel:     getEnv("GIGACHAT_MODEL", "GigaChat"),
		ProxyAPIKey:       os.Getenv("PROXY_API"),
		ProxyAPIModel:     getEnv("PROXYAPI_MODEL", "gpt-image-1"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "google/gemini-2.5-flash-image-preview"),
		EnhancerMaxLength: getEnvInt("ENHANCER_MAX_LENGTH", 250),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		HTTPShutdownTimeout: time.Second * time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SECONDS", 10)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
