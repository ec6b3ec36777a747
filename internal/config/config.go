package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// LLM gateway (OpenAI-compatible chat completions endpoint)
	GatewayAPIKey  string
	GatewayBaseURL string
	GatewayModel   string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Sampling parameters are fixed configuration, never request-controlled.
	LLMTemperature float32
	LLMMaxTokens   int32
	LLMTopP        float32
	LLMTimeout     time.Duration

	// Email notification provider
	EmailProvider     string // "sendgrid", "ses", or "" (stub)
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string
	AWSRegion         string

	// Business contact details surfaced in fallback replies and alerts
	BusinessName        string
	BusinessPhone       string
	BusinessEmail       string
	NotifyEmailTo       string
	NotifySubjectPrefix string

	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		GatewayAPIKey:  getEnv("LLM_GATEWAY_API_KEY", ""),
		GatewayBaseURL: getEnv("LLM_GATEWAY_BASE_URL", "https://ai.gateway.lovable.dev"),
		GatewayModel:   getEnv("LLM_GATEWAY_MODEL", "google/gemini-2.5-flash"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		LLMTemperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:   int32(getEnvAsInt("LLM_MAX_TOKENS", 500)),
		LLMTopP:        getEnvAsFloat32("LLM_TOP_P", 0.95),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "JDF Performance Marine"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "JDF Performance Marine"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),

		BusinessName:        getEnv("BUSINESS_NAME", "J.D.F. Performance Marine"),
		BusinessPhone:       getEnv("BUSINESS_PHONE", "845-787-4241"),
		BusinessEmail:       getEnv("BUSINESS_EMAIL", "JDFperformancemarine@gmail.com"),
		NotifyEmailTo:       getEnv("NOTIFY_EMAIL_TO", "JDFperformancemarine@gmail.com"),
		NotifySubjectPrefix: getEnv("NOTIFY_SUBJECT_PREFIX", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerSecond: getEnvAsFloat64("RATE_LIMIT_PER_SECOND", 2),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	return float32(getEnvAsFloat64(key, float64(defaultValue)))
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
