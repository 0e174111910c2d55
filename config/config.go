package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	BaseURL  string
	MongoURI string
	DBName   string

	RedisAddr     string
	RedisPassword string

	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string

	SessionSecret string
	SessionWindow time.Duration
	ResetTokenTTL time.Duration
	RequestWindow time.Duration

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	MovieAPIBaseURL string
	MovieAPIKey     string

	MaxUploadMB int64
}

func Load() (*Config, error) {
	maxMB := int64(5)
	if v := getEnv("MAX_UPLOAD_MB", "5"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxMB = n
		}
	}
	smtpPort := 587
	if v := getEnv("SMTP_PORT", "587"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			smtpPort = n
		}
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:          getEnv("MONGODB_DB", "flickvault"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		S3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		S3Region:        getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        smtpPort,
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SMTPSender:      getEnv("SMTP_SENDER", "no-reply@flickvault.app"),
		SessionSecret:   getEnv("SESSION_SECRET", "change-me-in-production"),
		SessionWindow:   durationEnv("SESSION_WINDOW", 30*24*time.Hour),
		ResetTokenTTL:   durationEnv("RESET_TOKEN_TTL", time.Hour),
		RequestWindow:   durationEnv("REQUEST_WINDOW", 24*time.Hour),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:      getEnv("ADMIN_EMAIL", "admin@flickvault.app"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		MovieAPIBaseURL: getEnv("MOVIE_API_BASE_URL", "https://api.themoviedb.org/3"),
		MovieAPIKey:     getEnv("MOVIE_API_KEY", ""),
		MaxUploadMB:     maxMB,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// RequiredEnvVars are checked at startup; app exits if any are unset.
var RequiredEnvVars = []string{
	"MONGODB_URI",
	"MONGODB_DB",
	"SESSION_SECRET",
	"ADMIN_USERNAME",
	"ADMIN_EMAIL",
	"ADMIN_PASSWORD",
}

// OptionalEnvVars are logged at startup so you can confirm they are loaded when set.
var OptionalEnvVars = []string{
	"PORT",
	"BASE_URL",
	"REDIS_ADDR",
	"AWS_S3_BUCKET",
	"AWS_REGION",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_SENDER",
	"SESSION_WINDOW",
	"RESET_TOKEN_TTL",
	"REQUEST_WINDOW",
	"MOVIE_API_BASE_URL",
	"MAX_UPLOAD_MB",
}

// secretEnvVars never have their values logged.
var secretEnvVars = map[string]bool{
	"SESSION_SECRET":        true,
	"ADMIN_PASSWORD":        true,
	"REDIS_PASSWORD":        true,
	"AWS_ACCESS_KEY_ID":     true,
	"AWS_SECRET_ACCESS_KEY": true,
	"SMTP_PASSWORD":         true,
	"MOVIE_API_KEY":         true,
}

// ValidateEnv checks that all required env vars are set and logs status of required + optional.
// Calls log.Fatal if any required var is missing.
func ValidateEnv() {
	var missing []string
	for _, key := range RequiredEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		} else {
			log.Printf("env %s loaded", key)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("missing required env: %s (set these in .env or environment)", strings.Join(missing, ", "))
	}
	for _, key := range OptionalEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			log.Printf("env %s not set (optional)", key)
			continue
		}
		if secretEnvVars[key] {
			log.Printf("env %s loaded", key)
		} else {
			log.Printf("env %s = %s", key, v)
		}
	}
	if s := os.Getenv("SESSION_SECRET"); s == "change-me-in-production" {
		log.Fatal("SESSION_SECRET must be set to a strong secret (not the default change-me-in-production)")
	}
}
