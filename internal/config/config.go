// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Contact   ContactConfig
	EmailJS   EmailJSConfig
	RateLimit RateLimitConfig
	Retry     RetryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// CORSConfig holds the allowed browser origins for the form frontend
type CORSConfig struct {
	AllowedOrigins []string
}

// ContactConfig holds destination and site settings for the contact pipeline
type ContactConfig struct {
	// ToEmail is the inbox that receives submissions and the address
	// surfaced to users as the direct fallback when delivery fails.
	ToEmail string
	// SiteURL is the public site URL used to build absolute links.
	SiteURL string
	// FormEndpointURL is the static-host form endpoint. Empty means the
	// deployment has no form endpoint and the primary provider is skipped.
	FormEndpointURL string
	// FormName identifies the form at the form endpoint.
	FormName string
}

// EmailJSConfig holds identifiers for the transactional email API
type EmailJSConfig struct {
	BaseURL             string
	ServiceID           string
	TemplateID          string
	AutoReplyTemplateID string
	PublicKey           string
}

// RateLimitConfig tunes the per-client submission limiter
type RateLimitConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// RetryConfig tunes per-provider delivery retries
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"https://borderlessbits.com", "http://localhost:3000"}),
		},
		Contact: ContactConfig{
			ToEmail:         getEnv("CONTACT_TO_EMAIL", "richard@borderlessbits.com"),
			SiteURL:         getEnv("SITE_URL", "https://borderlessbits.com"),
			FormEndpointURL: getEnv("FORM_ENDPOINT_URL", ""),
			FormName:        getEnv("FORM_NAME", "contact"),
		},
		EmailJS: EmailJSConfig{
			BaseURL:             getEnv("EMAILJS_BASE_URL", "https://api.emailjs.com"),
			ServiceID:           getEnv("EMAILJS_SERVICE_ID", ""),
			TemplateID:          getEnv("EMAILJS_TEMPLATE_ID", ""),
			AutoReplyTemplateID: getEnv("EMAILJS_AUTOREPLY_TEMPLATE_ID", ""),
			PublicKey:           getEnv("EMAILJS_PUBLIC_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			MaxAttempts: getIntEnv("RATE_LIMIT_MAX_ATTEMPTS", 5),
			Window:      getDurationEnv("RATE_LIMIT_WINDOW", 5*time.Minute),
		},
		Retry: RetryConfig{
			MaxAttempts: getIntEnv("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:   getDurationEnv("RETRY_BASE_DELAY", time.Second),
			MaxDelay:    getDurationEnv("RETRY_MAX_DELAY", 5*time.Second),
		},
	}
}

// Validate reports configuration problems that would prevent the email
// provider from ever succeeding. A missing form endpoint is not an error
// because the fallback provider can carry all traffic.
func (c *Config) Validate() error {
	var missing []string
	if c.EmailJS.ServiceID == "" {
		missing = append(missing, "EMAILJS_SERVICE_ID")
	}
	if c.EmailJS.TemplateID == "" {
		missing = append(missing, "EMAILJS_TEMPLATE_ID")
	}
	if c.EmailJS.PublicKey == "" {
		missing = append(missing, "EMAILJS_PUBLIC_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv returns a positive integer from environment variable or default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

// getDurationEnv returns a duration from environment variable or default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// getListEnv returns a comma-separated list from environment or default
func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
