// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ServerConfig holds all HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds MongoDB connection settings
type DatabaseConfig struct {
	URI  string
	Name string
}

// AuthConfig holds credential issuing settings
type AuthConfig struct {
	JWTSecret string

	// Redirect targets for the email verification flow
	VerifySuccessURL string
	VerifyFailureURL string

	// Base URL embedded in verification / reset emails
	PublicBaseURL string
}

// NotifyConfig holds outbound notification settings
type NotifyConfig struct {
	DiscordWebhookURL string
	ResendAPIKey      string
	EmailFrom         string
}

// OAuthProviderConfig holds per-provider OAuth application credentials
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	Auth           *AuthConfig
	Notify         *NotifyConfig
	OAuth          map[string]OAuthProviderConfig
	AllowedOrigins []string
	Debug          bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port: 5000,
		Host: "0.0.0.0",
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment directly
	_ = godotenv.Load()

	server := DefaultConfig()
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %v", portStr, err)
		}
		server.Port = port
	}
	if host := os.Getenv("HOST"); host != "" {
		server.Host = host
	}

	db := &DatabaseConfig{
		URI:  os.Getenv("MONGO_URI"),
		Name: getEnvDefault("MONGO_DB", "opslink"),
	}
	if db.URI == "" {
		return nil, fmt.Errorf("MONGO_URI must be set")
	}

	auth := &AuthConfig{
		JWTSecret:        os.Getenv("JWT_SECRET"),
		VerifySuccessURL: getEnvDefault("VERIFY_SUCCESS_URL", "/verified.html"),
		VerifyFailureURL: getEnvDefault("VERIFY_FAILURE_URL", "/verify-failed.html"),
		PublicBaseURL:    getEnvDefault("PUBLIC_BASE_URL", "http://localhost:5000"),
	}
	if auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	notify := &NotifyConfig{
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK"),
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		EmailFrom:         getEnvDefault("EMAIL_FROM", "no-reply@opslinksystems.xyz"),
	}

	oauth := make(map[string]OAuthProviderConfig)
	for _, provider := range []string{"github", "twitch", "spotify"} {
		prefix := strings.ToUpper(provider)
		cfg := OAuthProviderConfig{
			ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
			ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
			RedirectURL:  os.Getenv(prefix + "_REDIRECT_URL"),
		}
		if cfg.ClientID != "" {
			oauth[provider] = cfg
		}
	}

	var origins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		Server:         server,
		Database:       db,
		Auth:           auth,
		Notify:         notify,
		OAuth:          oauth,
		AllowedOrigins: origins,
		Debug:          os.Getenv("DEBUG") == "true",
	}, nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
