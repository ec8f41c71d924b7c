package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates runtime configuration for the Sober Circle service.
type Config struct {
	Environment    string
	HTTPPort       int
	DatabaseURL    string
	DataStore      string
	LogLevel       string
	AllowedOrigins []string
	SecondMe       SecondMe
}

// SecondMe holds the OAuth and API settings for the SecondMe identity provider.
type SecondMe struct {
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	OAuthBaseURL  string
	TokenEndpoint string
	APIBaseURL    string
}

const defaultAPIBaseURL = "https://app.mindos.com/gate/lab"

// Load reads configuration from environment variables with sensible defaults for local development.
func Load() (Config, error) {
	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/sobercircle_database_url")
	if err != nil {
		return Config{}, err
	}

	clientSecret, err := getEnvOrFile("SECONDME_CLIENT_SECRET", "/run/secrets/sobercircle_client_secret")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:    getEnv("APP_ENV", "development"),
		DatabaseURL:    databaseURL,
		DataStore:      strings.ToLower(getEnv("DATA_STORE", "memory")),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins: parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")),
		SecondMe: SecondMe{
			ClientID:      getEnv("SECONDME_CLIENT_ID", ""),
			ClientSecret:  strings.TrimSpace(clientSecret),
			RedirectURI:   getEnv("SECONDME_REDIRECT_URI", ""),
			OAuthBaseURL:  strings.TrimSuffix(getEnv("SECONDME_OAUTH_URL", ""), "/"),
			TokenEndpoint: getEnv("SECONDME_TOKEN_ENDPOINT", ""),
			APIBaseURL:    strings.TrimSuffix(getEnv("SECONDME_API_BASE_URL", defaultAPIBaseURL), "/"),
		},
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8080"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	if cfg.DataStore == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATA_STORE is postgres but DATABASE_URL is not set")
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UseInMemoryStore returns true if the in-memory repositories should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == "memory"
}

// Configured reports whether every value required to run the OAuth login flow is present.
// Login initiation checks this per request so a partially configured instance
// still serves the unauthenticated surface.
func (s SecondMe) Configured() bool {
	return s.ClientID != "" &&
		s.ClientSecret != "" &&
		s.RedirectURI != "" &&
		s.OAuthBaseURL != "" &&
		s.TokenEndpoint != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
