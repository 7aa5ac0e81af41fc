// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	API     APIConfig
	Session SessionConfig
	Web     WebConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// IsDevelopment reports whether the app runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 3000)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// APIConfig describes the external library service this client talks to.
type APIConfig struct {
	// BaseURL is the root every endpoint path is resolved against.
	BaseURL string
	// Timeout is the fixed deadline for a single outbound call (default: 8s).
	Timeout time.Duration
	// RequestsPerSecond and Burst pace outbound calls per browser session.
	RequestsPerSecond float64
	Burst             int
}

// SessionConfig holds session persistence and cookie configuration.
type SessionConfig struct {
	// Backend is "badger" (default) or "sqlite".
	Backend string
	// DataPath is the directory holding the session database and cookie key.
	DataPath string
	// TTL is how long an untouched session survives (default: 720h).
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
	// CookieKey is the PASETO v4 symmetric key for the session cookie (32 bytes).
	// Set by auth.LoadOrGenerateKey during bootstrap.
	CookieKey []byte
}

// WebConfig holds page rendering configuration.
type WebConfig struct {
	// TemplateDir, when set, loads templates from disk and reloads them on change.
	TemplateDir string
	// AllowedOrigins for CORS on the JSON endpoints.
	AllowedOrigins []string
	// LoginAttemptsPerMinute limits login/register POSTs per client IP.
	LoginAttemptsPerMinute int
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool
}

// LoadConfig loads configuration from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("libraryhub-web", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 3000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// External API flags
	apiBaseURL := fs.String("api-base-url", "", "Library service base URL (default: http://localhost:8080)")
	apiTimeout := fs.String("api-timeout", "", "Deadline for a single library service call (default: 8s)")
	apiRPS := fs.String("api-rps", "", "Outbound requests per second per session (default: 10)")
	apiBurst := fs.String("api-burst", "", "Outbound request burst per session (default: 20)")

	// Session flags
	sessionBackend := fs.String("session-backend", "", "Session store backend: badger or sqlite (default: badger)")
	sessionPath := fs.String("session-path", "", "Directory for session data")
	sessionTTL := fs.String("session-ttl", "", "Idle session lifetime (default: 720h)")
	cookieName := fs.String("cookie-name", "", "Session cookie name (default: libraryhub_session)")
	cookieSecure := fs.String("cookie-secure", "", "Mark the session cookie Secure (default: false)")

	// Web flags
	templateDir := fs.String("template-dir", "", "Load templates from this directory and reload on change")
	allowedOrigins := fs.String("cors-origins", "", "Comma-separated origins allowed on /api/v1")
	loginRate := fs.String("login-rate", "", "Login attempts per minute per client (default: 10)")
	trustProxy := fs.String("trust-proxy", "", "Trust X-Forwarded-For and X-Real-IP for the client IP (default: false)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "3000"),
		},
		API: APIConfig{
			BaseURL:           strings.TrimRight(getConfigValue(*apiBaseURL, "API_BASE_URL", "http://localhost:8080"), "/"),
			RequestsPerSecond: getFloatConfigValue(*apiRPS, "API_RPS", 10),
			Burst:             getIntConfigValue(*apiBurst, "API_BURST", 20),
		},
		Session: SessionConfig{
			Backend:      strings.ToLower(getConfigValue(*sessionBackend, "SESSION_BACKEND", "badger")),
			DataPath:     getConfigValue(*sessionPath, "SESSION_DATA_PATH", ""),
			CookieName:   getConfigValue(*cookieName, "SESSION_COOKIE_NAME", "libraryhub_session"),
			CookieSecure: getBoolConfigValue(*cookieSecure, "SESSION_COOKIE_SECURE", false),
			CookieKey:    nil, // Will be set by auth.LoadOrGenerateKey during bootstrap
		},
		Web: WebConfig{
			TemplateDir:            getConfigValue(*templateDir, "WEB_TEMPLATE_DIR", ""),
			AllowedOrigins:         splitList(getConfigValue(*allowedOrigins, "CORS_ALLOWED_ORIGINS", "")),
			LoginAttemptsPerMinute: getIntConfigValue(*loginRate, "LOGIN_RATE_PER_MINUTE", 10),
			TrustProxy:             getBoolConfigValue(*trustProxy, "TRUST_PROXY", false),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		target    *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*apiTimeout, "API_TIMEOUT", "8s", &cfg.API.Timeout},
		{*sessionTTL, "SESSION_TTL", "720h", &cfg.Session.TTL},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandSessionPath(); err != nil {
		return nil, fmt.Errorf("invalid session path: %w", err)
	}

	if err := cfg.expandTemplateDir(); err != nil {
		return nil, fmt.Errorf("invalid template dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid API base URL: %q (must be an absolute http(s) URL)", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 {
		return errors.New("API timeout must be positive")
	}

	if c.API.RequestsPerSecond <= 0 || c.API.Burst <= 0 {
		return errors.New("API rate and burst must be positive")
	}

	switch c.Session.Backend {
	case "badger", "sqlite":
	default:
		return fmt.Errorf("invalid session backend: %s (must be badger or sqlite)", c.Session.Backend)
	}

	if c.Session.DataPath == "" {
		return errors.New("session data path cannot be empty after expansion")
	}

	if c.Session.CookieName == "" {
		return errors.New("session cookie name cannot be empty")
	}

	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}

	// Cookie key is set by auth.LoadOrGenerateKey during bootstrap.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandSessionPath defaults to ~/LibraryHub/sessions.
func (c *Config) expandSessionPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "LibraryHub", "sessions")

	expanded, err := expandPath(c.Session.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Session.DataPath = expanded
	return nil
}

// expandTemplateDir leaves an empty dir empty so embedded templates are used.
func (c *Config) expandTemplateDir() error {
	if c.Web.TemplateDir == "" {
		return nil
	}
	expanded, err := expandPath(c.Web.TemplateDir, "")
	if err != nil {
		return err
	}
	c.Web.TemplateDir = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
