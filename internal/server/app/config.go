package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// SSE keep-alive bounds.
const (
	MinKeepAlive = 10 * time.Second
	MaxKeepAlive = 30 * time.Second
)

type Config struct {
	Env                  string        `yaml:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        `yaml:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `yaml:"log_format"`            // Log format (json, text) (default: json)
	Port                 int           `yaml:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval"` // Expired record sweep (default: 5m)
	PublicBaseURL        string        `yaml:"public_base_url"`       // Optional: fixed issuer, otherwise derived per request

	StoreDriver  string `yaml:"store_driver"`  // memory or sqlite (default: memory)
	DatabaseFile string `yaml:"database_file"` // SQLite file (default: influxmcp.db)
	SecretPepper string `yaml:"secret_pepper"` // Appended to client secrets before hashing; must stay stable for sqlite

	InfluxURL     string        `yaml:"influxdb_url"`     // default: http://localhost:8086
	InfluxToken   string        `yaml:"influxdb_token"`   // Required before MCP traffic is served
	InfluxOrg     string        `yaml:"influxdb_org"`     // Optional: default org for tools
	InfluxTimeout time.Duration `yaml:"influxdb_timeout"` // default: 30s

	AuthCodeTTL              time.Duration `yaml:"auth_code_ttl"`              // default: 10m
	AccessTokenTTL           time.Duration `yaml:"access_token_ttl"`           // default: 1h
	RefreshTokenTTL          time.Duration `yaml:"refresh_token_ttl"`          // default: 720h
	RotateRefreshTokens      bool          `yaml:"rotate_refresh_tokens"`      // default: false
	AllowUnregisteredClients bool          `yaml:"allow_unregistered_clients"` // default: true
	AutoRegisterOrigins      []string      `yaml:"auto_register_origins"`      // empty allows any origin
	RequireAuth              bool          `yaml:"require_auth"`               // bearer token on MCP transports (default: false)

	ServerName              string        `yaml:"server_name"`               // serverInfo.name
	ToolNameStyle           string        `yaml:"tool_name_style"`           // hyphen or underscore (default: hyphen)
	EnableLoggingCapability bool          `yaml:"enable_logging_capability"` // serve logging/setLevel
	SSEKeepAlive            time.Duration `yaml:"sse_keepalive_interval"`    // clamped to [10s, 30s]
	TelemetryExporter       string        `yaml:"telemetry_exporter"`        // none or stdout (default: none)
}

// DefaultAutoRegisterOrigins are the redirect origins allowed to register a
// client implicitly at the authorize endpoint.
var DefaultAutoRegisterOrigins = []string{
	"https://claude.ai",
	"https://*.claude.ai",
	"https://www.anthropic.com",
	"https://*.anthropic.com",
}

func defaultConfig() Config {
	return Config{
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 5 * time.Minute,

		StoreDriver:  StoreMemory,
		DatabaseFile: "influxmcp.db",

		InfluxURL:     "http://localhost:8086",
		InfluxTimeout: 30 * time.Second,

		AuthCodeTTL:              10 * time.Minute,
		AccessTokenTTL:           time.Hour,
		RefreshTokenTTL:          30 * 24 * time.Hour,
		AllowUnregisteredClients: true,
		AutoRegisterOrigins:      DefaultAutoRegisterOrigins,

		ServerName:        "influxdb-mcp-server",
		ToolNameStyle:     "hyphen",
		SSEKeepAlive:      MaxKeepAlive,
		TelemetryExporter: "none",
	}
}

// LoadConfig reads the configuration from the environment over the defaults.
func LoadConfig() Config {
	return applyEnv(defaultConfig())
}

// LoadConfigFile reads a YAML file over the defaults and then applies the
// environment, so variables win over file values.
func LoadConfigFile(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return applyEnv(cfg), nil
}

// applyEnv overlays environment variables. Current values act as defaults.
func applyEnv(cfg Config) Config {
	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)
	cfg.PublicBaseURL = getEnvOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL)

	cfg.StoreDriver = getEnvOrDefault("STORE_DRIVER", cfg.StoreDriver)
	cfg.DatabaseFile = getEnvOrDefault("DATABASE_FILE", cfg.DatabaseFile)
	cfg.SecretPepper = getEnvOrDefault("SECRET_PEPPER", cfg.SecretPepper)

	cfg.InfluxURL = getEnvOrDefault("INFLUXDB_URL", cfg.InfluxURL)
	cfg.InfluxToken = getEnvOrDefault("INFLUXDB_TOKEN", cfg.InfluxToken)
	cfg.InfluxOrg = getEnvOrDefault("INFLUXDB_ORG", cfg.InfluxOrg)
	cfg.InfluxTimeout = getEnvDurationOrDefault("INFLUXDB_TIMEOUT", cfg.InfluxTimeout)

	cfg.AuthCodeTTL = getEnvDurationOrDefault("AUTH_CODE_TTL", cfg.AuthCodeTTL)
	cfg.AccessTokenTTL = getEnvDurationOrDefault("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.RefreshTokenTTL = getEnvDurationOrDefault("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL)
	cfg.RotateRefreshTokens = getEnvBoolOrDefault("ROTATE_REFRESH_TOKENS", cfg.RotateRefreshTokens)
	cfg.AllowUnregisteredClients = getEnvBoolOrDefault("ALLOW_UNREGISTERED_CLIENTS", cfg.AllowUnregisteredClients)
	cfg.AutoRegisterOrigins = getEnvListOrDefault("AUTO_REGISTER_ORIGINS", cfg.AutoRegisterOrigins)
	cfg.RequireAuth = getEnvBoolOrDefault("REQUIRE_AUTH", cfg.RequireAuth)

	cfg.ServerName = getEnvOrDefault("SERVER_NAME", cfg.ServerName)
	cfg.ToolNameStyle = getEnvOrDefault("TOOL_NAME_STYLE", cfg.ToolNameStyle)
	cfg.EnableLoggingCapability = getEnvBoolOrDefault("ENABLE_LOGGING_CAPABILITY", cfg.EnableLoggingCapability)
	cfg.SSEKeepAlive = getEnvDurationOrDefault("SSE_KEEPALIVE_INTERVAL", cfg.SSEKeepAlive)
	cfg.TelemetryExporter = getEnvOrDefault("TELEMETRY_EXPORTER", cfg.TelemetryExporter)

	return cfg
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("unknown store driver %q (want %s or %s)", c.StoreDriver, StoreMemory, StoreSQLite)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ToolNameStyle != "hyphen" && c.ToolNameStyle != "underscore" {
		return fmt.Errorf("unknown tool name style %q", c.ToolNameStyle)
	}
	if c.PublicBaseURL != "" && !strings.HasPrefix(c.PublicBaseURL, "http://") && !strings.HasPrefix(c.PublicBaseURL, "https://") {
		return fmt.Errorf("public base URL %q must be an http(s) URL", c.PublicBaseURL)
	}
	return nil
}

// KeepAlive returns the SSE ping period clamped to [MinKeepAlive, MaxKeepAlive].
func (c Config) KeepAlive() time.Duration {
	return min(max(c.SSEKeepAlive, MinKeepAlive), MaxKeepAlive)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated variable. A variable that is
// set but empty yields an empty list.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}

	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
