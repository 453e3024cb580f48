// Package config loads the application configuration.
//
// Resolution order, later wins:
//
//	Default()  →  config.yaml (only the keys present)  →  environment
//
// A missing config file is not an error; every key has a default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sakif/maxsports/internal/catalog"
)

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// ServerConfig configures the local HTTP API.
type ServerConfig struct {
	Port          int           `yaml:"port"`
	TokenTTL      time.Duration `yaml:"token_ttl"`      // lifetime of the local JWT and remember-me cookie
	SecureCookies bool          `yaml:"secure_cookies"` // set Secure on the token cookie (HTTPS deployments)
}

// StorageConfig says where the durable scope lives.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"` // "" means <data_dir>/maxsports.db
}

// AuthConfig holds the secrets. Empty secrets are generated on first start
// and kept in the durable scope.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`  // #nosec G117 -- configuration field, not a credential literal
	SessionKey string `yaml:"session_key"` // #nosec G117 -- configuration field, not a credential literal
	BcryptCost int    `yaml:"bcrypt_cost"` // 0 means auth.DefaultCost
}

// CatalogConfig configures the remote exercise API.
type CatalogConfig struct {
	BaseURL       string        `yaml:"base_url"`
	PageSize      int           `yaml:"page_size"`
	Offline       bool          `yaml:"offline"`        // serve the embedded catalog instead of the API
	SyncBookmarks bool          `yaml:"sync_bookmarks"` // mirror favorite toggles to remote bookmarks
	Timeout       time.Duration `yaml:"timeout"`        // 0 means no client timeout
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "json"
}

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Catalog CatalogConfig `yaml:"catalog"`
	Log     LogConfig     `yaml:"log"`
}

// Defaults that other packages refer to.
const (
	DefaultPort     = 8080
	DefaultTokenTTL = 30 * 24 * time.Hour
	DefaultBaseURL  = catalog.DefaultBaseURL
	DefaultPageSize = catalog.DefaultPageSize
	DBFileName      = "maxsports.db"
)

// Default returns a Config populated with the defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     DefaultPort,
			TokenTTL: DefaultTokenTTL,
		},
		Storage: StorageConfig{
			DataDir: DefaultDataDir(),
		},
		Catalog: CatalogConfig{
			BaseURL:       DefaultBaseURL,
			PageSize:      DefaultPageSize,
			SyncBookmarks: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultDataDir is ~/.maxsports, or ./data when there is no home directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "data"
	}
	return filepath.Join(home, ".maxsports")
}

// Load reads the YAML config at path over Default(). If the file does not
// exist it returns Default() with no error. Keys missing from the file keep
// their default values: yaml.v3 leaves fields it finds no key for untouched.
//
// Durations are written the way time.ParseDuration reads them ("720h",
// "10s").
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ---------------------------------------------------------------------------
// Environment overrides
// ---------------------------------------------------------------------------

// Environment variables read by ApplyEnv.
const (
	EnvPort       = "PORT"
	EnvDataDir    = "MAXSPORTS_DATA_DIR"
	EnvDBPath     = "DB_PATH"
	EnvJWTSecret  = "JWT_SECRET"
	EnvSessionKey = "SESSION_KEY"
	EnvAPIURL     = "MAXSPORTS_API_URL"
)

// ApplyEnv overrides cfg with the environment variables that are set and
// not empty.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	for env, field := range map[string]*string{
		EnvDataDir:    &c.Storage.DataDir,
		EnvDBPath:     &c.Storage.DBPath,
		EnvJWTSecret:  &c.Auth.JWTSecret,
		EnvSessionKey: &c.Auth.SessionKey,
		EnvAPIURL:     &c.Catalog.BaseURL,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	return nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	case c.Server.TokenTTL < 0:
		return fmt.Errorf("config: server.token_ttl must not be negative")
	case c.Catalog.PageSize < 1:
		return fmt.Errorf("config: catalog.page_size must be at least 1")
	case c.Catalog.Timeout < 0:
		return fmt.Errorf("config: catalog.timeout must not be negative")
	case strings.TrimSpace(c.Storage.DataDir) == "" && c.Storage.DBPath == "":
		return fmt.Errorf("config: storage.data_dir or storage.db_path is required")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log.level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// DBFile is the sqlite file of the durable scope.
func (c *Config) DBFile() string {
	if c.Storage.DBPath != "" {
		return expandHome(c.Storage.DBPath)
	}
	return filepath.Join(expandHome(c.Storage.DataDir), DBFileName)
}

// expandHome turns a leading "~/" into the home directory.
func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

// DefaultPath is config.yaml in the default data directory.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}
