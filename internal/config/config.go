package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultAddress is where the canvas plugin listens out of the box.
const DefaultAddress = "localhost:8080"

// Config is the top-level configuration loaded from config.toml.
type Config struct {
	Canvas    CanvasConfig    `toml:"canvas"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Resolver  ResolverConfig  `toml:"resolver"`
	Documents DocumentsConfig `toml:"documents"`
	Log       LogConfig       `toml:"log"`
}

// CanvasConfig describes how to reach the canvas.
type CanvasConfig struct {
	// host:port for TCP, or a ws:// URL for the WebSocket endpoint.
	Address string `toml:"address"`
	// Zero means no limit.
	DialTimeout time.Duration `toml:"dial_timeout"`
	IOTimeout   time.Duration `toml:"io_timeout"`
}

// CatalogConfig locates the component catalog documents.
type CatalogConfig struct {
	// Directory holding component_mapping.json and friends. Empty means
	// catalog/ next to the executable.
	Dir      string `toml:"dir"`
	Cache    bool   `toml:"cache"`
	Validate bool   `toml:"validate"`
}

// ResolverConfig extends the set of two-input component types whose target
// port is inferred.
type ResolverConfig struct {
	BinaryTypes []string `toml:"binary_types"`
}

// DocumentsConfig restricts the paths save and load may touch.
type DocumentsConfig struct {
	Allow []string `toml:"allow"`
	Deny  []string `toml:"deny"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level string `toml:"level"`
	// "text" or "json". Empty picks text on a terminal and json otherwise.
	Format string `toml:"format"`
}

// CanvasEntry is a saved canvas endpoint.
type CanvasEntry struct {
	Address string `toml:"address"`
}

// CanvasesConfig is the saved canvas list (<dataDir>/canvases.toml).
type CanvasesConfig struct {
	Canvases map[string]CanvasEntry `toml:"canvases"`
}

var validCanvasName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateCanvasName checks that name is non-empty and contains only
// alphanumeric characters, hyphens, or underscores.
func ValidateCanvasName(name string) error {
	if name == "" || !validCanvasName.MatchString(name) {
		return fmt.Errorf("canvas name must be non-empty and alphanumeric (with - or _), got: %q", name)
	}
	return nil
}

// DefaultCatalogDir is the catalog/ directory next to the running executable.
func DefaultCatalogDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "catalog"
	}
	return filepath.Join(filepath.Dir(exe), "catalog")
}

func defaults() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Address: DefaultAddress,
		},
		Catalog: CatalogConfig{
			Dir:      DefaultCatalogDir(),
			Validate: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads config.toml from dataDir, applies environment variable
// overrides and validates the result. A .env file in the working directory,
// when present, is loaded into the environment first; variables already set
// take precedence over it.
func Load(dataDir string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := defaults()

	path := filepath.Join(dataDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if cfg.Catalog.Dir == "" {
			cfg.Catalog.Dir = DefaultCatalogDir()
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file settings from GH_MCP_* variables.
func applyEnv(cfg *Config) error {
	if addr := os.Getenv("GH_MCP_ADDRESS"); addr != "" {
		cfg.Canvas.Address = addr
	} else if host, port := os.Getenv("GH_MCP_HOST"), os.Getenv("GH_MCP_PORT"); host != "" || port != "" {
		curHost, curPort, err := net.SplitHostPort(cfg.Canvas.Address)
		if err != nil {
			curHost, curPort = "localhost", "8080"
		}
		if host == "" {
			host = curHost
		}
		if port == "" {
			port = curPort
		}
		cfg.Canvas.Address = net.JoinHostPort(host, port)
	}

	if dir := os.Getenv("GH_MCP_CATALOG_DIR"); dir != "" {
		cfg.Catalog.Dir = dir
	}
	if v := os.Getenv("GH_MCP_CATALOG_CACHE"); v != "" {
		cache, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GH_MCP_CATALOG_CACHE: %w", err)
		}
		cfg.Catalog.Cache = cache
	}
	if level := os.Getenv("GH_MCP_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Canvas.Address) == "" {
		return errors.New("canvas.address must not be empty")
	}
	if c.Canvas.DialTimeout < 0 {
		return fmt.Errorf("canvas.dial_timeout must not be negative, got %s", c.Canvas.DialTimeout)
	}
	if c.Canvas.IOTimeout < 0 {
		return fmt.Errorf("canvas.io_timeout must not be negative, got %s", c.Canvas.IOTimeout)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// LoadCanvasesConfig reads canvases.toml from dataDir. If the file does not
// exist an empty CanvasesConfig is returned.
func LoadCanvasesConfig(dataDir string) (*CanvasesConfig, error) {
	path := filepath.Join(dataDir, "canvases.toml")

	cc := &CanvasesConfig{
		Canvases: make(map[string]CanvasEntry),
	}

	if _, err := os.Stat(path); err != nil {
		return cc, nil
	}

	if _, err := toml.DecodeFile(path, cc); err != nil {
		return nil, fmt.Errorf("parsing canvases.toml: %w", err)
	}
	if cc.Canvases == nil {
		cc.Canvases = make(map[string]CanvasEntry)
	}

	return cc, nil
}

// Save writes the CanvasesConfig to canvases.toml inside dataDir, creating
// the directory if necessary.
func (c *CanvasesConfig) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(dataDir, "canvases.toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding canvases.toml: %w", err)
	}

	return nil
}
