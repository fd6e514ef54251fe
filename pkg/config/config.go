package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig contains server-specific configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Root            string        `mapstructure:"root"`
	APIPrefix       string        `mapstructure:"api_prefix"`
	RuntimeInfo     bool          `mapstructure:"runtime_info"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AssetsConfig describes the asset tree below the server root.
type AssetsConfig struct {
	// Dir is the asset root, relative to Server.Root unless absolute.
	Dir        string              `mapstructure:"dir"`
	DefaultDir string              `mapstructure:"default_dir"`
	Aliases    []string            `mapstructure:"aliases"`
	Extensions map[string][]string `mapstructure:"extensions"`
}

// TelemetryConfig contains telemetry configuration
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// AssetRoot returns the absolute asset root directory.
func (c *Config) AssetRoot() string {
	if filepath.IsAbs(c.Assets.Dir) {
		return c.Assets.Dir
	}
	return filepath.Join(c.Server.Root, c.Assets.Dir)
}

// Default returns a configuration populated with the built-in defaults,
// rooted at root.
func Default(root string) *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Root:            root,
			APIPrefix:       "/api/files",
			ShutdownTimeout: 10 * time.Second,
		},
		Assets: AssetsConfig{
			Dir:        "assets",
			DefaultDir: "photos",
			Aliases:    []string{"photos", "music"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads the configuration from viper
func Load() (*Config, error) {
	cfg := &Config{}

	// Set defaults
	setDefaults()

	// Unmarshal configuration
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Post-process configuration
	if err := postProcess(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.root", "")
	viper.SetDefault("server.api_prefix", "/api/files")
	viper.SetDefault("server.runtime_info", false)
	viper.SetDefault("server.shutdown_timeout", "10s")

	// Asset defaults
	viper.SetDefault("assets.dir", "assets")
	viper.SetDefault("assets.default_dir", "photos")
	viper.SetDefault("assets.aliases", []string{"photos", "music"})

	// Telemetry defaults
	viper.SetDefault("telemetry.enabled", false)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", false)

	viper.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func postProcess(cfg *Config) error {
	// Serve from the current directory if no root is given
	if cfg.Server.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg.Server.Root = wd
	}

	if !filepath.IsAbs(cfg.Server.Root) {
		abs, err := filepath.Abs(cfg.Server.Root)
		if err != nil {
			return err
		}
		cfg.Server.Root = abs
	}

	// Extension lists are matched case-insensitively with a leading dot
	for alias, exts := range cfg.Assets.Extensions {
		normalized := make([]string, 0, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			normalized = append(normalized, ext)
		}
		cfg.Assets.Extensions[alias] = normalized
	}

	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.APIPrefix, "/") {
		return fmt.Errorf("api prefix %q must start with /", c.Server.APIPrefix)
	}
	if c.Assets.Dir == "" {
		return fmt.Errorf("assets directory must not be empty")
	}
	if c.Assets.DefaultDir == "" {
		return fmt.Errorf("default asset directory must not be empty")
	}
	return nil
}
