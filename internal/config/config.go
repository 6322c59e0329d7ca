package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/roosthq/roost/internal/logger"
	"github.com/spf13/viper"
)

// Well-known service names used across the registry, the run directory
// and command output.
const (
	ServiceDaemon  = "agentd"
	ServiceGateway = "gateway"
)

// Defaults applied when roost.toml is absent or partial.
const (
	DefaultDaemonPort  = 18789
	DefaultGatewayPort = 18790
	DefaultWorkers     = 4
	DefaultQueueSize   = 64
	DefaultAPIBaseURL  = "https://api.roosthq.dev"
	DefaultRegistryURL = "https://registry.npmjs.org"
	DefaultPackage     = "@roosthq/cli"
	DefaultMarketURL   = "https://market.roosthq.dev"
	DefaultStartBudget = 15 * time.Second
	DefaultStopWait    = 5 * time.Second
	DefaultHTTPTimeout = 30 * time.Second
	DefaultTokenTTL    = 24 * time.Hour
)

// FileConfig represents the top-level TOML structure of config.toml.
type FileConfig struct {
	Home     string         `toml:"home" mapstructure:"home"`
	Log      *logger.Config `toml:"log" mapstructure:"log"`
	Daemon   DaemonConfig   `toml:"daemon" mapstructure:"daemon"`
	Gateway  GatewayConfig  `toml:"gateway" mapstructure:"gateway"`
	API      APIConfig      `toml:"api" mapstructure:"api"`
	Auth     AuthConfig     `toml:"auth" mapstructure:"auth"`
	History  HistoryConfig  `toml:"history" mapstructure:"history"`
	Registry RegistryConfig `toml:"registry" mapstructure:"registry"`
	Market   MarketConfig   `toml:"market" mapstructure:"market"`
}

// DaemonConfig configures the local agent daemon.
type DaemonConfig struct {
	Port        int           `toml:"port" mapstructure:"port"`
	Bin         string        `toml:"bin" mapstructure:"bin"` // override; empty re-executes the roost binary
	Workers     int           `toml:"workers" mapstructure:"workers"`
	QueueSize   int           `toml:"queue_size" mapstructure:"queue_size"`
	Env         []string      `toml:"env" mapstructure:"env"`
	StartBudget time.Duration `toml:"start_budget" mapstructure:"start_budget"`
	StopWait    time.Duration `toml:"stop_wait" mapstructure:"stop_wait"`
}

// GatewayConfig configures the channel gateway.
type GatewayConfig struct {
	Port        int           `toml:"port" mapstructure:"port"`
	Bin         string        `toml:"bin" mapstructure:"bin"`
	Env         []string      `toml:"env" mapstructure:"env"`
	StartBudget time.Duration `toml:"start_budget" mapstructure:"start_budget"`
	StopWait    time.Duration `toml:"stop_wait" mapstructure:"stop_wait"`
}

// APIConfig points at the hosted platform API.
type APIConfig struct {
	BaseURL string        `toml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// AuthConfig configures the daemon's user store and token minting.
type AuthConfig struct {
	DSN        string        `toml:"dsn" mapstructure:"dsn"` // sqlite:// or postgres://, defaults to sqlite under the data dir
	JWTSecret  string        `toml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `toml:"token_ttl" mapstructure:"token_ttl"`
	BcryptCost int           `toml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
}

// HistoryConfig lists lifecycle event sinks as DSNs
// (sqlite://, postgres://, clickhouse://, opensearch://).
type HistoryConfig struct {
	Sinks []string `toml:"sinks" mapstructure:"sinks"`
}

// RegistryConfig points the update check at an npm-compatible registry.
type RegistryConfig struct {
	URL     string `toml:"url" mapstructure:"url"`
	Package string `toml:"package" mapstructure:"package"`
}

// MarketConfig points at the skill marketplace.
type MarketConfig struct {
	URL string `toml:"url" mapstructure:"url"`
}

// Config is a loaded FileConfig with defaults applied and the home
// directory resolved.
type Config struct {
	FileConfig
	home string
}

// DefaultHome returns ~/.roost, or a .roost directory under the current
// working directory when the home directory cannot be resolved.
func DefaultHome() string {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, ".roost")
	}
	return ".roost"
}

// DefaultPath returns the default config file location.
func DefaultPath() string { return filepath.Join(DefaultHome(), "config.toml") }

// Load reads a TOML config. With an empty path the default location is
// used, and a missing file there is not an error: every field has a
// default. An explicitly given path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	var fc FileConfig
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}
	return finish(fc)
}

func finish(fc FileConfig) (*Config, error) {
	c := &Config{FileConfig: fc}
	c.home = fc.Home
	if c.home == "" {
		c.home = DefaultHome()
	}
	if c.Daemon.Port <= 0 {
		c.Daemon.Port = DefaultDaemonPort
	}
	if c.Daemon.Workers <= 0 {
		c.Daemon.Workers = DefaultWorkers
	}
	if c.Daemon.QueueSize <= 0 {
		c.Daemon.QueueSize = DefaultQueueSize
	}
	if c.Daemon.StartBudget <= 0 {
		c.Daemon.StartBudget = DefaultStartBudget
	}
	if c.Daemon.StopWait <= 0 {
		c.Daemon.StopWait = DefaultStopWait
	}
	if c.Gateway.Port <= 0 {
		c.Gateway.Port = DefaultGatewayPort
	}
	if c.Gateway.StartBudget <= 0 {
		c.Gateway.StartBudget = DefaultStartBudget
	}
	if c.Gateway.StopWait <= 0 {
		c.Gateway.StopWait = DefaultStopWait
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = DefaultHTTPTimeout
	}
	if c.Auth.DSN == "" {
		c.Auth.DSN = "sqlite://" + filepath.Join(c.DataDir(), "auth.db")
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = DefaultTokenTTL
	}
	if c.Registry.URL == "" {
		c.Registry.URL = DefaultRegistryURL
	}
	if c.Registry.Package == "" {
		c.Registry.Package = DefaultPackage
	}
	if c.Market.URL == "" {
		c.Market.URL = DefaultMarketURL
	}
	if c.Log == nil {
		c.Log = &logger.Config{}
	}
	if c.Log.Dir == "" && c.Log.Path == "" {
		c.Log.Dir = c.LogDir()
	}
	return c, nil
}

// Home returns the resolved base directory for all per-user state.
func (c *Config) Home() string { return c.home }

// RunDir holds one record file per supervised service.
func (c *Config) RunDir() string { return filepath.Join(c.home, "run") }

// LogDir holds service log files.
func (c *Config) LogDir() string { return filepath.Join(c.home, "log") }

// DataDir holds the JSON stores and the default auth database.
func (c *Config) DataDir() string { return filepath.Join(c.home, "data") }

// SessionPath is where the CLI keeps the login session.
func (c *Config) SessionPath() string { return filepath.Join(c.home, "session.json") }

// ServiceLogFile returns the stdio capture file for a supervised
// service. Distinct from the structured log the service writes itself.
func (c *Config) ServiceLogFile(service string) string {
	return filepath.Join(c.LogDir(), service+".log")
}

// DaemonURL returns the loopback base URL of the agent daemon.
func (c *Config) DaemonURL() string {
	return "http://127.0.0.1:" + strconv.Itoa(c.Daemon.Port)
}

// GatewayURL returns the loopback base URL of the gateway.
func (c *Config) GatewayURL() string {
	return "http://127.0.0.1:" + strconv.Itoa(c.Gateway.Port)
}
