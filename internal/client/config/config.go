package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/client/store"
	"github.com/dmitrijs2005/simpleshare/internal/flagx"
)

// Config holds runtime settings for the SimpleShare shell.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - OnlineCheckInterval: how often the shell checks server reachability.
//   - ProviderKind: "remote" or "local", see providers.ParseKind.
//   - DataDir: directory holding the local metadata database.
//   - ToastSeconds: lifetime of a toast pushed without an explicit duration.
//   - ToastTick: aging period of the toast driver.
//   - LogFormat / LogLevel: see logging.New.
//   - PersistBlacklist: store slices that are never written to disk.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	ProviderKind        string
	DataDir             string
	ToastSeconds        int
	ToastTick           time.Duration
	LogFormat           string
	LogLevel            string
	PersistBlacklist    []string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.ProviderKind = "remote"
	c.DataDir = ".simpleshare"
	c.ToastSeconds = 5
	c.ToastTick = time.Second
	c.LogFormat = "text"
	c.LogLevel = "warn"
	c.PersistBlacklist = slices.Clone(store.DefaultBlacklist)
}

// LoadConfig builds a Config by applying defaults, then the file named by
// -c/-config (JSON or YAML) and finally command-line flags. Later sources
// take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigFileFlag(args); path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	if c.ToastTick <= 0 {
		return fmt.Errorf("toast tick must be positive, got %s", c.ToastTick)
	}
	if c.ToastSeconds <= 0 {
		return fmt.Errorf("toast seconds must be positive, got %d", c.ToastSeconds)
	}
	return nil
}
