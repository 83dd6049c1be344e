package config

import (
	"github.com/dmitrijs2005/simpleshare/internal/configx"
	"github.com/dmitrijs2005/simpleshare/internal/timex"
)

type fileConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	ProviderKind        string         `json:"provider_kind" yaml:"provider_kind"`
	DataDir             string         `json:"data_dir" yaml:"data_dir"`
	ToastSeconds        int            `json:"toast_seconds" yaml:"toast_seconds"`
	ToastTick           timex.Duration `json:"toast_tick" yaml:"toast_tick"`
	LogFormat           string         `json:"log_format" yaml:"log_format"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
	PersistBlacklist    []string       `json:"persist_blacklist" yaml:"persist_blacklist"`
}

// parseFile overlays the file at path onto cfg; absent keys keep their
// current values. A persist_blacklist given in the file replaces the
// default list instead of extending it.
func parseFile(cfg *Config, path string) error {
	c := &fileConfig{
		ServerEndpointAddr:  cfg.ServerEndpointAddr,
		OnlineCheckInterval: timex.Duration{Duration: cfg.OnlineCheckInterval},
		ProviderKind:        cfg.ProviderKind,
		DataDir:             cfg.DataDir,
		ToastSeconds:        cfg.ToastSeconds,
		ToastTick:           timex.Duration{Duration: cfg.ToastTick},
		LogFormat:           cfg.LogFormat,
		LogLevel:            cfg.LogLevel,
	}

	if err := configx.Decode(path, c); err != nil {
		return err
	}

	cfg.ServerEndpointAddr = c.ServerEndpointAddr
	cfg.OnlineCheckInterval = c.OnlineCheckInterval.Duration
	cfg.ProviderKind = c.ProviderKind
	cfg.DataDir = c.DataDir
	cfg.ToastSeconds = c.ToastSeconds
	cfg.ToastTick = c.ToastTick.Duration
	cfg.LogFormat = c.LogFormat
	cfg.LogLevel = c.LogLevel
	if c.PersistBlacklist != nil {
		cfg.PersistBlacklist = c.PersistBlacklist
	}
	return nil
}
