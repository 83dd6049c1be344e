package config

import (
	"flag"
	"strings"
	"time"

	"github.com/dmitrijs2005/simpleshare/internal/flagx"
)

// sliceList collects repeated -b values. The first value replaces whatever
// list was configured before.
type sliceList struct {
	dst *[]string
	set bool
}

func (s *sliceList) String() string {
	if s.dst == nil {
		return ""
	}
	return strings.Join(*s.dst, ",")
}

func (s *sliceList) Set(v string) error {
	if !s.set {
		*s.dst = nil
		s.set = true
	}
	for _, name := range strings.Split(v, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*s.dst = append(*s.dst, name)
		}
	}
	return nil
}

// parseFlags overlays command-line flags onto cfg.
//
//	-a string     address and port of the backend server
//	-i int        online check interval in seconds
//	-p string     provider kind (remote, local)
//	-d string     data directory
//	-s int        default toast lifetime in seconds
//	-k duration   toast aging tick
//	-l string     log format (text, json, zap)
//	-v string     log level
//	-b string     never persist this store slice; repeatable or comma separated
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-p", "-d", "-s", "-k", "-l", "-v", "-b"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.ProviderKind, "p", cfg.ProviderKind, "provider kind")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.IntVar(&cfg.ToastSeconds, "s", cfg.ToastSeconds, "default toast lifetime (in seconds)")
	fs.DurationVar(&cfg.ToastTick, "k", cfg.ToastTick, "toast aging tick")
	fs.StringVar(&cfg.LogFormat, "l", cfg.LogFormat, "log format")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	fs.Var(&sliceList{dst: &cfg.PersistBlacklist}, "b", "store slice excluded from persistence")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
	return nil
}
