package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind          string
	port          int
	prefix        string
	profile       bool
	tlsCert       string
	tlsKey        string
	verbose       bool
	version       bool
	enforceAuth   bool
	handSize      int
	chatHistory   int
	roomRetention time.Duration
	reapInterval  time.Duration
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.handSize < 1 {
		return fmt.Errorf("invalid hand size (must be positive): %d", c.handSize)
	}
	if c.chatHistory < 0 {
		return fmt.Errorf("invalid chat history size (must be non-negative): %d", c.chatHistory)
	}
	if c.reapInterval <= 0 || c.roomRetention <= 0 {
		return errors.New("--reap-interval and --room-retention must be positive")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("AXISWOLF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "axiswolf",
		Short:         "Session coordinator for the axis-wolf deduction party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: AXISWOLF_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8000, "port to listen on (env: AXISWOLF_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: AXISWOLF_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: AXISWOLF_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: AXISWOLF_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: AXISWOLF_TLS_KEY)")
	fs.BoolVar(&cfg.enforceAuth, "enforce-auth", false, "require player credentials on state-mutating calls (env: AXISWOLF_ENFORCE_AUTH)")
	fs.IntVar(&cfg.handSize, "hand-size", 5, "cards dealt to each player per round (env: AXISWOLF_HAND_SIZE)")
	fs.IntVar(&cfg.chatHistory, "chat-history", 200, "chat messages retained per room for replay (env: AXISWOLF_CHAT_HISTORY)")
	fs.DurationVar(&cfg.roomRetention, "room-retention", 14*24*time.Hour, "time before idle rooms are deleted (env: AXISWOLF_ROOM_RETENTION)")
	fs.DurationVar(&cfg.reapInterval, "reap-interval", 24*time.Hour, "how often idle rooms are scanned for deletion (env: AXISWOLF_REAP_INTERVAL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: AXISWOLF_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: AXISWOLF_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("axiswolf v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
