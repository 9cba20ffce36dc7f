package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	releaseVersion = "0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg := &Config{}
	cmd := newCmd(cfg)
	cobra.OnInitialize(func() {
		if cfg.verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	})
	cobra.CheckErr(cmd.Execute())
}
