package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/qbsync/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // build-time injection

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "qbsync",
		Short:         "QuickBooks Web Connector sync server",
		Long:          "qbsync serves the QuickBooks Web Connector SOAP protocol and replays a queue of customers, employees, invoices and journal entries into a QuickBooks company file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "read environment variables from this file before ./.env")

	serve := newServeCmd(opts)
	rootCmd.RunE = serve.RunE

	rootCmd.AddCommand(
		serve,
		newTokenCmd(opts),
		newHashPasswordCmd(),
		newManifestCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.envFile != "" {
		return config.Load(o.envFile)
	}
	return config.Load()
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
