package cmd

import (
	"fmt"

	"github.com/infieles/reportes/config"
	"github.com/infieles/reportes/logger"
	"github.com/spf13/cobra"
)

type VersionInfo struct {
	Version string
	Commit  string
}

type rootOptions struct {
	envFile  string
	logLevel string
}

// load reads the configuration and builds the root logger.
func (o *rootOptions) load() (*config.Config, logger.LoggerService, error) {
	conf, err := config.Load(o.envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		conf.LogLevel = o.logLevel
	}
	return conf, logger.New("reportes", logger.OptionsFromConfig(conf)), nil
}

func NewRootCommand(info VersionInfo) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "reportes",
		Short:         "Reportes API",
		Long:          "HTTP API for submitting, browsing and moderating reports with photo evidence.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "env file to load outside release mode (default is ./.env)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	cmd.AddCommand(newServeCommand(opts, info))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newHashTokenCommand())
	cmd.AddCommand(newVersionCommand(info))

	return cmd
}

func newVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("reportes %s (%s)\n", info.Version, info.Commit)
		},
	}
}
