package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/infieles/reportes/db"
	"github.com/infieles/reportes/limiter"
	"github.com/infieles/reportes/server"
	"github.com/infieles/reportes/services"
	"github.com/infieles/reportes/storage"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions, info VersionInfo) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, log, err := opts.load()
			if err != nil {
				return err
			}
			ctx := context.Background()

			if conf.SentryDSN != "" {
				err := sentry.Init(sentry.ClientOptions{
					Dsn:         conf.SentryDSN,
					Environment: conf.Env,
					Release:     fmt.Sprintf("reportes@%s", info.Version),
				})
				if err != nil {
					log.Warn("sentry disabled: %v", err)
				}
				defer sentry.Flush(2 * time.Second)
			}

			gormDB, err := db.GetDB(ctx, conf, log)
			if err != nil {
				return err
			}
			defer gormDB.Close()

			if migrate {
				if err := gormDB.Migrate(); err != nil {
					return err
				}
			}

			files, err := storage.New(ctx, conf, log)
			if err != nil {
				return err
			}

			limiters, err := limiter.NewFactory(conf, time.Now)
			if err != nil {
				return err
			}
			defer limiters.Close()
			if err := limiters.Ping(ctx); err != nil {
				return fmt.Errorf("rate limit backend unreachable: %w", err)
			}

			reportRepo := db.NewReportRepo(gormDB)
			reportService := services.NewReportService(reportRepo, files, conf, log)

			s := &server.Server{
				Config:        conf,
				Log:           log.Named("http"),
				ReportService: reportService,
				AdminVerifier: services.NewAdminVerifier(conf),
				Limiters:      limiters,
			}
			return s.Start(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "create or update the tables before serving")

	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, log, err := opts.load()
			if err != nil {
				return err
			}
			gormDB, err := db.GetDB(cmd.Context(), conf, log)
			if err != nil {
				return err
			}
			defer gormDB.Close()

			if err := gormDB.Migrate(); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func newHashTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token <token>",
		Short: "Print the bcrypt hash to use as ADMIN_TOKEN_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := services.HashAdminToken(args[0])
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}
}
