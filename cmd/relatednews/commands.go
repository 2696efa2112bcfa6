package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"RelatedNews/internal/app"
	"RelatedNews/internal/config"
	"RelatedNews/internal/domain"
	"RelatedNews/internal/logging"
)

var flagConfig string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "relatednews",
		Short:        "Related news selection and rendering",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (defaults to $RELATED_NEWS_CONFIG)")

	root.AddCommand(migrateCmd(), importCmd(), relatedCmd(), serveCmd())
	return root
}

func loadApp() (*app.Application, error) {
	path := flagConfig
	if path == "" {
		path = os.Getenv(config.PathEnv)
	}
	cfg := config.LoadFile(path)
	return app.New(cfg, logging.New(cfg.Logging))
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the content tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()
			return application.Migrate(cmd.Context())
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import news items from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Migrate(cmd.Context()); err != nil {
				return err
			}
			n, err := application.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d items\n", n)
			return nil
		},
	}
}

func relatedCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "related <news-id>",
		Short: "Print the related news block for a news item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid news id %q", args[0])
			}

			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()

			bundle, err := application.Related(cmd.Context(), domain.ItemID(id), count)
			if err != nil {
				return err
			}
			for _, f := range bundle.Fragments {
				fmt.Fprintln(cmd.OutOrStdout(), f.HTML)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "number of related items (defaults to related.pageCount)")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve related news blocks over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := application.Migrate(ctx); err != nil {
				return err
			}
			return application.Run(ctx)
		},
	}
}
