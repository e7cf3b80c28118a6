package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"blogwatch/internal/app"
	"blogwatch/internal/config"
	"blogwatch/internal/logging"
)

func main() {
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "blogwatch",
		Short: "Track personal blogs and read their latest posts in one stream",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(listCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildApp() (*app.Application, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	return app.New(cfg, logger)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic refresh scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <url>",
		Short: "Classify, resolve, and ingest one URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			pub, added, err := application.Service().Ingest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s): %d new articles\n", pub.Title, pub.URL, added)
			return nil
		},
	}
}

func refreshCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh publications whose cooldown elapsed",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			refreshed, failures, err := application.Service().RefreshDue(cmd.Context(), force)
			if err != nil {
				return err
			}
			fmt.Printf("%d feeds refreshed\n", refreshed)
			for _, failure := range failures {
				fmt.Printf("  failed: %s: %s\n", failure.Title, failure.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "bypass the refresh cooldown")
	return cmd
}

func listCmd() *cobra.Command {
	var feedID string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List retained articles, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			articles, total, err := application.Service().ListArticles(cmd.Context(), feedID, limit, 0)
			if err != nil {
				return err
			}
			for _, art := range articles {
				fmt.Printf("%s  %s\n    %s\n", art.PublishedAt.Format("2006-01-02"), art.Title, art.URL)
			}
			fmt.Printf("%d of %d articles\n", len(articles), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&feedID, "feed", "", "only articles from this feed id")
	cmd.Flags().IntVar(&limit, "limit", 50, "max articles to print")
	return cmd
}
