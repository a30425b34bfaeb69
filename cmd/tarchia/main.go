package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mabel-dev/tarchia/pkg/api"
	"github.com/mabel-dev/tarchia/pkg/catalog"
	"github.com/mabel-dev/tarchia/pkg/config"
	"github.com/mabel-dev/tarchia/pkg/engine"
	"github.com/mabel-dev/tarchia/pkg/events"
	"github.com/mabel-dev/tarchia/pkg/log"
	"github.com/mabel-dev/tarchia/pkg/metrics"
	"github.com/mabel-dev/tarchia/pkg/storage"
	"github.com/mabel-dev/tarchia/pkg/transaction"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tarchia",
	Short: "Tarchia - Metadata catalog for table-format data lakes",
	Long: `Tarchia is a metadata catalog service for table-format data lakes.

It records the schema, ownership, and snapshot history of immutable data
files stored in an external object store, and brokers atomic updates to
each table's file set through signed transactions.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Tarchia version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "tarchia.yaml", "Path to the configuration file")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the catalog API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := rootCmd.PersistentFlags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.TransactionSigner == "" {
			return fmt.Errorf("TRANSACTION_SIGNER must be configured")
		}

		store, err := storage.NewProvider(cfg.StorageProvider)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		metrics.RegisterComponent("storage", true, "")

		cat, err := catalog.NewProvider(cfg.CatalogProvider, cfg.CatalogName)
		if err != nil {
			return fmt.Errorf("failed to initialize catalog: %w", err)
		}
		defer cat.Close()
		metrics.RegisterComponent("catalog", true, "")

		metrics.SetVersion(Version)

		dispatcher := events.NewDispatcher()
		defer dispatcher.Stop()

		signer := transaction.NewSigner(cfg.TransactionSigner)
		eng := engine.New(cfg, store, cat, signer, dispatcher)
		server := api.NewServer(eng)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.Port)
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-stop:
			log.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Stop(ctx)
		}
	},
}
