package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/doculex/pkg/config"
	"github.com/corvid-labs/doculex/pkg/crypto"
	"github.com/corvid-labs/doculex/pkg/handler"
	"github.com/corvid-labs/doculex/pkg/index"
	"github.com/corvid-labs/doculex/pkg/log"
	"github.com/corvid-labs/doculex/pkg/metrics"
	"github.com/corvid-labs/doculex/pkg/server"
	"github.com/corvid-labs/doculex/pkg/store"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "doculexd",
	Short:   "doculexd - a concurrent in-memory document store with search",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("doculexd version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("config", "", "Path to an optional YAML config file")
	rootCmd.PersistentFlags().String("bind-addr", "", "Address to bind the TCP listener to")
	rootCmd.PersistentFlags().Int("port", 0, "TCP port to listen on (default 13413)")
	rootCmd.PersistentFlags().String("snapshot-path", "", "Path to the snapshot file")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Address for the Prometheus metrics HTTP server (empty disables it)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// loadConfig overlays persistent flags actually set by the user onto
// defaults plus an optional YAML file, in that precedence order.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(cfg, configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("bind-addr") {
		cfg.BindAddr, _ = flags.GetString("bind-addr")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("snapshot-path") {
		cfg.SnapshotPath, _ = flags.GetString("snapshot-path")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.LogJSON, _ = flags.GetBool("log-json")
	}
	return cfg, nil
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	if logLevel == "" {
		logLevel = "info"
	}
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the doculexd TCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

		metrics.SetVersion(Version)

		s := store.New()
		idx := index.New()
		loadTimer := metrics.NewTimer()
		if err := s.Initialize(cfg.SnapshotPath); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		loadTimer.ObserveDurationVec(metrics.SnapshotDuration, "load")
		if err := idx.Initialize(s); err != nil {
			return fmt.Errorf("build index: %w", err)
		}
		log.Info(fmt.Sprintf("loaded snapshot from %s (%d documents)", cfg.SnapshotPath, s.DocumentCount()))

		h := handler.New(s, idx, crypto.NewReversibleCipher())
		srv := server.New(cfg.Addr(), h)

		collector := metrics.NewCollector(s, idx)
		collector.Start()
		defer collector.Stop()

		metrics.RegisterComponent("store", true, "ready")
		metrics.RegisterComponent("listener", false, "starting")

		if cfg.MetricsAddr != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				mux.Handle("/health", metrics.HealthHandler())
				mux.Handle("/ready", metrics.ReadyHandler())
				mux.Handle("/live", metrics.LivenessHandler())
				if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
					log.Error(fmt.Sprintf("metrics server error: %v", err))
				}
			}()
			log.Info(fmt.Sprintf("metrics listening on %s", cfg.MetricsAddr))
		}

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(ctx); err != nil {
				errCh <- err
			}
		}()
		metrics.RegisterComponent("listener", true, "ready")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("shutdown signal received")
		case err := <-errCh:
			log.Error(fmt.Sprintf("server error: %v", err))
		}
		cancel()

		persistTimer := metrics.NewTimer()
		if err := s.Persist(cfg.SnapshotPath); err != nil {
			return fmt.Errorf("persist snapshot on shutdown: %w", err)
		}
		persistTimer.ObserveDurationVec(metrics.SnapshotDuration, "persist")
		log.Info("snapshot persisted, shutdown complete")
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect or migrate a snapshot file",
}

var snapshotLoadCmd = &cobra.Command{
	Use:   "load PATH",
	Short: "Validate a snapshot file by loading it, reporting document and token counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := store.New()
		idx := index.New()
		if err := s.Initialize(args[0]); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if err := idx.Initialize(s); err != nil {
			return fmt.Errorf("build index: %w", err)
		}
		fmt.Printf("Loaded %s\n", args[0])
		fmt.Printf("  Documents: %d\n", s.DocumentCount())
		fmt.Printf("  Index tokens: %d\n", idx.TokenCount())
		return nil
	},
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save SOURCE DEST",
	Short: "Load a snapshot from SOURCE and re-persist it to DEST",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := store.New()
		if err := s.Initialize(args[0]); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if err := s.Persist(args[1]); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
		fmt.Printf("Wrote %s (%d documents) from %s\n", args[1], s.DocumentCount(), args[0])
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotLoadCmd)
	snapshotCmd.AddCommand(snapshotSaveCmd)
}
