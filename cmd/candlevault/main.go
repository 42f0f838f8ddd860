package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"CandleVault/internal/catalog"
	"CandleVault/internal/chart"
	"CandleVault/internal/config"
	"CandleVault/internal/fetcher"
	"CandleVault/internal/recorder"
	"CandleVault/internal/scheduler"
	"CandleVault/internal/server"
	"CandleVault/internal/store"
	"CandleVault/internal/updater"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	dataDir      string
	catalogFile  string
	listenAddr   string
	syncCron     string
	workers      int
	fallbackDays int
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "candlevault",
		Short: "Keeps OHLCV datasets synchronized and serves chart payloads",
		Long: `CandleVault incrementally synchronizes locally persisted daily OHLCV
datasets with their remote sources and serves them at multiple time
resolutions together with derived technical indicators.`,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "configs/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding per-dataset CSV series")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "Dataset id -> ticker mapping file")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Concurrent dataset updates per sync run")
	rootCmd.PersistentFlags().IntVar(&fallbackDays, "fallback-days", 0, "History depth for a dataset with no local series")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chart API with scheduled background synchronization",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address")
	serveCmd.Flags().StringVar(&syncCron, "sync-cron", "", "Cron expression for the batch sync")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize all datasets once and exit",
		RunE:  runSync,
	}

	datasetsCmd := &cobra.Command{
		Use:   "datasets",
		Short: "List known datasets and their local coverage",
		RunE:  runDatasets,
	}

	rootCmd.AddCommand(serveCmd, syncCmd, datasetsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired component graph shared by all subcommands.
type app struct {
	cfg     *config.Config
	store   *store.Store
	catalog *catalog.Catalog
	updater *updater.Updater
	builder *chart.Builder
	rec     recorder.Recorder
}

func buildApp() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Command-line flags override file and environment.
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}
	if catalogFile != "" {
		cfg.Data.CatalogFile = catalogFile
	}
	if workers > 0 {
		cfg.Sync.Workers = workers
	}
	if fallbackDays > 0 {
		cfg.Sync.FallbackDays = fallbackDays
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}
	if syncCron != "" {
		cfg.Sync.Cron = syncCron
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	st, err := store.New(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	cat, err := catalog.Load(cfg.Data.CatalogFile, cfg.Data.DefaultDataset)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	router := fetcher.NewRouter(
		fetcher.NewYahooFetcher(cfg.Proxy),
		fetcher.NewBinanceFetcher(cfg.Proxy),
	)

	upd := updater.New(st, cat, router)
	upd.FallbackDays = cfg.Sync.FallbackDays
	upd.FetchTimeout = cfg.FetchTimeout()

	builder := chart.NewBuilder(st, cat)
	upd.OnUpdated = builder.Invalidate

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	return &app{cfg: cfg, store: st, catalog: cat, updater: upd, builder: builder, rec: rec}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.rec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, a.updater, a.rec, a.cfg.Sync.Workers)
	if err := sched.Register(a.cfg.Sync.Cron); err != nil {
		return fmt.Errorf("register sync task: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("SYNC_ON_START") == "true" {
		log.Println("[INFO] SYNC_ON_START enabled, running batch sync now")
		go sched.RunSync("manual")
	}

	srv := server.New(a.builder, a.catalog)
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] chart API listening on %s", a.cfg.Server.ListenAddr)
		errCh <- srv.Run(a.cfg.Server.ListenAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("[INFO] received %v, stopping", sig)
		return nil
	case err := <-errCh:
		return err
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.rec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, a.updater, a.rec, a.cfg.Sync.Workers)
	outcomes := sched.RunSync("manual")
	failed := 0
	for _, o := range outcomes {
		if o.Status == updater.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d datasets failed to sync", failed, len(outcomes))
	}
	return nil
}

func runDatasets(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.rec.Close()

	for _, s := range a.builder.ListDatasets() {
		marker := " "
		if s.Default {
			marker = "*"
		}
		fmt.Printf("%s %-40s %6d rows  %s\n", marker, s.ID, s.Rows, s.Range)
	}
	return nil
}
