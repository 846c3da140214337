// Package cmd implements the spendlens CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/cache"
	"github.com/theirongolddev/spendlens/internal/cli"
	"github.com/theirongolddev/spendlens/internal/config"
	"github.com/theirongolddev/spendlens/internal/engine"
	"github.com/theirongolddev/spendlens/internal/logging"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/store"
)

var (
	flagUser    string
	flagConfig  string
	flagDB      string
	flagDays    int
	flagNoCache bool
	flagJSON    bool
	flagQuiet   bool
	flagServer  string
)

var rootCmd = &cobra.Command{
	Use:           "spendlens",
	Short:         "Personal spending analytics",
	Long:          "Import transactions, then forecast spending, detect patterns and generate budgets.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User to analyze (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default "+pipeline.DBPath()+")")
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 0, "Only use the last N days of transactions (0 = all)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the result cache")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Query a running `spendlens serve` at this address instead of computing locally")
}

// app bundles what every command needs.
type app struct {
	cfg    config.Config
	log    *logrus.Logger
	store  *store.Store
	cache  cache.Cache
	engine *engine.Engine
}

func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.Store.Path = flagDB
	}
	if flagNoCache {
		cfg.Cache.Backend = "none"
	}
	return cfg, nil
}

// newApp loads config and opens the store, cache and engine. onEvent may be
// nil.
func newApp(ctx context.Context, onEvent func(engine.Event)) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = pipeline.DBPath()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	c := newCache(ctx, cfg, log)
	eng := engine.New(engine.Options{
		Config:  cfg,
		Cache:   c,
		Results: st,
		Models:  st,
		Logger:  log,
		OnEvent: onEvent,
	})
	return &app{cfg: cfg, log: log, store: st, cache: c, engine: eng}, nil
}

// newCache builds the configured backend. An unreachable redis degrades to
// the in-process cache.
func newCache(ctx context.Context, cfg config.Config, log logrus.FieldLogger) cache.Cache {
	switch cfg.Cache.Backend {
	case "none":
		return cache.Noop{}
	case "redis":
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		r, err := cache.NewRedis(pingCtx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err == nil {
			return r
		}
		log.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("redis unavailable, using memory cache")
	}
	return cache.NewMemory(nil)
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		a.log.WithError(err).Debug("closing cache")
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Debug("closing store")
	}
}

func (a *app) user() string {
	if flagUser != "" {
		return flagUser
	}
	return a.cfg.General.DefaultUser
}

// transactions loads the user's transactions, honoring --days.
func (a *app) transactions(ctx context.Context) ([]model.Transaction, error) {
	var since time.Time
	if flagDays > 0 {
		since = model.Day(time.Now()).AddDate(0, 0, -flagDays)
	}
	txs, err := a.store.LoadTransactions(ctx, a.user(), since)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("no transactions for user %q; run `spendlens import <dir>` first", a.user())
	}
	return txs, nil
}

// withApp runs fn with a ready app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// output prints v as JSON under --json, otherwise the rendered text.
func output(v any, render func() string) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Println()
	fmt.Print(render())
	fmt.Println()
	return nil
}

func progress(label string) pipeline.ProgressFunc {
	return func(current, total int) {
		if flagQuiet || flagJSON {
			return
		}
		if current%10 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  %s [%d/%d]", label, current, total)
		}
	}
}

func title(s string) string {
	return cli.RenderTitle(s) + "\n\n"
}
