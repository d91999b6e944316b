package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/genricoloni/walltz/internal/cache"
	"github.com/genricoloni/walltz/internal/collection"
	"github.com/genricoloni/walltz/internal/config"
	"github.com/genricoloni/walltz/internal/display"
	"github.com/genricoloni/walltz/internal/domain"
	"github.com/genricoloni/walltz/internal/engine"
	"github.com/genricoloni/walltz/internal/executor"
	"github.com/genricoloni/walltz/internal/fetcher"
	"github.com/genricoloni/walltz/internal/notify"
	"github.com/genricoloni/walltz/internal/processor"
	"github.com/genricoloni/walltz/internal/resolver"
	"github.com/genricoloni/walltz/internal/state"
	"github.com/genricoloni/walltz/internal/wallpaper"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// verbose is bound to the --verbose persistent flag
var verbose bool

// AppOptions is the dependency graph shared by every command.
var AppOptions = fx.Options(
	// Logger configuration
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	fx.Provide(
		newLogger,
		config.NewAppConfig,
		func(c *config.AppConfig) domain.Config { return c },
		func(c *config.AppConfig) engine.Catalog { return c },
		fx.Annotate(fetcher.NewHTTPFetcher, fx.As(new(domain.Fetcher))),
		fx.Annotate(processor.NewTranscoder, fx.As(new(wallpaper.Transcoder))),
		newCache,
		resolver.NewResolver,
		newStore,
		collection.NewManager,
		newExecutor,
		newNotifier,
		newAspectRatioDetector,
		engine.NewEngine,
	),

	// Lifecycle hooks
	fx.Invoke(registerHooks),
)

func main() {
	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Command failed: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "walltz",
	Short:         "Fetch, cache and apply wallpapers",
	Long:          "Fetch wallpapers from configurable image APIs, keep them in curated collections and apply them as the desktop background.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline steps to stderr")
}

// runWithEngine builds the application graph and hands the engine to fn.
func runWithEngine(cmd *cobra.Command, fn func(*engine.Engine) error) error {
	var eng *engine.Engine
	app := fx.New(AppOptions, fx.Populate(&eng))
	if err := app.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Stop(context.Background())

	return fn(eng)
}

// newLogger creates the console logger. Level is warn unless --verbose is set or
// WALLTZ_LOG_LEVEL names one.
func newLogger() (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	if env := strings.TrimSpace(os.Getenv("WALLTZ_LOG_LEVEL")); env != "" {
		parsed, err := zapcore.ParseLevel(env)
		if err != nil {
			return nil, fmt.Errorf("invalid WALLTZ_LOG_LEVEL: %w", err)
		}
		level = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func newCache(logger *zap.Logger, cfg domain.Config) (*cache.Cache, error) {
	return cache.Open(logger, cfg.CacheDir())
}

func newStore(logger *zap.Logger, cfg domain.Config) *state.Store {
	return state.NewStore(logger, cfg.StateFile())
}

// newExecutor keeps commands that never apply a wallpaper usable when detection fails.
func newExecutor(logger *zap.Logger, cfg domain.Config) domain.Executor {
	exe, err := executor.NewExecutor(logger, cfg)
	if err != nil {
		logger.Warn("Wallpaper setter unavailable", zap.Error(err))
		return executor.Unavailable{Err: err}
	}
	return exe
}

func newNotifier(lc fx.Lifecycle, logger *zap.Logger, cfg domain.Config) domain.Notifier {
	n := notify.New(logger, cfg)
	if closer, ok := n.(*notify.DBusNotifier); ok {
		lc.Append(fx.StopHook(closer.Close))
	}
	return n
}

func newAspectRatioDetector(logger *zap.Logger) engine.AspectRatioDetector {
	return func() []string {
		return display.DefaultAspectRatios(logger)
	}
}

// registerHooks sets up application lifecycle hooks
func registerHooks(lc fx.Lifecycle, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Debug("walltz started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// stderr sync fails on some terminals, nothing to do about it
			_ = logger.Sync()
			return nil
		},
	})
}
