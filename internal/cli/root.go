// Package cli implements the bookingcache command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/internal/app"
	"github.com/karupanerura/snapshot-cache/internal/config"
	"github.com/karupanerura/snapshot-cache/internal/render"
	"github.com/karupanerura/snapshot-cache/storage"
	"github.com/karupanerura/snapshot-cache/storage/sqlstorage"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// runner carries the state shared by the commands of one invocation.
type runner struct {
	v       *viper.Viper
	cfg     *config.Config
	logger  *slog.Logger
	noColor bool
	appOpts []app.Option
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree. Every invocation gets its own viper instance.
func NewRootCmd(opts ...app.Option) *cobra.Command {
	r := &runner{v: viper.New(), appOpts: opts}

	root := &cobra.Command{
		Use:   "bookingcache",
		Short: "Show ship booking data through a local stale-while-revalidate cache.",
		Long: `bookingcache fetches the ship booking snapshot from the booking service and keeps
it in a local cache. Fresh cached data is served immediately. When the cache marker
is old but the booking is still valid, the cached copy is served while a refresh runs
in the background. When the booking service cannot be reached, the last cached copy
is served and flagged as stale.`,
		Version:           version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: r.setup,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is .bookingcache.yaml in . or $HOME)")
	flags.String("source", config.SourceMock, "booking source: mock or http")
	flags.String("source-url", "", "URL of the booking service (http source)")
	flags.String("source-token", "", "bearer token sent to the booking service")
	flags.String("user-agent", "bookingcache", "User-Agent sent to the booking service")
	flags.Duration("mock-delay", config.DefaultMockDelay, "simulated latency of the mock source")
	flags.Int("retries", config.DefaultRetries, "retries of transient fetch failures")
	flags.String("cache-backend", config.BackendSQLite, "cache backend: memory, sqlite, postgresql, mysql or redis")
	flags.String("cache-dsn", config.DefaultCacheDSN, "connection string of the cache backend")
	flags.String("cache-key", storage.DefaultKey, "key of the cached snapshot")
	flags.String("cache-table", sqlstorage.DefaultTableName, "table of the SQL cache backends")
	flags.Duration("cache-duration", snapshotcache.DefaultCacheDuration, "lifetime of the cache marker")
	flags.Duration("cache-jitter", 0, "revalidate up to this long before the cache marker expires, 0 to disable")
	flags.Duration("fetch-timeout", config.DefaultFetchTimeout, "timeout of a single load, 0 for none")
	flags.Bool("single-flight", false, "coalesce concurrent loads into one fetch")
	flags.Duration("refresh-interval", 0, "refresh the cache at this interval while serving, 0 to disable")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	flags.String("log-format", config.DefaultLogFormat, "log format: text or json")
	flags.BoolVar(&r.noColor, "no-color", false, "disable colored output")

	if err := r.v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("failed to bind flags: %v", err))
	}

	root.SetVersionTemplate("bookingcache {{.Version}}\n")
	root.AddCommand(
		newShowCmd(r),
		newCacheCmd(r),
		newServeCmd(r),
		newVersionCmd(),
	)
	return root
}

// setup resolves the configuration from flags, environment and the config file.
func (r *runner) setup(cmd *cobra.Command, _ []string) error {
	if configFile := r.v.GetString("config"); configFile != "" {
		r.v.SetConfigFile(configFile)
	} else {
		r.v.SetConfigName(".bookingcache")
		r.v.SetConfigType("yaml")
		r.v.AddConfigPath(".")
		r.v.AddConfigPath("$HOME")
	}

	r.v.SetEnvPrefix("BOOKINGCACHE")
	r.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	r.v.AutomaticEnv()
	config.SetDefaults(r.v)

	if err := r.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := config.Load(r.v)
	if err != nil {
		return err
	}
	r.cfg = cfg
	r.logger = cfg.NewLogger(cmd.ErrOrStderr())
	if r.noColor {
		color.NoColor = true
	}
	return nil
}

func (r *runner) openApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, r.cfg, r.logger, r.appOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize booking cache: %w", err)
	}
	return a, nil
}

func (r *runner) renderOptions(a *app.App) render.Options {
	return render.Options{UseColors: !color.NoColor, Now: a.Clock.Now()}
}
