// Package cli provides the lookupctl command line.
package cli

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/goliatone/go-lookup/internal/config"
	"github.com/goliatone/go-lookup/pkg/cache"
	"github.com/goliatone/go-lookup/pkg/fetch"
	"github.com/goliatone/go-lookup/pkg/logger"
	"github.com/goliatone/go-lookup/pkg/query"
)

// App holds what every subcommand shares once flags and config are resolved.
type App struct {
	Config *config.Config
	Logger logr.Logger

	viper *viper.Viper
	zap   *zap.Logger
}

// NewRootCmd creates the lookupctl root command.
func NewRootCmd(version string) *cobra.Command {
	app := &App{viper: viper.New(), Logger: logr.Discard()}
	var configFile string

	root := &cobra.Command{
		Use:           "lookupctl",
		Short:         "Search, serve and inspect entity lookups",
		Long:          `lookupctl talks to lookup endpoints, serves a YAML catalog as one, and reports the lookup markers of an HTML page.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWith(app.viper, configFile)
			if err != nil {
				return err
			}
			log, zl, err := logger.New(logger.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cfg.Log.Output,
			})
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			app.Config = cfg
			app.Logger = log.WithName("lookupctl")
			app.zap = zl
			cmd.SetContext(logger.WithLogger(cmd.Context(), app.Logger))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app.zap != nil {
				_ = app.zap.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default lookup.yaml in . or $HOME/.config/lookup)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("base", "", "module base URL of the lookup endpoints")
	flags.String("tenant", "", "tenant sent with every request")
	_ = app.viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = app.viper.BindPFlag("client.module_base", flags.Lookup("base"))
	_ = app.viper.BindPFlag("client.tenant", flags.Lookup("tenant"))

	root.AddCommand(
		newFetchCmd(app),
		newPickCmd(app),
		newServeCmd(app),
		newScanCmd(app),
	)
	return root
}

// Service builds the lookup normaliser from the client config.
func (a *App) Service() *query.Service {
	client := a.Config.Client
	caller := fetch.New(
		fetch.WithTimeout(client.Timeout),
		fetch.WithTenant(client.Tenant),
		fetch.WithLogger(a.Logger.WithName("fetch")),
	)
	return query.NewService(
		query.WithModuleBase(client.ModuleBase),
		query.WithCaller(caller),
		query.WithCache(cache.NewLRU[string, []query.Record](client.CacheCapacity)),
		query.WithLogger(a.Logger.WithName("query")),
	)
}
