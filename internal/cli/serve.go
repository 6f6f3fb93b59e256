package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-lookup/components/lookupserver"
	"github.com/goliatone/go-lookup/pkg/fetch"
)

const shutdownTimeout = 5 * time.Second

// ErrUnknownTenant is returned by TenantGuard for requests outside the allow list.
var ErrUnknownTenant = errors.New("unknown tenant")

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a YAML catalog as lookup endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app)
		},
	}
	flags := cmd.Flags()
	flags.String("addr", "", "listen address (default server.addr)")
	flags.String("dataset", "", "YAML catalog to serve")
	flags.String("base-path", "", "path prefix in front of /api/lookup")
	flags.Bool("watch", false, "reload the catalog when the file changes")
	_ = app.viper.BindPFlag("server.addr", flags.Lookup("addr"))
	_ = app.viper.BindPFlag("server.dataset", flags.Lookup("dataset"))
	_ = app.viper.BindPFlag("server.base_path", flags.Lookup("base-path"))
	_ = app.viper.BindPFlag("server.watch", flags.Lookup("watch"))
	return cmd
}

func serve(ctx context.Context, app *App) error {
	cfg := app.Config.Server
	if strings.TrimSpace(cfg.Dataset) == "" {
		return fmt.Errorf("serve: a dataset is required (--dataset or server.dataset)")
	}
	ds, err := lookupserver.LoadFile(cfg.Dataset)
	if err != nil {
		return err
	}

	log := app.Logger.WithName("serve")
	mux := http.NewServeMux()
	pattern, err := lookupserver.RegisterRoutes(mux, cfg.BasePath,
		lookupserver.WithDataset(ds),
		lookupserver.WithDefaultLimit(cfg.DefaultLimit),
		lookupserver.WithMaxLimit(cfg.MaxLimit),
		lookupserver.WithGuard(TenantGuard(cfg.Tenants)),
		lookupserver.WithLogger(log),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("lookup server listening", "addr", cfg.Addr, "route", pattern, "entities", ds.Entities())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Watch {
		g.Go(func() error {
			return lookupserver.Watch(gctx, cfg.Dataset, ds, log.WithName("watch"))
		})
	}
	return g.Wait()
}

// TenantGuard admits requests whose tenant header is in tenants. An empty
// list admits everything.
func TenantGuard(tenants []string) lookupserver.GuardFunc {
	allowed := make([]string, 0, len(tenants))
	for _, t := range tenants {
		if t = strings.TrimSpace(t); t != "" {
			allowed = append(allowed, t)
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) error {
		tenant := strings.TrimSpace(r.Header.Get(fetch.TenantHeader))
		if !slices.Contains(allowed, tenant) {
			return lookupserver.StatusError{Err: fmt.Errorf("%w %q", ErrUnknownTenant, tenant), Code: http.StatusForbidden}
		}
		return nil
	}
}
