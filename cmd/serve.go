package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadflow/internal/columns"
	"github.com/sells-group/leadflow/internal/engine"
	"github.com/sells-group/leadflow/internal/jobs"
	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/server"
	"github.com/sells-group/leadflow/pkg/prospeo"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrichment job server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		overrides, err := loadColumnOverrides()
		if err != nil {
			return err
		}

		eng := engine.New(cfg.Engine.RequestInterval())
		registry := jobs.NewRegistry(eng,
			jobs.WithRetention(cfg.Jobs.Retention()),
			jobs.WithClientFactory(newProviderClient),
		)
		srv := server.New(registry,
			server.WithDefaultCredential(cfg.Provider.Key),
			server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
			server.WithColumnOverrides(overrides),
		)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "serve: listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newProviderClient builds a Prospeo client for one job's credential,
// honoring a configured base URL override.
func newProviderClient(credential string) prospeo.Client {
	opts := []prospeo.Option{}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, prospeo.WithBaseURL(cfg.Provider.BaseURL))
	}
	return prospeo.NewClient(credential, opts...)
}

// loadColumnOverrides reads the optional role→header mapping file.
func loadColumnOverrides() (model.ColumnMapping, error) {
	if cfg.Columns.OverridesPath == "" {
		return model.ColumnMapping{}, nil
	}
	overrides, err := columns.LoadOverrides(cfg.Columns.OverridesPath)
	if err != nil {
		return model.ColumnMapping{}, eris.Wrap(err, "serve: load column overrides")
	}
	return overrides, nil
}
