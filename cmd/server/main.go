// Command asset-registry serves Liquid asset registry documents with
// conditional revalidation against the upstream registry.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"asset-registry-api/internal/auth"
	"asset-registry-api/internal/config"
	"asset-registry-api/internal/database"
	"asset-registry-api/internal/handlers"
	"asset-registry-api/internal/metrics"
	"asset-registry-api/internal/models"
	"asset-registry-api/internal/realtime"
	"asset-registry-api/internal/registry"
	"asset-registry-api/internal/routes"
	"asset-registry-api/internal/store"
	"asset-registry-api/internal/transport"
)

// version is injected at build time via -ldflags "-X main.version=v1.2.3".
var version = "devel"

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	conf, err := config.New()
	if err != nil {
		return err
	}
	root, err := newRootCommand(conf)
	if err != nil {
		return err
	}
	return root.ExecuteContext(ctx)
}

func newRootCommand(conf *config.Config) (*cobra.Command, error) {
	serveCmd := newServeCommand(conf)
	root := &cobra.Command{
		Use:           "asset-registry",
		Short:         "Caching proxy for the Liquid asset registry",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(conf.LogLevel())
		},
		RunE: serveCmd.RunE,
	}
	if err := conf.BindFlags(root.PersistentFlags()); err != nil {
		return nil, err
	}
	root.AddCommand(serveCmd, newRefreshCommand(conf), newHashPasswordCommand())
	return root, nil
}

func setupLogging(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	if level > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
}

func newServeCommand(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Start the HTTP API and the background revalidation loop",
		Example: "asset-registry serve --server-address=:8008 --registry-liquid-url=https://assets.blockstream.info",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), conf)
		},
	}
}

func newRefreshCommand(conf *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch every registry document once, unconditionally, and persist it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, _, cleanup, err := newRegistry(conf, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			outcomes, err := reg.RefreshAll(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range models.Networks() {
				for _, kind := range models.Kinds() {
					if outcome, ok := outcomes[n][kind]; ok {
						fmt.Fprintf(cmd.OutOrStdout(), "%-17s %-7s %s\n", n, kind, outcome)
					}
				}
			}
			return nil
		},
	}
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for auth.admin_password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// newRegistry opens the database and builds the registry. The returned
// cleanup closes the database.
func newRegistry(conf *config.Config, publisher registry.Publisher) (*registry.Registry, *metrics.Metrics, func(), error) {
	if err := database.InitDB(conf.DatabasePath()); err != nil {
		return nil, nil, nil, err
	}
	db := database.GetDB()
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	m := metrics.New("asset_registry")
	fetcher := transport.NewHTTPFetcher(conf.RegistryURLs(), nil, conf.RegistryTimeout())
	opts := registry.Options{
		RefreshInterval: conf.RegistryRefreshInterval(),
		RetryInterval:   conf.RegistryRetryInterval(),
		Publisher:       publisher,
		Metrics:         m,
		Logger:          slog.Default(),
	}
	return registry.New(store.NewGormStore(db), fetcher, opts), m, cleanup, nil
}

func serve(ctx context.Context, conf *config.Config) error {
	auth.Configure(conf.AuthJWTSecret(), conf.AuthIssuer(), conf.AuthAudience())
	if conf.AuthAdminPasswordHash() == "" {
		slog.Warn("auth.admin_password_hash is empty, login is disabled")
	}

	hub := realtime.GetHub()
	reg, m, cleanup, err := newRegistry(conf, hub)
	if err != nil {
		return err
	}
	defer cleanup()

	router := routes.SetupRoutes(routes.Deps{
		Registry: reg,
		Hub:      hub,
		Metrics:  m,
		Auth:     handlers.NewAuthHandler(conf.AuthAdminUsername(), conf.AuthAdminPasswordHash()),
	})

	go reg.Run(ctx, conf.RegistryRetryInterval())

	srv := &http.Server{
		Addr:              conf.ServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "address", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
