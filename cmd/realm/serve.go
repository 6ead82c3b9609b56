package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/realm"
	"github.com/sagarc03/realm/config"
	realmhttp "github.com/sagarc03/realm/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the realm as a JSON API",
	Long: `Open the realm and serve its schema and objects over HTTP until interrupted.
Deleting objects is refused unless --allow-writes is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5709, "HTTP server port (env: REALM_SERVER_PORT)")
	serveCmd.Flags().Bool("allow-writes", false, "allow DELETE requests (env: REALM_SERVER_ALLOW_WRITES)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withRealm(cmd, func(r *realm.Realm) error {
		handler := realmhttp.NewHandler(&realmhttp.HandlerConfig{
			AllowWrites: cfg.Server.AllowWrites,
			CORS:        cfg.CORS,
			Logger:      slog.Default(),
		}, realmhttp.NewRealmService(r))

		return listen(ctx, fmt.Sprintf(":%d", cfg.Server.Port), handler.Router())
	})
}

// listen serves handler on addr until ctx is done, then shuts down gracefully.
func listen(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
	}()

	slog.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
