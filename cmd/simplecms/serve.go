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

	"github.com/spf13/cobra"

	"github.com/tendant/simple-cms/pkg/simplecms/api"
	"github.com/tendant/simple-cms/pkg/simplecms/config"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
	"github.com/tendant/simple-cms/pkg/simplecms/scheduler"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the publishing scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, watch)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", true, "reload content types when their files change")

	return cmd
}

func serve(parent context.Context, cfg *config.ServerConfig, watch bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := cfg.Build(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	router, err := api.NewRouter(rt.Service, api.Config{
		APIKeySHA256: cfg.APIKeySHA256,
		JWTSecret:    cfg.JWTSecret,
	})
	if err != nil {
		return err
	}

	sched, err := scheduler.New(rt.Service, cfg.ScheduleSpec)
	if err != nil {
		return err
	}
	sched.Start()

	if watch && cfg.ContentTypesDir != "" {
		go func() {
			err := rt.Types.Watch(ctx, cfg.ContentTypesDir, func(types []contenttype.ContentType) {
				if _, err := rt.Service.ReplaceTypes(ctx, types); err != nil {
					slog.Error("Failed to apply reloaded content types", "error", err)
				}
			})
			if err != nil {
				slog.Error("Content type watcher stopped", "dir", cfg.ContentTypesDir, "error", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("simplecms server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"content_types", len(rt.Types.List()),
			"public_root", rt.Service.PublicRoot())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			sched.Stop(context.Background())
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	sched.Stop(shutdownCtx)

	slog.Info("Server exiting")
	return nil
}
