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

	"github.com/OK-LG/berlin-open-data/internal/config"
	"github.com/OK-LG/berlin-open-data/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the property tools over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		handler, err := buildHandler(cfg)
		if err != nil {
			return err
		}

		port := resolvePort(servePort, cfg)
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("wfs_base_url", cfg.WFS.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildHandler wires the tool registry into the HTTP server.
func buildHandler(c *config.Config) (http.Handler, error) {
	env := newToolEnv(c)
	srv, err := server.New(env.Registry, server.Options{
		MaxSessions:    c.Server.MaxSessions,
		AllowedOrigins: c.Server.AllowedOrigins,
		RequestTimeout: time.Duration(c.Server.RequestTimeoutSecs) * time.Second,
		CircuitStates:  env.Client.BreakerStates,
	})
	if err != nil {
		return nil, err
	}
	return srv, nil
}

// resolvePort prefers the --port flag over configuration.
func resolvePort(flagPort int, c *config.Config) int {
	if flagPort > 0 {
		return flagPort
	}
	return c.Server.Port
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
