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

	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	servePort        int
	servePricingFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP enrichment endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		validateAPIKeys(cfg)
		env, err := initEnricher(cfg, servePricingFile)
		if err != nil {
			return err
		}

		// One client timeout per call a contact can need. Zero leaves requests unbounded.
		reqTimeout := time.Duration(cfg.Enrich.TimeoutSecs*len(cost.APIs)) * time.Second

		srv := newServer(cfg.Server.Port, server.NewRouter(env.Orchestrator, server.Options{
			CORSOrigins: cfg.Server.CORSOrigins,
			Timeout:     reqTimeout,
			Metrics:     env.Metrics,
		}))
		return listenAndServe(ctx, srv)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&servePricingFile, "pricing-file", "", "YAML file overriding per-call prices")
	rootCmd.AddCommand(serveCmd)
}

func newServer(port int, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// listenAndServe runs srv until ctx is done, then shuts it down gracefully.
func listenAndServe(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}
