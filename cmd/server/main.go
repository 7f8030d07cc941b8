// Package main starts the learning tracker server: it loads the
// configuration, sets up logging, builds the application and serves its
// HTTP API until interrupted.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/hacklearn/internal/app"
	"github.com/atinyakov/hacklearn/internal/certgen"
	"github.com/atinyakov/hacklearn/internal/config"
	"github.com/atinyakov/hacklearn/internal/logger"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// shutdownTimeout bounds how long in-flight requests may finish.
const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	application, err := app.New(ctx, options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot build application", zap.Error(err))
	}
	defer func() {
		if err := application.Close(); err != nil {
			zapLogger.Error("failed to close application", zap.Error(err))
		}
	}()

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if options.TLS.Enabled() {
		// Missing files are replaced by a self-signed local certificate.
		written, err := certgen.EnsureSelfSigned(options.TLS.Cert, options.TLS.Key, certgen.DefaultHosts)
		if err != nil {
			zapLogger.Fatal("failed to prepare TLS cert/key", zap.Error(err))
		}
		if written {
			zapLogger.Warn("generated a self-signed certificate", zap.String("cert", options.TLS.Cert))
		}
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLS.Enabled() {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
			errCh <- server.ListenAndServeTLS(options.TLS.Cert, options.TLS.Key)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
