package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storagify/file-api/app"
	"storagify/file-api/config"
	"storagify/file-api/internal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	if err := run(); err != nil {
		zap.L().Error("Server stopped", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrapLevel is the log level used while the config is being read
func bootstrapLevel() string {
	lvl := os.Getenv("APP_LOG_LEVEL")
	if _, err := zapcore.ParseLevel(lvl); lvl == "" || err != nil {
		return "info"
	}

	return lvl
}

func run() error {
	// Loading the config already logs
	if err := app.MakeLogger(bootstrapLevel()); err != nil {
		return fmt.Errorf("failed to build logger, %w", err)
	}

	cfg, err := config.Setup()
	if err != nil {
		return err
	}

	if err := app.MakeLogger(cfg.App.LogLevel); err != nil {
		return fmt.Errorf("failed to build logger, %w", err)
	}
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := internal.NewDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Host.Port),
		Handler:           app.NewRouter(d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("Server starting",
			zap.Int("port", cfg.Host.Port),
			zap.String("storage", cfg.Storage.Type),
			zap.String("database", cfg.Database.Driver),
			zap.Bool("ssl", cfg.Host.SSL.Enabled),
		)

		var err error
		if cfg.Host.SSL.Enabled {
			err = srv.ListenAndServeTLS(cfg.Host.SSL.CertificatePath, cfg.Host.SSL.CertificateKeyPath)
		} else {
			err = srv.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
