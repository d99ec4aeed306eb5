package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/shyamtrading/siteserver/config"
	"github.com/shyamtrading/siteserver/internal/adminapi"
	"github.com/shyamtrading/siteserver/internal/app"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init error: %v\n", err)
		os.Exit(1)
	}
	defer application.Release()

	server := adminapi.NewServer(cfg, application.Store(), application.Remote(), application.Migrator(), application.Bus())

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		zap.L().Error("server stopped", zap.Error(err))
	}
}
