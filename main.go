package main

import (
	"context"
	"log/slog"
	"os"

	"authgate/config"
	"authgate/server"
)

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return err
	}
	return srv.Start()
}

func main() {
	if err := run(); err != nil {
		slog.Error("Application failed", "err", err)
		os.Exit(1)
	}
}
