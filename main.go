package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/akopan/maildrop/mailstore"
	"github.com/akopan/maildrop/server"
)

func main() {
	configPath := flag.String("config", "maildrop.toml", "path to the config file")
	flag.Parse()

	config, err := server.LoadConfig(*configPath)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	level, _ := config.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	store, err := mailstore.Open(config.Maildir, config.Users)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	s := server.New(config, store, logger)
	if err := s.Start(); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	select {}
}
