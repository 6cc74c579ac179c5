package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"hometasks/internal/config"
	"hometasks/internal/logging"
	"hometasks/internal/serverapp"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default "+config.DefaultPath+" if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("build logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serverapp.Serve(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
