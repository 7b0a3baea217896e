package main

import (
	"context"
	"os"

	"github.com/adilzhm/fleet-tracking-system/config"
	"github.com/adilzhm/fleet-tracking-system/internal/app"
	"github.com/adilzhm/fleet-tracking-system/pkg/logger"
)

const serviceName = "tracking-service"

func main() {
	ctx := context.Background()
	log := logger.InitLogger(serviceName, logger.LevelDebug)

	cfg, err := config.New()
	if err != nil {
		log.Error(ctx, "failed to configure application", err)
		os.Exit(1)
	}

	if logger.ValidateLogLevel(cfg.LogLevel) {
		log = logger.InitLogger(serviceName, cfg.LogLevel)
	}

	application, err := app.NewApplication(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to init application", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		log.Error(ctx, "failed to run application", err)
		os.Exit(1)
	}
}
