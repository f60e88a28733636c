// Command web serves the closing report HTTP API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bhavcli/internal/app"
	"bhavcli/internal/config"
	"bhavcli/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()
	slog.SetDefault(logger)

	components, err := app.Build(cfg, logger)
	if err != nil {
		logger.Error("failed to build application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := app.NewApplication(components).Run(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
