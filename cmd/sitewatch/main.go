package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/aleister1102/sitewatch/internal/logger"
	"github.com/aleister1102/sitewatch/internal/orchestrator"
	"github.com/aleister1102/sitewatch/internal/progress"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) int {
	parsed, err := config.ParseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return orchestrator.ExitOK
		}
		fmt.Fprintf(stderr, "[FATAL] %v\n", err)
		return orchestrator.ExitInvalidArguments
	}

	// The log settings are needed before the config manager exists
	bootCfg, err := config.LoadGlobalConfig(parsed.ConfigFile)
	if err != nil {
		fmt.Fprintf(stderr, "[FATAL] Could not load config using path '%s': %v\n", parsed.ConfigFile, err)
		return orchestrator.ExitInvalidArguments
	}
	parsed.ApplyTo(bootCfg)

	console := progress.NewConsole(stdout, stdin, progress.DefaultStyles())

	zLogger, err := logger.New(bootCfg.LogConfig, console)
	if err != nil {
		fmt.Fprintf(stderr, "[FATAL] Could not initialize logger: %v\n", err)
		return orchestrator.ExitInvalidArguments
	}
	defer zLogger.Close()
	log := *zLogger.GetZerolog()

	cm, err := config.NewConfigManager(parsed.ConfigFile, config.ConfigManagerOptions{
		Logger:    log,
		Overrides: parsed,
	})
	if err != nil {
		log.Error().Err(err).Msg("Configuration is invalid")
		fmt.Fprintf(stderr, "[FATAL] Configuration is invalid: %v\n", err)
		return orchestrator.ExitInvalidArguments
	}
	defer cm.Close()

	app, err := orchestrator.NewApp(orchestrator.AppOptions{
		Config:        cm.GetConfig(),
		ConfigManager: cm,
		Console:       console,
		Stdin:         stdin,
		BellOut:       stdout,
		Logger:        log,
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not start")
		fmt.Fprintf(stderr, "[FATAL] %v\n", err)
		return orchestrator.ExitInvalidArguments
	}

	code := app.Run(context.Background())
	log.Info().Int("exit_code", code).Msg("Exiting")
	return code
}
