package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/Sggin1/LoudMouth/audiocapture"
	"github.com/Sggin1/LoudMouth/config"
	"github.com/Sggin1/LoudMouth/hotkey"
	"github.com/Sggin1/LoudMouth/internal/app"
	"github.com/Sggin1/LoudMouth/internal/history"
	"github.com/Sggin1/LoudMouth/models"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "config file path (defaults to the user config dir)")
		modelSize   = flag.String("model", "", "override the configured model size for this run")
		listDevices = flag.Bool("list-devices", false, "list input devices and exit")
		typeOutput  = flag.Bool("type", false, "also type transcripts into the focused window")
		meter       = flag.Bool("meter", false, "print the input level while idle")
		logLevel    = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      parseLevel(*logLevel),
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
	logger.Info("starting loudmouth", "version", version, "commit", commit, "date", date)

	if err := run(logger, *configPath, *modelSize, *listDevices, *typeOutput, *meter); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath, modelSize string, listDevices, typeOutput, meter bool) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if modelSize != "" {
		cfg.ModelSize = modelSize
	}

	if listDevices {
		return printDevices(logger)
	}

	registry, err := models.NewRegistry(bundledModelsDir(), "")
	if err != nil {
		return fmt.Errorf("init model registry: %w", err)
	}

	var store *history.Store
	if cfg.HistoryEnabled {
		path, err := history.DefaultPath()
		if err == nil {
			store, err = history.Open(path)
		}
		if err != nil {
			logger.Warn("history unavailable", "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	deps := app.Deps{
		Config:     cfg,
		Hook:       hotkey.NewGohookSource(),
		Registry:   registry,
		History:    store,
		TypeOutput: typeOutput,
		Logger:     logger,
		OnStatus: func(msg string) {
			fmt.Fprintln(os.Stdout, msg)
		},
		OnTranscript: func(text string) {
			fmt.Fprintln(os.Stdout, text)
		},
	}
	if meter {
		deps.OnLevel = func(level float64) {
			fmt.Fprintf(os.Stderr, "\rlevel: %5.1f%% ", level)
		}
	}

	svc, err := app.New(deps)
	if err != nil {
		return err
	}
	if err := svc.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
	svc.Shutdown(5 * time.Second)
	return nil
}

// printDevices enumerates input devices without starting the service.
func printDevices(logger *slog.Logger) error {
	engine, err := audiocapture.NewEngine(audiocapture.Config{
		OnBuffer: func(audiocapture.Recording) {},
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	devices := engine.ListDevices()
	if len(devices) == 0 {
		fmt.Println("no input devices found")
		return nil
	}
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		fmt.Printf("%s %2d  %s (%d ch)\n", marker, d.Index, d.Name, d.Channels)
	}
	return nil
}

// bundledModelsDir is the models directory next to the executable, used
// for installs that ship weights.
func bundledModelsDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exe), "models")
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
