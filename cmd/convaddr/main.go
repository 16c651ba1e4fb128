// Command convaddr enumerates the activation addresses touched by a 2D
// convolution under the legacy and the strided output address schemes.
//
// Execute with: go run ./cmd/convaddr [-config file.yaml]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/FlavioCFOliveira/convaddr/internal/config"
	"github.com/FlavioCFOliveira/convaddr/internal/sim"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("convaddr", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file (reference layer when empty)")
	scheme := fs.String("scheme", "", "scheme to sweep: legacy, strided or both")
	trace := fs.String("trace", "", "trace format: text, csv or none")
	csvPath := fs.String("csv", "", "CSV trace destination")
	compare := fs.Bool("compare", false, "report whether both schemes accept the same pairs")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	cfg, err := loadConfig(*configPath, *scheme, *trace, *csvPath, *logLevel)
	if err != nil {
		logger.Error("configuration rejected", "err", err)
		return 1
	}
	level, _ := cfg.LogLevel()
	logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	shape := cfg.Conv2D()
	logger.Info("layer", "shape", shape.String())

	if *compare {
		cmp, err := sim.Compare(shape)
		if err != nil {
			logger.Error("compare failed", "err", err)
			return 1
		}
		fmt.Fprintf(stdout, "legacy outputs: %d\nstrided outputs: %d\ndisagreements: %d\nequivalent: %t\n",
			cmp.Legacy.Outputs, cmp.Strided.Outputs, cmp.Disagreements, cmp.Equivalent())
		return 0
	}

	s, err := sim.New(shape,
		sim.WithActivationBase(cfg.Memory.ActivationBase),
		sim.WithOutputBase(cfg.Memory.OutputBase))
	if err != nil {
		logger.Error("simulator rejected layer", "err", err)
		return 1
	}
	schemes, err := cfg.AddressSchemes()
	if err != nil {
		logger.Error("unknown scheme", "err", err)
		return 1
	}

	callbacks := []sim.Callback{sim.NewSlogReporter(logger)}
	var csvLogger *sim.CSVLogger
	switch cfg.Trace.Format {
	case "text":
		callbacks = append(callbacks, sim.NewTextLogger(stdout))
	case "csv":
		csvLogger, err = sim.OpenCSVLogger(cfg.Trace.CSVPath, false)
		if err != nil {
			logger.Error("trace unavailable", "err", err)
			return 1
		}
		callbacks = append(callbacks, csvLogger)
	}

	s.RunAll(schemes, callbacks...)

	if csvLogger != nil {
		if err := csvLogger.Close(); err != nil {
			logger.Error("csv trace incomplete", "path", cfg.Trace.CSVPath, "err", err)
			return 1
		}
		logger.Info("csv trace written", "path", cfg.Trace.CSVPath)
	}
	return 0
}

// loadConfig reads the configuration file, if any, and applies flag
// overrides on top of it.
func loadConfig(path, scheme, trace, csvPath, logLevel string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	switch scheme {
	case "":
	case "both":
		cfg.Schemes = []string{"legacy", "strided"}
	default:
		cfg.Schemes = []string{scheme}
	}
	if trace != "" {
		cfg.Trace.Format = strings.ToLower(trace)
	}
	if csvPath != "" {
		cfg.Trace.CSVPath = csvPath
	}
	if cfg.Trace.Format == "csv" && cfg.Trace.CSVPath == "" {
		return nil, errors.New("csv trace requires -csv or trace.csv_path")
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
