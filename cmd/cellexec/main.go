// Command cellexec runs the code execution engine as an MCP server over
// stdio. Configuration is read from an optional YAML file; every setting
// has a usable default so the server starts with no file at all.
//
// Run with: cellexec -config cellexec.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/silhovette/cellexec/engine"
	"github.com/silhovette/cellexec/evaluator/pyproc"
	"github.com/silhovette/cellexec/evaluator/script"
	"github.com/silhovette/cellexec/server"
	"github.com/silhovette/cellexec/tracing"
)

const version = "0.1.0"

type config struct {
	Server struct {
		Name           string `yaml:"name"`
		MaxOutputBytes int    `yaml:"maxOutputBytes"`
	} `yaml:"server"`

	Engine struct {
		MaxSessions     int  `yaml:"maxSessions"`
		TimeoutSeconds  int  `yaml:"timeoutSeconds"`
		ContinueOnError bool `yaml:"continueOnError"`
	} `yaml:"engine"`

	Evaluator struct {
		// Kind selects the evaluation backend: "script" (in-process)
		// or "python" (persistent python3 subprocess).
		Kind   string   `yaml:"kind"`
		Python string   `yaml:"python"`
		Args   []string `yaml:"args"`
	} `yaml:"evaluator"`

	Tracing struct {
		Enabled    bool   `yaml:"enabled"`
		OutputFile string `yaml:"outputFile"`
	} `yaml:"tracing"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	cfg.Server.Name = "cellexec"
	cfg.Evaluator.Kind = "script"

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func evaluatorFactory(cfg config) (engine.Factory, error) {
	switch cfg.Evaluator.Kind {
	case "script":
		return script.Factory(), nil
	case "python":
		return pyproc.Factory(pyproc.Config{
			Python: cfg.Evaluator.Python,
			Args:   cfg.Evaluator.Args,
		}), nil
	default:
		return nil, fmt.Errorf("unknown evaluator kind %q", cfg.Evaluator.Kind)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	// Logs go to stderr; stdout carries the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	if cfg.Tracing.Enabled {
		if err := tracing.Init(cfg.Server.Name, version, cfg.Tracing.OutputFile); err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
	}

	factory, err := evaluatorFactory(cfg)
	if err != nil {
		return err
	}

	mgr, err := engine.NewManager(engine.Config{
		Factory:         factory,
		DefaultTimeout:  time.Duration(cfg.Engine.TimeoutSeconds) * time.Second,
		MaxSessions:     cfg.Engine.MaxSessions,
		ContinueOnError: cfg.Engine.ContinueOnError,
		Logger:          engine.NewSlogLogger(logger),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	srv, err := server.New(server.Config{
		Manager:        mgr,
		MaxOutputBytes: cfg.Server.MaxOutputBytes,
		Name:           cfg.Server.Name,
		Version:        version,
		Logger:         engine.NewSlogLogger(logger),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "name", cfg.Server.Name, "version", version,
		"evaluator", cfg.Evaluator.Kind, "maxSessions", cfg.Engine.MaxSessions)
	return srv.Run(ctx)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
