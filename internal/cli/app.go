// Package cli holds the logic behind the comfyforge commands. Commands in cmd/comfyforge
// only parse flags and call into an App.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/term"

	"github.com/aretw0/comfyforge"
	"github.com/aretw0/comfyforge/internal/config"
	"github.com/aretw0/comfyforge/internal/logging"
	"github.com/aretw0/comfyforge/pkg/observability"
	"github.com/aretw0/comfyforge/pkg/wire"
)

// Options are the persistent flags shared by every command.
type Options struct {
	ConfigFile string
	EnvFile    string
	// LogLevel and Output override the configuration when set.
	LogLevel string
	Output   string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// App bundles what commands need.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *comfyforge.Engine
	Registry *prometheus.Registry
	Format   wire.Format

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// explicitFormat is set when --output was given, which disables terminal rendering.
	explicitFormat bool
}

// NewApp loads the configuration and wires the engine with logging and metrics.
func NewApp(opts Options) (*App, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	cfg, err := config.Load(config.Options{File: opts.ConfigFile, EnvFile: opts.EnvFile})
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.Output != "" {
		cfg.Output.Format = opts.Output
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewWithWriter(opts.Stderr, level, cfg.Logging.Format)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	eng, err := comfyforge.New(
		comfyforge.WithLogger(logger),
		comfyforge.WithMetrics(observability.NewMetrics(reg)),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	format, _ := wire.ParseFormat(cfg.Output.Format)
	return &App{
		Config:         cfg,
		Logger:         logger,
		Engine:         eng,
		Registry:       reg,
		Format:         format,
		Stdin:          opts.Stdin,
		Stdout:         opts.Stdout,
		Stderr:         opts.Stderr,
		explicitFormat: opts.Output != "",
	}, nil
}

// encode writes v to stdout in the configured format.
func (a *App) encode(v any) error {
	return wire.Encode(a.Stdout, v, a.Format)
}

// pretty reports whether human-oriented output should replace the encoded form.
func (a *App) pretty() bool {
	return !a.explicitFormat && isTerminal(a.Stdout)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readInput reads a file, or stdin when path is "-" or empty.
func (a *App) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(a.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
