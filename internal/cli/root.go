// Package cli implements the datazone-handlers command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/datazone-handlers/internal/config"
	"github.com/AltairaLabs/datazone-handlers/internal/datazone"
	"github.com/AltairaLabs/datazone-handlers/internal/engine"
	"github.com/AltairaLabs/datazone-handlers/internal/host"
	"github.com/AltairaLabs/datazone-handlers/internal/telemetry"
	"github.com/AltairaLabs/datazone-handlers/internal/version"
)

const (
	serviceName     = "datazone-handlers"
	shutdownTimeout = 5 * time.Second
)

// ErrOperationFailed is returned after a FAILED result has been printed, so
// the process exits non-zero.
var ErrOperationFailed = errors.New("operation failed")

// BuildFunc constructs the invoker the commands dispatch to.
type BuildFunc func(ctx context.Context, cfg *config.Config, log *slog.Logger) (host.Invoker, error)

// BuildRegistry connects to DataZone and registers every resource handler.
func BuildRegistry(ctx context.Context, cfg *config.Config, log *slog.Logger) (host.Invoker, error) {
	client, err := datazone.NewClient(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	reg := engine.NewRegistry()
	if err := datazone.Register(reg, client, cfg.Policies, engine.WithLogger(log)); err != nil {
		return nil, err
	}
	return reg, nil
}

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	build  BuildFunc
	sleep  func(ctx context.Context, d time.Duration) error

	configPath    string
	logLevel      string
	logFormat     string
	region        string
	checkpointURL string

	cfg      *config.Config
	log      *slog.Logger
	shutdown telemetry.Shutdown
}

// Execute runs the command line against the process arguments and streams.
func Execute(ctx context.Context) error {
	a := &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr, build: BuildRegistry}
	return a.execute(ctx, os.Args[1:])
}

func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.ExecuteContext(ctx)
	if a.shutdown != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := a.shutdown(sctx); serr != nil && err == nil {
			err = fmt.Errorf("tracing shutdown: %w", serr)
		}
	}
	return err
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "datazone-handlers",
		Short: "Reconcile Amazon DataZone resources",
		Long: `datazone-handlers drives create, read, update, delete and list
operations for Amazon DataZone domains, projects, environments, data sources,
environment profiles and project memberships.

Requests and results are JSON. Long-running operations return IN_PROGRESS
with a paused state; "run" keeps invoking until the resource stabilizes and
checkpoints between invocations.`,
		Version:           version.String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file path")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	flags.StringVar(&a.region, "region", "", "AWS region")
	flags.StringVar(&a.checkpointURL, "checkpoint", "", "checkpoint store URL")

	root.AddCommand(a.typesCommand())
	root.AddCommand(a.invokeCommand())
	root.AddCommand(a.runCommand())
	root.AddCommand(a.listCommand())
	root.AddCommand(a.versionCommand())
	return root
}

// setup loads configuration, applies flag overrides and installs logging and
// tracing.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.region != "" {
		cfg.AWS.Region = a.region
	}
	if a.checkpointURL != "" {
		cfg.Checkpoint = a.checkpointURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := telemetry.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log, err := telemetry.NewLogger(a.errOut, cfg.Log.Format, level)
	if err != nil {
		return err
	}
	shutdown, err := telemetry.SetupTracing(cmd.Context(), cfg.Tracing, serviceName, a.errOut, log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.shutdown = shutdown
	return nil
}
