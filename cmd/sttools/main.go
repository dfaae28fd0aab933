// Command sttools inspects, filters and converts SixTrack and MadX output
// files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sttools/pkg/config"
	"github.com/ajitpratap0/sttools/pkg/logger"
	"github.com/ajitpratap0/sttools/pkg/metrics"
	"github.com/ajitpratap0/sttools/pkg/observability"
)

var version = "0.1.0"

// envPrefix prefixes the environment variables bound to flags, e.g.
// STTOOLS_LOG_LEVEL for --log-level
const envPrefix = "STTOOLS"

// app is the state shared by the subcommands of one invocation
type app struct {
	v        *viper.Viper
	out      io.Writer
	cfg      *config.Config
	log      *zap.Logger
	metrics  *metrics.Collector
	shutdown observability.ShutdownFunc
}

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs the command line args and releases logging, metrics and
// tracing afterwards, also when the command failed
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{v: viper.New(), out: stdout}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "sttools",
		Short: "SixTrack and MadX output file toolbox",
		Long: `sttools loads SixTrack dump files, MadX TFS tables and HDF5 datasets into
typed columnar tables that can be inspected, filtered on indexed columns and
re-exported as dump, CSV, JSON lines, Arrow, Parquet or Avro.

Every flag can also be set through an STTOOLS_ environment variable, e.g.
STTOOLS_LOG_LEVEL=debug.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error); overrides the configuration")
	flags.String("metrics-out", "", "Write load metrics in Prometheus text format to this file on exit")
	flags.Bool("trace", false, "Print OpenTelemetry spans to stderr")

	root.AddCommand(
		a.infoCommand(),
		a.filterCommand(),
		a.exportCommand(),
		a.scanCommand(),
		a.versionCommand(),
	)
	return root
}

// setup binds the flags of the running command to viper, then loads the
// configuration and starts logging, metrics and tracing
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg := config.Default()
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if level := a.v.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if path := a.v.GetString("metrics-out"); path != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.TextfilePath = path
	}
	if a.v.GetBool("trace") {
		cfg.Tracing.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	a.log = logger.Get()

	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewCollector()
	}

	shutdown, err := observability.InitTracing(cmd.Context(), cfg.Tracing, version, nil)
	if err != nil {
		return err
	}
	a.shutdown = shutdown

	a.log.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("config", a.v.GetString("config")),
		zap.String("log_level", cfg.Logging.Level),
		zap.Bool("metrics", cfg.Metrics.Enabled),
		zap.Bool("tracing", cfg.Tracing.Enabled))
	return nil
}

// close flushes tracing and writes the metrics textfile
func (a *app) close() error {
	var firstErr error
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if a.metrics != nil && a.cfg.Metrics.TextfilePath != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.log != nil {
		_ = logger.Sync()
	}
	return firstErr
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "sttools v%s\n", version)
			fmt.Fprintf(a.out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
