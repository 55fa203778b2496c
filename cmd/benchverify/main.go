package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/studiowebux/benchverify/internal/config"
	"github.com/studiowebux/benchverify/internal/observability"
)

var (
	version = "0.1.0"

	logger   = zap.NewNop()
	shutdown observability.Shutdown
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "benchverify",
	Short: "Verify and benchmark HTTP framework benchmark targets",
	Long: `benchverify checks that a framework implementation honours one benchmark
test contract (json, db, query, cached_query, fortune, update, plaintext),
or prints the load generator commands for benchmarking it.

Configuration comes from the environment (MODE, PORT, ENDPOINT, TEST_TYPE,
CONCURRENCY_LEVELS, PIPELINE_CONCURRENCY_LEVELS, DATABASE, ...), optionally
preceded by a YAML file (--config) and a KEY=VALUE file (--env-file).
Flags override everything.

Examples:
  MODE=verify PORT=8080 ENDPOINT=/json TEST_TYPE=json CONCURRENCY_LEVELS=16 benchverify
  benchverify verify --port 8080 --endpoint /fortunes --test-type fortune --database postgres -c 16,32
  benchverify benchmark --env-file test.env
  benchverify history --limit 5 --output yaml
  benchverify mock --port 8080`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(flagVerbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		shutdown, err = observability.InitTracer(observability.TracerOptions{
			Enabled:  flagTrace,
			Service:  observability.ServiceName,
			Endpoint: flagOTLPEndpoint,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shutdown != nil {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("Failed to flush traces", zap.Error(err))
			}
		}
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd, "")
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		switch settings.Mode {
		case config.ModeBenchmark:
			return runBenchmark(settings)
		default:
			return runVerify(ctx, settings)
		}
	},
}

// Global flags
var (
	flagConfig       string
	flagEnvFile      string
	flagVerbose      bool
	flagTrace        bool
	flagOTLPEndpoint string
)

// Setting overrides, applied over the environment when set
var (
	flagMode           string
	flagPort           int
	flagEndpoint       string
	flagTestType       string
	flagConcurrency    []int
	flagPipelineLevels []int
	flagQueryLevels    []int
	flagDatabase       string
	flagServerHost     string
	flagDatabaseHost   string
	flagDuration       string
	flagNoHistory      bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "YAML settings file")
	pf.StringVar(&flagEnvFile, "env-file", "", "Load KEY=VALUE settings from file")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging on stderr")
	pf.BoolVar(&flagTrace, "trace", false, "Export OpenTelemetry spans")
	pf.StringVar(&flagOTLPEndpoint, "otlp-endpoint", "", "OTLP/HTTP collector (host:port); spans go to stderr when empty")

	pf.StringVar(&flagMode, "mode", "", "verify or benchmark (MODE)")
	pf.IntVar(&flagPort, "port", 0, "Target port (PORT)")
	pf.StringVar(&flagEndpoint, "endpoint", "", "Target path, e.g. /json (ENDPOINT)")
	pf.StringVar(&flagTestType, "test-type", "", "Test contract to verify (TEST_TYPE)")
	pf.IntSliceVarP(&flagConcurrency, "concurrency-levels", "c", nil, "Concurrency levels (CONCURRENCY_LEVELS)")
	pf.IntSliceVar(&flagPipelineLevels, "pipeline-concurrency-levels", nil, "Plaintext concurrency levels (PIPELINE_CONCURRENCY_LEVELS)")
	pf.IntSliceVar(&flagQueryLevels, "query-levels", nil, "Query counts for multi-row tests (QUERY_LEVELS)")
	pf.StringVar(&flagDatabase, "database", "", "mysql, postgres or mongodb (DATABASE)")
	pf.StringVar(&flagServerHost, "server-host", "", "Target host (SERVER_HOST)")
	pf.StringVar(&flagDatabaseHost, "database-host", "", "Database host (DATABASE_HOST)")
	pf.StringVar(&flagDuration, "duration", "", "Benchmark duration, seconds or Go duration (DURATION)")
	pf.BoolVar(&flagNoHistory, "no-history", false, "Do not record the run (HISTORY=false)")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mockCmd)
}

// loadSettings resolves settings from every source and validates them.
// A non-empty mode replaces whatever MODE resolved to.
func loadSettings(cmd *cobra.Command, mode config.Mode) (*config.Settings, error) {
	s, err := config.Load(config.LoadOptions{File: flagConfig, EnvFile: flagEnvFile})
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd.Flags(), s); err != nil {
		return nil, err
	}
	if mode != "" {
		s.Mode = mode
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Settings resolved",
		zap.String("mode", string(s.Mode)),
		zap.String("url", s.URL()),
		zap.String("test_type", s.TestType),
		zap.Ints("concurrency_levels", s.ConcurrencyLevels),
		zap.String("database", s.Database),
	)
	return s, nil
}

// applyFlags copies explicitly set flags over s
func applyFlags(flags *pflag.FlagSet, s *config.Settings) error {
	if flags.Changed("mode") {
		s.Mode = config.Mode(flagMode)
	}
	if flags.Changed("port") {
		s.Port = flagPort
	}
	if flags.Changed("endpoint") {
		s.Endpoint = flagEndpoint
	}
	if flags.Changed("test-type") {
		s.TestType = flagTestType
	}
	if flags.Changed("concurrency-levels") {
		s.ConcurrencyLevels = flagConcurrency
	}
	if flags.Changed("pipeline-concurrency-levels") {
		s.PipelineConcurrencyLevels = flagPipelineLevels
	}
	if flags.Changed("query-levels") {
		s.QueryLevels = flagQueryLevels
	}
	if flags.Changed("database") {
		s.Database = flagDatabase
	}
	if flags.Changed("server-host") {
		s.ServerHost = flagServerHost
	}
	if flags.Changed("database-host") {
		s.DatabaseHost = flagDatabaseHost
	}
	if flags.Changed("duration") {
		d, err := config.ParseDuration(flagDuration)
		if err != nil {
			return &config.ParseError{Key: "--duration", Value: flagDuration, Err: err}
		}
		s.Duration = d
	}
	if flagNoHistory {
		s.History = false
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
