package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/studiowebux/benchverify/internal/benchmark"
	"github.com/studiowebux/benchverify/internal/cli"
	"github.com/studiowebux/benchverify/internal/config"
	"github.com/studiowebux/benchverify/internal/database"
	"github.com/studiowebux/benchverify/internal/history"
	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/verifier"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the target against its test contract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd, config.ModeVerify)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()
		return runVerify(ctx, settings)
	},
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Print the load generator commands for the target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd, config.ModeBenchmark)
		if err != nil {
			return err
		}
		return runBenchmark(settings)
	},
}

func runVerify(ctx context.Context, s *config.Settings) error {
	testType := verifier.Resolve(s.TestType)
	cli.VerifyingBanner(os.Stdout, s.TestType)

	opts := verifier.Options{
		Database:          s.Database,
		DatabaseOptions:   database.Options{Host: s.DatabaseHost},
		ConcurrencyLevels: s.ConcurrencyLevels,
		Emitter:           message.NewEmitter(os.Stdout),
		Logger:            logger,
	}
	if testType.RequiresDatabase() && strings.TrimSpace(s.Database) != "" {
		backend, err := database.Open(s.Database, opts.DatabaseOptions)
		if err != nil {
			return err
		}
		defer backend.Close()
		opts.Backend = backend
	}

	v, err := verifier.New(testType, opts)
	if err != nil {
		return err
	}

	started := time.Now()
	m, err := v.Verify(ctx, s.URL())
	if err != nil {
		return err
	}
	m.Render(os.Stdout)

	if s.History {
		run := history.NewRun(string(testType), s.Database, started, m)
		if err := saveRun(run); err != nil {
			// The verdict is already printed; losing the record is not fatal
			logger.Warn("Failed to record run", zap.Error(err))
		}
	}
	return nil
}

func saveRun(run *history.Run) error {
	mgr, err := openHistory()
	if err != nil {
		return err
	}
	defer mgr.Close()
	return mgr.Save(run)
}

func openHistory() (*history.Manager, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	return history.NewManager(config.DatabasePath)
}

func runBenchmark(s *config.Settings) error {
	cmds, err := benchmark.Commands(benchmark.Options{
		TestType:                  verifier.Resolve(s.TestType),
		URL:                       s.URL(),
		Duration:                  s.Duration,
		ConcurrencyLevels:         s.ConcurrencyLevels,
		PipelineConcurrencyLevels: s.PipelineConcurrencyLevels,
		QueryLevels:               s.QueryLevels,
	})
	if err != nil {
		return err
	}
	return benchmark.Emit(message.NewEmitter(os.Stdout), cmds)
}
