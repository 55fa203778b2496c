// Package benchmark builds the wrk invocations the controlling process runs
// once a target has been verified.
package benchmark

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/types"
	"github.com/studiowebux/benchverify/internal/verifier"
)

const (
	serverHost = "tfb-server"
	timeout    = "8"

	primerDuration    = 5 * time.Second
	primerConcurrency = 8
	// pipelineDepth is passed to pipeline.lua
	pipelineDepth = "16"

	acceptDefault   = "application/json,text/html;q=0.9,application/xhtml+xml;q=0.9,application/xml;q=0.8,*/*;q=0.7"
	acceptPlaintext = "text/plain,text/html;q=0.9,application/xhtml+xml;q=0.9,application/xml;q=0.8,*/*;q=0.7"
)

// DefaultQueryLevels are the queries parameters benchmarked for the
// multi-row test types
var DefaultQueryLevels = []int{1, 5, 10, 15, 20}

// DefaultDuration is the length of the warmup and every benchmark run
const DefaultDuration = 15 * time.Second

var (
	ErrUnsupportedTestType = errors.New("no benchmark commands for test type")
	ErrNoLevels            = errors.New("no concurrency levels configured")
)

// Options describes the benchmark to generate
type Options struct {
	TestType                  verifier.TestType
	URL                       string
	Duration                  time.Duration
	ConcurrencyLevels         []int
	PipelineConcurrencyLevels []int
	QueryLevels               []int
	// Threads caps wrk threads; zero means runtime.NumCPU()
	Threads int
}

type wrk struct {
	accept   string
	duration time.Duration
	threads  int
	pipeline bool
}

func (w wrk) command(url string, concurrency int) []string {
	cmd := []string{
		"wrk",
		"-H", "Host: " + serverHost,
		"-H", "Accept: " + w.accept,
		"-H", "Connection: keep-alive",
		"--latency",
		"-d", strconv.Itoa(int(w.duration / time.Second)),
		"-c", strconv.Itoa(concurrency),
		"--timeout", timeout,
		"-t", strconv.Itoa(min(concurrency, w.threads)),
		url,
	}
	if w.pipeline {
		cmd = append(cmd, "-s", "pipeline.lua", "--", pipelineDepth)
	}
	return cmd
}

// Commands returns the primer, warmup and benchmark commands for a test type
func Commands(opts Options) (*types.BenchmarkCommands, error) {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.Threads <= 0 {
		opts.Threads = runtime.NumCPU()
	}
	if len(opts.QueryLevels) == 0 {
		opts.QueryLevels = DefaultQueryLevels
	}

	w := wrk{accept: acceptDefault, duration: opts.Duration, threads: opts.Threads}
	primer := wrk{accept: acceptDefault, duration: primerDuration, threads: opts.Threads}

	switch opts.TestType {
	case verifier.JSON, verifier.Fortune, verifier.SingleQuery:
		return perConcurrency(w, primer, opts.URL, opts.ConcurrencyLevels)

	case verifier.Plaintext:
		w.accept, w.pipeline = acceptPlaintext, true
		primer.accept, primer.pipeline = acceptPlaintext, true
		return perConcurrency(w, primer, opts.URL, opts.PipelineConcurrencyLevels)

	case verifier.MultiQuery, verifier.CachedQuery, verifier.Update:
		if len(opts.ConcurrencyLevels) == 0 {
			return nil, ErrNoLevels
		}
		concurrency := slices.Max(opts.ConcurrencyLevels)
		cmds := &types.BenchmarkCommands{
			PrimerCommand: primer.command(opts.URL+"2", primerConcurrency),
			WarmupCommand: w.command(opts.URL+"2", concurrency),
		}
		for _, level := range opts.QueryLevels {
			cmds.BenchmarkCommands = append(cmds.BenchmarkCommands, w.command(opts.URL+strconv.Itoa(level), concurrency))
		}
		return cmds, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTestType, opts.TestType)
	}
}

func perConcurrency(w, primer wrk, url string, levels []int) (*types.BenchmarkCommands, error) {
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	cmds := &types.BenchmarkCommands{
		PrimerCommand: primer.command(url, primerConcurrency),
		WarmupCommand: w.command(url, slices.Max(levels)),
	}
	for _, c := range levels {
		cmds.BenchmarkCommands = append(cmds.BenchmarkCommands, w.command(url, c))
	}
	return cmds, nil
}

// Emit writes cmds as one structured line
func Emit(e *message.Emitter, cmds *types.BenchmarkCommands) error {
	return e.Emit(cmds)
}
