package stresstest

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/benchverify/internal/executor"
)

// Requester issues one GET and reports the status code
type Requester interface {
	Status(ctx context.Context, url string) (int, error)
}

// Options configures a Harness
type Options struct {
	// Workers is the pool size; zero means runtime.NumCPU()
	Workers int
	Logger  *zap.Logger
}

// Harness issues an exact number of requests across a fixed worker pool
type Harness struct {
	requester Requester
	workers   int
	logger    *zap.Logger
}

// Result is the outcome of one Run
type Result struct {
	Successes int64
	Failures  int64
	Stats     *Stats
}

// Total returns the number of requests issued
func (r Result) Total() int64 {
	return r.Successes + r.Failures
}

// New creates a harness issuing requests through requester
func New(requester Requester, opts Options) *Harness {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{requester: requester, workers: workers, logger: logger}
}

// Run issues exactly concurrency*repetitions requests against url and blocks
// until every worker has drained. Non-2xx statuses and transport errors
// count as failures.
func (h *Harness) Run(ctx context.Context, url string, concurrency, repetitions int) Result {
	ctx, span := otel.Tracer("benchverify/stresstest").Start(ctx, "harness.run")
	defer span.End()

	var successes, failures atomic.Int64
	stats := NewStats()

	for rep := 0; rep < repetitions; rep++ {
		var remaining atomic.Int64
		remaining.Store(int64(concurrency))

		workerStats := make([]*Stats, h.workers)
		var g errgroup.Group
		for i := 0; i < h.workers; i++ {
			local := NewStats()
			workerStats[i] = local
			g.Go(func() error {
				// A request is claimed before it is issued, so the pool
				// never overshoots the sweep.
				for remaining.Add(-1) >= 0 {
					start := time.Now()
					status, err := h.requester.Status(ctx, url)
					durationMs := time.Since(start).Milliseconds()

					switch {
					case err != nil:
						failures.Add(1)
						local.AddResult(durationMs, true, false)
					case !executor.IsSuccessStatus(status):
						failures.Add(1)
						local.AddResult(durationMs, false, true)
					default:
						successes.Add(1)
						local.AddResult(durationMs, false, false)
					}
				}
				return nil
			})
		}
		_ = g.Wait()

		for _, local := range workerStats {
			stats.Merge(local)
		}
	}

	result := Result{
		Successes: successes.Load(),
		Failures:  failures.Load(),
		Stats:     stats,
	}

	span.SetAttributes(
		attribute.String("url", url),
		attribute.Int("concurrency", concurrency),
		attribute.Int("repetitions", repetitions),
		attribute.Int64("successes", result.Successes),
		attribute.Int64("failures", result.Failures),
	)
	h.logger.Info("Requests issued",
		zap.String("url", url),
		zap.Int64("successful", result.Successes),
		zap.Int64("failed", result.Failures),
		zap.Int64("p50_ms", stats.P50()),
		zap.Int64("p95_ms", stats.P95()),
		zap.Int64("p99_ms", stats.P99()),
	)

	return result
}
