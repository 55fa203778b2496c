package verifier

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/studiowebux/benchverify/internal/database"
	"github.com/studiowebux/benchverify/internal/message"
)

const (
	// excessiveFactor is how far above the expectation a count may go
	// before it is reported
	excessiveFactor = 1.05
	// bulkUpdateMargin is granted to rows updated when updates are batched
	bulkUpdateMargin = 1.05
	// bulkDetectionTolerance bounds how close the query count must be to
	// the bulk expectation
	bulkDetectionTolerance = 0.001
)

// countExpectation describes one counter reconciliation
type countExpectation struct {
	table           string
	concurrency     int
	repetitions     int
	expectedQueries int64
	expectedRows    int64
	// checkUpdates also reconciles rows updated; expectedQueries must then
	// assume one bulk update statement per request
	checkUpdates bool
}

type counters struct {
	queries int64
	rows    int64
	updated int64
}

type countOutcome int

const (
	countOK countOutcome = iota
	countTooFew
	countTooMany
)

// reconcile compares an observed counter delta, scaled by factor, against
// the expectation.
func reconcile(observed, expected int64, factor float64) (int64, countOutcome) {
	compensated := int64(math.Round(float64(observed) * factor))
	switch {
	case compensated < expected:
		return compensated, countTooFew
	case float64(compensated) > float64(expected)*excessiveFactor:
		return compensated, countTooMany
	default:
		return compensated, countOK
	}
}

// ensureAvailable waits for the backend once per verifier. A failed wait
// is reported once; later callers skip their checks silently.
func (d *dbBase) ensureAvailable(ctx context.Context, m *message.Messages) bool {
	switch d.availability {
	case availabilityUp:
		return true
	case availabilityDown:
		return false
	}
	if err := database.WaitUntilAvailable(ctx, d.backend, d.wait, d.logger); err != nil {
		d.availability = availabilityDown
		m.Error(fmt.Sprintf("Database %s is not available: %v", d.backend.Name(), err), "Database Unavailable")
		return false
	}
	d.availability = availabilityUp
	return true
}

func (d *dbBase) readCounters(ctx context.Context, table string, withUpdates bool) (counters, error) {
	ctx, span := otel.Tracer("benchverify/verifier").Start(ctx, "database.counters")
	defer span.End()
	span.SetAttributes(attribute.String("table", table))

	var c counters
	var err error
	if c.queries, err = d.backend.CountAllQueries(ctx, table); err != nil {
		return c, err
	}
	if c.rows, err = d.backend.CountRowsSelected(ctx, table); err != nil {
		return c, err
	}
	if withUpdates {
		if c.updated, err = d.backend.CountRowsUpdated(ctx, table); err != nil {
			return c, err
		}
	}
	return c, nil
}

// verifyQueriesCount runs the harness against url and reconciles the
// database counters it moved.
func (d *dbBase) verifyQueriesCount(ctx context.Context, m *message.Messages, url string, exp countExpectation) {
	d.logger.Info("VERIFYING QUERY COUNT FOR " + url)
	if !d.ensureAvailable(ctx, m) {
		return
	}

	before, err := d.readCounters(ctx, exp.table, exp.checkUpdates)
	if err != nil {
		m.Error(fmt.Sprintf("Could not read %s counters: %v", d.backend.Name(), err), "Database Error")
		return
	}

	result := d.harness.Run(ctx, url, exp.concurrency, exp.repetitions)

	after, err := d.readCounters(ctx, exp.table, exp.checkUpdates)
	if err != nil {
		m.Error(fmt.Sprintf("Could not read %s counters: %v", d.backend.Name(), err), "Database Error")
		return
	}

	queries := after.queries - before.queries
	rows := after.rows - before.rows
	updated := after.updated - before.updated
	d.logger.Info("Database counters",
		zap.String("table", exp.table),
		zap.Int64("queries", queries),
		zap.Int64("rows", rows),
		zap.Int64("rows_updated", updated),
		zap.Int64("expected_queries", exp.expectedQueries),
		zap.Int64("expected_rows", exp.expectedRows))

	if result.Failures > 0 {
		m.Error(fmt.Sprintf("%d failed transactions.", result.Failures), "Failed Requests")
	}

	margin := d.backend.Margin()
	expectedQueries := exp.expectedQueries
	queriesFactor := 1.0
	bulk := false
	if exp.checkUpdates {
		queriesFactor = margin
		low := float64(expectedQueries) * (1 - bulkDetectionTolerance)
		high := float64(expectedQueries) * (1 + bulkDetectionTolerance)
		bulk = float64(queries) > low && float64(queries) < high
		if !bulk {
			// One update statement per row instead of one per request
			expectedQueries = (expectedQueries - int64(exp.concurrency*exp.repetitions)) * 2
		}
	}

	d.reportCount(m, "executed queries", queries, expectedQueries, queriesFactor, "Queries")
	d.reportCount(m, "rows read", rows, exp.expectedRows, 1, "Rows")
	if exp.checkUpdates {
		factor := margin
		if bulk {
			factor *= bulkUpdateMargin
		}
		d.reportCount(m, "rows updated", updated, exp.expectedRows, factor, "Updates")
	}
}

func (d *dbBase) reportCount(m *message.Messages, caption string, observed, expected int64, factor float64, label string) {
	_, outcome := reconcile(observed, expected, factor)
	switch outcome {
	case countTooFew:
		m.Error(fmt.Sprintf("Only %d %s in the database out of roughly %d expected.", observed, caption, expected), "Too Few "+label)
	case countTooMany:
		m.Warning(fmt.Sprintf("%d %s in the database instead of %d expected. This number is excessively high.", observed, caption, expected), "Too Many "+label)
	default:
		d.logger.Info("Count verified",
			zap.String("caption", caption),
			zap.Int64("observed", observed),
			zap.Int64("expected", expected))
	}
}
