package verifier

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/studiowebux/benchverify/internal/database"
	"github.com/studiowebux/benchverify/internal/message"
)

type updateVerifier struct {
	dbBase
}

func (v *updateVerifier) Verify(ctx context.Context, url string) (*message.Messages, error) {
	ctx, end := v.startSpan(ctx, url)
	defer end()

	m := v.newMessages(url)
	if ok, err := verifyQueryCases(ctx, &v.base, m, url); !ok {
		return m, err
	}

	concurrency := v.maxConcurrency()
	requests := int64(queryRepetitions * concurrency)
	rows := countQueries * requests
	countURL := url + strconv.Itoa(countQueries)

	v.verifyQueriesCount(ctx, m, countURL, countExpectation{
		table:       database.TableWorld,
		concurrency: concurrency,
		repetitions: queryRepetitions,
		// one select per row plus one bulk update per request
		expectedQueries: rows + requests,
		expectedRows:    rows,
		checkUpdates:    true,
	})
	v.verifyUpdates(ctx, m, countURL, concurrency, queryRepetitions)

	return m, nil
}

// verifyUpdates snapshots the world table around one sweep of requests
// and counts the rows whose randomNumber changed.
func (v *updateVerifier) verifyUpdates(ctx context.Context, m *message.Messages, url string, concurrency, repetitions int) {
	if !v.ensureAvailable(ctx, m) {
		return
	}
	expected := concurrency * repetitions

	before, err := v.backend.SnapshotWorldTable(ctx)
	if err != nil {
		m.Error(fmt.Sprintf("Could not read the world table: %v", err), "Database Error")
		return
	}

	v.harness.Run(ctx, url, concurrency, 1)

	after, err := v.backend.SnapshotWorldTable(ctx)
	if err != nil {
		m.Error(fmt.Sprintf("Could not read the world table: %v", err), "Database Error")
		return
	}

	updates := 0
	for id, n := range before {
		if changed, ok := after[id]; ok && changed != n {
			updates++
		}
	}
	v.logger.Info("World rows changed", zap.Int("updated", updates), zap.Int("expected", expected))

	switch {
	case updates == 0:
		m.Error("No items were updated in the database.", "No Updates")
	case float64(updates) <= float64(expected)*0.90:
		m.Error(fmt.Sprintf("Only %d items were updated in the database out of roughly %d expected.", updates, expected), "Too Few Updates")
	case float64(updates) <= float64(expected)*0.95:
		m.Warning(fmt.Sprintf("There may have been an error updating the database. Only %d items were updated in the database out of the roughly %d expected.", updates, expected), "Too Few Updates")
	}
}
