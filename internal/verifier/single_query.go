package verifier

import (
	"context"

	"github.com/studiowebux/benchverify/internal/database"
	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/types"
)

type singleQueryVerifier struct {
	dbBase
}

func (v *singleQueryVerifier) Verify(ctx context.Context, url string) (*message.Messages, error) {
	ctx, end := v.startSpan(ctx, url)
	defer end()

	m := v.newMessages(url)
	result, ok, err := v.fetch(ctx, m, url)
	if !ok {
		return m, err
	}

	m.SetHeaders(result.Headers)
	verifyHeaders(ctx, m, v.client, url, result.Headers, types.ContentJSON, true)

	m.SetBody(result.Body)
	verifySingleQuery(m, result.Body)

	concurrency := v.maxConcurrency()
	expected := int64(queryRepetitions * concurrency)
	v.verifyQueriesCount(ctx, m, url, countExpectation{
		table:           database.TableWorld,
		concurrency:     concurrency,
		repetitions:     queryRepetitions,
		expectedQueries: expected,
		expectedRows:    expected,
	})

	return m, nil
}
