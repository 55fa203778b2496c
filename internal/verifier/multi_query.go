package verifier

import (
	"context"
	"strconv"

	"github.com/studiowebux/benchverify/internal/database"
	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/types"
)

type multiQueryVerifier struct {
	dbBase
}

func (v *multiQueryVerifier) Verify(ctx context.Context, url string) (*message.Messages, error) {
	ctx, end := v.startSpan(ctx, url)
	defer end()

	m := v.newMessages(url)
	if ok, err := verifyQueryCases(ctx, &v.base, m, url); !ok {
		return m, err
	}

	concurrency := v.maxConcurrency()
	expected := int64(countQueries * queryRepetitions * concurrency)
	v.verifyQueriesCount(ctx, m, url+strconv.Itoa(countQueries), countExpectation{
		table:           database.TableWorld,
		concurrency:     concurrency,
		repetitions:     queryRepetitions,
		expectedQueries: expected,
		expectedRows:    expected,
	})

	return m, nil
}

// verifyQueryCases validates headers for url and the body returned for
// every query case appended to it. It returns false when the target could
// not be reached for the headers.
func verifyQueryCases(ctx context.Context, b *base, m *message.Messages, url string) (bool, error) {
	result, ok, err := b.fetch(ctx, m, url)
	if !ok {
		return false, err
	}
	m.SetHeaders(result.Headers)
	verifyHeaders(ctx, m, b.client, url, result.Headers, types.ContentJSON, true)

	for _, c := range queryCases {
		caseURL := url + c
		m.SetURL(caseURL)

		body, ok, _ := b.fetch(ctx, m, caseURL)
		if !ok {
			continue
		}
		m.SetBody(body.Body)
		verifyWithLength(m, body.Body, clampQueries(c))
	}
	m.SetURL(url)
	return true, nil
}
