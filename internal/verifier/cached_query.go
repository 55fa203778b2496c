package verifier

import (
	"context"

	"github.com/studiowebux/benchverify/internal/message"
)

// cachedQueryVerifier checks the response shape only; cached reads are
// not expected to reach the database.
type cachedQueryVerifier struct {
	dbBase
}

func (v *cachedQueryVerifier) Verify(ctx context.Context, url string) (*message.Messages, error) {
	ctx, end := v.startSpan(ctx, url)
	defer end()

	m := v.newMessages(url)
	_, err := verifyQueryCases(ctx, &v.base, m, url)
	return m, err
}
