package verifier

import (
	"context"
	"fmt"

	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/types"
)

type unknownVerifier struct {
	base
}

// Verify captures whatever the target serves and reports the unsupported
// test type.
func (v *unknownVerifier) Verify(ctx context.Context, url string) (*message.Messages, error) {
	ctx, end := v.startSpan(ctx, url)
	defer end()

	m := v.newMessages(url)
	result, ok, err := v.fetch(ctx, m, url)
	if err != nil {
		return m, err
	}
	if ok {
		m.SetHeaders(result.Headers)
		verifyHeaders(ctx, m, v.client, url, result.Headers, types.ContentPlaintext, false)
		m.SetBody(result.Body)
	}

	m.Error(fmt.Sprintf("Unknown test type: %s", v.testType), "Unknown Test")
	return m, nil
}
