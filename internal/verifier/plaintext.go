package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/types"
)

// minimalPlaintextLength is len("Hello, World!")
const minimalPlaintextLength = 13

type plaintextVerifier struct {
	base
}

func (v *plaintextVerifier) Verify(ctx context.Context, url string) (*message.Messages, error) {
	ctx, end := v.startSpan(ctx, url)
	defer end()

	m := v.newMessages(url)
	result, ok, err := v.fetch(ctx, m, url)
	if !ok {
		return m, err
	}

	m.SetHeaders(result.Headers)
	verifyHeaders(ctx, m, v.client, url, result.Headers, types.ContentPlaintext, true)

	m.SetBody(result.Body)
	verifyPlaintext(m, result.Body)

	return m, nil
}

func verifyPlaintext(m *message.Messages, body string) {
	if !strings.Contains(lower(body), helloWorldMessage) {
		m.Error(fmt.Sprintf("Could not find 'Hello, World!' in response: '%s'", body), "Invalid response body")
	}

	if extra := len(body) - minimalPlaintextLength; extra > 0 {
		m.Warning(fmt.Sprintf("Server is returning %d more bytes than are required. This may negatively affect benchmark performance.", extra), "Extra Bytes")
	}
}
