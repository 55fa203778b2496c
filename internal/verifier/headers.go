package verifier

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/studiowebux/benchverify/internal/executor"
	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/types"
)

// cacheSettleWindow is how long the Date header must take to change
var cacheSettleWindow = 3 * time.Second

const dateFormatDescription = "%a, %d %b %Y %H:%M:%S %Z"

var contentTypePatterns = map[types.ContentCategory]*regexp.Regexp{
	types.ContentJSON:      regexp.MustCompile(`^application/json(; ?charset=(UTF|utf)-8)?$`),
	types.ContentHTML:      regexp.MustCompile(`^text/html; ?charset=(UTF|utf)-8$`),
	types.ContentPlaintext: regexp.MustCompile(`^text/plain(; ?charset=(UTF|utf)-8)?$`),
}

// verifyHeaders checks the headers every test contract requires. When
// shouldRetest is set the URL is fetched again after cacheSettleWindow to
// catch a Date header served from a cache.
func verifyHeaders(ctx context.Context, m *message.Messages, fetcher Fetcher, url string, headers types.Headers, category types.ContentCategory, shouldRetest bool) {
	ctx, span := otel.Tracer("benchverify/verifier").Start(ctx, "verify.headers")
	defer span.End()

	for _, name := range []string{"Server", "Date", "Content-Type"} {
		if !headers.Has(name) {
			m.Error(fmt.Sprintf("Required response header missing: %s", name), "Missing header")
		}
	}

	if !headers.Has("Content-Length") && !headers.Has("Transfer-Encoding") {
		m.Error(`Required response size header missing, please include either "Content-Length" or "Transfer-Encoding"`, "Missing header")
	}

	date, hasDate := headers.Get("Date")
	if hasDate {
		if _, err := time.Parse(time.RFC1123, date); err != nil {
			m.Warning(fmt.Sprintf(`Invalid Date header, found "%s", did not match "%s".`, date, dateFormatDescription), "Invalid Date")
		}
	}

	if contentType, ok := headers.Get("Content-Type"); ok {
		pattern := contentTypePatterns[category]
		if pattern != nil && !pattern.MatchString(contentType) {
			m.Error(fmt.Sprintf(`Invalid Content-Type header, found "%s", did not match "%s".`, contentType, pattern.String()), "Invalid Content-Type")
		}
	}

	if !shouldRetest || !hasDate {
		return
	}

	time.Sleep(cacheSettleWindow)

	result, err := fetcher.Fetch(ctx, url)
	var statusErr *executor.StatusError
	if errors.As(err, &statusErr) {
		result, err = statusErr.Result, nil
	}
	if err != nil {
		m.Error(fmt.Sprintf("Could not re-request %s to check the Date header: %v", url, err), "Request Error")
		return
	}

	if secondDate, _ := result.Headers.Get("Date"); secondDate == date {
		m.Error(fmt.Sprintf(`Invalid Cached Date. Found "%s" and "%s" on separate requests.`, date, secondDate), "Cached Date")
	}
}
