package verifier

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/studiowebux/benchverify/internal/database"
	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/types"
)

const (
	// fortunesPerQuery is the number of seeded rows one fortune request reads
	fortunesPerQuery = 12
	// bodyPreviewLength caps the body attached to the dynamic sizing check
	bodyPreviewLength = 500
)

type fortuneVerifier struct {
	dbBase
}

func (v *fortuneVerifier) Verify(ctx context.Context, url string) (*message.Messages, error) {
	ctx, end := v.startSpan(ctx, url)
	defer end()

	m := v.newMessages(url)
	result, ok, err := v.fetch(ctx, m, url)
	if !ok {
		return m, err
	}

	m.SetHeaders(result.Headers)
	verifyHeaders(ctx, m, v.client, url, result.Headers, types.ContentHTML, true)

	m.SetBody(singleLine(result.Body))
	valid := verifyFortune(m, result.Body)

	concurrency := v.maxConcurrency()
	queries := int64(queryRepetitions * concurrency)
	v.verifyQueriesCount(ctx, m, url, countExpectation{
		table:           database.TableFortune,
		concurrency:     concurrency,
		repetitions:     queryRepetitions,
		expectedQueries: queries,
		expectedRows:    fortunesPerQuery * queries,
	})

	if valid {
		if err := v.verifyDynamicallySized(ctx, m, url); err != nil {
			return m, err
		}
	}
	// the sizing check attaches the enlarged body
	m.SetBody(result.Body)

	return m, nil
}

// verifyFortune compares the normalized body with the seeded table
func verifyFortune(m *message.Messages, body string) bool {
	fortunes, err := normalizeHTML(body)
	if err != nil || !equalFold(fortunes, fortunesReference) {
		m.Error(fmt.Sprintf("Invalid fortunes; expected %s but received %s", fortunesReference, fortunes), "Invalid Fortunes")
		return false
	}
	return true
}

// verifyDynamicallySized adds fixture rows and checks the page grew with
// them. Equal messages may be ordered freely, so only the rendered length
// is compared.
func (v *fortuneVerifier) verifyDynamicallySized(ctx context.Context, m *message.Messages, url string) error {
	if !v.ensureAvailable(ctx, m) {
		return nil
	}
	if err := v.backend.InsertFixtureFortunes(ctx, database.FixtureFortuneCount); err != nil {
		m.Error(fmt.Sprintf("Could not insert fortunes into %s: %v", v.backend.Name(), err), "Database Error")
		return nil
	}

	result, ok, err := v.fetch(ctx, m, url)
	if !ok {
		return err
	}
	m.SetBody(preview(singleLine(result.Body), bodyPreviewLength))

	expected := dynamicFortunesReference(database.FixtureFortuneFirstID, database.FixtureFortuneCount, database.FixtureFortuneMessage)
	fortunes, _ := normalizeHTML(result.Body)

	want, got := utf8.RuneCountInString(expected), utf8.RuneCountInString(fortunes)
	v.logger.Debug("Dynamic fortunes", zap.Int("expected_length", want), zap.Int("length", got))
	if want != got {
		m.Error(fmt.Sprintf("Fortunes not dynamically sized. Expected length: %d; actual length: %d", want, got), "Non-dynamic Fortune")
	}
	return nil
}

func singleLine(s string) string {
	return strings.NewReplacer("\r\n", "", "\n", "").Replace(s)
}

// preview truncates s to n runes
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
