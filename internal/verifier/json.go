package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/types"
)

const (
	helloWorldMessage = "hello, world!"
	// minimalJSONLength is len(`{"message":"Hello, World!"}`)
	minimalJSONLength = 27
)

var lowerCaser = cases.Lower(language.Und)

func lower(s string) string {
	return lowerCaser.String(s)
}

// parseJSON decodes a lowercased body keeping numbers as json.Number and
// rejecting trailing content.
func parseJSON(body string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(lower(body)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

// renderJSON formats a decoded value for a finding
func renderJSON(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type jsonVerifier struct {
	base
}

func (v *jsonVerifier) Verify(ctx context.Context, url string) (*message.Messages, error) {
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
	verifyHelloWorld(m, result.Body)

	return m, nil
}

// verifyHelloWorld checks a {"message":"Hello, World!"} body
func verifyHelloWorld(m *message.Messages, body string) {
	if extra := len(body) - minimalJSONLength; extra > 0 {
		m.Warning(fmt.Sprintf("%d additional response byte(s) found. Consider removing unnecessary whitespace.", extra), "Extra Bytes")
	}

	v, err := parseJSON(body)
	if err != nil {
		m.Error(fmt.Sprintf("Invalid JSON: %v", err), "Invalid JSON")
		return
	}

	obj, _ := v.(map[string]any)
	value, ok := obj["message"]
	if !ok {
		m.Error("Missing required key 'message'", "Missing key 'message'")
		return
	}

	for _, key := range sortedKeys(obj) {
		if key != "message" {
			m.Warning(fmt.Sprintf("Too many JSON key/value pairs, consider removing: %s", key), "Extra Key")
		}
	}

	if s, isString := value.(string); !isString || s != helloWorldMessage {
		m.Error(fmt.Sprintf("Expected message of 'hello, world!', got '%s'", renderJSON(value)), "Invalid response body")
	}
}
