package verifier

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/studiowebux/benchverify/internal/message"
)

const (
	minQueries = 1
	maxQueries = 500
	maxWorldID = 10000

	// queryRepetitions is the number of harness sweeps per count check
	queryRepetitions = 2
	// countQueries is appended to the URL for count checks
	countQueries = 20
)

// queryCases are the raw query parameters every multi-row test is probed with
var queryCases = []string{"2", "0", "foo", "501", ""}

// clampQueries translates a raw queries parameter the way a compliant
// target must: non-numeric or below 1 means 1, above 500 means 500.
func clampQueries(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < minQueries {
		return minQueries
	}
	if n > maxQueries {
		return maxQueries
	}
	return n
}

// verifyQueryObject checks one {"id":..,"randomNumber":..} object
func verifyQueryObject(m *message.Messages, obj map[string]any) {
	var id, randomNumber any
	var hasID, hasRandomNumber bool
	var extra []string

	for _, key := range sortedKeys(obj) {
		switch strings.ToLower(key) {
		case "id":
			id, hasID = obj[key], true
		case "randomnumber":
			randomNumber, hasRandomNumber = obj[key], true
		default:
			extra = append(extra, strings.ToLower(key))
		}
	}

	if !hasID {
		m.Error("Response object was missing required key: id", "Missing Key")
		return
	}
	if !hasRandomNumber {
		m.Error("Response object was missing required key: randomnumber", "Missing Key")
		return
	}

	switch len(extra) {
	case 0:
	case 1:
		m.Warning(fmt.Sprintf("An extra key is being included with the db object: %s", extra[0]), "Extra Key")
	default:
		m.Warning(fmt.Sprintf("Extra keys are being included with the db object: %s", strings.Join(extra, ", ")), "Extra Keys")
	}

	if n, ok := integerValue(m, "id", id); ok && (n < 1 || n > maxWorldID) {
		m.Warning(fmt.Sprintf("Response key 'id' should be between 1 and 10,000: %d", n), "Value Out of Range")
	}

	if n, ok := integerValue(m, "randomnumber", randomNumber); ok {
		if n < 1 {
			m.Error(fmt.Sprintf("Response key 'randomnumber' must be greater than zero: %d", n), "Invalid Value")
		} else if n > maxWorldID {
			m.Warning("Response key `randomNumber` is over 10,000. This may negatively affect performance by sending extra bytes.", "Value Out of Range")
		}
	}
}

// integerValue accepts a JSON integer, or a numeric string with a warning
func integerValue(m *message.Messages, key string, v any) (int64, bool) {
	switch value := v.(type) {
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			m.Warning(fmt.Sprintf("Response key '%s' is int-string; should be int: %s. This may negatively affect performance by sending extra bytes.", key, value), "Extra Bytes")
			return n, true
		}
	}
	m.Error(fmt.Sprintf("Response key '%s' does not map to an integer: %s", key, renderJSON(v)), "Invalid Value")
	return 0, false
}

// verifyWithLength checks an array of world objects of the expected length.
// Object checks stop at the first object that raises anything.
func verifyWithLength(m *message.Messages, body string, expected int) {
	v, err := parseJSON(body)
	if err != nil {
		m.Error(fmt.Sprintf("Invalid JSON: %v", err), "Invalid JSON")
		return
	}

	switch value := v.(type) {
	case []any:
		before := m.Len()
		for _, item := range value {
			obj, ok := item.(map[string]any)
			if !ok {
				m.Error(fmt.Sprintf("Response array contains a non-object value: %s", renderJSON(item)), "Invalid JSON")
				break
			}
			verifyQueryObject(m, obj)
			if m.Len() > before {
				break
			}
		}
		if len(value) != expected {
			m.Error(fmt.Sprintf("JSON array length of %d != expected length of %d", len(value), expected), "Incorrect Length")
		}
	case map[string]any:
		m.Warning("Top-level JSON is an object, not an array", "Invalid JSON")
		verifyQueryObject(m, value)
		if expected > 1 {
			m.Error(fmt.Sprintf("JSON object found where an array of length %d was expected", expected), "Incorrect Length")
		}
	default:
		m.Error("Response is not a JSON object or an array of JSON objects", "Invalid JSON")
	}
}

// verifySingleQuery checks a single world object. An array is tolerated
// with a warning and its first element is checked.
func verifySingleQuery(m *message.Messages, body string) {
	v, err := parseJSON(body)
	if err != nil {
		m.Error(fmt.Sprintf("Invalid JSON: %v", err), "Invalid JSON")
		return
	}

	if list, ok := v.([]any); ok {
		m.Warning("Response is a JSON array. Expected JSON object (e.g. [] vs {})", "Expected JSON object")
		if len(list) == 0 {
			m.Error("Response is an empty JSON array", "Invalid JSON")
			return
		}
		v = list[0]
	}

	obj, ok := v.(map[string]any)
	if !ok {
		m.Error("Response is not a JSON object or an array of JSON objects", "Invalid JSON")
		return
	}
	verifyQueryObject(m, obj)
}
