// Package filter narrows structured command output with JMESPath.
package filter

import (
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// Apply runs filter then query over v. Both are JMESPath expressions and
// either may be empty. Filter narrows results (e.g. [?status=='ERROR']),
// query selects fields (e.g. [].url).
func Apply(v any, filter, query string) (any, error) {
	data, err := normalize(v)
	if err != nil {
		return nil, err
	}

	if filter != "" {
		if data, err = search(data, filter); err != nil {
			return nil, fmt.Errorf("failed to apply filter: %w", err)
		}
	}
	if query != "" {
		if data, err = search(data, query); err != nil {
			return nil, fmt.Errorf("failed to apply query: %w", err)
		}
	}
	return data, nil
}

// normalize turns v into the maps and slices JMESPath walks, using the
// json field names
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return data, nil
}

func search(data any, expression string) (any, error) {
	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}

	result, err := jp.Search(data)
	if err != nil {
		return nil, fmt.Errorf("JMESPath search failed: %w", err)
	}
	return result, nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}
