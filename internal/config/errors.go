package config

import "fmt"

// Error is a missing or invalid setting
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration %s %s", e.Key, e.Reason)
}

// ParseError is a setting whose value could not be parsed
type ParseError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("configuration %s: cannot parse %q: %v", e.Key, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
