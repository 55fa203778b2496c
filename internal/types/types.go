package types

import (
	"fmt"
	"net/textproto"
	"sort"
	"strings"
)

// ContentCategory is the family of Content-Type a test contract requires
type ContentCategory int

const (
	ContentJSON ContentCategory = iota
	ContentHTML
	ContentPlaintext
)

func (c ContentCategory) String() string {
	switch c {
	case ContentJSON:
		return "json"
	case ContentHTML:
		return "html"
	case ContentPlaintext:
		return "plaintext"
	default:
		return "unknown"
	}
}

// Headers is a response header map whose lookups ignore key case
type Headers map[string]string

// Get returns the value stored under key, matching case-insensitively
func (h Headers) Get(key string) (string, bool) {
	if h == nil {
		return "", false
	}
	if v, ok := h[textproto.CanonicalMIMEHeaderKey(key)]; ok {
		return v, true
	}
	for k, v := range h {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Has reports whether key is present
func (h Headers) Has(key string) bool {
	_, ok := h.Get(key)
	return ok
}

// Snapshot renders the headers as a single line, sorted by key, in the
// {'Key':'Value', ...} form used by the report.
func (h Headers) Snapshot() string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("'%s':'%s'", k, h[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// RequestResult contains the HTTP response data
type RequestResult struct {
	URL          string  `json:"url"`
	Status       int     `json:"status"`
	StatusText   string  `json:"statusText"`
	Headers      Headers `json:"headers"`
	Body         string  `json:"body"`
	Duration     int64   `json:"duration"`     // milliseconds
	ResponseSize int     `json:"responseSize"` // bytes
}

// BenchmarkCommands is the argument vectors handed to the load generator
type BenchmarkCommands struct {
	PrimerCommand     []string   `json:"primer_command" yaml:"primer_command"`
	WarmupCommand     []string   `json:"warmup_command" yaml:"warmup_command"`
	BenchmarkCommands [][]string `json:"benchmark_commands" yaml:"benchmark_commands"`
}
