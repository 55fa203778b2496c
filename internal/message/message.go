package message

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/studiowebux/benchverify/internal/types"
)

// HelpURL is printed under every rendered finding
const HelpURL = "https://github.com/TechEmpower/FrameworkBenchmarks/wiki/Project-Information-Framework-Tests-Overview#specific-test-requirements"

// Kind distinguishes warnings from errors
type Kind int

const (
	KindWarning Kind = iota
	KindError
)

func (k Kind) String() string {
	if k == KindError {
		return "error"
	}
	return "warning"
}

// MarshalText encodes k by name so stored findings read "warning"/"error"
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "warning":
		*k = KindWarning
	case "error":
		*k = KindError
	default:
		return fmt.Errorf("unknown finding kind %q", text)
	}
	return nil
}

// Record is one finding together with the context captured when it was raised
type Record struct {
	Kind         Kind   `json:"kind" yaml:"kind"`
	Message      string `json:"message" yaml:"message"`
	ShortMessage string `json:"shortMessage" yaml:"shortMessage"`
	URL          string `json:"url" yaml:"url"`
	Headers      string `json:"headers" yaml:"headers"`
	Body         string `json:"body" yaml:"body"`
}

type wireRecord struct {
	Message      string `json:"message"`
	ShortMessage string `json:"short_message"`
}

// Emitter writes structured lines for the controlling process, one JSON
// object per line. Safe for concurrent use.
type Emitter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEmitter creates an emitter writing to w; nil means stdout
func NewEmitter(w io.Writer) *Emitter {
	if w == nil {
		w = os.Stdout
	}
	return &Emitter{w: w}
}

// Emit encodes v as a single line
func (e *Emitter) Emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	_, err = fmt.Fprintf(e.w, "%s\n", data)
	return err
}

// Messages accumulates the findings of one verification run against one URL
type Messages struct {
	mu      sync.Mutex
	url     string
	headers string
	body    string
	records []Record
	emitter *Emitter
}

// New creates an accumulator scoped to url
func New(url string, emitter *Emitter) *Messages {
	if emitter == nil {
		emitter = NewEmitter(nil)
	}
	return &Messages{url: url, emitter: emitter}
}

// URL returns the URL the run is scoped to
func (m *Messages) URL() string {
	return m.url
}

// SetURL changes the URL captured by subsequent findings
func (m *Messages) SetURL(url string) {
	m.mu.Lock()
	m.url = url
	m.mu.Unlock()
}

// SetHeaders replaces the headers snapshot captured by subsequent findings
func (m *Messages) SetHeaders(headers types.Headers) {
	m.mu.Lock()
	m.headers = headers.Snapshot()
	m.mu.Unlock()
}

// SetBody replaces the body snapshot captured by subsequent findings
func (m *Messages) SetBody(body string) {
	m.mu.Lock()
	m.body = body
	m.mu.Unlock()
}

// Body returns the current body snapshot
func (m *Messages) Body() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.body
}

// Warning records a warning and emits it
func (m *Messages) Warning(msg, short string) {
	m.raise(KindWarning, msg, short)
}

// Error records an error and emits it
func (m *Messages) Error(msg, short string) {
	m.raise(KindError, msg, short)
}

// raise appends and emits under one lock so the report and the stream
// never disagree on ordering.
func (m *Messages) raise(kind Kind, msg, short string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, Record{
		Kind:         kind,
		Message:      msg,
		ShortMessage: short,
		URL:          m.url,
		Headers:      m.headers,
		Body:         m.body,
	})

	// Emission failures must not abort verification
	_ = m.emitter.Emit(map[string]wireRecord{
		kind.String(): {Message: msg, ShortMessage: short},
	})
}

// Records returns every finding in the order raised
func (m *Messages) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Warnings returns the warnings in the order raised
func (m *Messages) Warnings() []Record {
	return m.filter(KindWarning)
}

// Errors returns the errors in the order raised
func (m *Messages) Errors() []Record {
	return m.filter(KindError)
}

func (m *Messages) filter(kind Kind) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of findings raised so far
func (m *Messages) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Status returns ERROR if any error was raised, WARN if only warnings were,
// PASS otherwise.
func (m *Messages) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := "PASS"
	for _, r := range m.records {
		if r.Kind == KindError {
			return "ERROR"
		}
		status = "WARN"
	}
	return status
}

var (
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Render prints the summary line followed by every finding with its context
func (m *Messages) Render(w io.Writer) {
	status := m.Status()
	style := passStyle
	switch status {
	case "WARN":
		style = warnStyle
	case "ERROR":
		style = errorStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "   %s for %s\n", style.Render(status), m.URL())
	for _, r := range m.Records() {
		label := warnStyle.Render("WARN")
		if r.Kind == KindError {
			label = errorStyle.Render("ERROR")
		}
		fmt.Fprintf(&b, "     %s: %s\n", label, r.Message)
		fmt.Fprintf(&b, "     %s\n", dimStyle.Render("See "+HelpURL))
		fmt.Fprintf(&b, "       url: %s\n", r.URL)
		if r.Headers != "" {
			fmt.Fprintf(&b, "       headers: %s\n", r.Headers)
		}
		if r.Body != "" {
			fmt.Fprintf(&b, "       body: %s\n", r.Body)
		}
	}
	fmt.Fprint(w, b.String())
}
