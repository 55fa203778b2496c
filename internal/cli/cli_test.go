package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/benchverify/internal/history"
	"github.com/studiowebux/benchverify/internal/message"
)

func sampleRun() *history.Run {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &history.Run{
		ID:         "run-1",
		TestType:   "fortune",
		URL:        "http://tfb-server:8080/fortunes",
		Database:   "postgres",
		Status:     "ERROR",
		Errors:     1,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Findings: []message.Record{
			{Kind: message.KindError, Message: "Invalid Fortunes", ShortMessage: "Invalid Fortunes"},
		},
	}
}

func TestVerifyingBanner(t *testing.T) {
	var buf bytes.Buffer
	VerifyingBanner(&buf, "fortune")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	border := strings.Repeat("-", 79)
	if lines[0] != border || lines[2] != border {
		t.Errorf("borders not 79 dashes: %q / %q", lines[0], lines[2])
	}
	if !strings.Contains(lines[1], "VERIFYING FORTUNE") {
		t.Errorf("banner text = %q", lines[1])
	}
}

func TestPrintFormats(t *testing.T) {
	runs := []*history.Run{sampleRun()}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Print(&buf, runs, FormatJSON); err != nil {
			t.Fatal(err)
		}
		var decoded []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if decoded[0]["testType"] != "fortune" {
			t.Errorf("testType = %v", decoded[0]["testType"])
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Print(&buf, runs, FormatYAML); err != nil {
			t.Fatal(err)
		}
		var decoded []map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid yaml: %v", err)
		}
		if decoded[0]["status"] != "ERROR" {
			t.Errorf("status = %v", decoded[0]["status"])
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Print(&buf, runs, FormatText); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{"fortune", "ERROR", "http://tfb-server:8080/fortunes", "run-1", "postgres", "Invalid Fortunes"} {
			if !strings.Contains(out, want) {
				t.Errorf("text output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("text empty", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Print(&buf, []*history.Run{}, FormatText); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No verification runs") {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("text filtered value", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Print(&buf, []any{"fortune"}, FormatText); err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(buf.String()) != "- fortune" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := Print(&bytes.Buffer{}, runs, "xml"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
