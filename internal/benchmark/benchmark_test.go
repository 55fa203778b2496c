package benchmark

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/verifier"
)

func jsonCommand(duration, concurrency, threads string) []string {
	return []string{
		"wrk",
		"-H", "Host: tfb-server",
		"-H", "Accept: " + acceptDefault,
		"-H", "Connection: keep-alive",
		"--latency",
		"-d", duration,
		"-c", concurrency,
		"--timeout", "8",
		"-t", threads,
		"http://tfb-server:8080/json",
	}
}

func TestCommandsPerConcurrency(t *testing.T) {
	cmds, err := Commands(Options{
		TestType:          verifier.JSON,
		URL:               "http://tfb-server:8080/json",
		ConcurrencyLevels: []int{16, 32, 4},
		Threads:           28,
	})
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}

	if diff := cmp.Diff(jsonCommand("5", "8", "8"), cmds.PrimerCommand); diff != "" {
		t.Errorf("primer mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(jsonCommand("15", "32", "28"), cmds.WarmupCommand); diff != "" {
		t.Errorf("warmup mismatch (-want +got):\n%s", diff)
	}
	want := [][]string{
		jsonCommand("15", "16", "16"),
		jsonCommand("15", "32", "28"),
		jsonCommand("15", "4", "4"),
	}
	if diff := cmp.Diff(want, cmds.BenchmarkCommands); diff != "" {
		t.Errorf("benchmark mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandsPlaintextPipeline(t *testing.T) {
	cmds, err := Commands(Options{
		TestType:                  verifier.Plaintext,
		URL:                       "http://tfb-server:8080/plaintext",
		Duration:                  10 * time.Second,
		ConcurrencyLevels:         []int{16},
		PipelineConcurrencyLevels: []int{256, 1024},
		Threads:                   4,
	})
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}

	if len(cmds.BenchmarkCommands) != 2 {
		t.Fatalf("expected 2 benchmark commands, got %d", len(cmds.BenchmarkCommands))
	}
	got := cmds.BenchmarkCommands[1]
	wantTail := []string{"http://tfb-server:8080/plaintext", "-s", "pipeline.lua", "--", "16"}
	if diff := cmp.Diff(wantTail, got[len(got)-5:]); diff != "" {
		t.Errorf("pipeline tail mismatch (-want +got):\n%s", diff)
	}
	if got[4] != "Accept: "+acceptPlaintext {
		t.Errorf("unexpected accept header %q", got[4])
	}
	if diff := cmp.Diff([]string{"-d", "10", "-c", "1024"}, got[8:12]); diff != "" {
		t.Errorf("duration/concurrency mismatch (-want +got):\n%s", diff)
	}
	if cmds.WarmupCommand[11] != "1024" {
		t.Errorf("warmup should use the largest pipeline level, got %q", cmds.WarmupCommand[11])
	}
}

func TestCommandsQueryLevels(t *testing.T) {
	cmds, err := Commands(Options{
		TestType:          verifier.Update,
		URL:               "http://tfb-server:8080/updates?queries=",
		ConcurrencyLevels: []int{16, 512},
		Threads:           8,
	})
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}

	var urls []string
	for _, cmd := range cmds.BenchmarkCommands {
		urls = append(urls, cmd[len(cmd)-1])
		if cmd[11] != "512" {
			t.Errorf("query benchmarks run at max concurrency, got %q", cmd[11])
		}
	}
	want := []string{
		"http://tfb-server:8080/updates?queries=1",
		"http://tfb-server:8080/updates?queries=5",
		"http://tfb-server:8080/updates?queries=10",
		"http://tfb-server:8080/updates?queries=15",
		"http://tfb-server:8080/updates?queries=20",
	}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("query urls mismatch (-want +got):\n%s", diff)
	}
	if last := cmds.PrimerCommand[len(cmds.PrimerCommand)-1]; !strings.HasSuffix(last, "queries=2") {
		t.Errorf("primer should request two queries, got %q", last)
	}
}

func TestCommandsErrors(t *testing.T) {
	_, err := Commands(Options{TestType: verifier.TestType("grpc"), ConcurrencyLevels: []int{1}})
	if !errors.Is(err, ErrUnsupportedTestType) {
		t.Errorf("expected ErrUnsupportedTestType, got %v", err)
	}

	_, err = Commands(Options{TestType: verifier.Plaintext, ConcurrencyLevels: []int{1}})
	if !errors.Is(err, ErrNoLevels) {
		t.Errorf("expected ErrNoLevels, got %v", err)
	}
}

const commandsSchema = `{
  "type": "object",
  "required": ["primer_command", "warmup_command", "benchmark_commands"],
  "additionalProperties": false,
  "properties": {
    "primer_command": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "warmup_command": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "benchmark_commands": {
      "type": "array",
      "items": {"type": "array", "items": {"type": "string"}}
    }
  }
}`

func TestEmitWireFormat(t *testing.T) {
	cmds, err := Commands(Options{
		TestType:          verifier.Fortune,
		URL:               "http://tfb-server:8080/fortunes",
		ConcurrencyLevels: []int{16, 32},
	})
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}

	var out bytes.Buffer
	if err := Emit(message.NewEmitter(&out), cmds); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if strings.Count(out.String(), "\n") != 1 {
		t.Fatalf("expected a single line, got %q", out.String())
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(commandsSchema),
		gojsonschema.NewStringLoader(strings.TrimSpace(out.String())),
	)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid() {
		t.Errorf("emitted line does not match schema: %v", result.Errors())
	}
}
