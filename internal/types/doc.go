/*
Package types defines the value types shared by the verifier, the HTTP
executor and the benchmark command builder.

# Response Types

RequestResult:
  - Final URL, status and status text
  - Headers as a case-insensitive map
  - Body, duration and response size

Headers:
  - Keys are stored in canonical MIME form by the executor
  - Get and Has fall back to a case-insensitive scan
  - Snapshot renders the single-line form captured by diagnostics

# Benchmark Mode

BenchmarkCommands is serialized verbatim on stdout:

	{"primer_command":[...],"warmup_command":[...],"benchmark_commands":[[...],...]}

Each command is an argument vector, never a shell string.
*/
package types
