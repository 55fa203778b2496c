package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		EnvMode:              "verify",
		EnvPort:              "8080",
		EnvEndpoint:          "/json",
		EnvTestType:          "json",
		EnvConcurrencyLevels: "16,32,64",
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	env := baseEnv()
	env[EnvPipelineConcurrencyLevels] = "256, 1024"
	env[EnvDatabase] = "postgres"
	env[EnvDuration] = "30"

	s, err := Load(LoadOptions{Lookup: MapLookup(env)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if s.Mode != ModeVerify || s.Port != 8080 || s.Endpoint != "/json" || s.TestType != "json" {
		t.Errorf("unexpected settings %+v", s)
	}
	if !reflect.DeepEqual(s.ConcurrencyLevels, []int{16, 32, 64}) {
		t.Errorf("unexpected concurrency levels %v", s.ConcurrencyLevels)
	}
	if !reflect.DeepEqual(s.PipelineConcurrencyLevels, []int{256, 1024}) {
		t.Errorf("unexpected pipeline levels %v", s.PipelineConcurrencyLevels)
	}
	if !reflect.DeepEqual(s.QueryLevels, DefaultQueryLevels) {
		t.Errorf("query levels should default, got %v", s.QueryLevels)
	}
	if s.Duration != 30*time.Second {
		t.Errorf("expected 30s, got %s", s.Duration)
	}
	if got := s.URL(); got != "http://tfb-server:8080/json" {
		t.Errorf("unexpected URL %q", got)
	}
	if !s.History {
		t.Error("history should default to enabled")
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "benchverify.yaml")
	yamlContent := "mode: benchmark\nport: 9000\nendpoint: /plaintext\ntestType: plaintext\nconcurrencyLevels: [8]\nduration: 5s\nserverHost: localhost\n"
	if err := os.WriteFile(file, []byte(yamlContent), FilePermissions); err != nil {
		t.Fatal(err)
	}

	envFile := filepath.Join(dir, ".env")
	envContent := "# target\nexport PORT=9100\nENDPOINT=\"/json\"\nnot a pair\nHISTORY='false'\n"
	if err := os.WriteFile(envFile, []byte(envContent), FilePermissions); err != nil {
		t.Fatal(err)
	}

	s, err := Load(LoadOptions{
		File:    file,
		EnvFile: envFile,
		Lookup:  MapLookup(map[string]string{EnvPort: "9200"}),
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"mode from file", s.Mode, ModeBenchmark},
		{"port from environment", s.Port, 9200},
		{"endpoint from env file", s.Endpoint, "/json"},
		{"test type from file", s.TestType, "plaintext"},
		{"duration from file", s.Duration, 5 * time.Second},
		{"server host from file", s.ServerHost, "localhost"},
		{"database host default", s.DatabaseHost, DefaultDatabaseHost},
		{"history from env file", s.History, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadParseErrors(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvPort, "eighty"},
		{EnvConcurrencyLevels, "16,x"},
		{EnvDuration, "soon"},
		{EnvHistory, "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			env := baseEnv()
			env[tt.key] = tt.value

			_, err := Load(LoadOptions{Lookup: MapLookup(env)})
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if parseErr.Key != tt.key {
				t.Errorf("expected key %s, got %s", tt.key, parseErr.Key)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(env map[string]string)
		wantKey string
	}{
		{"valid", func(map[string]string) {}, ""},
		{"missing mode", func(env map[string]string) { delete(env, EnvMode) }, EnvMode},
		{"unknown mode", func(env map[string]string) { env[EnvMode] = "serve" }, EnvMode},
		{"missing port", func(env map[string]string) { delete(env, EnvPort) }, EnvPort},
		{"port out of range", func(env map[string]string) { env[EnvPort] = "70000" }, EnvPort},
		{"missing endpoint", func(env map[string]string) { delete(env, EnvEndpoint) }, EnvEndpoint},
		{"missing test type", func(env map[string]string) { delete(env, EnvTestType) }, EnvTestType},
		{"missing levels", func(env map[string]string) { delete(env, EnvConcurrencyLevels) }, EnvConcurrencyLevels},
		{"zero level", func(env map[string]string) { env[EnvQueryLevels] = "1,0" }, EnvQueryLevels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			tt.mutate(env)

			s, err := Load(LoadOptions{Lookup: MapLookup(env)})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			err = s.Validate()
			if tt.wantKey == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if cfgErr.Key != tt.wantKey {
				t.Errorf("expected key %s, got %s", tt.wantKey, cfgErr.Key)
			}
		})
	}
}

func TestInitializeAt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	if err := InitializeAt(dir); err != nil {
		t.Fatalf("InitializeAt: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("state dir not created: %v", err)
	}
	if DatabasePath != filepath.Join(dir, "history.db") {
		t.Errorf("unexpected database path %s", DatabasePath)
	}
}
