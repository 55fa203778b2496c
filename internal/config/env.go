package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment keys
const (
	EnvMode                      = "MODE"
	EnvPort                      = "PORT"
	EnvEndpoint                  = "ENDPOINT"
	EnvTestType                  = "TEST_TYPE"
	EnvConcurrencyLevels         = "CONCURRENCY_LEVELS"
	EnvPipelineConcurrencyLevels = "PIPELINE_CONCURRENCY_LEVELS"
	EnvQueryLevels               = "QUERY_LEVELS"
	EnvDatabase                  = "DATABASE"
	EnvServerHost                = "SERVER_HOST"
	EnvDatabaseHost              = "DATABASE_HOST"
	EnvDuration                  = "DURATION"
	EnvHistory                   = "HISTORY"
)

// Lookup reads one variable; os.LookupEnv satisfies it
type Lookup func(key string) (string, bool)

// MapLookup adapts a map to Lookup
func MapLookup(vars map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file
func LoadEnvFile(path string) (map[string]string, error) {
	envVars := make(map[string]string)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		envVars[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading env file: %w", err)
	}

	return envVars, nil
}

// ApplyEnv overlays every variable lookup knows about onto s
func (s *Settings) ApplyEnv(lookup Lookup) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	levels := func(key string, dst *[]int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		parsed, err := ParseLevels(key, v)
		if err != nil {
			return err
		}
		*dst = parsed
		return nil
	}

	if v, ok := lookup(EnvMode); ok && v != "" {
		s.Mode = Mode(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ParseError{Key: EnvPort, Value: v, Err: err}
		}
		s.Port = port
	}
	str(EnvEndpoint, &s.Endpoint)
	str(EnvTestType, &s.TestType)
	str(EnvDatabase, &s.Database)
	str(EnvServerHost, &s.ServerHost)
	str(EnvDatabaseHost, &s.DatabaseHost)

	if err := levels(EnvConcurrencyLevels, &s.ConcurrencyLevels); err != nil {
		return err
	}
	if err := levels(EnvPipelineConcurrencyLevels, &s.PipelineConcurrencyLevels); err != nil {
		return err
	}
	if err := levels(EnvQueryLevels, &s.QueryLevels); err != nil {
		return err
	}

	if v, ok := lookup(EnvDuration); ok && v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return &ParseError{Key: EnvDuration, Value: v, Err: err}
		}
		s.Duration = d
	}
	if v, ok := lookup(EnvHistory); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return &ParseError{Key: EnvHistory, Value: v, Err: err}
		}
		s.History = enabled
	}
	return nil
}

// ParseLevels parses a comma-separated list of integers
func ParseLevels(key, value string) ([]int, error) {
	var out []int
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, &ParseError{Key: key, Value: item, Err: err}
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseDuration accepts a Go duration or a bare number of seconds
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(value)
}
