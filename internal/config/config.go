package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// StateDir is the global state directory (~/.benchverify)
	StateDir string

	// DatabasePath is the SQLite database file holding verification history
	DatabasePath string
)

// Initialize sets up the state directory.
// It creates ~/.benchverify/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".benchverify"))
}

// InitializeAt sets up dir as the state directory
func InitializeAt(dir string) error {
	StateDir = dir
	DatabasePath = filepath.Join(StateDir, "history.db")

	if err := os.MkdirAll(StateDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", StateDir, err)
	}
	return nil
}

// Mode selects what the root command does
type Mode string

const (
	ModeVerify    Mode = "verify"
	ModeBenchmark Mode = "benchmark"
)

// Defaults for the supplementary settings
const (
	DefaultServerHost   = "tfb-server"
	DefaultDatabaseHost = "tfb-database"
	DefaultDuration     = 15 * time.Second
)

// DefaultQueryLevels are the queries parameters benchmarked for multi-row tests
var DefaultQueryLevels = []int{1, 5, 10, 15, 20}

// Settings is the resolved configuration of one run
type Settings struct {
	Mode                      Mode          `yaml:"mode" json:"mode"`
	Port                      int           `yaml:"port" json:"port"`
	Endpoint                  string        `yaml:"endpoint" json:"endpoint"`
	TestType                  string        `yaml:"testType" json:"testType"`
	ConcurrencyLevels         []int         `yaml:"concurrencyLevels" json:"concurrencyLevels"`
	PipelineConcurrencyLevels []int         `yaml:"pipelineConcurrencyLevels,omitempty" json:"pipelineConcurrencyLevels,omitempty"`
	QueryLevels               []int         `yaml:"queryLevels,omitempty" json:"queryLevels,omitempty"`
	Database                  string        `yaml:"database,omitempty" json:"database,omitempty"`
	ServerHost                string        `yaml:"serverHost" json:"serverHost"`
	DatabaseHost              string        `yaml:"databaseHost" json:"databaseHost"`
	Duration                  time.Duration `yaml:"duration" json:"duration"`
	History                   bool          `yaml:"history" json:"history"`
}

// Defaults returns the settings before any source is applied
func Defaults() *Settings {
	return &Settings{
		ServerHost:   DefaultServerHost,
		DatabaseHost: DefaultDatabaseHost,
		Duration:     DefaultDuration,
		QueryLevels:  append([]int(nil), DefaultQueryLevels...),
		History:      true,
	}
}

// URL returns the target URL, http://<server host>:<port><endpoint>
func (s *Settings) URL() string {
	return "http://" + net.JoinHostPort(s.ServerHost, strconv.Itoa(s.Port)) + s.Endpoint
}

// Validate reports the first missing or malformed required setting
func (s *Settings) Validate() error {
	switch s.Mode {
	case ModeVerify, ModeBenchmark:
	case "":
		return &Error{Key: EnvMode, Reason: "is required"}
	default:
		return &Error{Key: EnvMode, Reason: fmt.Sprintf("unknown mode %q (use verify or benchmark)", s.Mode)}
	}
	if s.Port < 1 || s.Port > 65535 {
		return &Error{Key: EnvPort, Reason: "must be between 1 and 65535"}
	}
	if s.Endpoint == "" {
		return &Error{Key: EnvEndpoint, Reason: "is required"}
	}
	if s.TestType == "" {
		return &Error{Key: EnvTestType, Reason: "is required"}
	}
	if len(s.ConcurrencyLevels) == 0 {
		return &Error{Key: EnvConcurrencyLevels, Reason: "is required"}
	}
	for _, l := range []struct {
		key    string
		levels []int
	}{
		{EnvConcurrencyLevels, s.ConcurrencyLevels},
		{EnvPipelineConcurrencyLevels, s.PipelineConcurrencyLevels},
		{EnvQueryLevels, s.QueryLevels},
	} {
		for _, n := range l.levels {
			if n < 1 {
				return &Error{Key: l.key, Reason: fmt.Sprintf("levels must be positive, got %d", n)}
			}
		}
	}
	if s.ServerHost == "" {
		return &Error{Key: EnvServerHost, Reason: "is required"}
	}
	return nil
}
