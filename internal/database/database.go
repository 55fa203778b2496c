package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownDatabase is returned by Open for an unsupported vendor name
var ErrUnknownDatabase = errors.New("unknown database")

const (
	// DefaultHost is the database hostname inside the benchmark network
	DefaultHost     = "tfb-database"
	DefaultUser     = "benchmarkdbuser"
	DefaultPassword = "benchmarkdbpass"
	DefaultName     = "hello_world"

	// DefaultWait bounds WaitUntilAvailable
	DefaultWait = 60 * time.Second
)

// Fortune rows inserted by the dynamic sizing check
const (
	FixtureFortuneMessage = "フレームワークのベンチマーク"
	FixtureFortuneFirstID = 13
	FixtureFortuneCount   = 1000
)

// Tables whose counters can be read
const (
	TableWorld   = "world"
	TableFortune = "fortune"
)

// pollInterval is the delay between availability probes
var pollInterval = time.Second

// Backend reads the counters of the database the target talks to.
// Counters are raw; Margin reports the compensation the vendor needs.
type Backend interface {
	Name() string
	// CountAllQueries returns the executed statements touching table
	CountAllQueries(ctx context.Context, table string) (int64, error)
	// CountRowsSelected returns the rows read from table
	CountRowsSelected(ctx context.Context, table string) (int64, error)
	// CountRowsUpdated returns the rows written to table
	CountRowsUpdated(ctx context.Context, table string) (int64, error)
	// SnapshotWorldTable returns id -> randomNumber for the whole world table
	SnapshotWorldTable(ctx context.Context) (map[int32]int32, error)
	// InsertFixtureFortunes inserts count rows of FixtureFortuneMessage
	// starting at FixtureFortuneFirstID
	InsertFixtureFortunes(ctx context.Context, count int) error
	Ping(ctx context.Context) error
	// Margin scales observed update counts before reconciliation
	Margin() float64
	Close() error
}

// Options configures the connection to a backend
type Options struct {
	Host     string
	User     string
	Password string
	Name     string
}

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = DefaultHost
	}
	if o.User == "" {
		o.User = DefaultUser
	}
	if o.Password == "" {
		o.Password = DefaultPassword
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	return o
}

// Open returns the backend for a vendor name (mysql, postgres, mongodb).
// Connections are established lazily.
func Open(name string, opts Options) (Backend, error) {
	opts = opts.withDefaults()

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return openMySQL(opts)
	case "postgres", "postgresql":
		return openPostgres(opts)
	case "mongodb", "mongo":
		return openMongo(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatabase, name)
	}
}

// WaitUntilAvailable pings b once per second until it answers or maxWait elapses
func WaitUntilAvailable(ctx context.Context, b Backend, maxWait time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastErr error
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, pollInterval)
		lastErr = b.Ping(pingCtx)
		pingCancel()
		if lastErr == nil {
			return nil
		}
		logger.Debug("Database not available yet",
			zap.String("database", b.Name()),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not available after %s: %w", b.Name(), maxWait, lastErr)
		case <-ticker.C:
		}
	}
}

func checkTable(table string) error {
	switch table {
	case TableWorld, TableFortune:
		return nil
	default:
		return fmt.Errorf("unsupported table %q", table)
	}
}
