package verifier

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/studiowebux/benchverify/internal/database"
	"github.com/studiowebux/benchverify/internal/executor"
	"github.com/studiowebux/benchverify/internal/message"
	"github.com/studiowebux/benchverify/internal/stresstest"
	"github.com/studiowebux/benchverify/internal/types"
)

// TestType names a test contract. Names outside the known set are kept
// as-is and verified by the unknown verifier.
type TestType string

const (
	JSON        TestType = "json"
	SingleQuery TestType = "db"
	MultiQuery  TestType = "query"
	CachedQuery TestType = "cached_query"
	Fortune     TestType = "fortune"
	Update      TestType = "update"
	Plaintext   TestType = "plaintext"
)

var testTypeAliases = map[string]TestType{
	"json":          JSON,
	"db":            SingleQuery,
	"singlequery":   SingleQuery,
	"single_query":  SingleQuery,
	"query":         MultiQuery,
	"multiquery":    MultiQuery,
	"multi_query":   MultiQuery,
	"cached_query":  CachedQuery,
	"cachedquery":   CachedQuery,
	"cached-query":  CachedQuery,
	"fortune":       Fortune,
	"fortunes":      Fortune,
	"update":        Update,
	"updates":       Update,
	"plaintext":     Plaintext,
}

// Resolve maps a configured name to a TestType. It never fails: unknown
// names are returned unchanged.
func Resolve(name string) TestType {
	if t, ok := testTypeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return TestType(name)
}

// Known reports whether t is one of the supported contracts
func (t TestType) Known() bool {
	switch t {
	case JSON, SingleQuery, MultiQuery, CachedQuery, Fortune, Update, Plaintext:
		return true
	}
	return false
}

// RequiresDatabase reports whether verifying t reads database counters
func (t TestType) RequiresDatabase() bool {
	switch t {
	case SingleQuery, MultiQuery, CachedQuery, Fortune, Update:
		return true
	}
	return false
}

// Errors returned by New
var (
	ErrMissingDatabase    = errors.New("test type requires a database")
	ErrNoConcurrencyLevel = errors.New("test type requires at least one concurrency level")
)

// Verifier checks a target URL against one test contract
type Verifier interface {
	TestType() TestType
	// Verify never fails on findings; those are recorded in the returned
	// Messages. An error is returned only when the URL cannot be requested
	// at all.
	Verify(ctx context.Context, url string) (*message.Messages, error)
}

// Fetcher retrieves status, headers and body for a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*types.RequestResult, error)
}

// Client is what the verifiers need from the HTTP layer
type Client interface {
	Fetcher
	stresstest.Requester
}

// Options configures the verifier returned by New
type Options struct {
	// Database is the vendor name; ignored when Backend is set
	Database        string
	DatabaseOptions database.Options
	Backend         database.Backend
	// DatabaseWait bounds the availability check; zero means database.DefaultWait
	DatabaseWait time.Duration

	ConcurrencyLevels []int

	Client  Client
	Emitter *message.Emitter
	Logger  *zap.Logger
	// Workers sizes the harness pool; zero means runtime.NumCPU()
	Workers int
}

// New builds the verifier for t
func New(t TestType, opts Options) (Verifier, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Emitter == nil {
		opts.Emitter = message.NewEmitter(nil)
	}
	if opts.Client == nil {
		opts.Client = executor.NewClient(executor.Options{
			MaxConns: maxOf(opts.ConcurrencyLevels),
			Logger:   opts.Logger,
		})
	}

	b := base{
		testType: t,
		client:   opts.Client,
		emitter:  opts.Emitter,
		logger:   opts.Logger.With(zap.String("test_type", string(t))),
	}

	if !t.RequiresDatabase() {
		switch t {
		case JSON:
			return &jsonVerifier{base: b}, nil
		case Plaintext:
			return &plaintextVerifier{base: b}, nil
		default:
			return &unknownVerifier{base: b}, nil
		}
	}

	if len(opts.ConcurrencyLevels) == 0 {
		return nil, fmt.Errorf("%s: %w", t, ErrNoConcurrencyLevel)
	}

	backend := opts.Backend
	if backend == nil {
		if strings.TrimSpace(opts.Database) == "" {
			return nil, fmt.Errorf("%s: %w", t, ErrMissingDatabase)
		}
		var err error
		backend, err = database.Open(opts.Database, opts.DatabaseOptions)
		if err != nil {
			return nil, err
		}
	}

	wait := opts.DatabaseWait
	if wait <= 0 {
		wait = database.DefaultWait
	}

	db := dbBase{
		base:    b,
		backend: backend,
		wait:    wait,
		levels:  slices.Clone(opts.ConcurrencyLevels),
		harness: stresstest.New(opts.Client, stresstest.Options{
			Workers: opts.Workers,
			Logger:  b.logger,
		}),
	}

	switch t {
	case SingleQuery:
		return &singleQueryVerifier{dbBase: db}, nil
	case MultiQuery:
		return &multiQueryVerifier{dbBase: db}, nil
	case CachedQuery:
		return &cachedQueryVerifier{dbBase: db}, nil
	case Fortune:
		return &fortuneVerifier{dbBase: db}, nil
	default:
		return &updateVerifier{dbBase: db}, nil
	}
}

// base carries what every verifier shares
type base struct {
	testType TestType
	client   Client
	emitter  *message.Emitter
	logger   *zap.Logger
}

func (b *base) TestType() TestType {
	return b.testType
}

func (b *base) newMessages(url string) *message.Messages {
	return message.New(url, b.emitter)
}

// startSpan opens the span wrapping one Verify call
func (b *base) startSpan(ctx context.Context, url string) (context.Context, func()) {
	ctx, span := otel.Tracer("benchverify/verifier").Start(ctx, "verify",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("test_type", string(b.testType)),
			attribute.String("url", url),
		),
	)
	return ctx, func() { span.End() }
}

// fetch requests url and records request failures as findings. ok is
// false when there is nothing to validate; err is set only for a URL that
// cannot be requested.
func (b *base) fetch(ctx context.Context, m *message.Messages, url string) (result *types.RequestResult, ok bool, err error) {
	result, err = b.client.Fetch(ctx, url)
	if err == nil {
		return result, true, nil
	}

	var urlErr *executor.URLError
	var statusErr *executor.StatusError
	switch {
	case errors.As(err, &urlErr):
		return nil, false, err
	case errors.As(err, &statusErr):
		m.SetHeaders(statusErr.Result.Headers)
		m.SetBody(statusErr.Result.Body)
		m.Error(fmt.Sprintf("Non-200 response from %s: %d", url, statusErr.Code), "Non-200 response")
	default:
		cause := err
		var transportErr *executor.TransportError
		if errors.As(err, &transportErr) {
			cause = transportErr.Err
		}
		m.Error(fmt.Sprintf("Request to %s failed: %v", url, cause), "Request Error")
	}
	return nil, false, nil
}

// dbBase carries what the database-backed verifiers share
type dbBase struct {
	base
	backend database.Backend
	wait    time.Duration
	levels  []int
	harness *stresstest.Harness
	// availability is settled by the first wait and never retried
	availability availability
}

type availability int

const (
	availabilityUnknown availability = iota
	availabilityUp
	availabilityDown
)

func (d *dbBase) maxConcurrency() int {
	return maxOf(d.levels)
}

func maxOf(levels []int) int {
	if len(levels) == 0 {
		return 0
	}
	return slices.Max(levels)
}
