package stresstest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/studiowebux/benchverify/internal/executor"
)

type countingRequester struct {
	calls  atomic.Int64
	status int
	err    error
}

func (c *countingRequester) Status(ctx context.Context, url string) (int, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return c.status, nil
}

func TestHarnessIssuesExactCount(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name        string
		workers     int
		concurrency int
		repetitions int
	}{
		{"single worker", 1, 7, 3},
		{"more workers than requests", 16, 3, 2},
		{"many requests", 8, 512, 2},
		{"one request", 4, 1, 1},
		{"zero repetitions", 4, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requester := &countingRequester{status: http.StatusOK}
			h := New(requester, Options{Workers: tt.workers})

			result := h.Run(context.Background(), "http://target/db", tt.concurrency, tt.repetitions)

			want := int64(tt.concurrency * tt.repetitions)
			if got := requester.calls.Load(); got != want {
				t.Errorf("requests issued = %d, want %d", got, want)
			}
			if result.Total() != want {
				t.Errorf("successes+failures = %d, want %d", result.Total(), want)
			}
			if result.Failures != 0 {
				t.Errorf("failures = %d, want 0", result.Failures)
			}
			if result.Stats.CompletedRequests != int(want) {
				t.Errorf("stats completed = %d, want %d", result.Stats.CompletedRequests, want)
			}
		})
	}
}

func TestHarnessCountsFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name      string
		requester *countingRequester
	}{
		{"server error", &countingRequester{status: http.StatusInternalServerError}},
		{"redirect", &countingRequester{status: http.StatusFound}},
		{"transport error", &countingRequester{err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.requester, Options{Workers: 4})
			result := h.Run(context.Background(), "http://target/db", 10, 2)

			if result.Successes != 0 || result.Failures != 20 {
				t.Errorf("got %d successes / %d failures, want 0 / 20", result.Successes, result.Failures)
			}
		})
	}
}

func TestHarnessAgainstServer(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if n%5 == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := executor.NewClient(executor.Options{MaxConns: 16})
	defer client.CloseIdleConnections()

	h := New(client, Options{})
	result := h.Run(context.Background(), server.URL, 25, 2)

	if hits.Load() != 50 {
		t.Errorf("server hits = %d, want 50", hits.Load())
	}
	if result.Successes != 40 || result.Failures != 10 {
		t.Errorf("got %d successes / %d failures, want 40 / 10", result.Successes, result.Failures)
	}
}

func TestStatsMerge(t *testing.T) {
	a := NewStats()
	a.AddResult(10, false, false)
	a.AddResult(30, true, false)

	b := NewStats()
	b.AddResult(5, false, true)
	b.AddResult(50, false, false)

	total := NewStats()
	total.Merge(a)
	total.Merge(b)
	total.Merge(NewStats())

	if total.CompletedRequests != 4 {
		t.Errorf("CompletedRequests = %d, want 4", total.CompletedRequests)
	}
	if total.Min() != 5 || total.Max() != 50 {
		t.Errorf("min/max = %d/%d, want 5/50", total.Min(), total.Max())
	}
	if total.SuccessCount != 2 || total.TransportErrors != 1 || total.StatusErrors != 1 {
		t.Errorf("unexpected counts: %+v", total)
	}
	if total.FailureRate() != 50 {
		t.Errorf("FailureRate = %v, want 50", total.FailureRate())
	}
}
