package verifier

import (
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/studiowebux/benchverify/internal/message"
)

func newTestMessages() *message.Messages {
	return message.New("http://tfb-server:8080/test", message.NewEmitter(io.Discard))
}

func messagesOf(records []message.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Message
	}
	return out
}

func anyContains(records []message.Record, substr string) bool {
	for _, r := range records {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}

func hasLabel(records []message.Record, label string) bool {
	for _, r := range records {
		if r.ShortMessage == label {
			return true
		}
	}
	return false
}

// shortenSettleWindow removes the Date re-check delay for one test
func shortenSettleWindow(t *testing.T) {
	t.Helper()
	previous := cacheSettleWindow
	cacheSettleWindow = 0
	t.Cleanup(func() { cacheSettleWindow = previous })
}

// tickingClock advances one second on every call
func tickingClock() func() time.Time {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(n.Add(1)) * time.Second)
	}
}
