package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/studiowebux/benchverify/internal/message"
)

// Run is one stored verification run
type Run struct {
	ID         string           `json:"id" yaml:"id"`
	TestType   string           `json:"testType" yaml:"testType"`
	URL        string           `json:"url" yaml:"url"`
	Database   string           `json:"database,omitempty" yaml:"database,omitempty"`
	Status     string           `json:"status" yaml:"status"`
	Warnings   int              `json:"warnings" yaml:"warnings"`
	Errors     int              `json:"errors" yaml:"errors"`
	StartedAt  time.Time        `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt" yaml:"finishedAt"`
	Findings   []message.Record `json:"findings,omitempty" yaml:"findings,omitempty"`
}

// Duration returns how long the run took
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewRun captures the outcome of a verification started at startedAt
func NewRun(testType, database string, startedAt time.Time, m *message.Messages) *Run {
	return &Run{
		ID:         uuid.NewString(),
		TestType:   testType,
		URL:        m.URL(),
		Database:   database,
		Status:     m.Status(),
		Warnings:   len(m.Warnings()),
		Errors:     len(m.Errors()),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Findings:   m.Records(),
	}
}
