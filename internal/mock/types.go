package mock

import "time"

// Config represents the reference server configuration
type Config struct {
	Port    int    `json:"port" yaml:"port"`       // Server port (default: 8080)
	Host    string `json:"host" yaml:"host"`       // Server host (default: localhost)
	Logging bool   `json:"logging" yaml:"logging"` // Keep a log of served requests
	Faults  Faults `json:"faults,omitempty" yaml:"faults,omitempty"`
}

// Faults make the server break one contract on purpose
type Faults struct {
	CachedDate        bool `json:"cachedDate,omitempty" yaml:"cachedDate,omitempty"`               // Serve the same Date on every response
	OmitServerHeader  bool `json:"omitServerHeader,omitempty" yaml:"omitServerHeader,omitempty"`   // Drop the Server header
	StaticFortunes    bool `json:"staticFortunes,omitempty" yaml:"staticFortunes,omitempty"`       // Render the first fortune page forever
	IndividualUpdates bool `json:"individualUpdates,omitempty" yaml:"individualUpdates,omitempty"` // One update statement per row
	SkipUpdates       bool `json:"skipUpdates,omitempty" yaml:"skipUpdates,omitempty"`             // Answer /updates without writing
	ExtraKey          bool `json:"extraKey,omitempty" yaml:"extraKey,omitempty"`                   // Add a key to the hello world object
}

// RequestLog represents a served request
type RequestLog struct {
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Query     string        `json:"query,omitempty"`
	Route     string        `json:"route"`
	Status    int           `json:"status"`
	Duration  time.Duration `json:"duration"`
}
