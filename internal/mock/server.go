package mock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	serverName   = "benchverify-mock"
	minQueries   = 1
	maxQueries   = 500
	maxLogs      = 1000
	extraFortune = "Additional fortune added at request time."
)

var fortunesTemplate = template.Must(template.New("fortunes").Parse(
	`<!DOCTYPE html><html><head><title>Fortunes</title></head><body><table><tr><th>id</th><th>message</th></tr>` +
		`{{range .}}<tr><td>{{.ID}}</td><td>{{.Message}}</td></tr>{{end}}` +
		`</table></body></html>`))

type world struct {
	ID           int32 `json:"id"`
	RandomNumber int32 `json:"randomNumber"`
}

// Server is a target that honours every test contract, backed by a Store
type Server struct {
	config     *Config
	store      *Store
	logger     *zap.Logger
	httpServer *http.Server
	router     chi.Router

	// cache is the world table as seen at startup, for cached queries
	cache map[int32]int32
	now   func() time.Time
	// fixedDate is served when Faults.CachedDate is set
	fixedDate string

	staticOnce     sync.Once
	staticFortunes []byte

	logs      []RequestLog
	logsMutex sync.RWMutex
}

// NewServer creates a reference server over store
func NewServer(config *Config, store *Store, logger *zap.Logger) *Server {
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.Host == "" {
		config.Host = "localhost"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, _ := store.SnapshotWorldTable(context.Background())
	s := &Server{
		config: config,
		store:  store,
		logger: logger,
		cache:  cache,
		now:    time.Now,
		logs:   make([]RequestLog, 0),
	}
	s.fixedDate = s.now().UTC().Format(http.TimeFormat)
	s.router = s.routes()
	return s
}

// SetClock replaces the source of the Date header
func (s *Server) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/json", s.handleJSON)
	r.Get("/db", s.handleSingleQuery)
	r.Get("/queries", s.handleQueries)
	r.Get("/cached-queries", s.handleCachedQueries)
	r.Get("/fortunes", s.handleFortunes)
	r.Get("/updates", s.handleUpdates)
	r.Get("/plaintext", s.handlePlaintext)
	return r
}

// Handler returns the routed handler, for use with httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server in the background
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Reference server error", zap.Error(err))
		}
	}()

	s.logger.Info("Reference server listening", zap.String("address", s.GetAddress()))
	return nil
}

// Stop stops the server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// GetAddress returns the server address
func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://%s:%d", s.config.Host, s.config.Port)
}

func (s *Server) writeHeaders(w http.ResponseWriter, contentType string) {
	h := w.Header()
	if !s.config.Faults.OmitServerHeader {
		h.Set("Server", serverName)
	}
	if s.config.Faults.CachedDate {
		h.Set("Date", s.fixedDate)
	} else {
		h.Set("Date", s.now().UTC().Format(http.TimeFormat))
	}
	h.Set("Content-Type", contentType)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeHeaders(w, "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"message": "Hello, World!"}
	if s.config.Faults.ExtraKey {
		body["framework"] = serverName
	}
	s.writeJSON(w, body)
}

func (s *Server) handlePlaintext(w http.ResponseWriter, r *http.Request) {
	s.writeHeaders(w, "text/plain")
	w.Header().Set("Content-Length", "13")
	w.Write([]byte("Hello, World!"))
}

func (s *Server) handleSingleQuery(w http.ResponseWriter, r *http.Request) {
	id := RandomID()
	s.writeJSON(w, world{ID: id, RandomNumber: s.store.SelectWorld(id)})
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	n := queriesParam(r.URL.Query().Get("queries"))
	rows := make([]world, n)
	for i := range rows {
		id := RandomID()
		rows[i] = world{ID: id, RandomNumber: s.store.SelectWorld(id)}
	}
	s.writeJSON(w, rows)
}

func (s *Server) handleCachedQueries(w http.ResponseWriter, r *http.Request) {
	n := queriesParam(r.URL.Query().Get("count"))
	rows := make([]world, n)
	for i := range rows {
		id := RandomID()
		rows[i] = world{ID: id, RandomNumber: s.cache[id]}
	}
	s.writeJSON(w, rows)
}

func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	n := queriesParam(r.URL.Query().Get("queries"))

	// distinct ids so every selected row is written once
	seen := make(map[int32]bool, n)
	rows := make([]world, 0, n)
	for len(rows) < n {
		id := RandomID()
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, world{ID: id, RandomNumber: s.store.SelectWorld(id)})
	}

	changes := make(map[int32]int32, n)
	for i := range rows {
		rows[i].RandomNumber = NewRandomNumber(rows[i].RandomNumber)
		changes[rows[i].ID] = rows[i].RandomNumber
	}
	if !s.config.Faults.SkipUpdates {
		s.store.UpdateWorld(changes, !s.config.Faults.IndividualUpdates)
	}
	s.writeJSON(w, rows)
}

func (s *Server) handleFortunes(w http.ResponseWriter, r *http.Request) {
	page, err := s.renderFortunes()
	if s.config.Faults.StaticFortunes {
		s.staticOnce.Do(func() { s.staticFortunes = page })
		page = s.staticFortunes
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeHeaders(w, "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) renderFortunes() ([]byte, error) {
	fortunes := append(s.store.SelectFortunes(), Fortune{ID: 0, Message: extraFortune})
	sort.SliceStable(fortunes, func(i, j int) bool { return fortunes[i].Message < fortunes[j].Message })

	var buf bytes.Buffer
	if err := fortunesTemplate.Execute(&buf, fortunes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// queriesParam clamps a raw queries parameter to 1..500
func queriesParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < minQueries {
		return minQueries
	}
	if n > maxQueries {
		return maxQueries
	}
	return n
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		entry := RequestLog{
			Timestamp: start,
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Route:     route,
			Status:    status,
			Duration:  time.Since(start),
		}
		s.logger.Debug("Served request",
			zap.String("route", entry.Route),
			zap.String("query", entry.Query),
			zap.Int("status", entry.Status),
			zap.Duration("duration", entry.Duration))

		if s.config.Logging {
			s.logRequest(entry)
		}
	})
}

func (s *Server) logRequest(log RequestLog) {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = append(s.logs, log)

	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}
}

// GetLogs returns a copy of the logged requests
func (s *Server) GetLogs() []RequestLog {
	s.logsMutex.RLock()
	defer s.logsMutex.RUnlock()

	logs := make([]RequestLog, len(s.logs))
	copy(logs, s.logs)
	return logs
}

// ClearLogs clears the logged requests
func (s *Server) ClearLogs() {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = make([]RequestLog, 0)
}
