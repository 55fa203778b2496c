package mock

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/studiowebux/benchverify/internal/database"
)

// WorldRows is the size of the seeded world table
const WorldRows = 10000

// Fortune is one row of the fortune table
type Fortune struct {
	ID      int32
	Message string
}

var seedFortunes = []Fortune{
	{1, "fortune: No such file or directory"},
	{2, "A computer scientist is someone who fixes things that aren't broken."},
	{3, "After enough decimal places, nobody gives a damn."},
	{4, "A bad random number generator: 1, 1, 1, 1, 1, 4.33e+67, 1, 1, 1"},
	{5, "A computer program does what you tell it to do, not what you want it to do."},
	{6, "Emacs is a nice operating system, but I prefer UNIX. — Tom Christaensen"},
	{7, "Any program that runs right is obsolete."},
	{8, "A list is only as strong as its weakest link. — Donald Knuth"},
	{9, "Feature: A bug with seniority."},
	{10, "Computers make very fast, very accurate mistakes."},
	{11, `<script>alert("This should not be displayed in a browser alert box.");</script>`},
	{12, "フレームワークのベンチマーク"},
}

type tableCounters struct {
	queries atomic.Int64
	rows    atomic.Int64
	updated atomic.Int64
}

// Store is the in-memory database behind the reference server. It keeps
// per-table statement and row counters and serves them through the
// database.Backend interface.
type Store struct {
	mu       sync.RWMutex
	world    []int32 // index id-1
	fortunes []Fortune

	counters map[string]*tableCounters
	// down makes Ping fail
	down atomic.Bool
}

var _ database.Backend = (*Store)(nil)

// NewStore seeds the world table with random numbers and the fortune
// table with the standard twelve rows.
func NewStore() *Store {
	s := &Store{
		world:    make([]int32, WorldRows),
		fortunes: append([]Fortune(nil), seedFortunes...),
		counters: map[string]*tableCounters{
			database.TableWorld:   {},
			database.TableFortune: {},
		},
	}
	for i := range s.world {
		s.world[i] = randomNumber()
	}
	return s
}

func randomNumber() int32 {
	return int32(rand.IntN(WorldRows) + 1)
}

// RandomID returns an id present in the world table
func RandomID() int32 {
	return int32(rand.IntN(WorldRows) + 1)
}

// SelectWorld reads one world row
func (s *Store) SelectWorld(id int32) int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.counters[database.TableWorld]
	c.queries.Add(1)
	c.rows.Add(1)
	return s.world[id-1]
}

// UpdateWorld writes rows in a single statement, or one statement per row
// when bulk is false.
func (s *Store) UpdateWorld(rows map[int32]int32, bulk bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters[database.TableWorld]
	if bulk {
		c.queries.Add(1)
	} else {
		c.queries.Add(int64(len(rows)))
	}
	c.updated.Add(int64(len(rows)))
	for id, n := range rows {
		s.world[id-1] = n
	}
}

// NewRandomNumber returns a random number different from current
func NewRandomNumber(current int32) int32 {
	for {
		if n := randomNumber(); n != current {
			return n
		}
	}
}

// SelectFortunes reads the whole fortune table
func (s *Store) SelectFortunes() []Fortune {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.counters[database.TableFortune]
	c.queries.Add(1)
	c.rows.Add(int64(len(s.fortunes)))
	return append([]Fortune(nil), s.fortunes...)
}

// SetDown makes the store refuse pings
func (s *Store) SetDown(down bool) {
	s.down.Store(down)
}

func (s *Store) table(name string) (*tableCounters, error) {
	c, ok := s.counters[name]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", name)
	}
	return c, nil
}

func (s *Store) Name() string {
	return "mock"
}

func (s *Store) CountAllQueries(_ context.Context, table string) (int64, error) {
	c, err := s.table(table)
	if err != nil {
		return 0, err
	}
	return c.queries.Load(), nil
}

func (s *Store) CountRowsSelected(_ context.Context, table string) (int64, error) {
	c, err := s.table(table)
	if err != nil {
		return 0, err
	}
	return c.rows.Load(), nil
}

func (s *Store) CountRowsUpdated(_ context.Context, table string) (int64, error) {
	c, err := s.table(table)
	if err != nil {
		return 0, err
	}
	return c.updated.Load(), nil
}

func (s *Store) SnapshotWorldTable(_ context.Context) (map[int32]int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[int32]int32, len(s.world))
	for i, n := range s.world {
		snapshot[int32(i+1)] = n
	}
	return snapshot, nil
}

func (s *Store) InsertFixtureFortunes(_ context.Context, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < count; i++ {
		s.fortunes = append(s.fortunes, Fortune{
			ID:      int32(database.FixtureFortuneFirstID + i),
			Message: database.FixtureFortuneMessage,
		})
	}
	sort.SliceStable(s.fortunes, func(i, j int) bool { return s.fortunes[i].ID < s.fortunes[j].ID })
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	if s.down.Load() {
		return fmt.Errorf("mock store is down")
	}
	return nil
}

func (s *Store) Margin() float64 {
	return 1
}

func (s *Store) Close() error {
	return nil
}
