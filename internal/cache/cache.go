// Package cache keeps tool results in one flat JSON file per tool.
//
// Each file holds a single timestamp shared by every key stored in it, so
// writing any key refreshes the whole file.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chris/briefing/internal/logging"
	"github.com/rs/zerolog"
)

// DefaultTTL is how long a tool file stays fresh after its last write.
const DefaultTTL = 60 * time.Second

type entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type Store struct {
	dir string
	ttl time.Duration
	now func() time.Time
	log zerolog.Logger

	mu sync.Mutex
}

type Option func(*Store)

// WithClock replaces time.Now for freshness checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(dir string, ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{dir: dir, ttl: ttl, now: time.Now, log: logging.For("cache")}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) path(tool string) string {
	return filepath.Join(s.dir, tool+"_cache.json")
}

// Get returns the cached value for tool, or for key inside the tool file
// when key is not empty. Missing, stale and unreadable files are misses.
func (s *Store) Get(tool, key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.read(tool)
	if !ok || s.now().Sub(e.Timestamp) >= s.ttl {
		return nil, false
	}
	if key == "" {
		return e.Data, len(e.Data) > 0
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(e.Data, &m); err != nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Set stores value for tool (or for key within it) and stamps the file with
// the current time.
func (s *Store) Set(tool string, value any, key string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s cache value: %w", tool, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := json.RawMessage(raw)
	if key != "" {
		m := map[string]json.RawMessage{}
		if e, ok := s.read(tool); ok {
			if err := json.Unmarshal(e.Data, &m); err != nil || m == nil {
				m = map[string]json.RawMessage{}
			}
		}
		m[key] = raw
		if data, err = json.Marshal(m); err != nil {
			return fmt.Errorf("encoding %s cache: %w", tool, err)
		}
	}

	b, err := json.Marshal(entry{Timestamp: s.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("encoding %s cache: %w", tool, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(s.path(tool), b, 0o644); err != nil {
		return fmt.Errorf("writing %s cache: %w", tool, err)
	}
	return nil
}

func (s *Store) read(tool string) (entry, bool) {
	b, err := os.ReadFile(s.path(tool))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("tool", tool).Msg("reading cache file")
		}
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		s.log.Warn().Err(err).Str("tool", tool).Msg("corrupt cache file ignored")
		return entry{}, false
	}
	return e, true
}
