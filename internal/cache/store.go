// Package cache holds previously fetched summary records and a short list of
// recently viewed titles. Both live behind one mutex so every operation runs
// to completion without interleaving.
package cache

import (
	"log/slog"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/summary"
)

const (
	// DefaultCapacity is the number of full records kept.
	DefaultCapacity = 50

	// DefaultRecentLimit is the length of the recency list.
	DefaultRecentLimit = 10
)

// Config holds the store bounds.
type Config struct {
	// Capacity is the maximum number of cached records.
	Capacity int

	// RecentLimit is the maximum length of the recency list.
	RecentLimit int
}

// DefaultConfig returns the default bounds.
func DefaultConfig() Config {
	return Config{
		Capacity:    DefaultCapacity,
		RecentLimit: DefaultRecentLimit,
	}
}

// Store is a bounded record cache with insertion-order eviction plus a
// deduplicated recency list. Reads never change eviction order.
type Store struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	entries map[string]summary.Record

	// order lists cached ids oldest insertion first.
	order []string

	// recent is most recently touched first.
	recent []summary.Base

	current fn.Option[summary.Record]
}

// NewStore creates an empty store. Non-positive bounds fall back to the
// defaults.
func NewStore(cfg Config, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}

	return &Store{
		cfg:     cfg,
		log:     log.With("component", "cache"),
		entries: make(map[string]summary.Record),
	}
}

// Get returns the cached record for id.
func (s *Store) Get(id string) fn.Option[summary.Record] {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok {
		return fn.None[summary.Record]()
	}

	return fn.Some(rec)
}

// Put caches rec. When the store is full the oldest inserted entry is evicted
// first, even if rec overwrites an existing key. An overwritten key keeps its
// original insertion position.
func (s *Store) Put(rec summary.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putLocked(rec)
}

func (s *Store) putLocked(rec summary.Record) {
	if len(s.entries) >= s.cfg.Capacity && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)

		s.log.Debug("Evicted cached summary", "summary_id", oldest)
	}

	if _, ok := s.entries[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.entries[rec.ID] = rec
}

// TouchRecent moves base to the front of the recency list, dropping any
// earlier entry with the same id and anything past the bound.
func (s *Store) TouchRecent(base summary.Base) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchLocked(base)
}

func (s *Store) touchLocked(base summary.Base) {
	next := make([]summary.Base, 0, s.cfg.RecentLimit)
	next = append(next, base)
	for _, b := range s.recent {
		if len(next) == s.cfg.RecentLimit {
			break
		}
		if b.ID == base.ID {
			continue
		}
		next = append(next, b)
	}
	s.recent = next
}

// RemoveRecent drops id from the recency list.
func (s *Store) RemoveRecent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.recent[:0:0]
	for _, b := range s.recent {
		if b.ID != id {
			next = append(next, b)
		}
	}
	s.recent = next
}

// Forget drops every trace of id: its cached record, its recency entry and
// the current pointer if it points at id. Used after a remote delete.
func (s *Store) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; ok {
		delete(s.entries, id)
		for i, cached := range s.order {
			if cached == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}

	next := s.recent[:0:0]
	for _, b := range s.recent {
		if b.ID != id {
			next = append(next, b)
		}
	}
	s.recent = next

	s.current.WhenSome(func(rec summary.Record) {
		if rec.ID == id {
			s.current = fn.None[summary.Record]()
		}
	})
}

// Recent returns a copy of the recency list, most recent first.
func (s *Store) Recent() []summary.Base {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]summary.Base, len(s.recent))
	copy(out, s.recent)

	return out
}

// SetCurrent marks rec as the record being viewed and caches it.
func (s *Store) SetCurrent(rec summary.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = fn.Some(rec)
	s.putLocked(rec)
}

// Current returns the record being viewed, if any.
func (s *Store) Current() fn.Option[summary.Record] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// Clear empties the cache and the recency list and resets the current
// record.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]summary.Record)
	s.order = nil
	s.recent = nil
	s.current = fn.None[summary.Record]()
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Stats describes the store occupancy.
type Stats struct {
	Entries     int  `json:"entries"`
	Capacity    int  `json:"capacity"`
	Recent      int  `json:"recent"`
	RecentLimit int  `json:"recent_limit"`
	HasCurrent  bool `json:"has_current"`
}

// Stats returns the store occupancy.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Entries:     len(s.entries),
		Capacity:    s.cfg.Capacity,
		Recent:      len(s.recent),
		RecentLimit: s.cfg.RecentLimit,
		HasCurrent:  s.current.IsSome(),
	}
}
