package cache

import (
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/summary"
)

// Snapshot is a copy of the store contents that can be persisted and loaded
// into a new store.
type Snapshot struct {
	// Entries are the cached records, oldest insertion first.
	Entries []summary.Record

	// Recent is the recency list, most recent first.
	Recent []summary.Base

	// Current is the record being viewed.
	Current fn.Option[summary.Record]
}

// Snapshot copies the store contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]summary.Record, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.entries[id])
	}

	recent := make([]summary.Base, len(s.recent))
	copy(recent, s.recent)

	return Snapshot{
		Entries: entries,
		Recent:  recent,
		Current: s.current,
	}
}

// Restore replaces the store contents with snap. Entries are replayed in
// order through the normal insert path and the recency list is replayed
// oldest first, so both bounds hold even if snap was taken from a larger
// store.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]summary.Record)
	s.order = nil
	s.recent = nil
	s.current = snap.Current

	for _, rec := range snap.Entries {
		s.putLocked(rec)
	}
	for i := len(snap.Recent) - 1; i >= 0; i-- {
		s.touchLocked(snap.Recent[i])
	}

	s.log.Debug("Restored cache snapshot",
		"entries", len(s.entries),
		"recent", len(s.recent),
	)
}
