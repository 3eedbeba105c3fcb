package cache

import (
	"fmt"
	"testing"

	"github.com/roasbeef/booksum/internal/summary"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func record(id string) summary.Record {
	return summary.Record{
		Base:           summary.Base{ID: id, Title: "title " + id},
		OriginalText:   "original " + id,
		SummarizedText: "summary " + id,
	}
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("id%d", i+1)
	}

	return out
}

// TestPutEvictsOldestInserted fills a default store past capacity.
func TestPutEvictsOldestInserted(t *testing.T) {
	t.Parallel()

	s := NewStore(DefaultConfig(), nil)
	for _, id := range ids(51) {
		s.Put(record(id))
	}

	require.Equal(t, 50, s.Len())
	require.True(t, s.Get("id1").IsNone())
	for _, id := range ids(51)[1:] {
		require.True(t, s.Get(id).IsSome(), id)
	}
}

// TestGetDoesNotReorder checks eviction ignores reads.
func TestGetDoesNotReorder(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{Capacity: 3}, nil)
	for _, id := range ids(3) {
		s.Put(record(id))
	}

	require.True(t, s.Get("id1").IsSome())
	s.Put(record("id4"))

	require.True(t, s.Get("id1").IsNone())
	require.True(t, s.Get("id2").IsSome())
}

// TestOverwriteKeepsPosition checks an overwritten key is still evicted in
// its original insertion slot and that the new value is served.
func TestOverwriteKeepsPosition(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{Capacity: 3}, nil)
	s.Put(record("id1"))
	s.Put(record("id2"))

	updated := record("id1")
	updated.Title = "renamed"
	s.Put(updated)
	require.Equal(t, 2, s.Len())
	require.Equal(t, "renamed", s.Get("id1").UnwrapOr(summary.Record{}).Title)

	s.Put(record("id3"))
	s.Put(record("id4"))
	require.True(t, s.Get("id1").IsNone())
	require.Equal(t, 3, s.Len())
}

// TestOverwriteWhenFullEvicts checks that a put into a full store always
// evicts the oldest entry first, including when it overwrites a key.
func TestOverwriteWhenFullEvicts(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{Capacity: 3}, nil)
	for _, id := range ids(3) {
		s.Put(record(id))
	}

	s.Put(record("id2"))
	require.Equal(t, 2, s.Len())
	require.True(t, s.Get("id1").IsNone())
	require.True(t, s.Get("id2").IsSome())
	require.True(t, s.Get("id3").IsSome())
}

// TestTouchRecent covers deduplication and the length bound.
func TestTouchRecent(t *testing.T) {
	t.Parallel()

	s := NewStore(DefaultConfig(), nil)
	s.TouchRecent(summary.Base{ID: "a"})
	s.TouchRecent(summary.Base{ID: "b"})
	s.TouchRecent(summary.Base{ID: "a", Title: "again"})

	recent := s.Recent()
	require.Len(t, recent, 2)
	require.Equal(t, "a", recent[0].ID)
	require.Equal(t, "again", recent[0].Title)
	require.Equal(t, "b", recent[1].ID)

	s.Clear()
	for _, id := range ids(11) {
		s.TouchRecent(summary.Base{ID: id})
	}

	recent = s.Recent()
	require.Len(t, recent, 10)
	require.Equal(t, "id11", recent[0].ID)
	require.Equal(t, "id2", recent[9].ID)
	for _, b := range recent {
		require.NotEqual(t, "id1", b.ID)
	}

	s.RemoveRecent("id5")
	require.Len(t, s.Recent(), 9)
	for _, b := range s.Recent() {
		require.NotEqual(t, "id5", b.ID)
	}
}

// TestCurrentAndClear checks SetCurrent caches the record and Clear resets
// everything.
func TestCurrentAndClear(t *testing.T) {
	t.Parallel()

	s := NewStore(DefaultConfig(), nil)
	require.True(t, s.Current().IsNone())

	s.SetCurrent(record("id1"))
	s.TouchRecent(record("id1").Lightweight())
	require.Equal(t, "id1", s.Current().UnwrapOr(summary.Record{}).ID)
	require.True(t, s.Get("id1").IsSome())

	stats := s.Stats()
	require.Equal(t, 1, stats.Entries)
	require.Equal(t, 1, stats.Recent)
	require.True(t, stats.HasCurrent)

	s.Clear()
	require.Zero(t, s.Len())
	require.Empty(t, s.Recent())
	require.True(t, s.Current().IsNone())
}

// TestForget checks a forgotten id leaves the cache, the recency list and
// the current pointer. Making a cached record current on a full store still
// evicts the oldest entry first.
func TestForget(t *testing.T) {
	t.Parallel()

	s := NewStore(Config{Capacity: 3}, nil)
	for _, id := range []string{"a", "b", "c"} {
		s.Put(record(id))
		s.TouchRecent(record(id).Lightweight())
	}

	s.SetCurrent(record("b"))
	require.True(t, s.Get("a").IsNone())
	require.Equal(t, 2, s.Len())

	s.Forget("b")
	require.True(t, s.Get("b").IsNone())
	require.True(t, s.Get("c").IsSome())
	require.Equal(t, 1, s.Len())
	require.True(t, s.Current().IsNone())
	for _, b := range s.Recent() {
		require.NotEqual(t, "b", b.ID)
	}

	// With room freed, the next inserts evict nothing.
	s.Put(record("d"))
	s.Put(record("e"))
	require.Equal(t, 3, s.Len())
	require.True(t, s.Get("c").IsSome())

	// A full store evicts c, the oldest survivor.
	s.Put(record("f"))
	require.True(t, s.Get("c").IsNone())
	require.True(t, s.Get("d").IsSome())

	// Forgetting an unknown id is a no-op.
	s.Forget("missing")
	require.Equal(t, 3, s.Len())
}

// TestSnapshotRestore checks a snapshot survives a round trip through a
// fresh store and that a smaller store re-applies its bounds.
func TestSnapshotRestore(t *testing.T) {
	t.Parallel()

	s := NewStore(DefaultConfig(), nil)
	for _, id := range ids(5) {
		s.Put(record(id))
		s.TouchRecent(record(id).Lightweight())
	}
	s.SetCurrent(record("id3"))

	snap := s.Snapshot()
	require.Len(t, snap.Entries, 5)
	require.Equal(t, "id1", snap.Entries[0].ID)
	require.Equal(t, "id5", snap.Recent[0].ID)

	restored := NewStore(DefaultConfig(), nil)
	restored.Restore(snap)
	require.Equal(t, snap, restored.Snapshot())

	small := NewStore(Config{Capacity: 2, RecentLimit: 3}, nil)
	small.Restore(snap)
	require.Equal(t, 2, small.Len())
	require.True(t, small.Get("id5").IsSome())
	require.True(t, small.Get("id4").IsSome())

	recent := small.Recent()
	require.Len(t, recent, 3)
	require.Equal(t, "id5", recent[0].ID)
	require.Equal(t, "id3", recent[2].ID)
}

// TestStoreProperties drives random operation sequences against the store
// and checks the bounds and ordering rules after each step.
func TestStoreProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(t, "capacity")
		limit := rapid.IntRange(1, 5).Draw(t, "limit")
		s := NewStore(Config{Capacity: capacity, RecentLimit: limit}, nil)

		idGen := rapid.SampledFrom(ids(12))
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := idGen.Draw(t, "id")

			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				s.Put(record(id))
				if s.Get(id).IsNone() {
					t.Fatalf("put %s not readable", id)
				}

			case 1:
				s.TouchRecent(summary.Base{ID: id})
				if s.Recent()[0].ID != id {
					t.Fatalf("touched %s not at front", id)
				}

			case 2:
				s.RemoveRecent(id)

			case 3:
				before := s.Snapshot()
				s.Get(id)
				if len(before.Entries) != s.Len() {
					t.Fatalf("get changed size")
				}
			}

			if s.Len() > capacity {
				t.Fatalf("len %d exceeds capacity %d", s.Len(),
					capacity)
			}

			recent := s.Recent()
			if len(recent) > limit {
				t.Fatalf("recent len %d exceeds %d", len(recent),
					limit)
			}
			seen := make(map[string]bool)
			for _, b := range recent {
				if seen[b.ID] {
					t.Fatalf("duplicate %s in recent", b.ID)
				}
				seen[b.ID] = true
			}
		}
	})
}
