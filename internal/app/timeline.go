package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

// TimelineStore is the in-memory notification timeline. Entries are kept
// newest discovery date first; entries discovered the same day keep their
// insertion order.
//
// Dedup and archiving are store-wide invariants, so a single mutex guards
// the whole store.
type TimelineStore struct {
	mu      sync.Mutex
	entries []domain.NotificationEntry
	keys    map[domain.EntryKey]struct{}
}

// MarkResult reports a watched-marking request.
type MarkResult struct {
	Updated int             `json:"updated"`
	Ignored []SelectorIssue `json:"ignored,omitempty"`
}

// NewTimelineStore builds a store from persisted entries. Duplicate keys mean
// the persisted state is corrupt and are rejected.
func NewTimelineStore(entries []domain.NotificationEntry) (*TimelineStore, error) {
	s := &TimelineStore{
		entries: make([]domain.NotificationEntry, 0, len(entries)),
		keys:    make(map[domain.EntryKey]struct{}, len(entries)),
	}
	for i, e := range entries {
		if e.DiscoveredOn.IsZero() {
			return nil, fmt.Errorf("%w: timeline entry %d has no discovery date", domain.ErrStateCorruption, i+1)
		}
		if !e.Position.Numbering.Valid() {
			return nil, fmt.Errorf("%w: timeline entry %d has numbering %q", domain.ErrStateCorruption, i+1, e.Position.Numbering)
		}
		k := e.Key()
		if _, dup := s.keys[k]; dup {
			return nil, fmt.Errorf("%w: duplicate timeline entry %s", domain.ErrStateCorruption, k)
		}
		s.keys[k] = struct{}{}
		e.DiscoveredOn = domain.DateOf(e.DiscoveredOn)
		s.entries = append(s.entries, e)
	}
	s.sortLocked()
	return s, nil
}

// Append inserts the entries whose key is not in the store yet and returns
// how many were inserted. Repeating the same call is a no-op.
func (s *TimelineStore) Append(entries []domain.NotificationEntry, today time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, e := range entries {
		if e.DiscoveredOn.IsZero() {
			e.DiscoveredOn = today
		}
		e.DiscoveredOn = domain.DateOf(e.DiscoveredOn)
		k := e.Key()
		if _, ok := s.keys[k]; ok {
			continue
		}
		s.keys[k] = struct{}{}
		s.entries = append(s.entries, e)
		inserted++
	}
	if inserted > 0 {
		s.sortLocked()
	}
	return inserted
}

// MarkWatched applies a selector to the current unwatched view. The indices
// are resolved against a view computed right now, never a cached one.
// Ignored tokens come back both in the result and as a *SelectorError.
func (s *TimelineStore) MarkWatched(selector string) (MarkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unwatched := make([]int, 0, len(s.entries))
	for i, e := range s.entries {
		if !e.Watched {
			unwatched = append(unwatched, i)
		}
	}

	sel := ParseSelector(selector, len(unwatched))
	res := MarkResult{Ignored: sel.Issues}
	for _, idx := range sel.Indices {
		s.entries[unwatched[idx]].Watched = true
		res.Updated++
	}
	if len(sel.Issues) > 0 {
		return res, &SelectorError{Issues: sel.Issues}
	}
	return res, nil
}

// Archive removes watched entries discovered more than thresholdDays before
// today. Unwatched entries are never removed. A threshold <= 0 disables
// archiving.
func (s *TimelineStore) Archive(today time.Time, thresholdDays int) int {
	if thresholdDays <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if e.Watched && domain.DaysBetween(e.DiscoveredOn, today) > thresholdDays {
			delete(s.keys, e.Key())
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed
}

// View returns up to limit entries, newest first. Watched entries are left
// out unless includeWatched is set. limit <= 0 returns everything.
func (s *TimelineStore) View(includeWatched bool, limit int) []domain.NotificationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.NotificationEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !includeWatched && e.Watched {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Entries returns a copy of every entry in display order, for persistence.
func (s *TimelineStore) Entries() []domain.NotificationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.NotificationEntry(nil), s.entries...)
}

func (s *TimelineStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *TimelineStore) UnwatchedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if !e.Watched {
			n++
		}
	}
	return n
}

func (s *TimelineStore) sortLocked() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].DiscoveredOn.After(s.entries[j].DiscoveredOn)
	})
}
