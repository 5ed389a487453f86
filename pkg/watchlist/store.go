// Package watchlist holds the mutable list of tracked instruments behind the watchlist panel:
// a live search filter and a favorites/others partition derived on every read.
package watchlist

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shubham-shewale/stock-dashboard/pkg/models"
)

// Snapshot is a read-only view of the store after a committed mutation.
type Snapshot struct {
	SearchTerm string                  `json:"search_term"`
	Total      int                     `json:"total"`
	Favorites  []models.WatchlistEntry `json:"favorites"`
	Others     []models.WatchlistEntry `json:"others"`
}

// Listener is notified with a fresh snapshot after every state change.
type Listener func(Snapshot)

type Store struct {
	mu         sync.RWMutex
	entries    []models.WatchlistEntry // insertion order is canonical
	searchTerm string

	// notifyMu serializes delivery so listeners see snapshots in commit order
	notifyMu   sync.Mutex
	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextID     int
}

// NewStore seeds a store with a copy of entries. Ids must be unique.
func NewStore(seed []models.WatchlistEntry) (*Store, error) {
	seen := make(map[string]bool, len(seed))
	entries := make([]models.WatchlistEntry, 0, len(seed))
	for _, e := range seed {
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true
		entries = append(entries, e.Clone())
	}

	return &Store{
		entries:   entries,
		listeners: make(map[int]Listener),
	}, nil
}

// SetSearchTerm replaces the filter term verbatim.
func (s *Store) SetSearchTerm(term string) {
	s.mu.Lock()
	changed := s.searchTerm != term
	s.searchTerm = term
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Store) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchTerm
}

// ToggleFavorite flips the favorite flag of the entry with the given id.
// Unknown ids are ignored; the return value reports whether an entry matched.
func (s *Store) ToggleFavorite(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i >= 0 {
		s.entries[i].IsFavorite = !s.entries[i].IsFavorite
	}
	s.mu.Unlock()

	if i < 0 {
		return false
	}
	s.notify()
	return true
}

// Remove deletes the entry with the given id for good. Unknown ids are ignored.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i >= 0 {
		s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	}
	s.mu.Unlock()

	if i < 0 {
		return false
	}
	s.notify()
	return true
}

// Len is the number of entries regardless of the search term.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Filtered returns the entries whose symbol or name contains the search term, ignoring case.
func (s *Store) Filtered() []models.WatchlistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filtered()
}

func (s *Store) Favorites() []models.WatchlistEntry {
	favs, _ := s.partition()
	return favs
}

func (s *Store) Others() []models.WatchlistEntry {
	_, others := s.partition()
	return others
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	favs, others := split(s.filtered())
	return Snapshot{
		SearchTerm: s.searchTerm,
		Total:      len(s.entries),
		Favorites:  favs,
		Others:     others,
	}
}

// Notify re-sends the current snapshot to every listener.
func (s *Store) Notify() {
	s.notify()
}

// Subscribe registers l for change notifications and returns a func that removes it.
// Listeners run one at a time and must not call back into mutating methods.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.listenerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenerMu.Lock()
			delete(s.listeners, id)
			s.listenerMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.listenerMu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.listenerMu.Unlock()
	if len(ls) == 0 {
		return
	}

	snap := s.Snapshot()
	for _, l := range ls {
		l(snap)
	}
}

func (s *Store) partition() (favs, others []models.WatchlistEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return split(s.filtered())
}

// filtered requires s.mu to be held.
func (s *Store) filtered() []models.WatchlistEntry {
	term := strings.ToLower(s.searchTerm)
	out := make([]models.WatchlistEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if matches(e, term) {
			out = append(out, e.Clone())
		}
	}
	return out
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func matches(e models.WatchlistEntry, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(e.Symbol), lowerTerm) ||
		strings.Contains(strings.ToLower(e.Name), lowerTerm)
}

// split is a stable partition by IsFavorite.
func split(entries []models.WatchlistEntry) (favs, others []models.WatchlistEntry) {
	favs = make([]models.WatchlistEntry, 0, len(entries))
	others = make([]models.WatchlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsFavorite {
			favs = append(favs, e)
		} else {
			others = append(others, e)
		}
	}
	return favs, others
}
