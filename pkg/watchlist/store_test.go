package watchlist_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shubham-shewale/stock-dashboard/pkg/models"
	"github.com/shubham-shewale/stock-dashboard/pkg/watchlist"
)

func newStore(t *testing.T) *watchlist.Store {
	t.Helper()
	s, err := watchlist.NewStore(models.DefaultWatchlist())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func symbols(entries []models.WatchlistEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Symbol
	}
	return out
}

func assertSymbols(t *testing.T, got []models.WatchlistEntry, want ...string) {
	t.Helper()
	g := symbols(got)
	if len(g) != len(want) {
		t.Fatalf("Expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, g)
		}
	}
}

func TestStore_NewStore_DuplicateID(t *testing.T) {
	seed := models.DefaultWatchlist()
	seed[2].ID = seed[0].ID

	_, err := watchlist.NewStore(seed)
	if !errors.Is(err, models.ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}
}

func TestStore_NewStore_CopiesSeed(t *testing.T) {
	seed := models.DefaultWatchlist()
	s, _ := watchlist.NewStore(seed)

	seed[0].Symbol = "MUTATED"
	*seed[0].High52Week = decimal.Zero

	got := s.Filtered()[0]
	if got.Symbol != "AAPL" || got.High52Week.IsZero() {
		t.Error("Store must not alias the seed slice")
	}
}

func TestStore_Filter(t *testing.T) {
	s := newStore(t)

	s.SetSearchTerm("apple")
	assertSymbols(t, s.Filtered(), "AAPL")

	s.SetSearchTerm("AAPL")
	assertSymbols(t, s.Filtered(), "AAPL")

	s.SetSearchTerm("xyz")
	if len(s.Filtered()) != 0 {
		t.Errorf("Expected no matches for xyz, got %v", symbols(s.Filtered()))
	}

	s.SetSearchTerm("")
	assertSymbols(t, s.Filtered(), "AAPL", "TSLA", "NVDA", "AMZN", "GOOGL")
}

func TestStore_Filter_MatchesNameSubstring(t *testing.T) {
	s := newStore(t)

	// "inc." appears in Apple, Tesla, Amazon and Alphabet names
	s.SetSearchTerm("INC.")
	assertSymbols(t, s.Filtered(), "AAPL", "TSLA", "AMZN", "GOOGL")
}

func TestStore_SearchTerm_NotTrimmed(t *testing.T) {
	s := newStore(t)

	s.SetSearchTerm(" aapl")
	if s.SearchTerm() != " aapl" {
		t.Errorf("Search term should be stored verbatim, got %q", s.SearchTerm())
	}
	if len(s.Filtered()) != 0 {
		t.Error("Leading space is part of the term and should not match AAPL")
	}
}

func TestStore_Partition(t *testing.T) {
	s := newStore(t)

	assertSymbols(t, s.Favorites(), "AAPL", "NVDA", "GOOGL")
	assertSymbols(t, s.Others(), "TSLA", "AMZN")
}

func TestStore_PartitionCoversFilter(t *testing.T) {
	s := newStore(t)
	s.ToggleFavorite("4")

	for _, term := range []string{"", "a", "inc", "NV", "zzz", "."} {
		s.SetSearchTerm(term)

		filtered := s.Filtered()
		favs, others := s.Favorites(), s.Others()

		if len(favs)+len(others) != len(filtered) {
			t.Fatalf("term %q: partition sizes %d+%d != %d", term, len(favs), len(others), len(filtered))
		}

		// Merging both views by base order must reproduce the filtered list
		seen := make(map[string]bool)
		fi, oi := 0, 0
		for _, want := range filtered {
			if seen[want.ID] {
				t.Fatalf("term %q: duplicate id %s", term, want.ID)
			}
			seen[want.ID] = true
			switch {
			case fi < len(favs) && favs[fi].ID == want.ID:
				fi++
			case oi < len(others) && others[oi].ID == want.ID:
				oi++
			default:
				t.Fatalf("term %q: %s out of base order", term, want.Symbol)
			}
		}
	}
}

func TestStore_ToggleFavorite_KeepsBaseOrder(t *testing.T) {
	seed := models.DefaultWatchlist()[:3] // AAPL*, TSLA, NVDA*
	s, _ := watchlist.NewStore(seed)

	assertSymbols(t, s.Favorites(), "AAPL", "NVDA")

	if !s.ToggleFavorite("2") {
		t.Fatal("Expected TSLA to be found")
	}

	assertSymbols(t, s.Favorites(), "AAPL", "TSLA", "NVDA")
	if len(s.Others()) != 0 {
		t.Errorf("Expected no others, got %v", symbols(s.Others()))
	}
}

func TestStore_ToggleFavorite_Twice(t *testing.T) {
	s := newStore(t)

	s.ToggleFavorite("1")
	s.ToggleFavorite("1")

	if !s.Filtered()[0].IsFavorite {
		t.Error("Double toggle should restore the original flag")
	}
}

func TestStore_ToggleFavorite_OnlyChangesFlag(t *testing.T) {
	s := newStore(t)
	before := s.Filtered()[1]

	s.ToggleFavorite(before.ID)
	after := s.Filtered()[1]

	if after.IsFavorite == before.IsFavorite {
		t.Fatal("Flag did not flip")
	}
	after.IsFavorite = before.IsFavorite
	if after.Symbol != before.Symbol || !after.Price.Equal(before.Price) || after.MarketCap != before.MarketCap {
		t.Error("Toggle must not touch other attributes")
	}
}

func TestStore_UnknownID_IsNoop(t *testing.T) {
	s := newStore(t)
	calls := 0
	s.Subscribe(func(watchlist.Snapshot) { calls++ })

	if s.ToggleFavorite("missing") {
		t.Error("ToggleFavorite should report no match")
	}
	if s.Remove("missing") {
		t.Error("Remove should report no match")
	}
	if s.Len() != 5 {
		t.Errorf("Expected 5 entries, got %d", s.Len())
	}
	if calls != 0 {
		t.Errorf("No-ops must not notify, got %d notifications", calls)
	}
}

func TestStore_Remove_IsPermanent(t *testing.T) {
	s := newStore(t)

	if !s.Remove("3") {
		t.Fatal("Expected NVDA to be removed")
	}

	for _, term := range []string{"", "nv", "NVIDIA", "corp"} {
		s.SetSearchTerm(term)
		for _, view := range [][]models.WatchlistEntry{s.Filtered(), s.Favorites(), s.Others()} {
			for _, e := range view {
				if e.ID == "3" {
					t.Fatalf("term %q: removed entry reappeared", term)
				}
			}
		}
	}

	// Stale reference from the UI after removal
	if s.Remove("3") || s.ToggleFavorite("3") {
		t.Error("Operations on a removed id must be no-ops")
	}
	if s.Len() != 4 {
		t.Errorf("Expected 4 entries, got %d", s.Len())
	}
}

func TestStore_Remove_DoesNotCorruptEarlierSnapshot(t *testing.T) {
	s := newStore(t)
	before := s.Filtered()

	s.Remove("1")

	assertSymbols(t, before, "AAPL", "TSLA", "NVDA", "AMZN", "GOOGL")
}

func TestStore_Subscribe(t *testing.T) {
	s := newStore(t)

	var got []watchlist.Snapshot
	unsubscribe := s.Subscribe(func(snap watchlist.Snapshot) { got = append(got, snap) })

	s.SetSearchTerm("a")
	s.SetSearchTerm("a") // unchanged, no notification
	s.ToggleFavorite("2")
	s.Remove("1")

	if len(got) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(got))
	}

	last := got[2]
	if last.SearchTerm != "a" || last.Total != 4 {
		t.Errorf("Unexpected snapshot: term=%q total=%d", last.SearchTerm, last.Total)
	}
	assertSymbols(t, last.Favorites, "TSLA", "NVDA", "GOOGL")
	assertSymbols(t, last.Others, "AMZN")

	unsubscribe()
	s.SetSearchTerm("")
	if len(got) != 3 {
		t.Error("Unsubscribed listener should not be called")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	// Run with `go test -race ./...`
	s := newStore(t)
	s.Subscribe(func(watchlist.Snapshot) {})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.ToggleFavorite("2")
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		s.SetSearchTerm([]string{"a", "t", ""}[i%3])
		_ = s.Snapshot()
	}
	<-done
}

func TestStore_LastNotificationMatchesState(t *testing.T) {
	s := newStore(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var got []watchlist.Snapshot
	s.Subscribe(func(snap watchlist.Snapshot) {
		mu.Lock()
		got = append(got, snap)
		first := len(got) == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
	})

	toggled := make(chan struct{})
	go func() {
		s.ToggleFavorite("2")
		close(toggled)
	}()
	<-entered

	removed := make(chan struct{})
	go func() {
		s.Remove("2")
		close(removed)
	}()
	time.Sleep(20 * time.Millisecond) // remove commits while the toggle is still being delivered

	close(release)
	<-toggled
	<-removed

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(got))
	}
	last := got[len(got)-1]
	if last.Total != 4 {
		t.Errorf("Last notification is stale: total=%d", last.Total)
	}
	for _, e := range append(last.Favorites, last.Others...) {
		if e.ID == "2" {
			t.Error("Removed entry present in last notification")
		}
	}
}

func TestStore_ReadsAreDetached(t *testing.T) {
	s := newStore(t)

	entries := s.Filtered()
	*entries[0].High52Week = decimal.Zero

	fresh := s.Filtered()
	if fresh[0].High52Week.IsZero() {
		t.Error("Writing through a returned entry changed store state")
	}
}
