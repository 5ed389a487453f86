package hub

import (
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/protocol"
	"github.com/shubham-shewale/stock-dashboard/pkg/ticker"
	"github.com/shubham-shewale/stock-dashboard/pkg/watchlist"
)

// session owns one client's watchlist and ticker; nothing is shared across sessions.
type session struct {
	id        string
	client    ClientInterface
	watchlist *watchlist.Store
	ticker    *ticker.Cursor
	unsubs    []func()
}

func newSession(id string, client ClientInterface, opts Options, logger *zap.Logger) (*session, error) {
	store, err := watchlist.NewStore(opts.Seed.Watchlist)
	if err != nil {
		return nil, err
	}
	cursor := ticker.NewCursor(opts.Seed.Ticker, opts.Ticker, opts.Scheduler, logger.With(zap.String("session_id", id)))

	s := &session{
		id:        id,
		client:    client,
		watchlist: store,
		ticker:    cursor,
	}
	s.unsubs = append(s.unsubs,
		store.Subscribe(s.pushWatchlist),
		cursor.Subscribe(s.pushTicker),
	)
	return s, nil
}

// pushAll re-sends both views through the listeners so they stay ordered with live pushes.
func (s *session) pushAll() {
	s.watchlist.Notify()
	s.ticker.Notify()
}

func (s *session) pushWatchlist(snap watchlist.Snapshot) {
	s.client.SendJSON(protocol.WSResponse{Type: protocol.TypeWatchlist, Data: snap})
}

func (s *session) pushTicker(snap ticker.Snapshot) {
	s.client.SendJSON(protocol.WSResponse{Type: protocol.TypeTicker, Data: snap})
}

func (s *session) close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.ticker.Close()
}
