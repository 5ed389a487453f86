package hub

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/events"
	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/protocol"
	"github.com/shubham-shewale/stock-dashboard/pkg/models"
	"github.com/shubham-shewale/stock-dashboard/pkg/ticker"
)

type ClientInterface interface {
	ID() string
	SendJSON(v interface{})
	Close()
}

type Options struct {
	Seed      models.Seed
	Ticker    ticker.Options
	Scheduler ticker.Scheduler
	Sink      events.Sink
}

// Hub gives every connected client its own dashboard session and routes commands to it.
type Hub struct {
	sessions map[ClientInterface]*session

	opts   Options
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

func NewHub(opts Options, logger *zap.Logger) *Hub {
	if opts.Scheduler == nil {
		opts.Scheduler = ticker.RealScheduler{}
	}
	if opts.Sink == nil {
		opts.Sink = events.NopSink{}
	}
	return &Hub{
		sessions: make(map[ClientInterface]*session),
		opts:     opts,
		logger:   logger,
	}
}

// Register opens a session for client and pushes the initial watchlist and ticker views.
func (h *Hub) Register(client ClientInterface) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return fmt.Errorf("hub is closed")
	}
	if _, ok := h.sessions[client]; ok {
		h.mu.Unlock()
		return nil
	}

	s, err := newSession(uuid.NewString(), client, h.opts, h.logger)
	if err != nil {
		h.mu.Unlock()
		return fmt.Errorf("open session: %w", err)
	}
	h.sessions[client] = s
	h.mu.Unlock()

	h.logger.Info("Session opened", zap.String("session_id", s.id), zap.String("client", client.ID()))
	h.opts.Sink.Publish(events.Event{SessionID: s.id, Kind: events.KindSessionOpened})

	s.pushAll()
	return nil
}

func (h *Hub) HandleCommand(client ClientInterface, req protocol.WSRequest) {
	h.mu.RLock()
	s, ok := h.sessions[client]
	h.mu.RUnlock()

	if !ok {
		h.sendError(client, req.ID, "No active session")
		return
	}

	switch req.Action {
	case protocol.ActionSnapshot:
		s.pushAll()
		h.sendAck(client, req.ID, protocol.StatusSuccess, "Snapshot sent")
	case protocol.ActionSearch:
		h.handleSearch(s, req)
	case protocol.ActionToggleFavorite:
		h.handleToggleFavorite(s, req)
	case protocol.ActionRemove:
		h.handleRemove(s, req)
	case protocol.ActionToggleTicker:
		h.handleToggleTicker(s, req)
	default:
		h.sendError(client, req.ID, "Unknown action: "+req.Action)
	}
}

func (h *Hub) handleSearch(s *session, req protocol.WSRequest) {
	term := req.Payload.Term
	s.watchlist.SetSearchTerm(term)

	h.opts.Sink.Publish(events.Event{SessionID: s.id, Kind: events.KindSearchChanged, Term: &term})
	h.sendAck(s.client, req.ID, protocol.StatusSuccess, fmt.Sprintf("Search term set to %q", term))
}

func (h *Hub) handleToggleFavorite(s *session, req protocol.WSRequest) {
	id := req.Payload.EntryID
	if id == "" {
		h.sendError(s.client, req.ID, "entry_id is required")
		return
	}

	// Stale ids from the UI are expected after a remove; ack them as no-ops
	if !s.watchlist.ToggleFavorite(id) {
		h.sendAck(s.client, req.ID, protocol.StatusNoop, "Entry not on watchlist: "+id)
		return
	}

	h.opts.Sink.Publish(events.Event{SessionID: s.id, Kind: events.KindFavoriteToggled, EntryID: id})
	h.sendAck(s.client, req.ID, protocol.StatusSuccess, "Toggled favorite "+id)
}

func (h *Hub) handleRemove(s *session, req protocol.WSRequest) {
	id := req.Payload.EntryID
	if id == "" {
		h.sendError(s.client, req.ID, "entry_id is required")
		return
	}

	if !s.watchlist.Remove(id) {
		h.sendAck(s.client, req.ID, protocol.StatusNoop, "Entry not on watchlist: "+id)
		return
	}

	h.opts.Sink.Publish(events.Event{SessionID: s.id, Kind: events.KindEntryRemoved, EntryID: id})
	h.sendAck(s.client, req.ID, protocol.StatusSuccess, "Removed "+id)
}

func (h *Hub) handleToggleTicker(s *session, req protocol.WSRequest) {
	running := s.ticker.Toggle()

	h.opts.Sink.Publish(events.Event{SessionID: s.id, Kind: events.KindTickerToggled, Running: &running})
	msg := "Ticker paused"
	if running {
		msg = "Ticker running"
	}
	h.sendAck(s.client, req.ID, protocol.StatusSuccess, msg)
}

// Unregister tears down the client's session and closes the client.
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	s, ok := h.sessions[client]
	delete(h.sessions, client)
	h.mu.Unlock()

	if ok {
		h.closeSession(s)
	}
	client.Close()
}

// Close tears down every session. Later Register calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	sessions := h.sessions
	h.sessions = make(map[ClientInterface]*session)
	h.mu.Unlock()

	for client, s := range sessions {
		h.closeSession(s)
		client.Close()
	}
}

// Sessions is the number of open sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) closeSession(s *session) {
	s.close()
	h.opts.Sink.Publish(events.Event{SessionID: s.id, Kind: events.KindSessionClosed})
	h.logger.Info("Session closed", zap.String("session_id", s.id))
}

func (h *Hub) sendAck(c ClientInterface, id, status, msg string) {
	c.SendJSON(protocol.WSResponse{Type: protocol.TypeAck, ID: id, Status: status, Message: msg})
}

func (h *Hub) sendError(c ClientInterface, id, msg string) {
	c.SendJSON(protocol.WSResponse{Type: protocol.TypeError, ID: id, Message: msg})
}
