package protocol

const (
	ActionSnapshot       = "snapshot"
	ActionSearch         = "search"
	ActionToggleFavorite = "toggle_favorite"
	ActionRemove         = "remove"
	ActionToggleTicker   = "toggle_ticker"
)

const (
	TypeAck       = "ack"
	TypeError     = "error"
	TypeWatchlist = "watchlist"
	TypeTicker    = "ticker"
)

const (
	StatusSuccess = "success"
	StatusNoop    = "noop" // entry id no longer on the watchlist
)

type WSRequest struct {
	Action  string         `json:"action"`
	Payload RequestPayload `json:"payload"`
	ID      string         `json:"id,omitempty"`
}

type RequestPayload struct {
	Term    string `json:"term,omitempty"`
	EntryID string `json:"entry_id,omitempty"`
}

type WSResponse struct {
	Type    string      `json:"type"`             // "ack", "error", "watchlist", "ticker"
	ID      string      `json:"id,omitempty"`     // Matches request ID
	Status  string      `json:"status,omitempty"` // "success", "noop"
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
