package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gobwas/ws"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/hub"
	"github.com/shubham-shewale/stock-dashboard/pkg/models"
)

// NewRouter mounts the websocket endpoint and the read-only HTTP routes.
func NewRouter(h *hub.Hub, seed models.Seed, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(req, w)
		if err != nil {
			logger.Warn("Websocket upgrade failed", zap.Error(err))
			return
		}

		client := NewClient(conn, h, logger)
		client.Start()
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"sessions": h.Sessions(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/seed", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, seed)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
