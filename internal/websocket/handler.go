package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades connections and runs them as Hub clients. The
// optional station query parameter limits check-in events to one scanner.
// originPatterns restricts browser origins; empty allows any.
func HandleWebSocket(hub *Hub, logger *slog.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := &ws.AcceptOptions{OriginPatterns: originPatterns}
		if len(originPatterns) == 0 {
			opts.InsecureSkipVerify = true
		}
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		station := r.URL.Query().Get("station")
		logger.Debug("websocket connected", "station", station, "clients", hub.ClientCount()+1)
		NewClient(hub, conn, station).Run(r.Context())
	}
}
