package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/frontdesk/internal/middleware"
	"github.com/dukerupert/frontdesk/internal/websocket"
)

// Clock returns the current instant in the gym's time zone.
type Clock func() time.Time

// ZoneClock reads the wall clock in loc.
func ZoneClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}

// stationKey identifies the scanner a request came from: the X-Station-ID
// header when present, else the client IP.
func stationKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Station-ID")); id != "" {
		return id
	}
	return middleware.RealIP(r)
}

func broadcast(hub *websocket.Hub, msg websocket.Message) {
	if hub != nil {
		hub.Broadcast(msg)
	}
}
