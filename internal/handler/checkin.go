package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/frontdesk/internal/checkin"
	"github.com/dukerupert/frontdesk/internal/metrics"
	"github.com/dukerupert/frontdesk/internal/qr"
	"github.com/dukerupert/frontdesk/internal/websocket"
)

const maxScanImage = 10 << 20

type CheckInHandler struct {
	store     checkin.Store
	debouncer checkin.Debouncer
	hub       *websocket.Hub
	metrics   *metrics.Metrics
	now       Clock
	logger    *slog.Logger
}

func NewCheckInHandler(st checkin.Store, debouncer checkin.Debouncer, hub *websocket.Hub, m *metrics.Metrics, now Clock, logger *slog.Logger) *CheckInHandler {
	return &CheckInHandler{
		store:     st,
		debouncer: debouncer,
		hub:       hub,
		metrics:   m,
		now:       now,
		logger:    logger,
	}
}

type scanRequest struct {
	Token string `json:"token"`
}

type ignoredResponse struct {
	Ignored bool `json:"ignored"`
}

// Scan handles a token read by a kiosk camera or hand scanner.
func (h *CheckInHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	h.scan(w, r, strings.TrimSpace(req.Token))
}

// ScanImage decodes a QR code from an uploaded frame and admits it.
// An image without a readable code is admitted as an empty token.
func (h *CheckInHandler) ScanImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxScanImage)
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	token, err := qr.Decode(file)
	if err != nil {
		if !errors.Is(err, qr.ErrNoCode) {
			h.logger.Warn("decode scan image", "station", stationKey(r), "error", err)
		}
		token = ""
	}
	h.scan(w, r, strings.TrimSpace(token))
}

func (h *CheckInHandler) scan(w http.ResponseWriter, r *http.Request, token string) {
	now := h.now()
	station := stationKey(r)

	if h.debouncer != nil && token != "" {
		ok, err := h.debouncer.Allow(r.Context(), station, token, now)
		if err != nil {
			h.logger.Warn("scan debounce unavailable", "station", station, "error", err)
			ok = true
		}
		if !ok {
			h.metrics.ScanIgnored()
			writeJSON(w, http.StatusOK, ignoredResponse{Ignored: true})
			return
		}
	}

	h.admit(w, station, token)
}

// Manual admits the {id} member from the front-desk profile view. It skips
// the debouncer.
func (h *CheckInHandler) Manual(w http.ResponseWriter, r *http.Request) {
	h.admit(w, stationKey(r), r.PathValue("id"))
}

func (h *CheckInHandler) admit(w http.ResponseWriter, station, token string) {
	res := checkin.Admit(h.store, token, h.now(), h.logger)
	h.metrics.CheckIn(string(res.Outcome))

	extra := map[string]any{"message": res.Message}
	id := ""
	if res.Member != nil {
		id = res.Member.ID
		extra["name"] = res.Member.Name
		extra["total_visits"] = res.TotalVisits
	}
	broadcast(h.hub, websocket.NewMessage("checkin", string(res.Outcome), id, extra).ForStation(station))

	writeJSON(w, http.StatusOK, res)
}
