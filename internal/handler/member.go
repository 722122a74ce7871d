package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/dukerupert/frontdesk/internal/analytics"
	"github.com/dukerupert/frontdesk/internal/email"
	"github.com/dukerupert/frontdesk/internal/membership"
	"github.com/dukerupert/frontdesk/internal/metrics"
	"github.com/dukerupert/frontdesk/internal/model"
	"github.com/dukerupert/frontdesk/internal/photo"
	"github.com/dukerupert/frontdesk/internal/qr"
	"github.com/dukerupert/frontdesk/internal/store"
	"github.com/dukerupert/frontdesk/internal/websocket"
)

const recentCheckIns = 10

type MemberHandler struct {
	members    *store.MemberStore
	attendance *store.AttendanceStore
	renewals   *store.RenewalStore
	mailer     *email.Client
	photos     *photo.Store
	hub        *websocket.Hub
	metrics    *metrics.Metrics
	now        Clock
	logger     *slog.Logger
}

// NewMemberHandler wires member routes. mailer and photos may be nil when
// email or object storage is not configured.
func NewMemberHandler(ms *store.MemberStore, as *store.AttendanceStore, rs *store.RenewalStore, mailer *email.Client, photos *photo.Store, hub *websocket.Hub, m *metrics.Metrics, now Clock, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{
		members:    ms,
		attendance: as,
		renewals:   rs,
		mailer:     mailer,
		photos:     photos,
		hub:        hub,
		metrics:    m,
		now:        now,
		logger:     logger,
	}
}

type memberRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	PlanType string   `json:"plan_type"`
	Payment  *float64 `json:"payment"`
}

// normalizeEmail applies the contact rule: single-day members keep no
// email, everyone else needs a valid one.
func normalizeEmail(plan model.PlanType, raw string) (*string, error) {
	if plan == model.PlanSingleDay {
		return nil, nil
	}
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return nil, errors.New("email is required")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return nil, errors.New("invalid email")
	}
	return &addr, nil
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := analytics.MemberFilter{Search: q.Get("search")}
	if t := q.Get("type"); t != "" {
		p, err := membership.ParsePlan(t)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid plan type")
			return
		}
		f.Plan = p
	}
	if s := q.Get("status"); s != "" {
		st := membership.Status(s)
		if st != membership.StatusActive && st != membership.StatusExpired && st != membership.StatusSuspended {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		f.Status = st
	}

	members, err := h.members.List()
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	writeJSON(w, http.StatusOK, analytics.FilterMembers(members, f, h.now()))
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	plan, err := membership.ParsePlan(req.PlanType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plan type")
		return
	}
	if req.Payment == nil {
		writeError(w, http.StatusBadRequest, "payment is required")
		return
	}
	if *req.Payment < 0 {
		writeError(w, http.StatusBadRequest, "payment must not be negative")
		return
	}
	addr, err := normalizeEmail(plan, req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.now()
	start := membership.DateOf(now)
	end, err := membership.EndDate(start, plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid plan type")
		return
	}

	m, err := h.members.Create(model.Member{
		Name:      req.Name,
		Email:     addr,
		PlanType:  plan,
		StartDate: start,
		EndDate:   end,
		Status:    model.MemberStatusActive,
		Payment:   *req.Payment,
		CreatedAt: now,
	})
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	broadcast(h.hub, websocket.NewMessage("member", "created", m.ID, map[string]any{"name": m.Name, "plan_type": m.PlanType}))

	if m.Email != nil && h.mailer != nil && h.mailer.Configured() {
		if err := h.sendCard(m); err != nil {
			h.logger.Warn("send member card on signup", "member", m.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, m)
}

// getMember loads the {id} member, writing 404 or 500 itself when it
// returns nil.
func (h *MemberHandler) getMember(w http.ResponseWriter, r *http.Request) *model.Member {
	m, err := h.members.GetByID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get member", "id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return nil
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return nil
	}
	return m
}

type memberProfile struct {
	Member      *model.Member      `json:"member"`
	Status      membership.Status  `json:"effective_status"`
	DaysLeft    int                `json:"days_left"`
	TotalVisits int                `json:"total_visits"`
	Recent      []model.Attendance `json:"recent_check_ins"`
	Renewals    []model.Renewal    `json:"renewals"`
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	m := h.getMember(w, r)
	if m == nil {
		return
	}

	total, err := h.attendance.CountByMember(m.ID)
	if err != nil {
		h.logger.Error("count attendance", "member", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}
	recent, err := h.attendance.List(store.AttendanceFilter{MemberID: m.ID, Limit: recentCheckIns})
	if err != nil {
		h.logger.Error("list attendance", "member", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}
	renewals, err := h.renewals.ListByMember(m.ID)
	if err != nil {
		h.logger.Error("list renewals", "member", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load renewals")
		return
	}

	now := h.now()
	if recent == nil {
		recent = []model.Attendance{}
	}
	if renewals == nil {
		renewals = []model.Renewal{}
	}
	writeJSON(w, http.StatusOK, memberProfile{
		Member:      m,
		Status:      membership.EffectiveStatus(*m, now),
		DaysLeft:    membership.DaysUntil(m.EndDate, now),
		TotalVisits: total,
		Recent:      recent,
		Renewals:    renewals,
	})
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	m := h.getMember(w, r)
	if m == nil {
		return
	}
	addr, err := normalizeEmail(m.PlanType, req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.members.Update(m.ID, req.Name, addr)
	if err != nil {
		h.logger.Error("update member", "id", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	broadcast(h.hub, websocket.NewMessage("member", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

type renewRequest struct {
	Amount   *float64 `json:"amount"`
	PlanType string   `json:"plan_type"`
}

type renewResponse struct {
	Member  *model.Member  `json:"member"`
	Renewal *model.Renewal `json:"renewal"`
}

func (h *MemberHandler) Renew(w http.ResponseWriter, r *http.Request) {
	var req renewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}
	if *req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}

	m := h.getMember(w, r)
	if m == nil {
		return
	}
	plan := m.PlanType
	if req.PlanType != "" {
		p, err := membership.ParsePlan(req.PlanType)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid plan type")
			return
		}
		plan = p
	}

	updated, renewal, err := h.members.Renew(m.ID, plan, *req.Amount, h.now())
	switch {
	case errors.Is(err, model.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, "member not found")
		return
	case errors.Is(err, model.ErrInvalidPlan):
		writeError(w, http.StatusBadRequest, "invalid plan type")
		return
	case err != nil:
		h.logger.Error("renew member", "id", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to renew membership")
		return
	}

	h.metrics.Renewal(string(plan))
	broadcast(h.hub, websocket.NewMessage("member", "renewed", updated.ID, map[string]any{
		"end_date": updated.EndDate.Format(model.DateLayout),
		"amount":   renewal.Amount,
	}))
	writeJSON(w, http.StatusOK, renewResponse{Member: updated, Renewal: renewal})
}

func (h *MemberHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.MemberStatusSuspended, "suspended")
}

func (h *MemberHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.MemberStatusActive, "activated")
}

func (h *MemberHandler) setStatus(w http.ResponseWriter, r *http.Request, status model.MemberStatus, action string) {
	m, err := h.members.UpdateStatus(r.PathValue("id"), status)
	if err != nil {
		h.logger.Error("update member status", "id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	broadcast(h.hub, websocket.NewMessage("member", action, m.ID, nil))
	writeJSON(w, http.StatusOK, m)
}

// QR serves the member's code as a PNG. ?download=1 makes it an attachment.
func (h *MemberHandler) QR(w http.ResponseWriter, r *http.Request) {
	m := h.getMember(w, r)
	if m == nil {
		return
	}
	png, err := qr.Encode(m.ID)
	if err != nil {
		h.logger.Error("encode qr", "member", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", qr.Filename(m.Name)))
	}
	w.Write(png)
}

func (h *MemberHandler) sendCard(m *model.Member) error {
	png, err := qr.Encode(m.ID)
	if err != nil {
		return err
	}
	return h.mailer.SendMemberCard(*m.Email, m.Name, m.ID, png)
}

func (h *MemberHandler) SendCard(w http.ResponseWriter, r *http.Request) {
	if h.mailer == nil || !h.mailer.Configured() {
		writeError(w, http.StatusServiceUnavailable, "email is not configured")
		return
	}
	m := h.getMember(w, r)
	if m == nil {
		return
	}
	if m.Email == nil {
		writeError(w, http.StatusBadRequest, "member has no email")
		return
	}
	if err := h.sendCard(m); err != nil {
		h.logger.Error("send member card", "member", m.ID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to send member card")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *MemberHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.photos == nil {
		writeError(w, http.StatusServiceUnavailable, "photo storage is not configured")
		return
	}
	m := h.getMember(w, r)
	if m == nil {
		return
	}
	if m.PlanType == model.PlanSingleDay {
		writeError(w, http.StatusBadRequest, "single-day members do not keep a photo")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, photo.MaxSize+(1<<20))
	file, _, err := r.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, photo.ErrTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	key, err := h.photos.Put(r.Context(), m.ID, file)
	switch {
	case errors.Is(err, photo.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, photo.ErrNotAnImage):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("upload photo", "member", m.ID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to store photo")
		return
	}

	if err := h.members.SetPhoto(m.ID, key); err != nil {
		h.logger.Error("set photo", "member", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}
	if m.Photo != nil && *m.Photo != key {
		if err := h.photos.Delete(r.Context(), *m.Photo); err != nil {
			h.logger.Warn("delete previous photo", "member", m.ID, "key", *m.Photo, "error", err)
		}
	}
	m.Photo = &key

	broadcast(h.hub, websocket.NewMessage("member", "updated", m.ID, nil))
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) Photo(w http.ResponseWriter, r *http.Request) {
	if h.photos == nil {
		writeError(w, http.StatusServiceUnavailable, "photo storage is not configured")
		return
	}
	m := h.getMember(w, r)
	if m == nil {
		return
	}
	if m.Photo == nil {
		writeError(w, http.StatusNotFound, "member has no photo")
		return
	}

	body, contentType, err := h.photos.Get(r.Context(), *m.Photo)
	if err != nil {
		h.logger.Error("get photo", "member", m.ID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to load photo")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream photo", "member", m.ID, "error", err)
	}
}
