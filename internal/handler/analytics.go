package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/frontdesk/internal/analytics"
	"github.com/dukerupert/frontdesk/internal/export"
	"github.com/dukerupert/frontdesk/internal/model"
	"github.com/dukerupert/frontdesk/internal/store"
)

type AnalyticsHandler struct {
	members    *store.MemberStore
	attendance *store.AttendanceStore
	renewals   *store.RenewalStore
	now        Clock
	logger     *slog.Logger
}

func NewAnalyticsHandler(ms *store.MemberStore, as *store.AttendanceStore, rs *store.RenewalStore, now Clock, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		members:    ms,
		attendance: as,
		renewals:   rs,
		now:        now,
		logger:     logger,
	}
}

// dataset is everything the reports read. Fields stay nil unless requested.
type dataset struct {
	members    []model.Member
	attendance []model.Attendance
	renewals   []model.Renewal
}

const (
	loadMembers = 1 << iota
	loadAttendance
	loadRenewals
)

func (h *AnalyticsHandler) load(w http.ResponseWriter, what int) (*dataset, bool) {
	var d dataset
	var err error
	if what&loadMembers != 0 {
		if d.members, err = h.members.List(); err != nil {
			return h.loadFailed(w, "members", err)
		}
	}
	if what&loadAttendance != 0 {
		if d.attendance, err = h.attendance.List(store.AttendanceFilter{}); err != nil {
			return h.loadFailed(w, "attendance", err)
		}
	}
	if what&loadRenewals != 0 {
		if d.renewals, err = h.renewals.List(""); err != nil {
			return h.loadFailed(w, "renewals", err)
		}
	}
	return &d, true
}

func (h *AnalyticsHandler) loadFailed(w http.ResponseWriter, what string, err error) (*dataset, bool) {
	h.logger.Error("load analytics data", "data", what, "error", err)
	writeError(w, http.StatusInternalServerError, "failed to load "+what)
	return nil, false
}

func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, loadMembers|loadAttendance)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.BuildDashboard(d.members, d.attendance, h.now()))
}

func (h *AnalyticsHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, loadMembers|loadRenewals)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.BuildRevenue(d.members, d.renewals, h.now().Location()))
}

func (h *AnalyticsHandler) Membership(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, loadMembers|loadRenewals)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.BuildRetention(d.members, d.renewals, h.now()))
}

func (h *AnalyticsHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	d, ok := h.load(w, loadAttendance)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.BuildAttendance(d.attendance, h.now().Location()))
}

func (h *AnalyticsHandler) history(w http.ResponseWriter, r *http.Request) ([]analytics.HistoryRow, bool) {
	d, ok := h.load(w, loadMembers|loadAttendance|loadRenewals)
	if !ok {
		return nil, false
	}
	return analytics.BuildHistory(d.members, d.attendance, d.renewals, r.URL.Query().Get("search"), h.now()), true
}

func (h *AnalyticsHandler) History(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.history(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *AnalyticsHandler) Member(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, err := h.members.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	attendance, err := h.attendance.List(store.AttendanceFilter{MemberID: id})
	if err != nil {
		h.loadFailed(w, "attendance", err)
		return
	}
	renewals, err := h.renewals.ListByMember(id)
	if err != nil {
		h.loadFailed(w, "renewals", err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.BuildDrilldown(*m, attendance, renewals, h.now()))
}

// attendanceFilter reads ?date=YYYY-MM-DD and ?search= from the query.
func attendanceFilter(r *http.Request) (store.AttendanceFilter, error) {
	q := r.URL.Query()
	f := store.AttendanceFilter{Search: q.Get("search")}
	if raw := q.Get("date"); raw != "" {
		d, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			return f, fmt.Errorf("invalid date %q", raw)
		}
		f.Date = &d
	}
	return f, nil
}

func (h *AnalyticsHandler) attendanceLog(w http.ResponseWriter, r *http.Request) ([]model.Attendance, bool) {
	f, err := attendanceFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	rows, err := h.attendance.List(f)
	if err != nil {
		h.loadFailed(w, "attendance", err)
		return nil, false
	}
	if rows == nil {
		rows = []model.Attendance{}
	}
	return rows, true
}

func (h *AnalyticsHandler) AttendanceLog(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.attendanceLog(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *AnalyticsHandler) renewalLog(w http.ResponseWriter, r *http.Request) ([]model.Renewal, bool) {
	rows, err := h.renewals.List(r.URL.Query().Get("search"))
	if err != nil {
		h.loadFailed(w, "renewals", err)
		return nil, false
	}
	if rows == nil {
		rows = []model.Renewal{}
	}
	return rows, true
}

func (h *AnalyticsHandler) RenewalLog(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.renewalLog(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *AnalyticsHandler) ExportAttendance(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.attendanceLog(w, r)
	if !ok {
		return
	}
	h.writeCSV(w, "attendance_log.csv", func(buf *bytes.Buffer) error {
		return export.Attendance(buf, rows, h.now().Location())
	})
}

func (h *AnalyticsHandler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.history(w, r)
	if !ok {
		return
	}
	h.writeCSV(w, "member_history.csv", func(buf *bytes.Buffer) error {
		return export.History(buf, rows)
	})
}

func (h *AnalyticsHandler) ExportRenewals(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.renewalLog(w, r)
	if !ok {
		return
	}
	h.writeCSV(w, "renewal_log.csv", func(buf *bytes.Buffer) error {
		return export.Renewals(buf, rows, h.now().Location())
	})
}

// writeCSV renders into a buffer first so a failure can still answer 500.
func (h *AnalyticsHandler) writeCSV(w http.ResponseWriter, filename string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.logger.Error("render csv", "file", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}
