package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukerupert/frontdesk/internal/backup"
	"github.com/dukerupert/frontdesk/internal/checkin"
	"github.com/dukerupert/frontdesk/internal/email"
	"github.com/dukerupert/frontdesk/internal/handler"
	"github.com/dukerupert/frontdesk/internal/metrics"
	"github.com/dukerupert/frontdesk/internal/middleware"
	"github.com/dukerupert/frontdesk/internal/photo"
	"github.com/dukerupert/frontdesk/internal/store"
	ws "github.com/dukerupert/frontdesk/internal/websocket"
)

// Config carries the optional collaborators and tunables of a Server. Zero
// values fall back to in-process defaults.
type Config struct {
	Clock          handler.Clock
	Debouncer      checkin.Debouncer
	Mailer         *email.Client
	Photos         *photo.Store
	Backup         backup.Config
	AllowedOrigins []string
	ScanRate       float64
	ScanBurst      int
	Registry       *prometheus.Registry
}

type Server struct {
	hub           *ws.Hub
	memberH       *handler.MemberHandler
	checkInH      *handler.CheckInHandler
	analyticsH    *handler.AnalyticsHandler
	backupH       *handler.BackupHandler
	backupManager *backup.Manager
	rateLimiter   *middleware.RateLimiter
	registry      *prometheus.Registry
	metrics       *metrics.Metrics
	origins       []string
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	if cfg.Clock == nil {
		cfg.Clock = handler.ZoneClock(time.Local)
	}
	if cfg.Debouncer == nil {
		cfg.Debouncer = checkin.NewMemoryDebouncer(checkin.DefaultDebounceWindow)
	}
	if cfg.ScanRate <= 0 {
		cfg.ScanRate = 5
	}
	if cfg.ScanBurst <= 0 {
		cfg.ScanBurst = 10
	}
	if cfg.Registry == nil {
		cfg.Registry = metrics.NewRegistry()
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	m := metrics.New(cfg.Registry)

	memberStore := store.NewMemberStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	renewalStore := store.NewRenewalStore(db)
	backupStore := store.NewBackupStore(db)

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, logger.With("component", "backup"), func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	})

	return &Server{
		hub:           hub,
		memberH:       handler.NewMemberHandler(memberStore, attendanceStore, renewalStore, cfg.Mailer, cfg.Photos, hub, m, cfg.Clock, logger.With("component", "member")),
		checkInH:      handler.NewCheckInHandler(store.NewCheckInStore(memberStore, attendanceStore), cfg.Debouncer, hub, m, cfg.Clock, logger.With("component", "checkin")),
		analyticsH:    handler.NewAnalyticsHandler(memberStore, attendanceStore, renewalStore, cfg.Clock, logger.With("component", "analytics")),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		backupManager: backupMgr,
		rateLimiter:   middleware.NewRateLimiter(cfg.ScanRate, cfg.ScanBurst),
		registry:      cfg.Registry,
		metrics:       m,
		origins:       cfg.AllowedOrigins,
		logger:        logger,
	}
}

// RateLimiter returns the scan rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", metrics.Handler(s.registry))
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.origins))

	// Members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("POST /api/members/{id}/renew", s.memberH.Renew)
	mux.HandleFunc("POST /api/members/{id}/suspend", s.memberH.Suspend)
	mux.HandleFunc("POST /api/members/{id}/activate", s.memberH.Activate)
	mux.HandleFunc("POST /api/members/{id}/checkin", s.checkInH.Manual)
	mux.HandleFunc("GET /api/members/{id}/qr.png", s.memberH.QR)
	mux.HandleFunc("POST /api/members/{id}/card", s.memberH.SendCard)
	mux.HandleFunc("POST /api/members/{id}/photo", s.memberH.UploadPhoto)
	mux.HandleFunc("GET /api/members/{id}/photo", s.memberH.Photo)

	// Kiosk scanning
	limit := middleware.RateLimit(s.rateLimiter, middleware.RealIP)
	mux.Handle("POST /api/scan", limit(http.HandlerFunc(s.checkInH.Scan)))
	mux.Handle("POST /api/scan/image", limit(http.HandlerFunc(s.checkInH.ScanImage)))

	// Reports
	mux.HandleFunc("GET /api/dashboard", s.analyticsH.Dashboard)
	mux.HandleFunc("GET /api/analytics/revenue", s.analyticsH.Revenue)
	mux.HandleFunc("GET /api/analytics/membership", s.analyticsH.Membership)
	mux.HandleFunc("GET /api/analytics/attendance", s.analyticsH.Attendance)
	mux.HandleFunc("GET /api/analytics/history", s.analyticsH.History)
	mux.HandleFunc("GET /api/analytics/members/{id}", s.analyticsH.Member)
	mux.HandleFunc("GET /api/attendance", s.analyticsH.AttendanceLog)
	mux.HandleFunc("GET /api/renewals", s.analyticsH.RenewalLog)
	mux.HandleFunc("GET /api/export/attendance.csv", s.analyticsH.ExportAttendance)
	mux.HandleFunc("GET /api/export/history.csv", s.analyticsH.ExportHistory)
	mux.HandleFunc("GET /api/export/renewals.csv", s.analyticsH.ExportRenewals)

	// Backups
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.backupH.Run)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("GET /api/backups/{id}/download", s.backupH.Download)

	logged := middleware.RequestLogger(s.logger.With("component", "http"))
	return logged(middleware.Metrics(s.metrics)(mux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
