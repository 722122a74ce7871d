package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/frontdesk/internal/backup"
	"github.com/dukerupert/frontdesk/internal/model"
	"github.com/dukerupert/frontdesk/internal/store"
)

const backupListLimit = 50

type BackupHandler struct {
	manager *backup.Manager
	store   *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: manager, store: bs, logger: logger}
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.store.List(backupListLimit)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	id, err := h.manager.RunNow(r.Context())
	if errors.Is(err, backup.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	record, err := h.store.GetByID(id)
	if err != nil || record == nil {
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Download streams the encrypted snapshot as stored.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup id")
		return
	}

	body, record, err := h.manager.Download(r.Context(), id)
	switch {
	case errors.Is(err, backup.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	case errors.Is(err, backup.ErrNotFound):
		writeError(w, http.StatusNotFound, "backup not found")
		return
	case err != nil:
		h.logger.Error("download backup", "id", id, "error", err)
		writeError(w, http.StatusBadGateway, "failed to download backup")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Filename))
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream backup", "id", id, "error", err)
	}
}
