// Package backup takes encrypted snapshots of the SQLite database and keeps
// them in S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/frontdesk/internal/model"
	"github.com/dukerupert/frontdesk/internal/objectstore"
	"github.com/dukerupert/frontdesk/internal/store"
)

const (
	keyPrefix            = "backups/"
	defaultRetentionDays = 30
)

var (
	ErrNotConfigured = errors.New("backup not configured")
	ErrNotFound      = errors.New("backup not found")
)

// Config holds backup manager configuration.
type Config struct {
	S3            objectstore.Config
	Passphrase    string
	Hour          int
	RetentionDays int
	Location      *time.Location
}

// Enabled reports whether both storage and a passphrase are configured.
func (c Config) Enabled() bool {
	return c.S3.Enabled() && c.Passphrase != ""
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Manager manages encrypted backups to S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	runMu    sync.Mutex
	cfg      Config
	status   Status
	callback StatusCallback
	lastRun  time.Time

	db          *sql.DB
	backupStore *store.BackupStore
	client      objectstore.Client
	logger      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a backup manager. It starts disabled unless cfg is
// Enabled.
func NewManager(cfg Config, db *sql.DB, bs *store.BackupStore, logger *slog.Logger, callback StatusCallback) *Manager {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = defaultRetentionDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		cfg:         cfg,
		db:          db,
		backupStore: bs,
		callback:    callback,
		logger:      logger,
		status:      Status{State: StateDisabled},
	}
	if cfg.Enabled() {
		m.client = objectstore.NewClient(cfg.S3)
		m.status.State = StateIdle
	}
	return m
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				m.checkSchedule(ctx, t)
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) fail(id int64, err error) {
	if id != 0 {
		if uerr := m.backupStore.UpdateStatus(id, model.BackupStatusFailed, err.Error()); uerr != nil {
			m.logger.Error("mark backup failed", "id", id, "error", uerr)
		}
	}
	m.setStatus(Status{State: StateError, Error: err.Error()})
}

// due reports whether a scheduled run should happen at now: the configured
// hour in the gym zone, at most once per calendar day.
func (m *Manager) due(now time.Time) bool {
	local := now.In(m.cfg.Location)
	if local.Hour() != m.cfg.Hour {
		return false
	}
	m.mu.RLock()
	last := m.lastRun
	m.mu.RUnlock()
	if last.IsZero() {
		return true
	}
	return last.In(m.cfg.Location).Format(model.DateLayout) != local.Format(model.DateLayout)
}

func (m *Manager) checkSchedule(ctx context.Context, now time.Time) {
	if !m.due(now) {
		return
	}
	if _, err := m.RunNow(ctx); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
	}
	if err := m.Cleanup(ctx, now); err != nil {
		m.logger.Error("backup cleanup failed", "error", err)
	}
}

// RunNow takes a snapshot, encrypts it and uploads it. It returns the backup
// record ID.
func (m *Manager) RunNow(ctx context.Context) (int64, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	passphrase := m.cfg.Passphrase
	m.mu.RUnlock()

	if client == nil {
		return 0, ErrNotConfigured
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()

	m.setStatus(Status{State: StateRunning, InProgress: true})

	started := time.Now().UTC()
	filename := fmt.Sprintf("backup-%s.db.enc", started.Format("2006-01-02T150405Z"))
	s3Key := keyPrefix + filename

	record, err := m.backupStore.Create(filename, s3Key)
	if err != nil {
		m.fail(0, err)
		return 0, fmt.Errorf("create backup record: %w", err)
	}
	if err := m.backupStore.UpdateStatus(record.ID, model.BackupStatusUploading, ""); err != nil {
		m.logger.Warn("mark backup uploading", "id", record.ID, "error", err)
	}

	snapshot, err := m.snapshot(ctx, record.ID)
	if err != nil {
		m.fail(record.ID, err)
		return 0, err
	}

	enc, err := Encrypt(snapshot, passphrase)
	if err != nil {
		m.fail(record.ID, err)
		return 0, fmt.Errorf("encrypt: %w", err)
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(s3Key),
		Body:          bytes.NewReader(enc),
		ContentLength: aws.Int64(int64(len(enc))),
	})
	if err != nil {
		m.fail(record.ID, err)
		return 0, fmt.Errorf("upload to s3: %w", err)
	}

	if err := m.backupStore.UpdateCompleted(record.ID, int64(len(enc))); err != nil {
		m.logger.Warn("mark backup completed", "id", record.ID, "error", err)
	}

	now := time.Now().UTC()
	m.mu.Lock()
	m.lastRun = now
	m.mu.Unlock()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup uploaded", "key", s3Key, "bytes", len(enc))

	return record.ID, nil
}

// snapshot writes a consistent copy of the live database with VACUUM INTO
// and returns its bytes.
func (m *Manager) snapshot(ctx context.Context, id int64) ([]byte, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("frontdesk-backup-%d-%d.db", id, time.Now().UnixNano()))
	defer os.Remove(path)

	quoted := strings.ReplaceAll(path, "'", "''")
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO '"+quoted+"'"); err != nil {
		return nil, fmt.Errorf("snapshot database: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// Download streams an encrypted backup from S3.
func (m *Manager) Download(ctx context.Context, backupID int64) (io.ReadCloser, *model.Backup, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, nil, ErrNotConfigured
	}

	record, err := m.backupStore.GetByID(backupID)
	if err != nil {
		return nil, nil, fmt.Errorf("get backup: %w", err)
	}
	if record == nil || record.Status != model.BackupStatusCompleted {
		return nil, nil, ErrNotFound
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("download from s3: %w", err)
	}
	return result.Body, record, nil
}

// Cleanup deletes backups older than the retention period, measured from now.
func (m *Manager) Cleanup(ctx context.Context, now time.Time) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	retention := m.cfg.RetentionDays
	m.mu.RUnlock()

	if client == nil {
		return nil
	}

	keys, err := m.backupStore.DeleteOlderThan(now.AddDate(0, 0, -retention))
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete backup object", "key", key, "error", err)
		}
	}
	if len(keys) > 0 {
		m.logger.Info("old backups removed", "count", len(keys))
	}
	return nil
}
