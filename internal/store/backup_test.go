package store

import (
	"testing"
	"time"

	"github.com/dukerupert/frontdesk/internal/model"
)

func TestBackupCreate(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	b, err := bs.Create("backup-2024.db.enc", "backups/backup-2024.db.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if b.Status != model.BackupStatusPending {
		t.Errorf("status = %q, want %q", b.Status, model.BackupStatusPending)
	}
}

func TestBackupUpdateStatus(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))
	b, _ := bs.Create("test.db.enc", "backups/test.db.enc")

	if err := bs.UpdateStatus(b.ID, model.BackupStatusFailed, "upload failed"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := bs.GetByID(b.ID)
	if got.Status != model.BackupStatusFailed {
		t.Errorf("status = %q, want %q", got.Status, model.BackupStatusFailed)
	}
	if got.ErrorMessage != "upload failed" {
		t.Errorf("error = %q, want %q", got.ErrorMessage, "upload failed")
	}
}

func TestBackupCompletedAndLatest(t *testing.T) {
	bs := NewBackupStore(setupTestDB(t))

	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %+v, want nil", latest)
	}

	b, _ := bs.Create("a.db.enc", "backups/a.db.enc")
	if err := bs.UpdateCompleted(b.ID, 2048); err != nil {
		t.Fatalf("update completed: %v", err)
	}

	latest, _ = bs.LatestCompleted()
	if latest == nil || latest.ID != b.ID {
		t.Fatalf("latest = %+v, want id %d", latest, b.ID)
	}
	if latest.SizeBytes != 2048 || latest.CompletedAt == nil {
		t.Errorf("latest = %+v", latest)
	}

	list, _ := bs.List(10)
	if len(list) != 1 {
		t.Errorf("list = %d, want 1", len(list))
	}
}

func TestBackupDeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	bs := NewBackupStore(db)

	old, _ := bs.Create("old.db.enc", "backups/old.db.enc")
	bs.Create("new.db.enc", "backups/new.db.enc")
	if _, err := db.Exec("UPDATE backups SET created_at = ? WHERE id = ?", time.Now().UTC().AddDate(0, 0, -40), old.ID); err != nil {
		t.Fatalf("age backup: %v", err)
	}

	keys, err := bs.DeleteOlderThan(time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("delete older: %v", err)
	}
	if len(keys) != 1 || keys[0] != "backups/old.db.enc" {
		t.Errorf("keys = %v, want [backups/old.db.enc]", keys)
	}
	list, _ := bs.List(10)
	if len(list) != 1 || list[0].Filename != "new.db.enc" {
		t.Errorf("remaining = %+v", list)
	}
}
